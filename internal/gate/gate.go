/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package gate decides whether a streamer may trigger rewarded plays.
//
// A streamer starts Locked. Watching an ad for at least the minimum duration
// credits the ad reward and opens an unlock window of fixed length measured from
// the completion time. Plays do not extend the window; a new ad replaces it.
package gate

import (
	"context"
	"fmt"
	"time"

	"stream-earn-go/internal/models"
	"stream-earn-go/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Store is the durable per-account gate state
type Store interface {
	SaveAdStart(ctx context.Context, accountId int64, nonce string, startedAt time.Time) error
	GetAdSession(ctx context.Context, accountId int64) (*models.AdSession, error)
	CompleteAdWatch(ctx context.Context, params store.CompleteAdParams) (*models.AdWatch, decimal.Decimal, error)
	ClearUnlock(ctx context.Context, accountId int64, now time.Time) (bool, error)
}

// WindowCache is an optional short-lived cache of unlock expiries keyed by
// account id. Entries expire on their own ttl; the Store remains authoritative.
type WindowCache interface {
	Get(ctx context.Context, accountId int64) (time.Time, bool, error)
	Set(ctx context.Context, accountId int64, expiresAt time.Time, ttl time.Duration) error
}

type Gate struct {
	store        Store
	cache        WindowCache
	now          func() time.Time
	adReward     decimal.Decimal
	minDuration  time.Duration
	unlockWindow time.Duration
}

// NewGate builds a gate. cache and now may be nil.
func NewGate(s Store, cache WindowCache, rewards models.RewardsConfig, now func() time.Time) *Gate {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Gate{
		store:        s,
		cache:        cache,
		now:          now,
		adReward:     rewards.AdReward,
		minDuration:  rewards.AdMinDuration,
		unlockWindow: rewards.UnlockWindow,
	}
}

// StartAd records the start of an ad, overwriting any unfinished attempt
func (g *Gate) StartAd(ctx context.Context, accountId int64) (time.Time, error) {
	startedAt := g.now()
	if err := g.store.SaveAdStart(ctx, accountId, uuid.New().String(), startedAt); err != nil {
		return time.Time{}, fmt.Errorf("failed to start ad: %w", err)
	}

	zap.L().Info("Ad started", zap.Int64("account_id", accountId), zap.Time("started_at", startedAt))
	return startedAt, nil
}

// CompleteAd credits the ad reward and opens a fresh unlock window when the
// stored start is at least the minimum duration in the past.
func (g *Gate) CompleteAd(ctx context.Context, accountId int64) (*models.AdCompletion, error) {
	session, err := g.store.GetAdSession(ctx, accountId)
	if err != nil {
		return nil, err
	}
	if session.AdStartedAt == nil || session.AdNonce == "" {
		return nil, store.ErrNoAdStarted
	}

	completedAt := g.now()
	elapsed := completedAt.Sub(*session.AdStartedAt)
	if elapsed < g.minDuration {
		zap.L().Info("Ad completed too early",
			zap.Int64("account_id", accountId),
			zap.Duration("elapsed", elapsed),
			zap.Duration("required", g.minDuration))
		return nil, fmt.Errorf("%w: watched %s of %s", store.ErrPrematureCompletion,
			elapsed.Truncate(100*time.Millisecond), g.minDuration)
	}

	expiresAt := completedAt.Add(g.unlockWindow)
	watch, balance, err := g.store.CompleteAdWatch(ctx, store.CompleteAdParams{
		AccountId:       accountId,
		AdNonce:         session.AdNonce,
		Reward:          g.adReward,
		CompletedAt:     completedAt,
		UnlockExpiresAt: expiresAt,
	})
	if err != nil {
		return nil, err
	}

	g.cacheWindow(ctx, accountId, expiresAt, completedAt)

	return &models.AdCompletion{
		Watch:      watch,
		ExpiresAt:  expiresAt,
		NewBalance: balance,
	}, nil
}

// CheckStatus reports whether the window is open and the whole minutes left.
// An expired window is cleared as a side effect; the store re-checks expiry so a
// window opened concurrently survives.
func (g *Gate) CheckStatus(ctx context.Context, accountId int64) (*models.AdStatus, error) {
	session, err := g.store.GetAdSession(ctx, accountId)
	if err != nil {
		return nil, err
	}
	if session.UnlockExpiresAt == nil {
		return &models.AdStatus{}, nil
	}

	now := g.now()
	expiresAt := *session.UnlockExpiresAt
	if !now.Before(expiresAt) {
		cleared, err := g.store.ClearUnlock(ctx, accountId, now)
		if err != nil {
			zap.L().Warn("Failed to clear expired unlock window", zap.Int64("account_id", accountId), zap.Error(err))
			return &models.AdStatus{}, nil
		}
		if !cleared {
			// A new ad completed since the read.
			return g.CheckStatus(ctx, accountId)
		}
		return &models.AdStatus{}, nil
	}

	return &models.AdStatus{
		Unlocked:    true,
		MinutesLeft: int(expiresAt.Sub(now) / time.Minute),
		ExpiresAt:   &expiresAt,
	}, nil
}

// IsUnlocked reports whether the account currently holds an open window
func (g *Gate) IsUnlocked(ctx context.Context, accountId int64) (bool, error) {
	now := g.now()

	if g.cache != nil {
		expiresAt, ok, err := g.cache.Get(ctx, accountId)
		if err != nil {
			zap.L().Warn("Unlock cache lookup failed, using store", zap.Int64("account_id", accountId), zap.Error(err))
		} else if ok && now.Before(expiresAt) {
			return true, nil
		}
	}

	session, err := g.store.GetAdSession(ctx, accountId)
	if err != nil {
		return false, err
	}
	if session.UnlockExpiresAt == nil || !now.Before(*session.UnlockExpiresAt) {
		return false, nil
	}

	g.cacheWindow(ctx, accountId, *session.UnlockExpiresAt, now)
	return true, nil
}

// RequireUnlocked fails with store.ErrLocked unless a window is open
func (g *Gate) RequireUnlocked(ctx context.Context, accountId int64) error {
	unlocked, err := g.IsUnlocked(ctx, accountId)
	if err != nil {
		return err
	}
	if !unlocked {
		return store.ErrLocked
	}
	return nil
}

func (g *Gate) cacheWindow(ctx context.Context, accountId int64, expiresAt, now time.Time) {
	if g.cache == nil {
		return
	}
	ttl := expiresAt.Sub(now)
	if ttl <= 0 {
		return
	}
	if err := g.cache.Set(ctx, accountId, expiresAt, ttl); err != nil {
		zap.L().Warn("Failed to cache unlock window", zap.Int64("account_id", accountId), zap.Error(err))
	}
}
