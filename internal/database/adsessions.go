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

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"stream-earn-go/internal/models"
	"stream-earn-go/internal/store"

	"github.com/shopspring/decimal"
)

// SaveAdStart records a pending ad for the account, replacing any earlier unfinished one
func (s *Service) SaveAdStart(ctx context.Context, accountId int64, nonce string, startedAt time.Time) error {
	if _, err := s.db.ExecContext(ctx, queryUpsertAdStart, accountId, nonce, startedAt, startedAt); err != nil {
		return fmt.Errorf("failed to save ad start: %w", err)
	}
	return nil
}

// GetAdSession returns the gate state of an account. An account that never
// started an ad gets an empty session.
func (s *Service) GetAdSession(ctx context.Context, accountId int64) (*models.AdSession, error) {
	var session models.AdSession
	var nonce sql.NullString
	var startedAt, expiresAt sql.NullTime

	err := s.db.QueryRowContext(ctx, queryGetAdSession, accountId).
		Scan(&session.AccountId, &nonce, &startedAt, &expiresAt, &session.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return &models.AdSession{AccountId: accountId}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ad session: %w", err)
	}

	session.AdNonce = nonce.String
	if startedAt.Valid {
		t := startedAt.Time
		session.AdStartedAt = &t
	}
	if expiresAt.Valid {
		t := expiresAt.Time
		session.UnlockExpiresAt = &t
	}
	return &session, nil
}

// CompleteAdWatch consumes the pending ad start, credits the reward, records the
// AdWatch and opens a fresh unlock window, all in one transaction.
func (s *Service) CompleteAdWatch(ctx context.Context, params store.CompleteAdParams) (*models.AdWatch, decimal.Decimal, error) {
	rewardCents, ok := models.ToCents(params.Reward)
	if !ok || rewardCents <= 0 {
		return nil, decimal.Zero, fmt.Errorf("%w: ad reward %s", store.ErrInvalidAmount, params.Reward.String())
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, decimal.Zero, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, queryConsumeAdStart,
		params.UnlockExpiresAt, params.CompletedAt, params.AccountId, params.AdNonce)
	if err != nil {
		return nil, decimal.Zero, fmt.Errorf("failed to consume ad start: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, decimal.Zero, fmt.Errorf("failed to check rows affected: %w", err)
	}
	if affected == 0 {
		return nil, decimal.Zero, store.ErrNoAdStarted
	}

	watch := &models.AdWatch{
		StreamerId: params.AccountId,
		Reward:     models.FromCents(rewardCents),
		WatchedAt:  params.CompletedAt,
	}
	if err := tx.QueryRowContext(ctx, queryInsertAdWatch, params.AccountId, rewardCents, params.CompletedAt).
		Scan(&watch.Id); err != nil {
		return nil, decimal.Zero, fmt.Errorf("failed to insert ad watch: %w", err)
	}

	entry, err := s.subledger.applyEntry(ctx, tx, entryParams{
		AccountId:   params.AccountId,
		EntryType:   models.EntryAdReward,
		AmountCents: rewardCents,
		Reference:   fmt.Sprintf("ad_watch:%d", watch.Id),
		CreatedAt:   params.CompletedAt,
	})
	if err != nil {
		return nil, decimal.Zero, fmt.Errorf("failed to credit ad reward: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, decimal.Zero, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return watch, entry.BalanceAfter, nil
}

// ClearUnlock removes the unlock window only if it has expired at now. A window
// opened by a completion that committed after the caller's read is left alone.
func (s *Service) ClearUnlock(ctx context.Context, accountId int64, now time.Time) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	expiresAt, err := unlockExpiry(ctx, tx, accountId)
	if err != nil {
		return false, err
	}
	if expiresAt == nil || now.Before(*expiresAt) {
		return false, nil
	}

	if _, err := tx.ExecContext(ctx, queryClearUnlock, now, accountId); err != nil {
		return false, fmt.Errorf("failed to clear unlock window: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return true, nil
}

// unlockExpiry reads the stored window inside tx; nil means locked
func unlockExpiry(ctx context.Context, tx *sql.Tx, accountId int64) (*time.Time, error) {
	var expiresAt sql.NullTime
	err := tx.QueryRowContext(ctx, queryGetUnlockExpiry, accountId).Scan(&expiresAt)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && !expiresAt.Valid) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read unlock window: %w", err)
	}
	return &expiresAt.Time, nil
}
