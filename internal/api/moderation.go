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

package api

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"stream-earn-go/internal/models"
	"stream-earn-go/internal/store"

	"go.uber.org/zap"
)

// Ban durations accepted by BanAccount. The zero duration is permanent.
var banDurations = map[string]time.Duration{
	"1h":        time.Hour,
	"24h":       24 * time.Hour,
	"7d":        7 * 24 * time.Hour,
	"permanent": 0,
}

// Bulk actions
const (
	BulkActivate     = "activate"
	BulkDeactivate   = "deactivate"
	BulkBan1h        = "ban_1h"
	BulkBan24h       = "ban_24h"
	BulkBan7d        = "ban_7d"
	BulkBanPermanent = "ban_permanent"
	BulkUnban        = "unban"
)

// BanAccount bans an account for one of 1h, 24h, 7d or permanent
func (s *LedgerService) BanAccount(ctx context.Context, adminId, accountId int64, duration, reason string) error {
	if _, err := s.activeAccount(ctx, adminId, models.RoleAdmin); err != nil {
		return err
	}
	if adminId == accountId {
		return store.ErrSelfAction
	}
	return s.ban(ctx, accountId, duration, reason)
}

func (s *LedgerService) ban(ctx context.Context, accountId int64, duration, reason string) error {
	length, ok := banDurations[duration]
	if !ok {
		return fmt.Errorf("%w: %q", store.ErrInvalidBanDuration, duration)
	}

	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "No reason provided"
	}

	now := s.now()
	params := store.BanParams{AccountId: accountId, Reason: reason, BannedAt: now}
	if length > 0 {
		expiresAt := now.Add(length)
		params.ExpiresAt = &expiresAt
	}
	return s.db.BanAccount(ctx, params)
}

func (s *LedgerService) UnbanAccount(ctx context.Context, adminId, accountId int64) error {
	if _, err := s.activeAccount(ctx, adminId, models.RoleAdmin); err != nil {
		return err
	}
	return s.db.UnbanAccount(ctx, accountId)
}

// SetAccountActive toggles whether an account may log in and earn
func (s *LedgerService) SetAccountActive(ctx context.Context, adminId, accountId int64, active bool) error {
	if _, err := s.activeAccount(ctx, adminId, models.RoleAdmin); err != nil {
		return err
	}
	if adminId == accountId {
		return store.ErrSelfAction
	}
	return s.db.SetAccountActive(ctx, accountId, active)
}

// BulkAction applies one action to many accounts, skipping the acting admin
// and unknown ids. It returns how many accounts were changed.
func (s *LedgerService) BulkAction(ctx context.Context, adminId int64, accountIds []int64, action string) (int, error) {
	if _, err := s.activeAccount(ctx, adminId, models.RoleAdmin); err != nil {
		return 0, err
	}
	if len(accountIds) == 0 {
		return 0, fmt.Errorf("%w: no accounts selected", store.ErrInvalidInput)
	}

	var apply func(accountId int64) error
	switch action {
	case BulkActivate, BulkDeactivate:
		active := action == BulkActivate
		apply = func(accountId int64) error { return s.db.SetAccountActive(ctx, accountId, active) }
	case BulkBan1h, BulkBan24h, BulkBan7d, BulkBanPermanent:
		duration := strings.TrimPrefix(action, "ban_")
		apply = func(accountId int64) error { return s.ban(ctx, accountId, duration, "") }
	case BulkUnban:
		apply = func(accountId int64) error { return s.db.UnbanAccount(ctx, accountId) }
	default:
		return 0, fmt.Errorf("%w: unknown action %q", store.ErrInvalidInput, action)
	}

	affected := 0
	for _, accountId := range accountIds {
		if accountId == adminId {
			continue
		}
		if err := apply(accountId); err != nil {
			if errors.Is(err, store.ErrAccountNotFound) {
				continue
			}
			return affected, err
		}
		affected++
	}

	zap.L().Info("Bulk action applied",
		append(actorFields(ctx),
			zap.Int64("admin_id", adminId),
			zap.String("action", action),
			zap.Int("requested", len(accountIds)),
			zap.Int("affected", affected))...)

	return affected, nil
}

// ClearExpiredBans lifts every temporary ban that has run out
func (s *LedgerService) ClearExpiredBans(ctx context.Context) (int64, error) {
	return s.db.ClearExpiredBans(ctx, s.now())
}
