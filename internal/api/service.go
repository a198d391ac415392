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
	"fmt"
	"slices"
	"time"

	"stream-earn-go/internal/gate"
	"stream-earn-go/internal/models"
	"stream-earn-go/internal/store"

	"go.uber.org/zap"
)

// LedgerService applies ledger events on behalf of an authenticated account.
// It owns role, ban and activity checks and the payout schedule; the store owns
// atomicity.
type LedgerService struct {
	db      store.LedgerStore
	gate    *gate.Gate
	rewards models.RewardsConfig
	auth    models.AuthConfig
	now     func() time.Time
}

func NewLedgerService(db store.LedgerStore, g *gate.Gate, rewards models.RewardsConfig, authCfg models.AuthConfig, now func() time.Time) *LedgerService {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &LedgerService{
		db:      db,
		gate:    g,
		rewards: rewards,
		auth:    authCfg,
		now:     now,
	}
}

func (s *LedgerService) HealthCheck(ctx context.Context) error {
	_, err := s.db.ListWithdrawals(ctx, 0, models.WithdrawalPending)
	if err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	return nil
}

// Rewards returns the payout schedule in effect
func (s *LedgerService) Rewards() models.RewardsConfig {
	return s.rewards
}

// Now is the ledger clock
func (s *LedgerService) Now() time.Time {
	return s.now()
}

// activeAccount loads an account that may act: active, not banned, and holding
// one of roles when any are given.
func (s *LedgerService) activeAccount(ctx context.Context, accountId int64, roles ...string) (*models.Account, error) {
	account, err := s.db.GetAccountById(ctx, accountId)
	if err != nil {
		return nil, err
	}
	if len(roles) > 0 && !slices.Contains(roles, account.Role) {
		return nil, fmt.Errorf("%w: %s", store.ErrWrongRole, account.Role)
	}
	if !account.Active {
		return nil, store.ErrAccountInactive
	}
	if account.IsBannedAt(s.now()) {
		return nil, store.ErrAccountBanned
	}
	return account, nil
}

// actorFields returns log fields for the actor attached to ctx, if any
func actorFields(ctx context.Context) []zap.Field {
	actor := models.GetActor(ctx)
	if actor == nil {
		return nil
	}
	return []zap.Field{
		zap.Int64("actor_id", actor.AccountId),
		zap.String("actor_role", actor.Role),
		zap.String("request_id", actor.RequestId),
		zap.String("source", actor.Source),
	}
}
