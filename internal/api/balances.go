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

	"stream-earn-go/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// GetBalance returns the current balance of an account
func (s *LedgerService) GetBalance(ctx context.Context, accountId int64) (decimal.Decimal, error) {
	account, err := s.db.GetAccountById(ctx, accountId)
	if err != nil {
		return decimal.Zero, err
	}
	return account.Balance, nil
}

// GetLedgerHistory returns paginated ledger entries for an account, newest first
func (s *LedgerService) GetLedgerHistory(ctx context.Context, accountId int64, limit, offset int) ([]models.LedgerEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	entries, err := s.db.GetLedgerHistory(ctx, accountId, limit, offset)
	if err != nil {
		zap.L().Error("Failed to get ledger history",
			zap.Int64("account_id", accountId),
			zap.Error(err))
		return nil, fmt.Errorf("failed to retrieve ledger history")
	}

	return entries, nil
}

func (s *LedgerService) ReconcileAccount(ctx context.Context, accountId int64) error {
	return s.db.ReconcileAccount(ctx, accountId)
}

// ReconcileAll returns every account whose stored balance disagrees with its ledger
func (s *LedgerService) ReconcileAll(ctx context.Context) ([]models.ReconcileResult, error) {
	mismatches, err := s.db.ReconcileAll(ctx)
	if err != nil {
		return nil, err
	}

	for _, m := range mismatches {
		zap.L().Error("Balance mismatch",
			zap.Int64("account_id", m.AccountId),
			zap.String("stored", m.StoredBalance.String()),
			zap.String("ledger", m.LedgerBalance.String()))
	}

	return mismatches, nil
}
