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

	"stream-earn-go/internal/models"
	"stream-earn-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// RequestWithdrawal holds amount from the account balance and opens a pending
// withdrawal. The minimum is checked before the balance.
func (s *LedgerService) RequestWithdrawal(ctx context.Context, accountId int64, amount decimal.Decimal) (*models.Withdrawal, error) {
	if _, ok := models.ToCents(amount); !ok || amount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: %s", store.ErrInvalidAmount, amount.String())
	}
	if amount.LessThan(s.rewards.MinimumWithdrawal) {
		return nil, fmt.Errorf("%w: minimum is %s", store.ErrBelowMinimum, s.rewards.MinimumWithdrawal.StringFixed(2))
	}

	if _, err := s.activeAccount(ctx, accountId, models.RoleStreamer, models.RoleArtist); err != nil {
		return nil, err
	}

	withdrawal, err := s.db.RequestWithdrawal(ctx, store.WithdrawalRequestParams{
		AccountId:   accountId,
		Amount:      amount,
		RequestedAt: s.now(),
	})
	if err != nil {
		if errors.Is(err, store.ErrInsufficientBalance) {
			zap.L().Info("Withdrawal rejected, insufficient balance",
				zap.Int64("account_id", accountId),
				zap.String("amount", amount.String()))
		} else {
			zap.L().Error("Withdrawal request failed",
				zap.Int64("account_id", accountId),
				zap.String("amount", amount.String()),
				zap.Error(err))
		}
		return nil, err
	}

	return withdrawal, nil
}

// ProcessWithdrawal settles a pending withdrawal. Only admins may process.
func (s *LedgerService) ProcessWithdrawal(ctx context.Context, adminId, withdrawalId int64, decision, reason string) (*models.Withdrawal, error) {
	if _, err := s.activeAccount(ctx, adminId, models.RoleAdmin); err != nil {
		return nil, err
	}

	withdrawal, err := s.db.ProcessWithdrawal(ctx, store.ProcessWithdrawalParams{
		WithdrawalId: withdrawalId,
		Decision:     decision,
		Reason:       reason,
		ProcessedBy:  adminId,
		ProcessedAt:  s.now(),
	})
	if err != nil {
		zap.L().Info("Withdrawal processing refused",
			append(actorFields(ctx),
				zap.Int64("withdrawal_id", withdrawalId),
				zap.String("decision", decision),
				zap.Error(err))...)
		return nil, err
	}

	return withdrawal, nil
}

// ListWithdrawals returns an account's withdrawals, or all of them when
// accountId is 0, optionally filtered by status.
func (s *LedgerService) ListWithdrawals(ctx context.Context, accountId int64, status string) ([]models.Withdrawal, error) {
	switch status {
	case "", models.WithdrawalPending, models.WithdrawalApproved, models.WithdrawalRejected:
	default:
		return nil, fmt.Errorf("%w: unknown status %q", store.ErrInvalidInput, status)
	}
	return s.db.ListWithdrawals(ctx, accountId, status)
}
