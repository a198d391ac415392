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
	"strings"

	"stream-earn-go/internal/models"
	"stream-earn-go/internal/store"

	"go.uber.org/zap"
)

func scanWithdrawal(row rowScanner) (*models.Withdrawal, error) {
	var withdrawal models.Withdrawal
	var amountCents int64
	var processedAt sql.NullTime
	var reason sql.NullString
	var processedBy sql.NullInt64

	err := row.Scan(&withdrawal.Id, &withdrawal.AccountId, &amountCents, &withdrawal.Status,
		&withdrawal.RequestedAt, &processedAt, &reason, &processedBy)
	if err != nil {
		return nil, err
	}

	withdrawal.Amount = models.FromCents(amountCents)
	withdrawal.RejectionReason = reason.String
	if processedAt.Valid {
		t := processedAt.Time
		withdrawal.ProcessedAt = &t
	}
	if processedBy.Valid {
		id := processedBy.Int64
		withdrawal.ProcessedBy = &id
	}
	return &withdrawal, nil
}

// RequestWithdrawal debits the amount immediately and opens a pending
// withdrawal. Holding the funds up front stops concurrent requests from
// spending the same balance twice.
func (s *Service) RequestWithdrawal(ctx context.Context, params store.WithdrawalRequestParams) (*models.Withdrawal, error) {
	amountCents, ok := models.ToCents(params.Amount)
	if !ok || amountCents <= 0 {
		return nil, fmt.Errorf("%w: %s", store.ErrInvalidAmount, params.Amount.String())
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var balanceCents int64
	if err := tx.QueryRowContext(ctx, queryGetBalance, params.AccountId).Scan(&balanceCents); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get balance: %w", err)
	}
	if amountCents > balanceCents {
		return nil, fmt.Errorf("%w: balance %s, requested %s", store.ErrInsufficientBalance,
			models.FromCents(balanceCents).StringFixed(2), models.FromCents(amountCents).StringFixed(2))
	}

	withdrawal, err := scanWithdrawal(tx.QueryRowContext(ctx, queryInsertWithdrawal,
		params.AccountId, amountCents, params.RequestedAt))
	if err != nil {
		return nil, fmt.Errorf("failed to insert withdrawal: %w", err)
	}

	if _, err := s.subledger.applyEntry(ctx, tx, entryParams{
		AccountId:   params.AccountId,
		EntryType:   models.EntryWithdrawalHold,
		AmountCents: -amountCents,
		Reference:   fmt.Sprintf("withdrawal:%d", withdrawal.Id),
		CreatedAt:   params.RequestedAt,
	}); err != nil {
		return nil, fmt.Errorf("failed to debit withdrawal: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	zap.L().Info("Withdrawal requested",
		zap.Int64("withdrawal_id", withdrawal.Id),
		zap.Int64("account_id", params.AccountId),
		zap.String("amount", withdrawal.Amount.String()))

	return withdrawal, nil
}

// ProcessWithdrawal approves or rejects a pending withdrawal. Rejection refunds
// the held amount; approval leaves the balance untouched.
func (s *Service) ProcessWithdrawal(ctx context.Context, params store.ProcessWithdrawalParams) (*models.Withdrawal, error) {
	if params.Decision != models.WithdrawalApproved && params.Decision != models.WithdrawalRejected {
		return nil, fmt.Errorf("%w: %q", store.ErrInvalidDecision, params.Decision)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	withdrawal, err := scanWithdrawal(tx.QueryRowContext(ctx, queryGetWithdrawal, params.WithdrawalId))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrWithdrawalNotFound
	} else if err != nil {
		return nil, fmt.Errorf("failed to get withdrawal: %w", err)
	}
	if withdrawal.Status != models.WithdrawalPending {
		return nil, fmt.Errorf("%w: withdrawal %d is %s", store.ErrNotPending, withdrawal.Id, withdrawal.Status)
	}

	reason := sql.NullString{}
	if params.Decision == models.WithdrawalRejected {
		text := strings.TrimSpace(params.Reason)
		if text == "" {
			text = "No reason provided"
		}
		reason = sql.NullString{String: text, Valid: true}
	}
	processedBy := sql.NullInt64{Int64: params.ProcessedBy, Valid: params.ProcessedBy > 0}

	result, err := tx.ExecContext(ctx, querySettleWithdrawal,
		params.Decision, params.ProcessedAt, reason, processedBy, params.WithdrawalId)
	if err != nil {
		return nil, fmt.Errorf("failed to settle withdrawal: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to check rows affected: %w", err)
	}
	if affected == 0 {
		return nil, store.ErrNotPending
	}

	if params.Decision == models.WithdrawalRejected {
		amountCents, _ := models.ToCents(withdrawal.Amount)
		if _, err := s.subledger.applyEntry(ctx, tx, entryParams{
			AccountId:   withdrawal.AccountId,
			EntryType:   models.EntryWithdrawalRefund,
			AmountCents: amountCents,
			Reference:   fmt.Sprintf("withdrawal:%d", withdrawal.Id),
			CreatedAt:   params.ProcessedAt,
		}); err != nil {
			return nil, fmt.Errorf("failed to refund withdrawal: %w", err)
		}
	}

	settled, err := scanWithdrawal(tx.QueryRowContext(ctx, queryGetWithdrawal, params.WithdrawalId))
	if err != nil {
		return nil, fmt.Errorf("failed to reload withdrawal: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	zap.L().Info("Withdrawal processed",
		zap.Int64("withdrawal_id", settled.Id),
		zap.Int64("account_id", settled.AccountId),
		zap.String("status", settled.Status),
		zap.String("amount", settled.Amount.String()))

	return settled, nil
}

func (s *Service) GetWithdrawal(ctx context.Context, withdrawalId int64) (*models.Withdrawal, error) {
	withdrawal, err := scanWithdrawal(s.db.QueryRowContext(ctx, queryGetWithdrawal, withdrawalId))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrWithdrawalNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get withdrawal: %w", err)
	}
	return withdrawal, nil
}

// ListWithdrawals filters by account (0 for all) and status ("" for any), newest first
func (s *Service) ListWithdrawals(ctx context.Context, accountId int64, status string) ([]models.Withdrawal, error) {
	query := `SELECT ` + withdrawalColumns + ` FROM withdrawals WHERE 1 = 1`
	var args []any
	if accountId > 0 {
		query += ` AND account_id = ?`
		args = append(args, accountId)
	}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY requested_at DESC, id DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query withdrawals: %w", err)
	}
	defer rows.Close()

	var withdrawals []models.Withdrawal
	for rows.Next() {
		withdrawal, err := scanWithdrawal(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan withdrawal: %w", err)
		}
		withdrawals = append(withdrawals, *withdrawal)
	}

	return withdrawals, rows.Err()
}
