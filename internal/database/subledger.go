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

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SubledgerService owns balance mutations and the ledger_entries audit trail
type SubledgerService struct {
	db *sql.DB
}

func NewSubledgerService(db *sql.DB) *SubledgerService {
	return &SubledgerService{
		db: db,
	}
}

func (s *SubledgerService) InitSchema(ctx context.Context) error {
	schema := `
	-- One row per balance mutation; SUM(amount_cents) per account equals accounts.balance_cents
	CREATE TABLE IF NOT EXISTS ledger_entries (
		id TEXT PRIMARY KEY,
		account_id INTEGER NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
		entry_type TEXT NOT NULL,
		amount_cents INTEGER NOT NULL,
		balance_before_cents INTEGER NOT NULL,
		balance_after_cents INTEGER NOT NULL,
		reference TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_ledger_entries_account ON ledger_entries(account_id);
	CREATE INDEX IF NOT EXISTS idx_ledger_entries_created_at ON ledger_entries(created_at);
	CREATE INDEX IF NOT EXISTS idx_ledger_entries_type ON ledger_entries(entry_type);
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

type entryParams struct {
	AccountId   int64
	EntryType   string
	AmountCents int64
	Reference   string
	CreatedAt   time.Time
}

// applyEntry moves an account balance by a signed amount and records the ledger
// row inside the caller's transaction. A debit that would take the balance below
// zero fails with store.ErrInsufficientBalance and changes nothing.
func (s *SubledgerService) applyEntry(ctx context.Context, tx *sql.Tx, params entryParams) (*models.LedgerEntry, error) {
	var balanceAfter int64
	err := tx.QueryRowContext(ctx, queryApplyBalanceDelta,
		params.AmountCents, params.CreatedAt, params.AccountId, params.AmountCents).Scan(&balanceAfter)
	if errors.Is(err, sql.ErrNoRows) {
		var exists int
		if err := tx.QueryRowContext(ctx, queryAccountExists, params.AccountId).Scan(&exists); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, store.ErrAccountNotFound
			}
			return nil, fmt.Errorf("failed to check account: %w", err)
		}
		return nil, store.ErrInsufficientBalance
	} else if err != nil {
		return nil, fmt.Errorf("failed to update balance: %w", err)
	}

	entry := &models.LedgerEntry{
		Id:            uuid.New().String(),
		AccountId:     params.AccountId,
		EntryType:     params.EntryType,
		Amount:        models.FromCents(params.AmountCents),
		BalanceBefore: models.FromCents(balanceAfter - params.AmountCents),
		BalanceAfter:  models.FromCents(balanceAfter),
		Reference:     params.Reference,
		CreatedAt:     params.CreatedAt,
	}

	_, err = tx.ExecContext(ctx, queryInsertLedgerEntry,
		entry.Id, params.AccountId, params.EntryType, params.AmountCents,
		balanceAfter-params.AmountCents, balanceAfter, params.Reference, params.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert ledger entry: %w", err)
	}

	return entry, nil
}

func (s *SubledgerService) GetHistory(ctx context.Context, accountId int64, limit, offset int) ([]models.LedgerEntry, error) {
	rows, err := s.db.QueryContext(ctx, queryGetLedgerHistory, accountId, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger history: %w", err)
	}
	defer rows.Close()

	var entries []models.LedgerEntry
	for rows.Next() {
		var entry models.LedgerEntry
		var amount, before, after int64
		if err := rows.Scan(&entry.Id, &entry.AccountId, &entry.EntryType, &amount, &before, &after,
			&entry.Reference, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		entry.Amount = models.FromCents(amount)
		entry.BalanceBefore = models.FromCents(before)
		entry.BalanceAfter = models.FromCents(after)
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

// ReconcileBalance verifies that the stored balance equals the sum of the ledger
func (s *SubledgerService) ReconcileBalance(ctx context.Context, accountId int64) error {
	var balanceCents int64
	if err := s.db.QueryRowContext(ctx, queryGetBalance, accountId).Scan(&balanceCents); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.ErrAccountNotFound
		}
		return fmt.Errorf("failed to get balance: %w", err)
	}

	var ledgerCents int64
	if err := s.db.QueryRowContext(ctx, queryLedgerSum, accountId).Scan(&ledgerCents); err != nil {
		return fmt.Errorf("failed to sum ledger entries: %w", err)
	}

	if balanceCents != ledgerCents {
		zap.L().Error("Balance reconciliation failed",
			zap.Int64("account_id", accountId),
			zap.String("stored_balance", models.FromCents(balanceCents).String()),
			zap.String("ledger_balance", models.FromCents(ledgerCents).String()))
		return fmt.Errorf("%w: account %d stored %s, ledger %s", store.ErrBalanceMismatch, accountId,
			models.FromCents(balanceCents).StringFixed(2), models.FromCents(ledgerCents).StringFixed(2))
	}

	return nil
}

func (s *SubledgerService) ReconcileAll(ctx context.Context) ([]models.ReconcileResult, error) {
	rows, err := s.db.QueryContext(ctx, queryReconcileAll)
	if err != nil {
		return nil, fmt.Errorf("failed to reconcile balances: %w", err)
	}
	defer rows.Close()

	var mismatches []models.ReconcileResult
	for rows.Next() {
		var accountId, balanceCents, ledgerCents int64
		if err := rows.Scan(&accountId, &balanceCents, &ledgerCents); err != nil {
			return nil, fmt.Errorf("failed to scan reconciliation row: %w", err)
		}
		mismatches = append(mismatches, models.ReconcileResult{
			AccountId:     accountId,
			StoredBalance: models.FromCents(balanceCents),
			LedgerBalance: models.FromCents(ledgerCents),
		})
	}

	return mismatches, rows.Err()
}

// Service convenience methods

func (s *Service) GetLedgerHistory(ctx context.Context, accountId int64, limit, offset int) ([]models.LedgerEntry, error) {
	return s.subledger.GetHistory(ctx, accountId, limit, offset)
}

func (s *Service) ReconcileAccount(ctx context.Context, accountId int64) error {
	return s.subledger.ReconcileBalance(ctx, accountId)
}

func (s *Service) ReconcileAll(ctx context.Context) ([]models.ReconcileResult, error) {
	return s.subledger.ReconcileAll(ctx)
}
