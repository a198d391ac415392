package database

import (
	"context"
	"errors"
	"testing"

	"stream-earn-go/internal/models"
	"stream-earn-go/internal/store"

	"github.com/shopspring/decimal"
)

func TestApplyEntry_CreditAndDebit(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	account := createTestAccount(t, service, "alice", models.RoleStreamer)

	fundAccount(t, service, account.Id, "1.50")

	tx, err := service.db.BeginTx(ctx, nil)
	if err != nil {
		t.Fatalf("Failed to begin transaction: %v", err)
	}
	entry, err := service.subledger.applyEntry(ctx, tx, entryParams{
		AccountId:   account.Id,
		EntryType:   models.EntryWithdrawalHold,
		AmountCents: -50,
		CreatedAt:   testNow,
	})
	if err != nil {
		t.Fatalf("Debit failed: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	if !entry.BalanceBefore.Equal(decimal.RequireFromString("1.50")) {
		t.Errorf("Expected balance_before 1.50, got %s", entry.BalanceBefore)
	}
	if !entry.BalanceAfter.Equal(decimal.RequireFromString("1.00")) {
		t.Errorf("Expected balance_after 1.00, got %s", entry.BalanceAfter)
	}
	if got := balanceOf(t, service, account.Id); !got.Equal(decimal.RequireFromString("1.00")) {
		t.Errorf("Expected stored balance 1.00, got %s", got)
	}
}

func TestApplyEntry_RejectsOverdraft(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	account := createTestAccount(t, service, "alice", models.RoleStreamer)
	fundAccount(t, service, account.Id, "0.10")

	tx, err := service.db.BeginTx(ctx, nil)
	if err != nil {
		t.Fatalf("Failed to begin transaction: %v", err)
	}
	defer tx.Rollback()

	_, err = service.subledger.applyEntry(ctx, tx, entryParams{
		AccountId:   account.Id,
		EntryType:   models.EntryWithdrawalHold,
		AmountCents: -11,
		CreatedAt:   testNow,
	})
	if !errors.Is(err, store.ErrInsufficientBalance) {
		t.Fatalf("Expected ErrInsufficientBalance, got %v", err)
	}

	_, err = service.subledger.applyEntry(ctx, tx, entryParams{
		AccountId:   999,
		EntryType:   models.EntryAdReward,
		AmountCents: 2,
		CreatedAt:   testNow,
	})
	if !errors.Is(err, store.ErrAccountNotFound) {
		t.Fatalf("Expected ErrAccountNotFound, got %v", err)
	}
}

func TestReconcile_DetectsTamperedBalance(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	alice := createTestAccount(t, service, "alice", models.RoleStreamer)
	bob := createTestAccount(t, service, "bob", models.RoleStreamer)
	fundAccount(t, service, alice.Id, "3.00")
	fundAccount(t, service, bob.Id, "4.00")

	if err := service.ReconcileAccount(ctx, alice.Id); err != nil {
		t.Fatalf("Expected consistent ledger, got %v", err)
	}

	// Bypass the subledger to simulate corruption.
	if _, err := service.db.ExecContext(ctx, `UPDATE accounts SET balance_cents = 999 WHERE id = ?`, bob.Id); err != nil {
		t.Fatalf("Failed to tamper balance: %v", err)
	}

	if err := service.ReconcileAccount(ctx, bob.Id); !errors.Is(err, store.ErrBalanceMismatch) {
		t.Errorf("Expected ErrBalanceMismatch, got %v", err)
	}

	mismatches, err := service.ReconcileAll(ctx)
	if err != nil {
		t.Fatalf("ReconcileAll failed: %v", err)
	}
	if len(mismatches) != 1 {
		t.Fatalf("Expected 1 mismatch, got %d", len(mismatches))
	}
	if mismatches[0].AccountId != bob.Id {
		t.Errorf("Expected mismatch for bob, got account %d", mismatches[0].AccountId)
	}
	if !mismatches[0].LedgerBalance.Equal(decimal.RequireFromString("4.00")) {
		t.Errorf("Expected ledger balance 4.00, got %s", mismatches[0].LedgerBalance)
	}
}

func TestGetLedgerHistory_NewestFirst(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	account := createTestAccount(t, service, "alice", models.RoleStreamer)
	fundAccount(t, service, account.Id, "1.00")
	fundAccount(t, service, account.Id, "2.00")

	entries, err := service.GetLedgerHistory(ctx, account.Id, 10, 0)
	if err != nil {
		t.Fatalf("GetLedgerHistory failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(entries))
	}
	if !entries[0].Amount.Equal(decimal.RequireFromString("2.00")) {
		t.Errorf("Expected newest entry 2.00 first, got %s", entries[0].Amount)
	}
	if !entries[0].BalanceAfter.Equal(decimal.RequireFromString("3.00")) {
		t.Errorf("Expected running balance 3.00, got %s", entries[0].BalanceAfter)
	}

	page, err := service.GetLedgerHistory(ctx, account.Id, 1, 1)
	if err != nil {
		t.Fatalf("GetLedgerHistory page failed: %v", err)
	}
	if len(page) != 1 || !page[0].Amount.Equal(decimal.RequireFromString("1.00")) {
		t.Errorf("Expected second page to hold the 1.00 entry, got %+v", page)
	}
}
