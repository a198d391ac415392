package database

import (
	"context"
	"errors"
	"sync"
	"testing"

	"stream-earn-go/internal/models"
	"stream-earn-go/internal/store"

	"github.com/shopspring/decimal"
)

func requestParams(accountId int64, amount string) store.WithdrawalRequestParams {
	return store.WithdrawalRequestParams{
		AccountId:   accountId,
		Amount:      decimal.RequireFromString(amount),
		RequestedAt: testNow,
	}
}

func TestRequestWithdrawal_DebitsImmediately(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	account := createTestAccount(t, service, "alice", models.RoleStreamer)
	fundAccount(t, service, account.Id, "25.00")

	withdrawal, err := service.RequestWithdrawal(ctx, requestParams(account.Id, "10.00"))
	if err != nil {
		t.Fatalf("RequestWithdrawal failed: %v", err)
	}
	if withdrawal.Status != models.WithdrawalPending {
		t.Errorf("Expected pending, got %s", withdrawal.Status)
	}
	if got := balanceOf(t, service, account.Id); !got.Equal(decimal.RequireFromString("15.00")) {
		t.Errorf("Expected balance 15.00 after hold, got %s", got)
	}
	if err := service.ReconcileAccount(ctx, account.Id); err != nil {
		t.Errorf("Ledger inconsistent: %v", err)
	}
}

func TestRequestWithdrawal_Errors(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	account := createTestAccount(t, service, "alice", models.RoleStreamer)
	fundAccount(t, service, account.Id, "12.00")

	tests := []struct {
		name      string
		accountId int64
		amount    string
		want      error
	}{
		{"over balance by a cent", account.Id, "12.01", store.ErrInsufficientBalance},
		{"sub cent amount", account.Id, "10.001", store.ErrInvalidAmount},
		{"zero amount", account.Id, "0", store.ErrInvalidAmount},
		{"unknown account", 999, "10.00", store.ErrAccountNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.RequestWithdrawal(ctx, requestParams(tt.accountId, tt.amount))
			if !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
		})
	}

	if got := balanceOf(t, service, account.Id); !got.Equal(decimal.RequireFromString("12.00")) {
		t.Errorf("Expected balance unchanged at 12.00, got %s", got)
	}
}

func TestProcessWithdrawal_RejectRefundsExactly(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	admin := createTestAccount(t, service, "admin", models.RoleAdmin)
	account := createTestAccount(t, service, "alice", models.RoleStreamer)
	fundAccount(t, service, account.Id, "17.37")
	before := balanceOf(t, service, account.Id)

	withdrawal, err := service.RequestWithdrawal(ctx, requestParams(account.Id, "11.11"))
	if err != nil {
		t.Fatalf("RequestWithdrawal failed: %v", err)
	}

	rejected, err := service.ProcessWithdrawal(ctx, store.ProcessWithdrawalParams{
		WithdrawalId: withdrawal.Id,
		Decision:     models.WithdrawalRejected,
		ProcessedBy:  admin.Id,
		ProcessedAt:  testNow,
	})
	if err != nil {
		t.Fatalf("ProcessWithdrawal failed: %v", err)
	}

	if rejected.Status != models.WithdrawalRejected {
		t.Errorf("Expected rejected, got %s", rejected.Status)
	}
	if rejected.RejectionReason != "No reason provided" {
		t.Errorf("Expected default reason, got %q", rejected.RejectionReason)
	}
	if rejected.ProcessedAt == nil || rejected.ProcessedBy == nil || *rejected.ProcessedBy != admin.Id {
		t.Errorf("Expected processed_at and processed_by set, got %+v", rejected)
	}
	if got := balanceOf(t, service, account.Id); !got.Equal(before) {
		t.Errorf("Expected balance restored to %s, got %s", before, got)
	}
	if err := service.ReconcileAccount(ctx, account.Id); err != nil {
		t.Errorf("Ledger inconsistent: %v", err)
	}
}

func TestProcessWithdrawal_ApproveAndNotPending(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	account := createTestAccount(t, service, "alice", models.RoleStreamer)
	fundAccount(t, service, account.Id, "30.00")

	withdrawal, err := service.RequestWithdrawal(ctx, requestParams(account.Id, "20.00"))
	if err != nil {
		t.Fatalf("RequestWithdrawal failed: %v", err)
	}

	approved, err := service.ProcessWithdrawal(ctx, store.ProcessWithdrawalParams{
		WithdrawalId: withdrawal.Id,
		Decision:     models.WithdrawalApproved,
		ProcessedAt:  testNow,
	})
	if err != nil {
		t.Fatalf("Approve failed: %v", err)
	}
	if approved.Status != models.WithdrawalApproved || approved.RejectionReason != "" {
		t.Errorf("Unexpected approved withdrawal: %+v", approved)
	}
	if got := balanceOf(t, service, account.Id); !got.Equal(decimal.RequireFromString("10.00")) {
		t.Errorf("Expected balance 10.00 after approval, got %s", got)
	}

	tests := []struct {
		name     string
		id       int64
		decision string
		want     error
	}{
		{"approve twice", withdrawal.Id, models.WithdrawalApproved, store.ErrNotPending},
		{"reject after approval", withdrawal.Id, models.WithdrawalRejected, store.ErrNotPending},
		{"unknown withdrawal", 999, models.WithdrawalApproved, store.ErrWithdrawalNotFound},
		{"bad decision", withdrawal.Id, "maybe", store.ErrInvalidDecision},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.ProcessWithdrawal(ctx, store.ProcessWithdrawalParams{
				WithdrawalId: tt.id,
				Decision:     tt.decision,
				ProcessedAt:  testNow,
			})
			if !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
		})
	}

	if got := balanceOf(t, service, account.Id); !got.Equal(decimal.RequireFromString("10.00")) {
		t.Errorf("Expected balance still 10.00, got %s", got)
	}
}

func TestRequestWithdrawal_ConcurrentRequestsCannotOverdraw(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	account := createTestAccount(t, service, "alice", models.RoleStreamer)
	fundAccount(t, service, account.Id, "25.00")

	const attempts = 5
	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := service.RequestWithdrawal(ctx, requestParams(account.Id, "10.00"))
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			} else if !errors.Is(err, store.ErrInsufficientBalance) {
				t.Errorf("Unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if succeeded != 2 {
		t.Errorf("Expected exactly 2 withdrawals to succeed, got %d", succeeded)
	}
	if got := balanceOf(t, service, account.Id); !got.Equal(decimal.RequireFromString("5.00")) {
		t.Errorf("Expected balance 5.00, got %s", got)
	}

	pending, err := service.ListWithdrawals(ctx, account.Id, models.WithdrawalPending)
	if err != nil {
		t.Fatalf("ListWithdrawals failed: %v", err)
	}
	if len(pending) != 2 {
		t.Errorf("Expected 2 pending withdrawals, got %d", len(pending))
	}
}
