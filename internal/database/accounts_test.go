package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"stream-earn-go/internal/models"
	"stream-earn-go/internal/store"

	"github.com/shopspring/decimal"
)

func TestCreateAccount_GeneratesReferralCode(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	account := createTestAccount(t, service, "alice", models.RoleStreamer)

	if len(account.ReferralCode) != 8 {
		t.Errorf("Expected 8 character referral code, got %q", account.ReferralCode)
	}
	if !account.Balance.IsZero() {
		t.Errorf("Expected zero balance, got %s", account.Balance)
	}
	if !account.Active || account.Banned {
		t.Errorf("Expected active, unbanned account, got active=%v banned=%v", account.Active, account.Banned)
	}

	found, err := service.GetAccountByReferralCode(context.Background(), account.ReferralCode)
	if err != nil {
		t.Fatalf("Lookup by referral code failed: %v", err)
	}
	if found.Id != account.Id {
		t.Errorf("Expected account %d, got %d", account.Id, found.Id)
	}
}

func TestCreateAccount_Duplicates(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	createTestAccount(t, service, "alice", models.RoleStreamer)

	tests := []struct {
		name     string
		username string
		email    string
		want     error
	}{
		{"duplicate email", "alice2", "alice@example.com", store.ErrEmailExists},
		{"duplicate username", "alice", "other@example.com", store.ErrUsernameExists},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := service.CreateAccount(ctx, store.CreateAccountParams{
				Username:     tt.username,
				Email:        tt.email,
				PasswordHash: "hash",
				Role:         models.RoleStreamer,
				CreatedAt:    testNow,
			})
			if !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestCreateAccount_ReferralBonus(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	referrer := createTestAccount(t, service, "alice", models.RoleStreamer)
	bonus := decimal.RequireFromString("5.00")

	account, referral, err := service.CreateAccount(ctx, store.CreateAccountParams{
		Username:      "bob",
		Email:         "bob@example.com",
		PasswordHash:  "hash",
		Role:          models.RoleStreamer,
		ReferrerCode:  referrer.ReferralCode,
		ReferralBonus: bonus,
		CreatedAt:     testNow,
	})
	if err != nil {
		t.Fatalf("CreateAccount failed: %v", err)
	}
	if referral == nil {
		t.Fatalf("Expected referral to be recorded")
	}
	if referral.ReferrerId != referrer.Id || referral.ReferredId != account.Id {
		t.Errorf("Referral links wrong accounts: %+v", referral)
	}
	if account.ReferredBy != referrer.ReferralCode {
		t.Errorf("Expected referred_by %s, got %s", referrer.ReferralCode, account.ReferredBy)
	}
	if got := balanceOf(t, service, referrer.Id); !got.Equal(bonus) {
		t.Errorf("Expected referrer balance 5.00, got %s", got)
	}
	if err := service.ReconcileAccount(ctx, referrer.Id); err != nil {
		t.Errorf("Ledger inconsistent after referral: %v", err)
	}
}

func TestCreateAccount_UnknownReferralCodeIsIgnored(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	referrer := createTestAccount(t, service, "alice", models.RoleStreamer)

	account, referral, err := service.CreateAccount(ctx, store.CreateAccountParams{
		Username:      "bob",
		Email:         "bob@example.com",
		PasswordHash:  "hash",
		Role:          models.RoleStreamer,
		ReferrerCode:  "nope1234",
		ReferralBonus: decimal.RequireFromString("5.00"),
		CreatedAt:     testNow,
	})
	if err != nil {
		t.Fatalf("Registration must succeed with unknown code: %v", err)
	}
	if referral != nil {
		t.Errorf("Expected no referral, got %+v", referral)
	}
	if account.ReferredBy != "" {
		t.Errorf("Expected empty referred_by, got %q", account.ReferredBy)
	}
	if got := balanceOf(t, service, referrer.Id); !got.IsZero() {
		t.Errorf("Expected referrer balance unchanged, got %s", got)
	}
}

func TestBanAndUnban(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	account := createTestAccount(t, service, "alice", models.RoleStreamer)
	expires := testNow.Add(time.Hour)

	if err := service.BanAccount(ctx, store.BanParams{
		AccountId: account.Id,
		ExpiresAt: &expires,
		Reason:    "spam",
		BannedAt:  testNow,
	}); err != nil {
		t.Fatalf("BanAccount failed: %v", err)
	}

	banned, err := service.GetAccountById(ctx, account.Id)
	if err != nil {
		t.Fatalf("GetAccountById failed: %v", err)
	}
	if !banned.IsBannedAt(testNow) {
		t.Errorf("Expected account banned at %v", testNow)
	}
	if banned.BanReason != "spam" {
		t.Errorf("Expected reason spam, got %q", banned.BanReason)
	}
	if banned.BanExpiresAt == nil || !banned.BanExpiresAt.Equal(expires) {
		t.Errorf("Expected expiry %v, got %v", expires, banned.BanExpiresAt)
	}

	if err := service.UnbanAccount(ctx, account.Id); err != nil {
		t.Fatalf("UnbanAccount failed: %v", err)
	}
	unbanned, _ := service.GetAccountById(ctx, account.Id)
	if unbanned.Banned || unbanned.BanExpiresAt != nil || unbanned.BanReason != "" || unbanned.BannedAt != nil {
		t.Errorf("Expected ban fields cleared, got %+v", unbanned)
	}

	if err := service.UnbanAccount(ctx, 999); !errors.Is(err, store.ErrAccountNotFound) {
		t.Errorf("Expected ErrAccountNotFound, got %v", err)
	}
}

func TestClearExpiredBans(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	expired := createTestAccount(t, service, "expired", models.RoleStreamer)
	current := createTestAccount(t, service, "current", models.RoleStreamer)
	permanent := createTestAccount(t, service, "permanent", models.RoleStreamer)

	past := testNow.Add(-time.Minute)
	future := testNow.Add(time.Hour)
	for _, ban := range []store.BanParams{
		{AccountId: expired.Id, ExpiresAt: &past, Reason: "a", BannedAt: testNow.Add(-time.Hour)},
		{AccountId: current.Id, ExpiresAt: &future, Reason: "b", BannedAt: testNow},
		{AccountId: permanent.Id, Reason: "c", BannedAt: testNow},
	} {
		if err := service.BanAccount(ctx, ban); err != nil {
			t.Fatalf("BanAccount failed: %v", err)
		}
	}

	cleared, err := service.ClearExpiredBans(ctx, testNow)
	if err != nil {
		t.Fatalf("ClearExpiredBans failed: %v", err)
	}
	if cleared != 1 {
		t.Errorf("Expected 1 cleared ban, got %d", cleared)
	}

	for _, tt := range []struct {
		id     int64
		banned bool
	}{
		{expired.Id, false},
		{current.Id, true},
		{permanent.Id, true},
	} {
		account, _ := service.GetAccountById(ctx, tt.id)
		if account.Banned != tt.banned {
			t.Errorf("Account %d: expected banned=%v, got %v", tt.id, tt.banned, account.Banned)
		}
	}
}

func TestSetAccountActive(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	account := createTestAccount(t, service, "alice", models.RoleArtist)

	if err := service.SetAccountActive(ctx, account.Id, false); err != nil {
		t.Fatalf("SetAccountActive failed: %v", err)
	}
	updated, _ := service.GetAccountById(ctx, account.Id)
	if updated.Active {
		t.Errorf("Expected inactive account")
	}

	accounts, err := service.ListAccounts(ctx)
	if err != nil {
		t.Fatalf("ListAccounts failed: %v", err)
	}
	if len(accounts) != 1 {
		t.Errorf("Expected 1 account, got %d", len(accounts))
	}
}
