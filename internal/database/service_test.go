package database

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"stream-earn-go/internal/models"
	"stream-earn-go/internal/store"

	"github.com/shopspring/decimal"
)

var testNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func testDbConfig(t *testing.T) models.DatabaseConfig {
	return models.DatabaseConfig{
		Path:            filepath.Join(t.TempDir(), "ledger.db"),
		MaxOpenConns:    8,
		MaxIdleConns:    2,
		ConnMaxLifetime: time.Minute,
		ConnMaxIdleTime: 30 * time.Second,
		PingTimeout:     time.Second,
		BusyTimeout:     5 * time.Second,
	}
}

func setupTestDb(t *testing.T) (*Service, func()) {
	t.Helper()

	service, err := NewService(context.Background(), testDbConfig(t))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	cleanup := func() {
		service.Close()
	}

	return service, cleanup
}

func createTestAccount(t *testing.T, s *Service, username, role string) *models.Account {
	t.Helper()

	account, _, err := s.CreateAccount(context.Background(), store.CreateAccountParams{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "hash",
		Role:         role,
		CreatedAt:    testNow,
	})
	if err != nil {
		t.Fatalf("Failed to create account %s: %v", username, err)
	}
	return account
}

func createTestTrack(t *testing.T, s *Service, artistId int64, title string) *models.Track {
	t.Helper()

	track, err := s.CreateTrack(context.Background(), store.CreateTrackParams{
		ArtistId:   artistId,
		Title:      title,
		Filename:   title + ".mp3",
		MaxTracks:  50,
		UploadedAt: testNow,
	})
	if err != nil {
		t.Fatalf("Failed to create track %s: %v", title, err)
	}
	return track
}

// openWindow gives a streamer an unlock window around testNow without crediting an ad
func openWindow(t *testing.T, s *Service, accountId int64) {
	t.Helper()

	_, err := s.db.ExecContext(context.Background(), `
		INSERT INTO ad_sessions (account_id, unlock_expires_at, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(account_id) DO UPDATE SET unlock_expires_at = excluded.unlock_expires_at`,
		accountId, testNow.Add(30*time.Minute), testNow)
	if err != nil {
		t.Fatalf("Failed to open unlock window: %v", err)
	}
}

// fundAccount credits an account through the subledger so the ledger stays balanced.
func fundAccount(t *testing.T, s *Service, accountId int64, amount string) {
	t.Helper()

	cents, ok := models.ToCents(decimal.RequireFromString(amount))
	if !ok {
		t.Fatalf("Invalid test amount %s", amount)
	}

	ctx := context.Background()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		t.Fatalf("Failed to begin transaction: %v", err)
	}
	defer tx.Rollback()

	if _, err := s.subledger.applyEntry(ctx, tx, entryParams{
		AccountId:   accountId,
		EntryType:   models.EntryAdReward,
		AmountCents: cents,
		Reference:   fmt.Sprintf("test-funding:%d", accountId),
		CreatedAt:   testNow,
	}); err != nil {
		t.Fatalf("Failed to fund account: %v", err)
	}

	if err := tx.Commit(); err != nil {
		t.Fatalf("Failed to commit funding: %v", err)
	}
}

func balanceOf(t *testing.T, s *Service, accountId int64) decimal.Decimal {
	t.Helper()

	account, err := s.GetAccountById(context.Background(), accountId)
	if err != nil {
		t.Fatalf("Failed to get account %d: %v", accountId, err)
	}
	return account.Balance
}

func TestNewService_ConfigValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(cfg *models.DatabaseConfig)
	}{
		{"empty path", func(cfg *models.DatabaseConfig) { cfg.Path = "" }},
		{"zero open conns", func(cfg *models.DatabaseConfig) { cfg.MaxOpenConns = 0 }},
		{"negative idle conns", func(cfg *models.DatabaseConfig) { cfg.MaxIdleConns = -1 }},
		{"zero ping timeout", func(cfg *models.DatabaseConfig) { cfg.PingTimeout = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testDbConfig(t)
			tt.mutate(&cfg)
			if _, err := NewService(context.Background(), cfg); err == nil {
				t.Errorf("Expected configuration error")
			}
		})
	}
}

func TestNewService_SchemaIsIdempotent(t *testing.T) {
	cfg := testDbConfig(t)

	first, err := NewService(context.Background(), cfg)
	if err != nil {
		t.Fatalf("First open failed: %v", err)
	}
	createTestAccount(t, first, "alice", models.RoleStreamer)
	first.Close()

	second, err := NewService(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Reopen failed: %v", err)
	}
	defer second.Close()

	account, err := second.GetAccountByEmail(context.Background(), "alice@example.com")
	if err != nil {
		t.Fatalf("Account lost after reopen: %v", err)
	}
	if account.Username != "alice" {
		t.Errorf("Expected alice, got %s", account.Username)
	}
}
