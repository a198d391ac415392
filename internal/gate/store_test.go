package gate

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"stream-earn-go/internal/database"
	"stream-earn-go/internal/models"
	"stream-earn-go/internal/store"

	"github.com/shopspring/decimal"
)

// completingStore completes a pending ad just before a lazy clear runs, the
// interleaving two concurrent requests can produce.
type completingStore struct {
	*database.Service
	beforeClear func()
}

func (s *completingStore) ClearUnlock(ctx context.Context, accountId int64, now time.Time) (bool, error) {
	if s.beforeClear != nil {
		hook := s.beforeClear
		s.beforeClear = nil
		hook()
	}
	return s.Service.ClearUnlock(ctx, accountId, now)
}

func TestCheckStatus_KeepsWindowOpenedDuringClear(t *testing.T) {
	ctx := context.Background()
	db, err := database.NewService(ctx, models.DatabaseConfig{
		Path:            filepath.Join(t.TempDir(), "gate.db"),
		MaxOpenConns:    4,
		MaxIdleConns:    1,
		ConnMaxLifetime: time.Minute,
		ConnMaxIdleTime: 30 * time.Second,
		PingTimeout:     time.Second,
		BusyTimeout:     5 * time.Second,
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	defer db.Close()

	account, _, err := db.CreateAccount(ctx, store.CreateAccountParams{
		Username:     "streamer",
		Email:        "streamer@example.com",
		PasswordHash: "hash",
		Role:         models.RoleStreamer,
		CreatedAt:    testStart,
	})
	if err != nil {
		t.Fatalf("CreateAccount failed: %v", err)
	}

	clock := &fakeClock{now: testStart}
	s := &completingStore{Service: db}
	g := NewGate(s, nil, models.DefaultRewards(), clock.Now)

	g.StartAd(ctx, account.Id)
	clock.Advance(30 * time.Second)
	if _, err := g.CompleteAd(ctx, account.Id); err != nil {
		t.Fatalf("First CompleteAd failed: %v", err)
	}

	// The first window has lapsed and a second ad is fully watched.
	clock.Advance(31 * time.Minute)
	g.StartAd(ctx, account.Id)
	clock.Advance(30 * time.Second)
	s.beforeClear = func() {
		if _, err := g.CompleteAd(ctx, account.Id); err != nil {
			t.Errorf("Second CompleteAd failed: %v", err)
		}
	}

	// CheckStatus reads the lapsed first window, then the second ad commits
	// before the clear.
	session, _ := db.GetAdSession(ctx, account.Id)
	if session.UnlockExpiresAt == nil || clock.Now().Before(*session.UnlockExpiresAt) {
		t.Fatalf("Expected first window to have lapsed, got %+v", session)
	}
	status, err := g.CheckStatus(ctx, account.Id)
	if err != nil {
		t.Fatalf("CheckStatus failed: %v", err)
	}

	balance, _ := db.GetAccountById(ctx, account.Id)
	if !balance.Balance.Equal(decimal.RequireFromString("0.04")) {
		t.Fatalf("Expected both ads credited, got %s", balance.Balance)
	}
	if !status.Unlocked || status.MinutesLeft != 30 {
		t.Errorf("Expected fresh 30 minute window after second ad, got %+v", status)
	}
	if err := g.RequireUnlocked(ctx, account.Id); err != nil {
		t.Errorf("Expected second window to stay open, got %v", err)
	}
}

func TestCheckStatus_ClearsLapsedWindowInStore(t *testing.T) {
	g, s, clock := setupGate(nil)
	ctx := context.Background()

	g.StartAd(ctx, 1)
	clock.Advance(30 * time.Second)
	g.CompleteAd(ctx, 1)

	clock.Advance(30 * time.Minute)
	status, err := g.CheckStatus(ctx, 1)
	if err != nil {
		t.Fatalf("CheckStatus failed: %v", err)
	}
	if status.Unlocked || s.sessions[1].UnlockExpiresAt != nil {
		t.Errorf("Expected lapsed window cleared, got %+v / %v", status, s.sessions[1].UnlockExpiresAt)
	}
}
