package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"stream-earn-go/internal/api"
	"stream-earn-go/internal/database"
	"stream-earn-go/internal/gate"
	"stream-earn-go/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type testServer struct {
	router *gin.Engine
	ledger *api.LedgerService
	clock  *testClock
}

func setupServer(t *testing.T) (*testServer, func()) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.NewService(context.Background(), models.DatabaseConfig{
		Path:            filepath.Join(t.TempDir(), "http.db"),
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

	// Tokens are validated against the wall clock, so the ledger clock starts there.
	clock := &testClock{now: time.Now().UTC()}
	authCfg := models.AuthConfig{
		JWTSecret:  "http-test-secret",
		Issuer:     "stream-earn",
		TokenTTL:   time.Hour,
		BcryptCost: bcrypt.MinCost,
	}
	rewards := models.DefaultRewards()
	ledger := api.NewLedgerService(db, gate.NewGate(db, nil, rewards, clock.Now), rewards, authCfg, clock.Now)

	return &testServer{
		router: NewRouter(ledger, authCfg, nil),
		ledger: ledger,
		clock:  clock,
	}, func() { db.Close() }
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) (int, map[string]any) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to encode body: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var out map[string]any
	if w.Body.Len() > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
			t.Fatalf("Failed to decode response %q: %v", w.Body.String(), err)
		}
	}
	return w.Code, out
}

// signup registers an account over HTTP and returns its id and token
func (s *testServer) signup(t *testing.T, username, role string) (int64, string) {
	t.Helper()

	code, body := s.do(t, http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"username": username,
		"email":    username + "@example.com",
		"password": "secret1",
		"role":     role,
	})
	if code != http.StatusCreated {
		t.Fatalf("Register %s: expected 201, got %d %v", username, code, body)
	}
	id := int64(body["account"].(map[string]any)["id"].(float64))
	return id, s.login(t, username+"@example.com", "secret1")
}

func (s *testServer) login(t *testing.T, email, password string) string {
	t.Helper()

	code, body := s.do(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"email":    email,
		"password": password,
	})
	if code != http.StatusOK {
		t.Fatalf("Login %s: expected 200, got %d %v", email, code, body)
	}
	return body["token"].(string)
}

func (s *testServer) adminToken(t *testing.T) string {
	t.Helper()

	_, err := s.ledger.CreateAccount(context.Background(), models.RegisterParams{
		Username: "admin",
		Email:    "admin@example.com",
		Password: "adminpass",
		Role:     models.RoleAdmin,
	})
	if err != nil {
		t.Fatalf("Failed to provision admin: %v", err)
	}
	return s.login(t, "admin@example.com", "adminpass")
}

func amountOf(t *testing.T, v any) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(fmt.Sprint(v))
	if err != nil {
		t.Fatalf("Not an amount: %v", v)
	}
	return d
}

func TestHealth(t *testing.T) {
	server, cleanup := setupServer(t)
	defer cleanup()

	code, body := server.do(t, http.MethodGet, "/api/v1/health", "", nil)
	if code != http.StatusOK || body["status"] != "ok" {
		t.Errorf("Expected healthy, got %d %v", code, body)
	}
}

func TestAuth(t *testing.T) {
	server, cleanup := setupServer(t)
	defer cleanup()

	_, token := server.signup(t, "alice", models.RoleStreamer)

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		body   any
		want   int
	}{
		{"me without token", http.MethodGet, "/api/v1/me", "", nil, http.StatusUnauthorized},
		{"me with garbage token", http.MethodGet, "/api/v1/me", "garbage", nil, http.StatusUnauthorized},
		{"me", http.MethodGet, "/api/v1/me", token, nil, http.StatusOK},
		{"wrong password", http.MethodPost, "/api/v1/auth/login", "", gin.H{"email": "alice@example.com", "password": "nope"}, http.StatusUnauthorized},
		{"unknown email", http.MethodPost, "/api/v1/auth/login", "", gin.H{"email": "bob@example.com", "password": "secret1"}, http.StatusUnauthorized},
		{"duplicate email", http.MethodPost, "/api/v1/auth/register", "", gin.H{"username": "alice2", "email": "alice@example.com", "password": "secret1", "role": "streamer"}, http.StatusConflict},
		{"admin self registration", http.MethodPost, "/api/v1/auth/register", "", gin.H{"username": "root", "email": "root@example.com", "password": "secret1", "role": "admin"}, http.StatusBadRequest},
		{"short password", http.MethodPost, "/api/v1/auth/register", "", gin.H{"username": "carol", "email": "carol@example.com", "password": "123", "role": "artist"}, http.StatusBadRequest},
		{"streamer on admin route", http.MethodGet, "/api/v1/admin/overview", token, nil, http.StatusForbidden},
		{"streamer on artist route", http.MethodGet, "/api/v1/artist/tracks", token, nil, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := server.do(t, tt.method, tt.path, tt.token, tt.body)
			if code != tt.want {
				t.Errorf("Expected %d, got %d %v", tt.want, code, body)
			}
		})
	}
}

func TestEarningFlow(t *testing.T) {
	server, cleanup := setupServer(t)
	defer cleanup()

	_, artistToken := server.signup(t, "artist", models.RoleArtist)
	_, streamerToken := server.signup(t, "streamer", models.RoleStreamer)

	code, body := server.do(t, http.MethodPost, "/api/v1/artist/tracks", artistToken, gin.H{
		"title":    "Song",
		"filename": "song.mp3",
	})
	if code != http.StatusCreated {
		t.Fatalf("CreateTrack: expected 201, got %d %v", code, body)
	}
	playPath := fmt.Sprintf("/api/v1/tracks/%d/play", int64(body["id"].(float64)))

	code, body = server.do(t, http.MethodPost, playPath, streamerToken, nil)
	if code != http.StatusForbidden {
		t.Fatalf("Locked play: expected 403, got %d %v", code, body)
	}

	code, _ = server.do(t, http.MethodPost, "/api/v1/ads/complete", streamerToken, nil)
	if code != http.StatusBadRequest {
		t.Fatalf("Complete without start: expected 400, got %d", code)
	}

	server.do(t, http.MethodPost, "/api/v1/ads/start", streamerToken, nil)
	server.clock.Advance(10 * time.Second)
	code, _ = server.do(t, http.MethodPost, "/api/v1/ads/complete", streamerToken, nil)
	if code != http.StatusBadRequest {
		t.Fatalf("Premature completion: expected 400, got %d", code)
	}

	server.clock.Advance(20 * time.Second)
	code, body = server.do(t, http.MethodPost, "/api/v1/ads/complete", streamerToken, nil)
	if code != http.StatusOK {
		t.Fatalf("Complete: expected 200, got %d %v", code, body)
	}
	if got := amountOf(t, body["new_balance"]); !got.Equal(decimal.RequireFromString("0.02")) {
		t.Errorf("Expected balance 0.02, got %s", got)
	}

	code, body = server.do(t, http.MethodGet, "/api/v1/ads/status", streamerToken, nil)
	if code != http.StatusOK || body["unlocked"] != true || body["minutes_left"] != float64(30) {
		t.Errorf("Expected 30 minutes unlocked, got %d %v", code, body)
	}

	code, body = server.do(t, http.MethodPost, playPath, streamerToken, nil)
	if code != http.StatusOK {
		t.Fatalf("Play: expected 200, got %d %v", code, body)
	}
	if got := amountOf(t, body["streamer_balance"]); !got.Equal(decimal.RequireFromString("0.04")) {
		t.Errorf("Expected streamer balance 0.04, got %s", got)
	}

	code, body = server.do(t, http.MethodGet, "/api/v1/me", artistToken, nil)
	if code != http.StatusOK {
		t.Fatalf("Me: expected 200, got %d", code)
	}
	if got := amountOf(t, body["balance"]); !got.Equal(decimal.RequireFromString("0.05")) {
		t.Errorf("Expected artist balance 0.05, got %s", got)
	}

	server.clock.Advance(30 * time.Minute)
	if code, _ := server.do(t, http.MethodPost, playPath, streamerToken, nil); code != http.StatusForbidden {
		t.Errorf("Play after window: expected 403, got %d", code)
	}

	code, body = server.do(t, http.MethodGet, "/api/v1/me/history", streamerToken, nil)
	if code != http.StatusOK {
		t.Fatalf("History: expected 200, got %d", code)
	}
	if entries := body["entries"].([]any); len(entries) != 2 {
		t.Errorf("Expected 2 ledger entries, got %d", len(entries))
	}
}

func TestWithdrawalFlow(t *testing.T) {
	server, cleanup := setupServer(t)
	defer cleanup()

	ctx := context.Background()
	adminToken := server.adminToken(t)
	streamerId, streamerToken := server.signup(t, "streamer", models.RoleStreamer)

	streamer, err := server.ledger.GetAccount(ctx, streamerId)
	if err != nil {
		t.Fatalf("GetAccount failed: %v", err)
	}
	for i := 0; i < 3; i++ {
		_, err := server.ledger.Register(ctx, models.RegisterParams{
			Username:     fmt.Sprintf("friend%d", i),
			Email:        fmt.Sprintf("friend%d@example.com", i),
			Password:     "secret1",
			Role:         models.RoleStreamer,
			ReferralCode: streamer.ReferralCode,
		})
		if err != nil {
			t.Fatalf("Referral signup failed: %v", err)
		}
	}

	tests := []struct {
		name   string
		amount any
		want   int
	}{
		{"below minimum", "5.00", http.StatusBadRequest},
		{"sub cent", "10.005", http.StatusBadRequest},
		{"over balance", "15.01", http.StatusUnprocessableEntity},
		{"numeric amount", 10.5, http.StatusCreated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := server.do(t, http.MethodPost, "/api/v1/withdrawals", streamerToken, gin.H{"amount": tt.amount})
			if code != tt.want {
				t.Errorf("Expected %d, got %d %v", tt.want, code, body)
			}
		})
	}

	code, body := server.do(t, http.MethodGet, "/api/v1/admin/withdrawals?status=pending", adminToken, nil)
	if code != http.StatusOK {
		t.Fatalf("List pending: expected 200, got %d %v", code, body)
	}
	pending := body["withdrawals"].([]any)
	if len(pending) != 1 {
		t.Fatalf("Expected 1 pending withdrawal, got %d", len(pending))
	}
	processPath := fmt.Sprintf("/api/v1/admin/withdrawals/%d/process", int64(pending[0].(map[string]any)["id"].(float64)))

	code, body = server.do(t, http.MethodPost, processPath, adminToken, gin.H{"decision": "rejected", "reason": "duplicate"})
	if code != http.StatusOK || body["status"] != models.WithdrawalRejected {
		t.Fatalf("Reject: expected 200 rejected, got %d %v", code, body)
	}
	code, _ = server.do(t, http.MethodPost, processPath, adminToken, gin.H{"decision": "approved"})
	if code != http.StatusConflict {
		t.Errorf("Reprocess: expected 409, got %d", code)
	}

	code, body = server.do(t, http.MethodGet, "/api/v1/me", streamerToken, nil)
	if code != http.StatusOK {
		t.Fatalf("Me: expected 200, got %d", code)
	}
	if got := amountOf(t, body["balance"]); !got.Equal(decimal.RequireFromString("15.00")) {
		t.Errorf("Expected balance restored to 15.00, got %s", got)
	}

	code, body = server.do(t, http.MethodGet, "/api/v1/admin/reconcile", adminToken, nil)
	if code != http.StatusOK || body["consistent"] != true {
		t.Errorf("Expected consistent ledger, got %d %v", code, body)
	}
}

func TestModeration(t *testing.T) {
	server, cleanup := setupServer(t)
	defer cleanup()

	adminToken := server.adminToken(t)
	streamerId, streamerToken := server.signup(t, "streamer", models.RoleStreamer)
	banPath := fmt.Sprintf("/api/v1/admin/accounts/%d/ban", streamerId)

	code, _ := server.do(t, http.MethodPost, banPath, adminToken, gin.H{"duration": "forever"})
	if code != http.StatusBadRequest {
		t.Errorf("Bad duration: expected 400, got %d", code)
	}

	code, body := server.do(t, http.MethodPost, banPath, adminToken, gin.H{"duration": "24h", "reason": "spam"})
	if code != http.StatusOK {
		t.Fatalf("Ban: expected 200, got %d %v", code, body)
	}

	// The token is still valid but the account may no longer act.
	if code, _ := server.do(t, http.MethodPost, "/api/v1/ads/start", streamerToken, nil); code != http.StatusForbidden {
		t.Errorf("Banned ad start: expected 403, got %d", code)
	}
	code, _ = server.do(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{"email": "streamer@example.com", "password": "secret1"})
	if code != http.StatusForbidden {
		t.Errorf("Banned login: expected 403, got %d", code)
	}

	code, _ = server.do(t, http.MethodPost, fmt.Sprintf("/api/v1/admin/accounts/%d/unban", streamerId), adminToken, nil)
	if code != http.StatusOK {
		t.Fatalf("Unban: expected 200, got %d", code)
	}
	if code, _ := server.do(t, http.MethodPost, "/api/v1/ads/start", streamerToken, nil); code != http.StatusOK {
		t.Errorf("Unbanned ad start: expected 200, got %d", code)
	}

	code, body = server.do(t, http.MethodPost, "/api/v1/admin/accounts/bulk", adminToken, gin.H{
		"account_ids": []int64{streamerId, 999},
		"action":      "deactivate",
	})
	if code != http.StatusOK || body["affected"] != float64(1) {
		t.Errorf("Bulk deactivate: expected 1 affected, got %d %v", code, body)
	}

	code, _ = server.do(t, http.MethodPost, "/api/v1/admin/accounts/abc/ban", adminToken, gin.H{"duration": "1h"})
	if code != http.StatusBadRequest {
		t.Errorf("Non-numeric id: expected 400, got %d", code)
	}
}

func TestRateLimiter(t *testing.T) {
	limiter := NewRateLimiter(2, time.Minute)
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	tests := []struct {
		advance time.Duration
		key     string
		want    bool
	}{
		{0, "a", true},
		{0, "a", true},
		{0, "a", false},
		{0, "b", true},
		{61 * time.Second, "a", true},
	}

	for i, tt := range tests {
		now = now.Add(tt.advance)
		if got := limiter.Allow(tt.key); got != tt.want {
			t.Errorf("Request %d for %s: expected %v, got %v", i, tt.key, tt.want, got)
		}
	}

	now = now.Add(2 * time.Minute)
	limiter.Sweep()
	if len(limiter.requests) != 0 {
		t.Errorf("Expected sweep to drop idle keys, got %d", len(limiter.requests))
	}
}

func TestReports(t *testing.T) {
	server, cleanup := setupServer(t)
	defer cleanup()

	adminToken := server.adminToken(t)
	_, streamerToken := server.signup(t, "streamer", models.RoleStreamer)
	today := server.clock.Now().Format("2006-01-02")
	tomorrow := server.clock.Now().AddDate(0, 0, 1).Format("2006-01-02")

	code, body := server.do(t, http.MethodGet, "/api/v1/admin/reports?type=users&from="+today+"&to="+today, adminToken, nil)
	if code != http.StatusOK {
		t.Fatalf("Users report: expected 200, got %d %v", code, body)
	}
	users := body["users"].(map[string]any)
	if users["new_accounts"] != float64(2) || users["new_streamers"] != float64(1) || users["new_admins"] != float64(1) {
		t.Errorf("Unexpected users report: %v", users)
	}

	code, body = server.do(t, http.MethodGet, "/api/v1/admin/reports", adminToken, nil)
	if code != http.StatusOK || body["type"] != models.ReportOverview || body["overview"] == nil {
		t.Errorf("Expected default overview report, got %d %v", code, body)
	}

	tests := []struct {
		name  string
		query string
		token string
		want  int
	}{
		{"tomorrow is empty", "?type=music&from=" + tomorrow + "&to=" + tomorrow, adminToken, http.StatusOK},
		{"unknown type", "?type=revenue", adminToken, http.StatusBadRequest},
		{"reversed range", "?from=" + tomorrow + "&to=" + today, adminToken, http.StatusBadRequest},
		{"bad date", "?from=yesterday", adminToken, http.StatusBadRequest},
		{"streamer", "", streamerToken, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := server.do(t, http.MethodGet, "/api/v1/admin/reports"+tt.query, tt.token, nil)
			if code != tt.want {
				t.Errorf("Expected %d, got %d %v", tt.want, code, body)
			}
		})
	}
}
