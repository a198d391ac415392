package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestToCents(t *testing.T) {
	tests := []struct {
		name   string
		amount string
		cents  int64
		ok     bool
	}{
		{"whole dollars", "10", 1000, true},
		{"two decimals", "0.02", 2, true},
		{"trailing zero", "5.50", 550, true},
		{"sub cent", "0.005", 0, false},
		{"negative", "-1.25", -125, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cents, ok := ToCents(decimal.RequireFromString(tt.amount))
			if ok != tt.ok {
				t.Fatalf("Expected ok=%v, got %v", tt.ok, ok)
			}
			if ok && cents != tt.cents {
				t.Errorf("Expected %d cents, got %d", tt.cents, cents)
			}
		})
	}
}

func TestFromCentsDoesNotDrift(t *testing.T) {
	// 10,000 two-cent rewards must add up to exactly 200.00.
	total := decimal.Zero
	for i := 0; i < 10000; i++ {
		total = total.Add(FromCents(2))
	}
	if !total.Equal(decimal.RequireFromString("200.00")) {
		t.Errorf("Expected 200.00, got %s", total.String())
	}
}

func TestAccountIsBannedAt(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	later := now.Add(time.Hour)

	tests := []struct {
		name    string
		account Account
		want    bool
	}{
		{"not banned", Account{}, false},
		{"permanent", Account{Banned: true}, true},
		{"active temporary", Account{Banned: true, BanExpiresAt: &later}, true},
		{"expired temporary", Account{Banned: true, BanExpiresAt: &now}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.account.IsBannedAt(now); got != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}
