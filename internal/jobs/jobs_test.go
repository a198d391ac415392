package jobs

import (
	"context"
	"errors"
	"testing"

	"stream-earn-go/internal/models"

	"github.com/shopspring/decimal"
)

type fakeMaintainer struct {
	mismatches []models.ReconcileResult
	reconErr   error
	cleared    int64
	sweeps     int
}

func (f *fakeMaintainer) ReconcileAll(ctx context.Context) ([]models.ReconcileResult, error) {
	return f.mismatches, f.reconErr
}

func (f *fakeMaintainer) ClearExpiredBans(ctx context.Context) (int64, error) {
	f.sweeps++
	return f.cleared, nil
}

func TestReconcileLedger(t *testing.T) {
	tests := []struct {
		name string
		svc  *fakeMaintainer
		want int
	}{
		{"consistent", &fakeMaintainer{}, 0},
		{"mismatch", &fakeMaintainer{mismatches: []models.ReconcileResult{{
			AccountId:     3,
			StoredBalance: decimal.RequireFromString("1.00"),
			LedgerBalance: decimal.RequireFromString("0.98"),
		}}}, 1},
		{"store error", &fakeMaintainer{reconErr: errors.New("disk gone")}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ReconcileLedger(context.Background(), tt.svc); got != tt.want {
				t.Errorf("Expected %d mismatches, got %d", tt.want, got)
			}
		})
	}
}

func TestSweepExpiredBans(t *testing.T) {
	svc := &fakeMaintainer{cleared: 2}
	if got := SweepExpiredBans(context.Background(), svc); got != 2 {
		t.Errorf("Expected 2 cleared, got %d", got)
	}
}

func TestStart_InvalidSchedule(t *testing.T) {
	_, err := Start(models.JobsConfig{
		Enabled:           true,
		ReconcileSchedule: "not a schedule",
		BanSweepSchedule:  "*/5 * * * *",
	}, &fakeMaintainer{})
	if err == nil {
		t.Errorf("Expected invalid schedule error")
	}
}

func TestStart(t *testing.T) {
	c, err := Start(models.JobsConfig{
		Enabled:           true,
		ReconcileSchedule: "@hourly",
		BanSweepSchedule:  "*/5 * * * *",
	}, &fakeMaintainer{})
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer c.Stop()

	if len(c.Entries()) != 2 {
		t.Errorf("Expected 2 scheduled jobs, got %d", len(c.Entries()))
	}
}
