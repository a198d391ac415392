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

package jobs

import (
	"context"
	"fmt"
	"time"

	"stream-earn-go/internal/models"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const jobTimeout = 5 * time.Minute

// Maintainer is the subset of the ledger service the scheduled jobs drive
type Maintainer interface {
	ReconcileAll(ctx context.Context) ([]models.ReconcileResult, error)
	ClearExpiredBans(ctx context.Context) (int64, error)
}

// ReconcileLedger compares every stored balance with its ledger and logs mismatches
func ReconcileLedger(ctx context.Context, svc Maintainer) int {
	zap.L().Info("Running job: ReconcileLedger")

	mismatches, err := svc.ReconcileAll(ctx)
	if err != nil {
		zap.L().Error("Ledger reconciliation failed", zap.Error(err))
		return 0
	}
	if len(mismatches) == 0 {
		zap.L().Info("Ledger reconciled, no mismatches")
		return 0
	}

	zap.L().Error("Ledger reconciliation found mismatches", zap.Int("accounts", len(mismatches)))
	return len(mismatches)
}

// SweepExpiredBans lifts temporary bans that have run out
func SweepExpiredBans(ctx context.Context, svc Maintainer) int64 {
	cleared, err := svc.ClearExpiredBans(ctx)
	if err != nil {
		zap.L().Error("Ban sweep failed", zap.Int64("cleared", cleared), zap.Error(err))
		return cleared
	}
	if cleared > 0 {
		zap.L().Info("Expired bans cleared", zap.Int64("cleared", cleared))
	}
	return cleared
}

// Start registers the maintenance jobs and starts the scheduler. The caller
// stops it on shutdown.
func Start(cfg models.JobsConfig, svc Maintainer) (*cron.Cron, error) {
	c := cron.New()

	if _, err := c.AddFunc(cfg.ReconcileSchedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()
		ReconcileLedger(ctx, svc)
	}); err != nil {
		return nil, fmt.Errorf("invalid reconcile schedule %q: %w", cfg.ReconcileSchedule, err)
	}

	if _, err := c.AddFunc(cfg.BanSweepSchedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()
		SweepExpiredBans(ctx, svc)
	}); err != nil {
		return nil, fmt.Errorf("invalid ban sweep schedule %q: %w", cfg.BanSweepSchedule, err)
	}

	c.Start()
	zap.L().Info("Scheduled jobs started",
		zap.String("reconcile", cfg.ReconcileSchedule),
		zap.String("ban_sweep", cfg.BanSweepSchedule))

	return c, nil
}
