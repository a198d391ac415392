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
	"fmt"

	"stream-earn-go/internal/models"
	"stream-earn-go/internal/store"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// Compile-time check: *Service must satisfy store.LedgerStore.
var _ store.LedgerStore = (*Service)(nil)

type Service struct {
	db        *sql.DB
	subledger *SubledgerService
}

func NewService(ctx context.Context, cfg models.DatabaseConfig) (*Service, error) {
	// Validate configuration
	if cfg.Path == "" {
		return nil, fmt.Errorf("database path cannot be empty")
	}
	if cfg.MaxOpenConns <= 0 {
		return nil, fmt.Errorf("max open connections must be positive, got %d", cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns < 0 {
		return nil, fmt.Errorf("max idle connections cannot be negative, got %d", cfg.MaxIdleConns)
	}
	if cfg.PingTimeout <= 0 {
		return nil, fmt.Errorf("ping timeout must be positive, got %v", cfg.PingTimeout)
	}

	zap.L().Info("Opening SQLite database", zap.String("file", cfg.Path))
	db, err := sql.Open("sqlite3", dsn(cfg))
	if err != nil {
		return nil, fmt.Errorf("unable to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	pingCtx, cancel := context.WithTimeout(ctx, cfg.PingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	service := &Service{db: db, subledger: NewSubledgerService(db)}
	if err := service.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("unable to initialize schema: %w", err)
	}

	if err := service.subledger.InitSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("unable to initialize subledger schema: %w", err)
	}

	zap.L().Info("Database service initialized successfully")
	return service, nil
}

// dsn builds the connection string. _txlock=immediate takes the write lock at
// BEGIN so ledger transactions serialize instead of failing on lock upgrade.
func dsn(cfg models.DatabaseConfig) string {
	busy := cfg.BusyTimeout.Milliseconds()
	if busy <= 0 {
		busy = 5000
	}
	return fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_cache_size=1000&_foreign_keys=1&_busy_timeout=%d&_txlock=immediate",
		cfg.Path, busy)
}

func (s *Service) Close() {
	if err := s.db.Close(); err != nil {
		zap.L().Warn("Failed to close database connection", zap.Error(err))
	}
}

func (s *Service) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS accounts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL CHECK (role IN ('artist', 'streamer', 'admin')),
		balance_cents INTEGER NOT NULL DEFAULT 0 CHECK (balance_cents >= 0),
		referral_code TEXT NOT NULL UNIQUE,
		referred_by TEXT,
		active BOOLEAN NOT NULL DEFAULT 1,
		banned BOOLEAN NOT NULL DEFAULT 0,
		ban_expires_at TIMESTAMP,
		ban_reason TEXT,
		banned_at TIMESTAMP,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_accounts_role ON accounts(role);
	CREATE INDEX IF NOT EXISTS idx_accounts_banned ON accounts(banned);

	CREATE TABLE IF NOT EXISTS tracks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		artist_id INTEGER NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
		title TEXT NOT NULL,
		filename TEXT NOT NULL,
		genre TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		plays INTEGER NOT NULL DEFAULT 0,
		earnings_cents INTEGER NOT NULL DEFAULT 0,
		active BOOLEAN NOT NULL DEFAULT 1,
		uploaded_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_tracks_artist ON tracks(artist_id);
	CREATE INDEX IF NOT EXISTS idx_tracks_active ON tracks(active);

	CREATE TABLE IF NOT EXISTS ad_sessions (
		account_id INTEGER PRIMARY KEY REFERENCES accounts(id) ON DELETE CASCADE,
		ad_nonce TEXT,
		ad_started_at TIMESTAMP,
		unlock_expires_at TIMESTAMP,
		updated_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS ad_watches (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		streamer_id INTEGER NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
		reward_cents INTEGER NOT NULL,
		watched_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_ad_watches_streamer ON ad_watches(streamer_id);

	CREATE TABLE IF NOT EXISTS plays (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		streamer_id INTEGER NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
		track_id INTEGER NOT NULL REFERENCES tracks(id) ON DELETE CASCADE,
		streamer_reward_cents INTEGER NOT NULL,
		artist_reward_cents INTEGER NOT NULL,
		played_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_plays_streamer ON plays(streamer_id);
	CREATE INDEX IF NOT EXISTS idx_plays_track ON plays(track_id);

	CREATE TABLE IF NOT EXISTS withdrawals (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		account_id INTEGER NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
		amount_cents INTEGER NOT NULL CHECK (amount_cents > 0),
		status TEXT NOT NULL CHECK (status IN ('pending', 'approved', 'rejected')),
		requested_at TIMESTAMP NOT NULL,
		processed_at TIMESTAMP,
		rejection_reason TEXT,
		processed_by INTEGER REFERENCES accounts(id)
	);

	CREATE INDEX IF NOT EXISTS idx_withdrawals_account ON withdrawals(account_id);
	CREATE INDEX IF NOT EXISTS idx_withdrawals_status ON withdrawals(status);

	CREATE TABLE IF NOT EXISTS referrals (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		referrer_id INTEGER NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
		referred_id INTEGER NOT NULL UNIQUE REFERENCES accounts(id) ON DELETE CASCADE,
		bonus_cents INTEGER NOT NULL,
		created_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_referrals_referrer ON referrals(referrer_id);
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}
