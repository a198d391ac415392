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

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Auth     AuthConfig
	Redis    RedisConfig
	Jobs     JobsConfig
	Rewards  RewardsConfig

	// RewardsFile is an optional YAML payout schedule overriding DefaultRewards
	RewardsFile string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
	BusyTimeout     time.Duration
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	EnableH2C       bool
	RateLimit       int
	RateWindow      time.Duration
}

// AuthConfig holds token signing and password hashing settings
type AuthConfig struct {
	JWTSecret  string
	Issuer     string
	TokenTTL   time.Duration
	BcryptCost int
}

// RedisConfig configures the optional unlock window cache. An empty Addr
// disables the cache.
type RedisConfig struct {
	Addr     string
	PoolSize int
	Prefix   string
}

// JobsConfig holds cron schedules for maintenance jobs
type JobsConfig struct {
	Enabled           bool
	ReconcileSchedule string
	BanSweepSchedule  string
}

// RewardsConfig is the payout schedule
type RewardsConfig struct {
	AdReward           decimal.Decimal
	StreamerPlayReward decimal.Decimal
	ArtistPlayReward   decimal.Decimal
	ReferralBonus      decimal.Decimal
	MinimumWithdrawal  decimal.Decimal
	AdMinDuration      time.Duration
	UnlockWindow       time.Duration
	MaxTracksPerArtist int
}

// DefaultRewards returns the standard payout schedule
func DefaultRewards() RewardsConfig {
	return RewardsConfig{
		AdReward:           decimal.RequireFromString("0.02"),
		StreamerPlayReward: decimal.RequireFromString("0.02"),
		ArtistPlayReward:   decimal.RequireFromString("0.05"),
		ReferralBonus:      decimal.RequireFromString("5.00"),
		MinimumWithdrawal:  decimal.RequireFromString("10.00"),
		AdMinDuration:      30 * time.Second,
		UnlockWindow:       30 * time.Minute,
		MaxTracksPerArtist: 50,
	}
}
