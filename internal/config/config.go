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

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"stream-earn-go/internal/models"
)

func Load() (*models.Config, error) {
	durations := map[string]time.Duration{
		"DB_CONN_MAX_LIFETIME":   5 * time.Minute,
		"DB_CONN_MAX_IDLE_TIME":  30 * time.Second,
		"DB_PING_TIMEOUT":        5 * time.Second,
		"DB_BUSY_TIMEOUT":        5 * time.Second,
		"HTTP_READ_TIMEOUT":      15 * time.Second,
		"HTTP_WRITE_TIMEOUT":     15 * time.Second,
		"HTTP_IDLE_TIMEOUT":      60 * time.Second,
		"HTTP_SHUTDOWN_TIMEOUT":  10 * time.Second,
		"HTTP_RATE_LIMIT_WINDOW": time.Minute,
		"JWT_TTL":                24 * time.Hour,
	}
	for key, defaultValue := range durations {
		value, err := getEnvDuration(key, defaultValue)
		if err != nil {
			return nil, err
		}
		durations[key] = value
	}

	cfg := &models.Config{
		Database: models.DatabaseConfig{
			Path:            getEnvString("DATABASE_PATH", "stream-earn.db"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: durations["DB_CONN_MAX_LIFETIME"],
			ConnMaxIdleTime: durations["DB_CONN_MAX_IDLE_TIME"],
			PingTimeout:     durations["DB_PING_TIMEOUT"],
			BusyTimeout:     durations["DB_BUSY_TIMEOUT"],
		},
		Server: models.ServerConfig{
			Addr:            getEnvString("HTTP_ADDR", ":8080"),
			ReadTimeout:     durations["HTTP_READ_TIMEOUT"],
			WriteTimeout:    durations["HTTP_WRITE_TIMEOUT"],
			IdleTimeout:     durations["HTTP_IDLE_TIMEOUT"],
			ShutdownTimeout: durations["HTTP_SHUTDOWN_TIMEOUT"],
			EnableH2C:       getEnvBool("HTTP_ENABLE_H2C", true),
			RateLimit:       getEnvInt("HTTP_RATE_LIMIT", 120),
			RateWindow:      durations["HTTP_RATE_LIMIT_WINDOW"],
		},
		Auth: models.AuthConfig{
			JWTSecret:  os.Getenv("JWT_SECRET"),
			Issuer:     getEnvString("JWT_ISSUER", "stream-earn"),
			TokenTTL:   durations["JWT_TTL"],
			BcryptCost: getEnvInt("BCRYPT_COST", 10),
		},
		Redis: models.RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			PoolSize: getEnvInt("REDIS_POOL_SIZE", 10),
			Prefix:   getEnvString("REDIS_PREFIX", "stream-earn"),
		},
		Jobs: models.JobsConfig{
			Enabled:           getEnvBool("JOBS_ENABLED", true),
			ReconcileSchedule: getEnvString("JOBS_RECONCILE_SCHEDULE", "@hourly"),
			BanSweepSchedule:  getEnvString("JOBS_BAN_SWEEP_SCHEDULE", "*/5 * * * *"),
		},
		Rewards:     models.DefaultRewards(),
		RewardsFile: getEnvString("REWARDS_FILE", "rewards.yaml"),
	}

	return cfg, nil
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	if value := os.Getenv(key); value != "" {
		duration, err := time.ParseDuration(value)
		if err != nil {
			return 0, fmt.Errorf("invalid duration for %s: %q (%w)", key, value, err)
		}
		return duration, nil
	}
	return defaultValue, nil
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
