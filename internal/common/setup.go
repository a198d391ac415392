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

package common

import (
	"context"
	"fmt"
	"log"
	"strings"

	"stream-earn-go/internal/api"
	"stream-earn-go/internal/cache"
	"stream-earn-go/internal/database"
	"stream-earn-go/internal/gate"
	"stream-earn-go/internal/models"

	"github.com/joho/godotenv"
	radix "github.com/mediocregopher/radix/v3"
	"go.uber.org/zap"
)

// init loads environment variables from .env file if it exists
func init() {
	// Environment variables can also be set via shell export, docker, etc.
	if err := godotenv.Load(); err != nil {
		log.Printf("Note: No .env file found or unable to load it: %v\n", err)
		log.Println("Make sure to set environment variables via export or other means")
	} else {
		log.Println("✓ Loaded environment variables from .env file")
	}
}

type Services struct {
	DbService     *database.Service
	Redis         radix.Client
	Gate          *gate.Gate
	LedgerService *api.LedgerService
	Rewards       models.RewardsConfig
}

func InitializeLogger() (*zap.Logger, func()) {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	zap.ReplaceGlobals(logger)

	cleanup := func() {
		if err := logger.Sync(); err != nil {
			if !isIgnorableSyncError(err) {
				log.Printf("Failed to sync logger: %v\n", err)
			}
		}
	}

	return logger, cleanup
}

// InitializeServices opens the database, the optional redis cache, and builds
// the gate and ledger service on the payout schedule from cfg.RewardsFile.
func InitializeServices(ctx context.Context, cfg *models.Config) (*Services, error) {
	rewards, err := LoadRewards(cfg.RewardsFile, cfg.Rewards)
	if err != nil {
		return nil, fmt.Errorf("failed to load rewards: %w", err)
	}

	dbService, err := database.NewService(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	redisClient, err := cache.Dial(cfg.Redis)
	if err != nil {
		dbService.Close()
		return nil, err
	}

	var windowCache gate.WindowCache
	if redisClient != nil {
		windowCache = cache.NewUnlockCache(redisClient, cfg.Redis.Prefix)
	}

	g := gate.NewGate(dbService, windowCache, rewards, nil)
	ledger := api.NewLedgerService(dbService, g, rewards, cfg.Auth, nil)

	zap.L().Info("Services initialized",
		zap.String("database", cfg.Database.Path),
		zap.Bool("unlock_cache", redisClient != nil))

	return &Services{
		DbService:     dbService,
		Redis:         redisClient,
		Gate:          g,
		LedgerService: ledger,
		Rewards:       rewards,
	}, nil
}

// InitializeDatabaseOnly initializes just the database service
// Useful for read-only operations like reports and exports
func InitializeDatabaseOnly(ctx context.Context, cfg *models.Config) (*database.Service, error) {
	dbService, err := database.NewService(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	return dbService, nil
}

func (cs *Services) Close() {
	if cs.Redis != nil {
		if err := cs.Redis.Close(); err != nil {
			zap.L().Warn("Failed to close redis pool", zap.Error(err))
		}
	}
	if cs.DbService != nil {
		cs.DbService.Close()
	}
}

func isIgnorableSyncError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "sync /dev/stderr: inappropriate ioctl for device") ||
		strings.Contains(msg, "sync /dev/stdout: inappropriate ioctl for device")
}
