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

package main

import (
	"context"
	"flag"
	"fmt"

	"stream-earn-go/internal/common"
	"stream-earn-go/internal/config"
	"stream-earn-go/internal/models"

	"go.uber.org/zap"
)

func printRewards(rewards models.RewardsConfig) {
	common.PrintHeader("PAYOUT SCHEDULE", common.DefaultWidth)
	fmt.Printf("Ad Reward:            %s\n", common.FormatAmount(rewards.AdReward))
	fmt.Printf("Streamer Play Reward: %s\n", common.FormatAmount(rewards.StreamerPlayReward))
	fmt.Printf("Artist Play Reward:   %s\n", common.FormatAmount(rewards.ArtistPlayReward))
	fmt.Printf("Referral Bonus:       %s\n", common.FormatAmount(rewards.ReferralBonus))
	fmt.Printf("Minimum Withdrawal:   %s\n", common.FormatAmount(rewards.MinimumWithdrawal))
	fmt.Printf("Minimum Ad Duration:  %s\n", rewards.AdMinDuration)
	fmt.Printf("Unlock Window:        %s\n", rewards.UnlockWindow)
	fmt.Printf("Max Tracks / Artist:  %d\n", rewards.MaxTracksPerArtist)
	common.PrintSeparator("=", common.DefaultWidth)
}

func main() {
	ctx := context.Background()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	rewardsFlag := flag.String("rewards", "", "Rewards file to validate (overrides REWARDS_FILE)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load config", zap.Error(err))
	}
	if *rewardsFlag != "" {
		cfg.RewardsFile = *rewardsFlag
	}

	zap.L().Info("Validating payout schedule", zap.String("file", cfg.RewardsFile))
	rewards, err := common.LoadRewards(cfg.RewardsFile, cfg.Rewards)
	if err != nil {
		zap.L().Fatal("Invalid rewards file", zap.Error(err))
	}

	// Opening the database applies the schema.
	zap.L().Info("Initializing database", zap.String("path", cfg.Database.Path))
	dbService, err := common.InitializeDatabaseOnly(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize database", zap.Error(err))
	}
	defer dbService.Close()

	accounts, err := dbService.ListAccounts(ctx)
	if err != nil {
		zap.L().Fatal("Failed to read accounts", zap.Error(err))
	}

	printRewards(rewards)

	admins := 0
	for _, a := range accounts {
		if a.Role == models.RoleAdmin {
			admins++
		}
	}
	fmt.Printf("\nDatabase ready at %s (%d accounts, %d admins)\n", cfg.Database.Path, len(accounts), admins)
	if admins == 0 {
		fmt.Println("No admin account yet. Create one with:")
		fmt.Println("  go run cmd/adduser/main.go --username admin --email admin@example.com --password <password>")
	}

	zap.L().Info("Setup completed",
		zap.Int("accounts", len(accounts)),
		zap.Int("admins", admins))
}
