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
	"errors"
	"flag"
	"fmt"

	"stream-earn-go/internal/common"
	"stream-earn-go/internal/config"
	"stream-earn-go/internal/models"
	"stream-earn-go/internal/store"

	"go.uber.org/zap"
)

func validateRole(role string) error {
	switch role {
	case models.RoleAdmin, models.RoleArtist, models.RoleStreamer:
		return nil
	}
	return fmt.Errorf("role must be one of admin, artist, streamer: %s", role)
}

func main() {
	ctx := context.Background()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	usernameFlag := flag.String("username", "", "Username (required)")
	emailFlag := flag.String("email", "", "Email address (required)")
	passwordFlag := flag.String("password", "", "Password, at least 6 characters (required)")
	roleFlag := flag.String("role", models.RoleAdmin, "Role: admin, artist or streamer")
	referralFlag := flag.String("referral-code", "", "Referral code to credit (optional)")
	flag.Parse()

	if *usernameFlag == "" || *emailFlag == "" || *passwordFlag == "" {
		zap.L().Fatal("Flags are required: --username, --email and --password")
	}
	if err := validateRole(*roleFlag); err != nil {
		zap.L().Fatal("Invalid role", zap.Error(err))
	}

	zap.L().Info("Starting account creation",
		zap.String("username", *usernameFlag),
		zap.String("email", *emailFlag),
		zap.String("role", *roleFlag))

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load config", zap.Error(err))
	}

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	result, err := services.LedgerService.CreateAccount(ctx, models.RegisterParams{
		Username:     *usernameFlag,
		Email:        *emailFlag,
		Password:     *passwordFlag,
		Role:         *roleFlag,
		ReferralCode: *referralFlag,
	})
	if err != nil {
		if errors.Is(err, store.ErrEmailExists) || errors.Is(err, store.ErrUsernameExists) {
			zap.L().Fatal("Account already exists", zap.Error(err))
		}
		zap.L().Fatal("Failed to create account", zap.Error(err))
	}

	account := result.Account
	fmt.Println()
	common.PrintHeader("ACCOUNT CREATED", common.DefaultWidth)
	fmt.Printf("ID:            %d\n", account.Id)
	fmt.Printf("Username:      %s\n", account.Username)
	fmt.Printf("Email:         %s\n", account.Email)
	fmt.Printf("Role:          %s\n", account.Role)
	fmt.Printf("Referral Code: %s\n", account.ReferralCode)
	if result.ReferralApplied {
		fmt.Printf("Referred By:   %s (bonus %s)\n", account.ReferredBy, common.FormatAmount(result.Referral.Bonus))
	}
	common.PrintSeparator("=", common.DefaultWidth)
	fmt.Println()

	zap.L().Info("Account created successfully",
		zap.Int64("id", account.Id),
		zap.String("role", account.Role))
}
