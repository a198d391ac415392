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
	"strings"

	"stream-earn-go/internal/common"
	"stream-earn-go/internal/config"
	"stream-earn-go/internal/models"
	"stream-earn-go/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type processRequest struct {
	adminEmail   string
	withdrawalId int64
	decision     string
	reason       string
	list         bool
}

func parseAndValidateFlags() (*processRequest, error) {
	adminFlag := flag.String("admin", "", "Email of the admin processing the request (required)")
	idFlag := flag.Int64("id", 0, "Withdrawal id to process")
	decisionFlag := flag.String("decision", "", "approved or rejected")
	reasonFlag := flag.String("reason", "", "Rejection reason (optional)")
	listFlag := flag.Bool("list", false, "List pending withdrawals and exit")
	flag.Parse()

	req := &processRequest{
		adminEmail:   strings.TrimSpace(*adminFlag),
		withdrawalId: *idFlag,
		decision:     strings.ToLower(strings.TrimSpace(*decisionFlag)),
		reason:       *reasonFlag,
		list:         *listFlag,
	}
	if req.list {
		return req, nil
	}

	if req.adminEmail == "" || req.withdrawalId <= 0 || req.decision == "" {
		return nil, fmt.Errorf("flags are required: --admin, --id and --decision (or --list)")
	}
	if req.decision != models.WithdrawalApproved && req.decision != models.WithdrawalRejected {
		return nil, fmt.Errorf("decision must be approved or rejected: %s", req.decision)
	}
	return req, nil
}

func printPending(withdrawals []models.Withdrawal) {
	common.PrintHeader("PENDING WITHDRAWALS", common.DefaultWidth)
	if len(withdrawals) == 0 {
		fmt.Println("No pending withdrawals")
	}
	for i, w := range withdrawals {
		fmt.Printf("%s #%-6d account %-6d %12s  requested %s\n",
			common.BoxPrefix(i == len(withdrawals)-1),
			w.Id,
			w.AccountId,
			common.FormatAmount(w.Amount),
			common.FormatTimestamp(&w.RequestedAt))
	}
	common.PrintSeparator("=", common.DefaultWidth)
}

func printResult(w *models.Withdrawal, account *models.Account) {
	common.PrintHeader("WITHDRAWAL PROCESSED", common.DefaultWidth)
	fmt.Printf("Withdrawal:   #%d\n", w.Id)
	fmt.Printf("Account:      %s (%s)\n", account.Username, account.Email)
	fmt.Printf("Amount:       %s\n", common.FormatAmount(w.Amount))
	fmt.Printf("Status:       %s\n", w.Status)
	if w.RejectionReason != "" {
		fmt.Printf("Reason:       %s\n", w.RejectionReason)
	}
	fmt.Printf("Balance Now:  %s\n", common.FormatAmount(account.Balance))
	common.PrintSeparator("=", common.DefaultWidth)
}

func main() {
	ctx := context.Background()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	req, err := parseAndValidateFlags()
	if err != nil {
		zap.L().Fatal("Invalid flags", zap.Error(err))
	}

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load config", zap.Error(err))
	}

	zap.L().Info("Initializing services")
	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	if req.list {
		pending, err := services.LedgerService.ListWithdrawals(ctx, 0, models.WithdrawalPending)
		if err != nil {
			zap.L().Fatal("Failed to list withdrawals", zap.Error(err))
		}
		printPending(pending)
		return
	}

	admin, err := services.DbService.GetAccountByEmail(ctx, req.adminEmail)
	if err != nil {
		zap.L().Fatal("Admin not found", zap.String("email", req.adminEmail), zap.Error(err))
	}

	ctx = models.WithActor(ctx, &models.Actor{
		AccountId: admin.Id,
		Role:      admin.Role,
		RequestId: uuid.New().String(),
		Source:    "cli",
	})

	zap.L().Info("Processing withdrawal",
		zap.Int64("withdrawal_id", req.withdrawalId),
		zap.String("decision", req.decision),
		zap.String("admin", admin.Email))

	withdrawal, err := services.LedgerService.ProcessWithdrawal(ctx, admin.Id, req.withdrawalId, req.decision, req.reason)
	if err != nil {
		common.PrintHeader("WITHDRAWAL FAILED", common.DefaultWidth)
		switch {
		case errors.Is(err, store.ErrNotPending):
			fmt.Printf("Withdrawal #%d was already processed\n", req.withdrawalId)
		case errors.Is(err, store.ErrWithdrawalNotFound):
			fmt.Printf("Withdrawal #%d does not exist\n", req.withdrawalId)
		case errors.Is(err, store.ErrWrongRole):
			fmt.Printf("%s is not an admin\n", admin.Email)
		default:
			fmt.Printf("Error: %v\n", err)
		}
		common.PrintSeparator("=", common.DefaultWidth)
		zap.L().Fatal("Failed to process withdrawal", zap.Error(err))
	}

	account, err := services.LedgerService.GetAccount(ctx, withdrawal.AccountId)
	if err != nil {
		zap.L().Fatal("Failed to load account", zap.Error(err))
	}
	printResult(withdrawal, account)

	zap.L().Info("Withdrawal processed",
		zap.Int64("withdrawal_id", withdrawal.Id),
		zap.String("status", withdrawal.Status))
}
