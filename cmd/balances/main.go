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
	"stream-earn-go/internal/database"
	"stream-earn-go/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type balanceStats struct {
	totalAccounts int
	funded        int
	inconsistent  int
	totalHeld     decimal.Decimal
}

func formatReference(ref string) string {
	if ref == "" {
		return "none"
	}
	if len(ref) > 8 {
		return ref[:8] + "..."
	}
	return ref
}

func printEntry(entry models.LedgerEntry, isLast bool) {
	fmt.Printf("%s %-18s: %10s -> %10s\n",
		common.BoxPrefix(isLast),
		entry.EntryType,
		common.FormatAmount(entry.Amount),
		common.FormatAmount(entry.BalanceAfter))
	fmt.Printf("%s   ref: %s, at: %s\n",
		common.BoxDetailPrefix(isLast),
		formatReference(entry.Reference),
		common.FormatTimestamp(&entry.CreatedAt))
}

func printAccountHeader(account models.Account) {
	fmt.Printf("\n┌─ Account: %s (%s, %s)\n", account.Username, account.Email, account.Role)
	fmt.Printf("│  ID: %d\n", account.Id)
	fmt.Printf("│  Balance: %s\n", common.FormatAmount(account.Balance))
	if account.Banned {
		fmt.Printf("│  Banned: %s\n", account.BanReason)
	}
	common.PrintBoxSeparator(common.DefaultWidth - 2)
}

func processAccount(ctx context.Context, account models.Account, dbService *database.Service, history int) (bool, error) {
	printAccountHeader(account)

	consistent := true
	if err := dbService.ReconcileAccount(ctx, account.Id); err != nil {
		fmt.Printf("%s ledger mismatch: %v\n", common.BoxPrefix(history == 0), err)
		consistent = false
	}

	if history == 0 {
		return consistent, nil
	}

	entries, err := dbService.GetLedgerHistory(ctx, account.Id, history, 0)
	if err != nil {
		return consistent, fmt.Errorf("failed to get ledger history: %w", err)
	}
	if len(entries) == 0 {
		fmt.Printf("%s no ledger entries\n", common.BoxPrefix(true))
	}
	for i, entry := range entries {
		printEntry(entry, i == len(entries)-1)
	}
	return consistent, nil
}

func main() {
	ctx := context.Background()

	logger, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	emailFlag := flag.String("email", "", "Filter by account email (optional)")
	historyFlag := flag.Int("history", 5, "Ledger entries to show per account (0 to hide)")
	flag.Parse()

	logger.Info("Starting balance report")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	logger.Info("Connecting to database", zap.String("path", cfg.Database.Path))
	dbService, err := common.InitializeDatabaseOnly(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer dbService.Close()

	accounts, err := common.InitializeAccounts(ctx, dbService, *emailFlag, logger)
	if err != nil {
		logger.Fatal("Failed to initialize accounts", zap.Error(err))
	}

	common.PrintHeader("ACCOUNT BALANCE REPORT", common.DefaultWidth)

	var stats balanceStats
	for _, account := range accounts {
		stats.totalAccounts++

		consistent, err := processAccount(ctx, account, dbService, *historyFlag)
		if err != nil {
			logger.Error("Failed to process account",
				zap.Int64("account_id", account.Id),
				zap.String("username", account.Username),
				zap.Error(err))
			continue
		}
		if !consistent {
			stats.inconsistent++
		}
		if account.Balance.IsPositive() {
			stats.funded++
			stats.totalHeld = stats.totalHeld.Add(account.Balance)
		}
	}

	summary := fmt.Sprintf("SUMMARY: %d of %d accounts hold funds, %s total, %d inconsistent",
		stats.funded, stats.totalAccounts, common.FormatAmount(stats.totalHeld), stats.inconsistent)
	common.PrintFooter(summary, common.DefaultWidth)

	logger.Info("Balance report completed",
		zap.Int("accounts_queried", stats.totalAccounts),
		zap.Int("accounts_with_funds", stats.funded),
		zap.Int("inconsistent", stats.inconsistent))
}
