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
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"stream-earn-go/internal/api"
	"stream-earn-go/internal/common"
	"stream-earn-go/internal/config"
	"stream-earn-go/internal/database"
	"stream-earn-go/internal/models"

	"go.uber.org/zap"
)

const timeLayout = time.RFC3339

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

func exportAccounts(ctx context.Context, db *database.Service, w *csv.Writer) (int, error) {
	accounts, err := db.ListAccounts(ctx)
	if err != nil {
		return 0, err
	}

	if err := w.Write([]string{"id", "username", "email", "role", "balance", "active", "banned", "ban_expires_at", "created_at"}); err != nil {
		return 0, err
	}
	for _, a := range accounts {
		if err := w.Write([]string{
			strconv.FormatInt(a.Id, 10),
			a.Username,
			a.Email,
			a.Role,
			a.Balance.StringFixed(2),
			strconv.FormatBool(a.Active),
			strconv.FormatBool(a.Banned),
			formatTime(a.BanExpiresAt),
			a.CreatedAt.UTC().Format(timeLayout),
		}); err != nil {
			return 0, err
		}
	}
	return len(accounts), nil
}

func exportTracks(ctx context.Context, db *database.Service, w *csv.Writer) (int, error) {
	tracks, err := db.ListTracks(ctx)
	if err != nil {
		return 0, err
	}

	if err := w.Write([]string{"id", "artist_id", "title", "genre", "plays", "earnings", "active", "uploaded_at"}); err != nil {
		return 0, err
	}
	for _, t := range tracks {
		if err := w.Write([]string{
			strconv.FormatInt(t.Id, 10),
			strconv.FormatInt(t.ArtistId, 10),
			t.Title,
			t.Genre,
			strconv.FormatInt(t.Plays, 10),
			t.Earnings.StringFixed(2),
			strconv.FormatBool(t.Active),
			t.UploadedAt.UTC().Format(timeLayout),
		}); err != nil {
			return 0, err
		}
	}
	return len(tracks), nil
}

func exportWithdrawals(ctx context.Context, db *database.Service, w *csv.Writer, status string) (int, error) {
	withdrawals, err := db.ListWithdrawals(ctx, 0, status)
	if err != nil {
		return 0, err
	}

	if err := w.Write([]string{"id", "account_id", "amount", "status", "requested_at", "processed_at", "processed_by", "rejection_reason"}); err != nil {
		return 0, err
	}
	for _, wd := range withdrawals {
		processedBy := ""
		if wd.ProcessedBy != nil {
			processedBy = strconv.FormatInt(*wd.ProcessedBy, 10)
		}
		if err := w.Write([]string{
			strconv.FormatInt(wd.Id, 10),
			strconv.FormatInt(wd.AccountId, 10),
			wd.Amount.StringFixed(2),
			wd.Status,
			wd.RequestedAt.UTC().Format(timeLayout),
			formatTime(wd.ProcessedAt),
			processedBy,
			wd.RejectionReason,
		}); err != nil {
			return 0, err
		}
	}
	return len(withdrawals), nil
}

func exportLedger(ctx context.Context, db *database.Service, w *csv.Writer, accountId int64) (int, error) {
	var accounts []models.Account
	if accountId > 0 {
		account, err := db.GetAccountById(ctx, accountId)
		if err != nil {
			return 0, err
		}
		accounts = []models.Account{*account}
	} else {
		all, err := db.ListAccounts(ctx)
		if err != nil {
			return 0, err
		}
		accounts = all
	}

	if err := w.Write([]string{"id", "account_id", "entry_type", "amount", "balance_before", "balance_after", "reference", "created_at"}); err != nil {
		return 0, err
	}

	const pageSize = 100
	rows := 0
	for _, a := range accounts {
		for offset := 0; ; offset += pageSize {
			entries, err := db.GetLedgerHistory(ctx, a.Id, pageSize, offset)
			if err != nil {
				return rows, err
			}
			for _, e := range entries {
				if err := w.Write([]string{
					e.Id,
					strconv.FormatInt(e.AccountId, 10),
					e.EntryType,
					e.Amount.StringFixed(2),
					e.BalanceBefore.StringFixed(2),
					e.BalanceAfter.StringFixed(2),
					e.Reference,
					e.CreatedAt.UTC().Format(timeLayout),
				}); err != nil {
					return rows, err
				}
				rows++
			}
			if len(entries) < pageSize {
				break
			}
		}
	}
	return rows, nil
}

// exportEarnings writes one row per account with the ad, play, royalty and
// referral credits it earned in [from, to).
func exportEarnings(ctx context.Context, db *database.Service, w *csv.Writer, from, to time.Time) (int, error) {
	report, err := db.GetEarningsReport(ctx, from, to)
	if err != nil {
		return 0, err
	}

	if err := w.Write([]string{"account_id", "username", "role", "ad_rewards", "play_rewards", "play_royalties", "referral_bonuses", "total", "from", "to"}); err != nil {
		return 0, err
	}
	for _, e := range report.Accounts {
		if err := w.Write([]string{
			strconv.FormatInt(e.AccountId, 10),
			e.Username,
			e.Role,
			e.AdRewards.StringFixed(2),
			e.PlayRewards.StringFixed(2),
			e.PlayRoyalties.StringFixed(2),
			e.ReferralBonuses.StringFixed(2),
			e.Total.StringFixed(2),
			formatTime(&from),
			formatTime(&to),
		}); err != nil {
			return 0, err
		}
	}
	return len(report.Accounts), nil
}

func main() {
	ctx := context.Background()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	kindFlag := flag.String("kind", "accounts", "What to export: accounts, tracks, withdrawals, ledger or earnings")
	outFlag := flag.String("out", "", "Output file (default stdout)")
	statusFlag := flag.String("status", "", "Withdrawal status filter (withdrawals only)")
	accountFlag := flag.Int64("account", 0, "Account id (ledger only, default all)")
	fromFlag := flag.String("from", "", "First day YYYY-MM-DD (earnings only, default 30 days back)")
	toFlag := flag.String("to", "", "Last day YYYY-MM-DD (earnings only, default today)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load config", zap.Error(err))
	}

	dbService, err := common.InitializeDatabaseOnly(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize database", zap.Error(err))
	}
	defer dbService.Close()

	var out io.Writer = os.Stdout
	if *outFlag != "" {
		f, err := os.Create(*outFlag)
		if err != nil {
			zap.L().Fatal("Failed to create output file", zap.String("file", *outFlag), zap.Error(err))
		}
		defer f.Close()
		out = f
	}

	w := csv.NewWriter(out)
	var rows int
	switch *kindFlag {
	case "accounts":
		rows, err = exportAccounts(ctx, dbService, w)
	case "tracks":
		rows, err = exportTracks(ctx, dbService, w)
	case "withdrawals":
		rows, err = exportWithdrawals(ctx, dbService, w, *statusFlag)
	case "ledger":
		rows, err = exportLedger(ctx, dbService, w, *accountFlag)
	case "earnings":
		var from, to time.Time
		from, to, err = api.ParseReportRange(*fromFlag, *toFlag, time.Now())
		if err == nil {
			rows, err = exportEarnings(ctx, dbService, w, from, to)
		}
	default:
		err = fmt.Errorf("unknown kind %q", *kindFlag)
	}
	if err != nil {
		zap.L().Fatal("Export failed", zap.String("kind", *kindFlag), zap.Error(err))
	}

	w.Flush()
	if err := w.Error(); err != nil {
		zap.L().Fatal("Failed to write csv", zap.Error(err))
	}

	zap.L().Info("Export completed",
		zap.String("kind", *kindFlag),
		zap.Int("rows", rows))
}
