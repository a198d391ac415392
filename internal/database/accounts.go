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
	"errors"
	"fmt"
	"time"

	"stream-earn-go/internal/models"
	"stream-earn-go/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const referralCodeAttempts = 5

type rowScanner interface {
	Scan(dest ...any) error
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func rowExists(ctx context.Context, q queryer, query string, args ...any) (bool, error) {
	var one int
	err := q.QueryRowContext(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func scanAccount(row rowScanner) (*models.Account, error) {
	var account models.Account
	var balanceCents int64
	var referredBy, banReason sql.NullString
	var banExpiresAt, bannedAt sql.NullTime

	err := row.Scan(&account.Id, &account.Username, &account.Email, &account.PasswordHash, &account.Role,
		&balanceCents, &account.ReferralCode, &referredBy, &account.Active, &account.Banned,
		&banExpiresAt, &banReason, &bannedAt, &account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		return nil, err
	}

	account.Balance = models.FromCents(balanceCents)
	account.ReferredBy = referredBy.String
	account.BanReason = banReason.String
	if banExpiresAt.Valid {
		t := banExpiresAt.Time
		account.BanExpiresAt = &t
	}
	if bannedAt.Valid {
		t := bannedAt.Time
		account.BannedAt = &t
	}
	return &account, nil
}

func newReferralCode() string {
	return uuid.New().String()[:8]
}

// CreateAccount inserts a new account. When ReferrerCode resolves to an existing
// account the referrer is credited the referral bonus in the same transaction;
// an unknown code is skipped and the account is still created.
func (s *Service) CreateAccount(ctx context.Context, params store.CreateAccountParams) (*models.Account, *models.Referral, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if taken, err := rowExists(ctx, tx, queryEmailExists, params.Email); err != nil {
		return nil, nil, fmt.Errorf("failed to check email: %w", err)
	} else if taken {
		return nil, nil, store.ErrEmailExists
	}

	if taken, err := rowExists(ctx, tx, queryUsernameExists, params.Username); err != nil {
		return nil, nil, fmt.Errorf("failed to check username: %w", err)
	} else if taken {
		return nil, nil, store.ErrUsernameExists
	}

	code := params.ReferralCode
	if code == "" {
		code, err = uniqueReferralCode(ctx, tx)
		if err != nil {
			return nil, nil, err
		}
	}

	var referrer *models.Account
	if params.ReferrerCode != "" {
		referrer, err = scanAccount(tx.QueryRowContext(ctx, queryGetAccountByReferralCode, params.ReferrerCode))
		if errors.Is(err, sql.ErrNoRows) {
			zap.L().Info("Ignoring unknown referral code",
				zap.String("referral_code", params.ReferrerCode),
				zap.String("email", params.Email))
			referrer = nil
		} else if err != nil {
			return nil, nil, fmt.Errorf("failed to look up referral code: %w", err)
		}
	}

	referredBy := sql.NullString{}
	if referrer != nil {
		referredBy = sql.NullString{String: params.ReferrerCode, Valid: true}
	}

	account, err := scanAccount(tx.QueryRowContext(ctx, queryInsertAccount,
		params.Username, params.Email, params.PasswordHash, params.Role, code, referredBy,
		params.CreatedAt, params.CreatedAt))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to insert account: %w", err)
	}

	var referral *models.Referral
	if referrer != nil {
		bonusCents, ok := models.ToCents(params.ReferralBonus)
		if !ok || bonusCents <= 0 {
			return nil, nil, fmt.Errorf("%w: referral bonus %s", store.ErrInvalidAmount, params.ReferralBonus.String())
		}

		var referralId int64
		if err := tx.QueryRowContext(ctx, queryInsertReferral, referrer.Id, account.Id, bonusCents, params.CreatedAt).
			Scan(&referralId); err != nil {
			return nil, nil, fmt.Errorf("failed to insert referral: %w", err)
		}

		if _, err := s.subledger.applyEntry(ctx, tx, entryParams{
			AccountId:   referrer.Id,
			EntryType:   models.EntryReferralBonus,
			AmountCents: bonusCents,
			Reference:   fmt.Sprintf("referral:%d", referralId),
			CreatedAt:   params.CreatedAt,
		}); err != nil {
			return nil, nil, fmt.Errorf("failed to credit referral bonus: %w", err)
		}

		referral = &models.Referral{
			Id:         referralId,
			ReferrerId: referrer.Id,
			ReferredId: account.Id,
			Bonus:      models.FromCents(bonusCents),
			CreatedAt:  params.CreatedAt,
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	zap.L().Info("Account created",
		zap.Int64("account_id", account.Id),
		zap.String("username", account.Username),
		zap.String("role", account.Role),
		zap.Bool("referral_applied", referral != nil))

	if referral != nil {
		zap.L().Info("Referral bonus credited",
			zap.Int64("referrer_id", referral.ReferrerId),
			zap.Int64("referred_id", referral.ReferredId),
			zap.String("bonus", referral.Bonus.String()))
	}

	return account, referral, nil
}

func uniqueReferralCode(ctx context.Context, tx *sql.Tx) (string, error) {
	for i := 0; i < referralCodeAttempts; i++ {
		code := newReferralCode()
		taken, err := rowExists(ctx, tx, queryReferralCodeExists, code)
		if err != nil {
			return "", fmt.Errorf("failed to check referral code: %w", err)
		}
		if !taken {
			return code, nil
		}
	}
	return "", fmt.Errorf("unable to generate a unique referral code after %d attempts", referralCodeAttempts)
}

func (s *Service) getAccount(ctx context.Context, query string, arg any) (*models.Account, error) {
	account, err := scanAccount(s.db.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return account, nil
}

func (s *Service) GetAccountById(ctx context.Context, accountId int64) (*models.Account, error) {
	return s.getAccount(ctx, queryGetAccountById, accountId)
}

func (s *Service) GetAccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	return s.getAccount(ctx, queryGetAccountByEmail, email)
}

func (s *Service) GetAccountByReferralCode(ctx context.Context, code string) (*models.Account, error) {
	return s.getAccount(ctx, queryGetAccountByReferralCode, code)
}

func (s *Service) ListAccounts(ctx context.Context) ([]models.Account, error) {
	rows, err := s.db.QueryContext(ctx, queryListAccounts)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer rows.Close()

	var accounts []models.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, *account)
	}

	return accounts, rows.Err()
}

func (s *Service) SetAccountActive(ctx context.Context, accountId int64, active bool) error {
	return s.execAccountUpdate(ctx, querySetAccountActive, active, time.Now().UTC(), accountId)
}

func (s *Service) BanAccount(ctx context.Context, params store.BanParams) error {
	var expiresAt sql.NullTime
	if params.ExpiresAt != nil {
		expiresAt = sql.NullTime{Time: params.ExpiresAt.UTC(), Valid: true}
	}

	if err := s.execAccountUpdate(ctx, queryBanAccount,
		expiresAt, params.Reason, params.BannedAt, params.BannedAt, params.AccountId); err != nil {
		return err
	}

	zap.L().Info("Account banned",
		zap.Int64("account_id", params.AccountId),
		zap.Bool("permanent", params.ExpiresAt == nil),
		zap.String("reason", params.Reason))
	return nil
}

func (s *Service) UnbanAccount(ctx context.Context, accountId int64) error {
	if err := s.execAccountUpdate(ctx, queryUnbanAccount, time.Now().UTC(), accountId); err != nil {
		return err
	}
	zap.L().Info("Account unbanned", zap.Int64("account_id", accountId))
	return nil
}

// ClearExpiredBans lifts temporary bans whose expiry is at or before now
func (s *Service) ClearExpiredBans(ctx context.Context, now time.Time) (int64, error) {
	rows, err := s.db.QueryContext(ctx, queryListTemporaryBans)
	if err != nil {
		return 0, fmt.Errorf("failed to query temporary bans: %w", err)
	}

	var expired []int64
	for rows.Next() {
		var accountId int64
		var expiresAt time.Time
		if err := rows.Scan(&accountId, &expiresAt); err != nil {
			rows.Close()
			return 0, fmt.Errorf("failed to scan ban: %w", err)
		}
		if !now.Before(expiresAt) {
			expired = append(expired, accountId)
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return 0, err
	}
	rows.Close()

	var cleared int64
	for _, accountId := range expired {
		if err := s.UnbanAccount(ctx, accountId); err != nil {
			return cleared, err
		}
		cleared++
	}
	return cleared, nil
}

func (s *Service) execAccountUpdate(ctx context.Context, query string, args ...any) error {
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if affected == 0 {
		return store.ErrAccountNotFound
	}
	return nil
}
