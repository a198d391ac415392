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

package api

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"stream-earn-go/internal/auth"
	"stream-earn-go/internal/models"
	"stream-earn-go/internal/store"

	"go.uber.org/zap"
)

// Register creates an artist or streamer account. A referral code that resolves
// to an existing account credits its owner the referral bonus; an unknown code
// is ignored and registration still succeeds.
func (s *LedgerService) Register(ctx context.Context, params models.RegisterParams) (*models.RegisterResult, error) {
	if params.Role != models.RoleArtist && params.Role != models.RoleStreamer {
		return nil, fmt.Errorf("%w: role must be artist or streamer", store.ErrInvalidInput)
	}
	return s.createAccount(ctx, params)
}

// CreateAccount provisions an account of any role, including admin. It is
// reachable only from the command line.
func (s *LedgerService) CreateAccount(ctx context.Context, params models.RegisterParams) (*models.RegisterResult, error) {
	return s.createAccount(ctx, params)
}

func (s *LedgerService) createAccount(ctx context.Context, params models.RegisterParams) (*models.RegisterResult, error) {
	params.Username = strings.TrimSpace(params.Username)
	params.Email = strings.ToLower(strings.TrimSpace(params.Email))
	params.ReferralCode = strings.TrimSpace(params.ReferralCode)
	if err := validateParams(params); err != nil {
		return nil, err
	}
	username, email := params.Username, params.Email

	hash, err := auth.HashPassword(params.Password, s.auth.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	account, referral, err := s.db.CreateAccount(ctx, store.CreateAccountParams{
		Username:      username,
		Email:         email,
		PasswordHash:  hash,
		Role:          params.Role,
		ReferrerCode:  params.ReferralCode,
		ReferralBonus: s.rewards.ReferralBonus,
		CreatedAt:     s.now(),
	})
	if err != nil {
		if !errors.Is(err, store.ErrEmailExists) && !errors.Is(err, store.ErrUsernameExists) {
			zap.L().Error("Account creation failed",
				zap.String("username", username),
				zap.String("role", params.Role),
				zap.Error(err))
		}
		return nil, err
	}

	return &models.RegisterResult{
		Account:         account,
		ReferralApplied: referral != nil,
		Referral:        referral,
	}, nil
}

// Login verifies credentials and issues an access token. Inactive and banned
// accounts are refused.
func (s *LedgerService) Login(ctx context.Context, email, password string) (*models.LoginResult, error) {
	account, err := s.db.GetAccountByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, store.ErrAccountNotFound) {
		return nil, store.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !auth.CheckPassword(account.PasswordHash, password) {
		zap.L().Info("Login failed", zap.Int64("account_id", account.Id))
		return nil, store.ErrInvalidCredentials
	}
	if !account.Active {
		return nil, store.ErrAccountInactive
	}
	if account.IsBannedAt(s.now()) {
		return nil, fmt.Errorf("%w: %s", store.ErrAccountBanned, account.BanReason)
	}

	token, expiresAt, err := auth.GenerateAccessToken(s.auth, account, s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	zap.L().Info("Login succeeded", zap.Int64("account_id", account.Id), zap.String("role", account.Role))
	return &models.LoginResult{Account: account, Token: token, ExpiresAt: expiresAt}, nil
}

func (s *LedgerService) GetAccount(ctx context.Context, accountId int64) (*models.Account, error) {
	return s.db.GetAccountById(ctx, accountId)
}

func (s *LedgerService) ListAccounts(ctx context.Context) ([]models.Account, error) {
	return s.db.ListAccounts(ctx)
}
