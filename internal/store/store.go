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

package store

import (
	"context"
	"errors"
	"time"

	"stream-earn-go/internal/models"

	"github.com/shopspring/decimal"
)

// Sentinel errors shared by the storage layer, the ledger engine and the HTTP layer.
var (
	ErrPrematureCompletion = errors.New("ad was not watched long enough")
	ErrNoAdStarted         = errors.New("no ad started")
	ErrLocked              = errors.New("watch an ad to unlock rewarded plays")
	ErrTrackNotFound       = errors.New("track not found")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrBelowMinimum        = errors.New("amount is below the minimum withdrawal")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrNotPending          = errors.New("withdrawal is not pending")
	ErrWithdrawalNotFound  = errors.New("withdrawal not found")
	ErrInvalidDecision     = errors.New("decision must be approved or rejected")
	ErrAccountNotFound     = errors.New("account not found")
	ErrWrongRole           = errors.New("operation not permitted for this role")
	ErrAccountBanned       = errors.New("account is banned")
	ErrAccountInactive     = errors.New("account is inactive")
	ErrEmailExists         = errors.New("email already exists")
	ErrUsernameExists      = errors.New("username already exists")
	ErrTrackLimitReached   = errors.New("track limit reached")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrSelfAction          = errors.New("cannot perform this action on your own account")
	ErrInvalidBanDuration  = errors.New("invalid ban duration")
	ErrInvalidInput        = errors.New("invalid input")
	ErrBalanceMismatch     = errors.New("balance does not match ledger")
)

// CreateAccountParams contains the fields for a new account. ReferrerCode is the
// code supplied at registration; an unknown code is ignored.
type CreateAccountParams struct {
	Username      string
	Email         string
	PasswordHash  string
	Role          string
	ReferralCode  string
	ReferrerCode  string
	ReferralBonus decimal.Decimal
	CreatedAt     time.Time
}

// CompleteAdParams credits an ad watch. AdNonce must match the stored start so
// a single ad cannot be completed twice.
type CompleteAdParams struct {
	AccountId       int64
	AdNonce         string
	Reward          decimal.Decimal
	CompletedAt     time.Time
	UnlockExpiresAt time.Time
}

// RecordPlayParams contains the payouts for a single rewarded play.
type RecordPlayParams struct {
	StreamerId     int64
	TrackId        int64
	StreamerReward decimal.Decimal
	ArtistReward   decimal.Decimal
	PlayedAt       time.Time
}

// WithdrawalRequestParams debits Amount and opens a pending withdrawal.
type WithdrawalRequestParams struct {
	AccountId   int64
	Amount      decimal.Decimal
	RequestedAt time.Time
}

// ProcessWithdrawalParams settles a pending withdrawal.
type ProcessWithdrawalParams struct {
	WithdrawalId int64
	Decision     string // approved | rejected
	Reason       string
	ProcessedBy  int64
	ProcessedAt  time.Time
}

// CreateTrackParams contains the metadata of an uploaded track.
type CreateTrackParams struct {
	ArtistId    int64
	Title       string
	Filename    string
	Genre       string
	Description string
	MaxTracks   int
	UploadedAt  time.Time
}

// BanParams bans an account. A nil ExpiresAt is a permanent ban.
type BanParams struct {
	AccountId int64
	ExpiresAt *time.Time
	Reason    string
	BannedAt  time.Time
}

// LedgerStore is the persistence contract of the earnings ledger. Every method
// that mutates a balance does so in one transaction together with its history rows.
type LedgerStore interface {
	// --- Accounts ---
	CreateAccount(ctx context.Context, params CreateAccountParams) (*models.Account, *models.Referral, error)
	GetAccountById(ctx context.Context, accountId int64) (*models.Account, error)
	GetAccountByEmail(ctx context.Context, email string) (*models.Account, error)
	GetAccountByReferralCode(ctx context.Context, code string) (*models.Account, error)
	ListAccounts(ctx context.Context) ([]models.Account, error)
	SetAccountActive(ctx context.Context, accountId int64, active bool) error
	BanAccount(ctx context.Context, params BanParams) error
	UnbanAccount(ctx context.Context, accountId int64) error
	ClearExpiredBans(ctx context.Context, now time.Time) (int64, error)

	// --- Tracks ---
	CreateTrack(ctx context.Context, params CreateTrackParams) (*models.Track, error)
	GetTrack(ctx context.Context, trackId int64) (*models.Track, error)
	ListActiveTracks(ctx context.Context) ([]models.Track, error)
	ListArtistTracks(ctx context.Context, artistId int64) ([]models.Track, error)
	ListTracks(ctx context.Context) ([]models.Track, error)
	SetTrackActive(ctx context.Context, trackId int64, active bool) error

	// --- Ad unlock state ---
	SaveAdStart(ctx context.Context, accountId int64, nonce string, startedAt time.Time) error
	GetAdSession(ctx context.Context, accountId int64) (*models.AdSession, error)
	CompleteAdWatch(ctx context.Context, params CompleteAdParams) (*models.AdWatch, decimal.Decimal, error)
	ClearUnlock(ctx context.Context, accountId int64, now time.Time) (bool, error)

	// --- Ledger events ---
	RecordPlay(ctx context.Context, params RecordPlayParams) (*models.PlayResult, error)
	RequestWithdrawal(ctx context.Context, params WithdrawalRequestParams) (*models.Withdrawal, error)
	ProcessWithdrawal(ctx context.Context, params ProcessWithdrawalParams) (*models.Withdrawal, error)
	GetWithdrawal(ctx context.Context, withdrawalId int64) (*models.Withdrawal, error)
	ListWithdrawals(ctx context.Context, accountId int64, status string) ([]models.Withdrawal, error)

	// --- History and reconciliation ---
	GetLedgerHistory(ctx context.Context, accountId int64, limit, offset int) ([]models.LedgerEntry, error)
	ReconcileAccount(ctx context.Context, accountId int64) error
	ReconcileAll(ctx context.Context) ([]models.ReconcileResult, error)

	// --- Stats ---
	GetStreamerStats(ctx context.Context, accountId int64) (*models.StreamerStats, error)
	GetArtistStats(ctx context.Context, artistId int64, topN int) (*models.ArtistStats, error)
	GetPlatformOverview(ctx context.Context, topN int) (*models.PlatformOverview, error)

	// --- Reports over [from, to) ---
	GetEarningsReport(ctx context.Context, from, to time.Time) (*models.EarningsReport, error)
	GetUsersReport(ctx context.Context, from, to time.Time) (*models.UsersReport, error)
	GetMusicReport(ctx context.Context, from, to time.Time, topN int) (*models.MusicReport, error)

	// --- Lifecycle ---
	Close()
}
