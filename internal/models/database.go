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

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account roles
const (
	RoleArtist   = "artist"
	RoleStreamer = "streamer"
	RoleAdmin    = "admin"
)

// Withdrawal statuses
const (
	WithdrawalPending  = "pending"
	WithdrawalApproved = "approved"
	WithdrawalRejected = "rejected"
)

// Ledger entry types
const (
	EntryAdReward         = "ad_reward"
	EntryPlayReward       = "play_reward"
	EntryPlayRoyalty      = "play_royalty"
	EntryReferralBonus    = "referral_bonus"
	EntryWithdrawalHold   = "withdrawal_hold"
	EntryWithdrawalRefund = "withdrawal_refund"
)

// Account is a platform identity holding a monetary balance
type Account struct {
	Id           int64           `db:"id" json:"id"`
	Username     string          `db:"username" json:"username"`
	Email        string          `db:"email" json:"email"`
	PasswordHash string          `db:"password_hash" json:"-"`
	Role         string          `db:"role" json:"role"`
	Balance      decimal.Decimal `db:"balance_cents" json:"balance"`
	ReferralCode string          `db:"referral_code" json:"referral_code"`
	ReferredBy   string          `db:"referred_by" json:"referred_by,omitempty"`
	Active       bool            `db:"active" json:"active"`
	Banned       bool            `db:"banned" json:"banned"`
	BanExpiresAt *time.Time      `db:"ban_expires_at" json:"ban_expires_at,omitempty"`
	BanReason    string          `db:"ban_reason" json:"ban_reason,omitempty"`
	BannedAt     *time.Time      `db:"banned_at" json:"banned_at,omitempty"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updated_at"`
}

// IsBannedAt reports whether the ban is still in force at t. A ban without
// an expiry is permanent.
func (a *Account) IsBannedAt(t time.Time) bool {
	if !a.Banned {
		return false
	}
	if a.BanExpiresAt == nil {
		return true
	}
	return t.Before(*a.BanExpiresAt)
}

// Track is an uploaded audio file owned by one artist
type Track struct {
	Id          int64           `db:"id" json:"id"`
	ArtistId    int64           `db:"artist_id" json:"artist_id"`
	Title       string          `db:"title" json:"title"`
	Filename    string          `db:"filename" json:"filename"`
	Genre       string          `db:"genre" json:"genre"`
	Description string          `db:"description" json:"description"`
	Plays       int64           `db:"plays" json:"plays"`
	Earnings    decimal.Decimal `db:"earnings_cents" json:"earnings"`
	Active      bool            `db:"active" json:"active"`
	UploadedAt  time.Time       `db:"uploaded_at" json:"uploaded_at"`
}

// AdSession is the durable per-account ad unlock state
type AdSession struct {
	AccountId       int64      `db:"account_id" json:"account_id"`
	AdNonce         string     `db:"ad_nonce" json:"-"`
	AdStartedAt     *time.Time `db:"ad_started_at" json:"ad_started_at,omitempty"`
	UnlockExpiresAt *time.Time `db:"unlock_expires_at" json:"unlock_expires_at,omitempty"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}

// AdWatch is an immutable record of a completed ad view
type AdWatch struct {
	Id         int64           `db:"id" json:"id"`
	StreamerId int64           `db:"streamer_id" json:"streamer_id"`
	Reward     decimal.Decimal `db:"reward_cents" json:"reward"`
	WatchedAt  time.Time       `db:"watched_at" json:"watched_at"`
}

// Play is an immutable record of a rewarded track play
type Play struct {
	Id             int64           `db:"id" json:"id"`
	StreamerId     int64           `db:"streamer_id" json:"streamer_id"`
	TrackId        int64           `db:"track_id" json:"track_id"`
	StreamerReward decimal.Decimal `db:"streamer_reward_cents" json:"streamer_reward"`
	ArtistReward   decimal.Decimal `db:"artist_reward_cents" json:"artist_reward"`
	PlayedAt       time.Time       `db:"played_at" json:"played_at"`
}

// Withdrawal is a payout request and its lifecycle
type Withdrawal struct {
	Id              int64           `db:"id" json:"id"`
	AccountId       int64           `db:"account_id" json:"account_id"`
	Amount          decimal.Decimal `db:"amount_cents" json:"amount"`
	Status          string          `db:"status" json:"status"`
	RequestedAt     time.Time       `db:"requested_at" json:"requested_at"`
	ProcessedAt     *time.Time      `db:"processed_at" json:"processed_at,omitempty"`
	RejectionReason string          `db:"rejection_reason" json:"rejection_reason,omitempty"`
	ProcessedBy     *int64          `db:"processed_by" json:"processed_by,omitempty"`
}

// Referral links a referrer to the account that registered with their code
type Referral struct {
	Id         int64           `db:"id" json:"id"`
	ReferrerId int64           `db:"referrer_id" json:"referrer_id"`
	ReferredId int64           `db:"referred_id" json:"referred_id"`
	Bonus      decimal.Decimal `db:"bonus_cents" json:"bonus"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
}

// LedgerEntry is the immutable history row written with every balance mutation
type LedgerEntry struct {
	Id            string          `db:"id" json:"id"`
	AccountId     int64           `db:"account_id" json:"account_id"`
	EntryType     string          `db:"entry_type" json:"entry_type"`
	Amount        decimal.Decimal `db:"amount_cents" json:"amount"`
	BalanceBefore decimal.Decimal `db:"balance_before_cents" json:"balance_before"`
	BalanceAfter  decimal.Decimal `db:"balance_after_cents" json:"balance_after"`
	Reference     string          `db:"reference" json:"reference"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
}
