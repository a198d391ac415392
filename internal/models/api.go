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

// AdStatus is the read model of the ad unlock window
type AdStatus struct {
	Unlocked    bool       `json:"unlocked"`
	MinutesLeft int        `json:"minutes_left"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

// AdCompletion is returned when an ad watch is credited
type AdCompletion struct {
	Watch      *AdWatch        `json:"watch"`
	ExpiresAt  time.Time       `json:"expires_at"`
	NewBalance decimal.Decimal `json:"new_balance"`
}

// PlayResult is returned when a rewarded play is recorded
type PlayResult struct {
	Play               *Play           `json:"play"`
	TrackPlays         int64           `json:"track_plays"`
	TrackEarnings      decimal.Decimal `json:"track_earnings"`
	StreamerBalance    decimal.Decimal `json:"streamer_balance"`
	ArtistBalanceAfter decimal.Decimal `json:"-"`
}

// RegisterParams holds the fields of a new account
type RegisterParams struct {
	Username     string `validate:"required,max=50"`
	Email        string `validate:"required,email,max=254"`
	Password     string `validate:"required,min=6,max=72"`
	Role         string `validate:"required,oneof=admin artist streamer"`
	ReferralCode string `validate:"max=32"`
}

// TrackParams holds the fields of an uploaded track
type TrackParams struct {
	Title       string `json:"title" validate:"required,max=200"`
	Filename    string `json:"filename" validate:"required,trackfile"`
	Genre       string `json:"genre" validate:"max=50"`
	Description string `json:"description" validate:"max=1000"`
}

// RegisterResult reports the created account and whether a referral was credited
type RegisterResult struct {
	Account         *Account  `json:"account"`
	ReferralApplied bool      `json:"referral_applied"`
	Referral        *Referral `json:"referral,omitempty"`
}

// LoginResult carries an issued access token
type LoginResult struct {
	Account   *Account  `json:"account"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// StreamerStats summarises a streamer's activity
type StreamerStats struct {
	TotalPlays       int64           `json:"total_plays"`
	AdsWatched       int64           `json:"ads_watched"`
	Balance          decimal.Decimal `json:"balance"`
	ReferralCount    int64           `json:"referral_count"`
	ReferralEarnings decimal.Decimal `json:"referral_earnings"`
}

// ArtistStats summarises an artist's catalogue
type ArtistStats struct {
	TotalEarnings   decimal.Decimal `json:"total_earnings"`
	TotalPlays      int64           `json:"total_plays"`
	UniqueListeners int64           `json:"unique_listeners"`
	TrackCount      int64           `json:"track_count"`
	TopTracks       []Track         `json:"top_tracks"`
}

// ArtistEarnings is a row of the top-artists ranking
type ArtistEarnings struct {
	AccountId int64           `json:"account_id"`
	Username  string          `json:"username"`
	Earnings  decimal.Decimal `json:"earnings"`
}

// PlatformOverview is the admin dashboard summary
type PlatformOverview struct {
	TotalAccounts      int64            `json:"total_accounts"`
	Streamers          int64            `json:"streamers"`
	Artists            int64            `json:"artists"`
	TotalTracks        int64            `json:"total_tracks"`
	ActiveTracks       int64            `json:"active_tracks"`
	TotalPlays         int64            `json:"total_plays"`
	TotalTrackEarnings decimal.Decimal  `json:"total_track_earnings"`
	PendingWithdrawals int64            `json:"pending_withdrawals"`
	PendingAmount      decimal.Decimal  `json:"pending_amount"`
	TopArtists         []ArtistEarnings `json:"top_artists"`
}

// ReconcileResult reports a mismatch between a stored balance and its ledger
type ReconcileResult struct {
	AccountId     int64           `json:"account_id"`
	StoredBalance decimal.Decimal `json:"stored_balance"`
	LedgerBalance decimal.Decimal `json:"ledger_balance"`
}
