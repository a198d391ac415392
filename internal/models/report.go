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

// Report kinds served by /admin/reports
const (
	ReportOverview = "overview"
	ReportEarnings = "earnings"
	ReportUsers    = "users"
	ReportMusic    = "music"
)

// Report covers the half-open range [From, To). Only the section named by
// Type is set.
type Report struct {
	Type     string          `json:"type"`
	From     time.Time       `json:"from"`
	To       time.Time       `json:"to"`
	Overview *OverviewReport `json:"overview,omitempty"`
	Earnings *EarningsReport `json:"earnings,omitempty"`
	Users    *UsersReport    `json:"users,omitempty"`
	Music    *MusicReport    `json:"music,omitempty"`
}

type OverviewReport struct {
	NewAccounts   int64           `json:"new_accounts"`
	NewTracks     int64           `json:"new_tracks"`
	Plays         int64           `json:"plays"`
	AdWatches     int64           `json:"ad_watches"`
	TotalEarnings decimal.Decimal `json:"total_earnings"`
}

// AccountEarnings is one account's credited earnings over a range
type AccountEarnings struct {
	AccountId       int64           `json:"account_id"`
	Username        string          `json:"username"`
	Role            string          `json:"role"`
	AdRewards       decimal.Decimal `json:"ad_rewards"`
	PlayRewards     decimal.Decimal `json:"play_rewards"`
	PlayRoyalties   decimal.Decimal `json:"play_royalties"`
	ReferralBonuses decimal.Decimal `json:"referral_bonuses"`
	Total           decimal.Decimal `json:"total"`
}

// EarningsReport sums the earning ledger credits of a range. Withdrawal holds
// and refunds move existing money and are not counted.
type EarningsReport struct {
	AdWatches       int64             `json:"ad_watches"`
	AdRewards       decimal.Decimal   `json:"ad_rewards"`
	PlayRewards     decimal.Decimal   `json:"play_rewards"`
	PlayRoyalties   decimal.Decimal   `json:"play_royalties"`
	ReferralBonuses decimal.Decimal   `json:"referral_bonuses"`
	Total           decimal.Decimal   `json:"total"`
	Accounts        []AccountEarnings `json:"accounts"`
}

type UsersReport struct {
	NewAccounts  int64 `json:"new_accounts"`
	NewStreamers int64 `json:"new_streamers"`
	NewArtists   int64 `json:"new_artists"`
	NewAdmins    int64 `json:"new_admins"`
	Referrals    int64 `json:"referrals"`
}

// TrackPlays is a row of the music report ranking
type TrackPlays struct {
	TrackId  int64           `json:"track_id"`
	Title    string          `json:"title"`
	ArtistId int64           `json:"artist_id"`
	Plays    int64           `json:"plays"`
	Earnings decimal.Decimal `json:"earnings"`
}

type MusicReport struct {
	NewTracks       int64           `json:"new_tracks"`
	Plays           int64           `json:"plays"`
	UniqueListeners int64           `json:"unique_listeners"`
	ArtistEarnings  decimal.Decimal `json:"artist_earnings"`
	TopTracks       []TrackPlays    `json:"top_tracks"`
}
