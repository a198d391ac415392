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
	"fmt"
	"sort"
	"time"

	"stream-earn-go/internal/models"
)

// inRange reports whether t falls in [from, to)
func inRange(t, from, to time.Time) bool {
	return !t.Before(from) && t.Before(to)
}

type earningsCents struct {
	ad, play, royalty, referral int64
}

func (c earningsCents) total() int64 {
	return c.ad + c.play + c.royalty + c.referral
}

func (c *earningsCents) add(entryType string, cents int64) {
	switch entryType {
	case models.EntryAdReward:
		c.ad += cents
	case models.EntryPlayReward:
		c.play += cents
	case models.EntryPlayRoyalty:
		c.royalty += cents
	case models.EntryReferralBonus:
		c.referral += cents
	}
}

// GetEarningsReport sums the ad, play, royalty and referral credits recorded in
// [from, to), overall and per account. Accounts are ordered by total descending.
func (s *Service) GetEarningsReport(ctx context.Context, from, to time.Time) (*models.EarningsReport, error) {
	rows, err := s.db.QueryContext(ctx, queryReportEarningEntries)
	if err != nil {
		return nil, fmt.Errorf("failed to query earning entries: %w", err)
	}
	defer rows.Close()

	var totals earningsCents
	var adWatches int64
	byAccount := make(map[int64]*earningsCents)
	accounts := make(map[int64]*models.AccountEarnings)

	for rows.Next() {
		var account models.AccountEarnings
		var entryType string
		var cents int64
		var createdAt time.Time
		if err := rows.Scan(&account.AccountId, &account.Username, &account.Role, &entryType, &cents, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan earning entry: %w", err)
		}
		if !inRange(createdAt, from, to) {
			continue
		}

		if _, ok := byAccount[account.AccountId]; !ok {
			byAccount[account.AccountId] = &earningsCents{}
			accounts[account.AccountId] = &account
		}
		byAccount[account.AccountId].add(entryType, cents)
		totals.add(entryType, cents)
		if entryType == models.EntryAdReward {
			adWatches++
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	report := &models.EarningsReport{
		AdWatches:       adWatches,
		AdRewards:       models.FromCents(totals.ad),
		PlayRewards:     models.FromCents(totals.play),
		PlayRoyalties:   models.FromCents(totals.royalty),
		ReferralBonuses: models.FromCents(totals.referral),
		Total:           models.FromCents(totals.total()),
		Accounts:        make([]models.AccountEarnings, 0, len(accounts)),
	}
	for id, account := range accounts {
		cents := byAccount[id]
		account.AdRewards = models.FromCents(cents.ad)
		account.PlayRewards = models.FromCents(cents.play)
		account.PlayRoyalties = models.FromCents(cents.royalty)
		account.ReferralBonuses = models.FromCents(cents.referral)
		account.Total = models.FromCents(cents.total())
		report.Accounts = append(report.Accounts, *account)
	}
	sort.Slice(report.Accounts, func(i, j int) bool {
		a, b := report.Accounts[i], report.Accounts[j]
		if cmp := a.Total.Cmp(b.Total); cmp != 0 {
			return cmp > 0
		}
		return a.AccountId < b.AccountId
	})

	return report, nil
}

// GetUsersReport counts accounts and referrals created in [from, to)
func (s *Service) GetUsersReport(ctx context.Context, from, to time.Time) (*models.UsersReport, error) {
	report := &models.UsersReport{}

	err := s.scanRange(ctx, queryReportAccounts, func(rows *sql.Rows) error {
		var role string
		var createdAt time.Time
		if err := rows.Scan(&role, &createdAt); err != nil {
			return err
		}
		if !inRange(createdAt, from, to) {
			return nil
		}
		report.NewAccounts++
		switch role {
		case models.RoleStreamer:
			report.NewStreamers++
		case models.RoleArtist:
			report.NewArtists++
		case models.RoleAdmin:
			report.NewAdmins++
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to count accounts: %w", err)
	}

	err = s.scanRange(ctx, queryReportReferrals, func(rows *sql.Rows) error {
		var createdAt time.Time
		if err := rows.Scan(&createdAt); err != nil {
			return err
		}
		if inRange(createdAt, from, to) {
			report.Referrals++
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to count referrals: %w", err)
	}

	return report, nil
}

// GetMusicReport counts uploads and plays in [from, to) and ranks the topN
// tracks by plays in the range.
func (s *Service) GetMusicReport(ctx context.Context, from, to time.Time, topN int) (*models.MusicReport, error) {
	report := &models.MusicReport{}

	err := s.scanRange(ctx, queryReportTracks, func(rows *sql.Rows) error {
		var uploadedAt time.Time
		if err := rows.Scan(&uploadedAt); err != nil {
			return err
		}
		if inRange(uploadedAt, from, to) {
			report.NewTracks++
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to count tracks: %w", err)
	}

	listeners := make(map[int64]struct{})
	tracks := make(map[int64]*models.TrackPlays)
	earnings := make(map[int64]int64)
	var artistCents int64

	err = s.scanRange(ctx, queryReportPlays, func(rows *sql.Rows) error {
		var track models.TrackPlays
		var streamerId, cents int64
		var playedAt time.Time
		if err := rows.Scan(&track.TrackId, &track.Title, &track.ArtistId, &streamerId, &cents, &playedAt); err != nil {
			return err
		}
		if !inRange(playedAt, from, to) {
			return nil
		}

		report.Plays++
		artistCents += cents
		listeners[streamerId] = struct{}{}
		if _, ok := tracks[track.TrackId]; !ok {
			tracks[track.TrackId] = &track
		}
		tracks[track.TrackId].Plays++
		earnings[track.TrackId] += cents
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to count plays: %w", err)
	}

	report.UniqueListeners = int64(len(listeners))
	report.ArtistEarnings = models.FromCents(artistCents)

	report.TopTracks = make([]models.TrackPlays, 0, len(tracks))
	for id, track := range tracks {
		track.Earnings = models.FromCents(earnings[id])
		report.TopTracks = append(report.TopTracks, *track)
	}
	sort.Slice(report.TopTracks, func(i, j int) bool {
		a, b := report.TopTracks[i], report.TopTracks[j]
		if a.Plays != b.Plays {
			return a.Plays > b.Plays
		}
		return a.TrackId < b.TrackId
	})
	if len(report.TopTracks) > topN {
		report.TopTracks = report.TopTracks[:topN]
	}

	return report, nil
}

// scanRange runs query and hands each row to scan
func (s *Service) scanRange(ctx context.Context, query string, scan func(*sql.Rows) error) error {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		if err := scan(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}
