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
	"fmt"

	"stream-earn-go/internal/models"
)

func (s *Service) GetStreamerStats(ctx context.Context, accountId int64) (*models.StreamerStats, error) {
	account, err := s.GetAccountById(ctx, accountId)
	if err != nil {
		return nil, err
	}

	stats := &models.StreamerStats{Balance: account.Balance}

	if err := s.db.QueryRowContext(ctx, queryCountStreamerPlays, accountId).Scan(&stats.TotalPlays); err != nil {
		return nil, fmt.Errorf("failed to count plays: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, queryCountStreamerAdWatches, accountId).Scan(&stats.AdsWatched); err != nil {
		return nil, fmt.Errorf("failed to count ad watches: %w", err)
	}

	var bonusCents int64
	if err := s.db.QueryRowContext(ctx, queryReferralTotals, accountId).Scan(&stats.ReferralCount, &bonusCents); err != nil {
		return nil, fmt.Errorf("failed to sum referrals: %w", err)
	}
	stats.ReferralEarnings = models.FromCents(bonusCents)

	return stats, nil
}

func (s *Service) GetArtistStats(ctx context.Context, artistId int64, topN int) (*models.ArtistStats, error) {
	if _, err := s.GetAccountById(ctx, artistId); err != nil {
		return nil, err
	}

	stats := &models.ArtistStats{}
	var earningsCents int64
	if err := s.db.QueryRowContext(ctx, queryArtistTotals, artistId).
		Scan(&stats.TrackCount, &stats.TotalPlays, &earningsCents); err != nil {
		return nil, fmt.Errorf("failed to sum artist tracks: %w", err)
	}
	stats.TotalEarnings = models.FromCents(earningsCents)

	if err := s.db.QueryRowContext(ctx, queryArtistUniqueListeners, artistId).Scan(&stats.UniqueListeners); err != nil {
		return nil, fmt.Errorf("failed to count listeners: %w", err)
	}

	top, err := s.listTracks(ctx, queryArtistTopTracks, artistId, topN)
	if err != nil {
		return nil, err
	}
	stats.TopTracks = top

	return stats, nil
}

func (s *Service) GetPlatformOverview(ctx context.Context, topN int) (*models.PlatformOverview, error) {
	overview := &models.PlatformOverview{}

	if err := s.db.QueryRowContext(ctx, queryAccountCounts).
		Scan(&overview.TotalAccounts, &overview.Streamers, &overview.Artists); err != nil {
		return nil, fmt.Errorf("failed to count accounts: %w", err)
	}

	var trackEarningsCents int64
	if err := s.db.QueryRowContext(ctx, queryTrackTotals).
		Scan(&overview.TotalTracks, &overview.ActiveTracks, &overview.TotalPlays, &trackEarningsCents); err != nil {
		return nil, fmt.Errorf("failed to sum tracks: %w", err)
	}
	overview.TotalTrackEarnings = models.FromCents(trackEarningsCents)

	var pendingCents int64
	if err := s.db.QueryRowContext(ctx, queryPendingWithdrawalTotals).
		Scan(&overview.PendingWithdrawals, &pendingCents); err != nil {
		return nil, fmt.Errorf("failed to sum pending withdrawals: %w", err)
	}
	overview.PendingAmount = models.FromCents(pendingCents)

	rows, err := s.db.QueryContext(ctx, queryTopArtists, topN)
	if err != nil {
		return nil, fmt.Errorf("failed to query top artists: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var artist models.ArtistEarnings
		var cents int64
		if err := rows.Scan(&artist.AccountId, &artist.Username, &cents); err != nil {
			return nil, fmt.Errorf("failed to scan top artist: %w", err)
		}
		artist.Earnings = models.FromCents(cents)
		overview.TopArtists = append(overview.TopArtists, artist)
	}

	return overview, rows.Err()
}
