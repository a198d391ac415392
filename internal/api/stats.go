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
	"fmt"
	"time"

	"stream-earn-go/internal/models"
	"stream-earn-go/internal/store"
)

const (
	topN = 5

	reportDateLayout  = "2006-01-02"
	defaultReportDays = 30
)

func (s *LedgerService) GetStreamerStats(ctx context.Context, streamerId int64) (*models.StreamerStats, error) {
	account, err := s.db.GetAccountById(ctx, streamerId)
	if err != nil {
		return nil, err
	}
	if account.Role != models.RoleStreamer {
		return nil, store.ErrWrongRole
	}
	return s.db.GetStreamerStats(ctx, streamerId)
}

func (s *LedgerService) GetArtistStats(ctx context.Context, artistId int64) (*models.ArtistStats, error) {
	account, err := s.db.GetAccountById(ctx, artistId)
	if err != nil {
		return nil, err
	}
	if account.Role != models.RoleArtist {
		return nil, store.ErrWrongRole
	}
	return s.db.GetArtistStats(ctx, artistId, topN)
}

func (s *LedgerService) GetPlatformOverview(ctx context.Context) (*models.PlatformOverview, error) {
	return s.db.GetPlatformOverview(ctx, topN)
}

// Report builds the admin report of kind over [from, to)
func (s *LedgerService) Report(ctx context.Context, kind string, from, to time.Time) (*models.Report, error) {
	if !from.Before(to) {
		return nil, fmt.Errorf("%w: report range must end after it starts", store.ErrInvalidInput)
	}
	report := &models.Report{Type: kind, From: from, To: to}

	switch kind {
	case models.ReportOverview:
		earnings, err := s.db.GetEarningsReport(ctx, from, to)
		if err != nil {
			return nil, err
		}
		users, err := s.db.GetUsersReport(ctx, from, to)
		if err != nil {
			return nil, err
		}
		music, err := s.db.GetMusicReport(ctx, from, to, 0)
		if err != nil {
			return nil, err
		}
		report.Overview = &models.OverviewReport{
			NewAccounts:   users.NewAccounts,
			NewTracks:     music.NewTracks,
			Plays:         music.Plays,
			AdWatches:     earnings.AdWatches,
			TotalEarnings: earnings.Total,
		}
	case models.ReportEarnings:
		earnings, err := s.db.GetEarningsReport(ctx, from, to)
		if err != nil {
			return nil, err
		}
		report.Earnings = earnings
	case models.ReportUsers:
		users, err := s.db.GetUsersReport(ctx, from, to)
		if err != nil {
			return nil, err
		}
		report.Users = users
	case models.ReportMusic:
		music, err := s.db.GetMusicReport(ctx, from, to, topN)
		if err != nil {
			return nil, err
		}
		report.Music = music
	default:
		return nil, fmt.Errorf("%w: unknown report type %q", store.ErrInvalidInput, kind)
	}

	return report, nil
}

// ParseReportRange turns inclusive YYYY-MM-DD dates into the half-open UTC range
// [from, to+1d). An empty to means the day of now; an empty from means the
// defaultReportDays ending at to.
func ParseReportRange(fromDate, toDate string, now time.Time) (time.Time, time.Time, error) {
	var from, to time.Time
	var err error

	if toDate == "" {
		now = now.UTC()
		to = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	} else if to, err = time.Parse(reportDateLayout, toDate); err != nil {
		return from, to, fmt.Errorf("%w: to must be YYYY-MM-DD", store.ErrInvalidInput)
	}
	to = to.AddDate(0, 0, 1)

	if fromDate == "" {
		from = to.AddDate(0, 0, -defaultReportDays)
	} else if from, err = time.Parse(reportDateLayout, fromDate); err != nil {
		return from, to, fmt.Errorf("%w: from must be YYYY-MM-DD", store.ErrInvalidInput)
	}

	if !from.Before(to) {
		return from, to, fmt.Errorf("%w: from is after to", store.ErrInvalidInput)
	}
	return from, to, nil
}
