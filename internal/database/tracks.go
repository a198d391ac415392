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

	"stream-earn-go/internal/models"
	"stream-earn-go/internal/store"

	"go.uber.org/zap"
)

func scanTrack(row rowScanner) (*models.Track, error) {
	var track models.Track
	var earningsCents int64
	err := row.Scan(&track.Id, &track.ArtistId, &track.Title, &track.Filename, &track.Genre,
		&track.Description, &track.Plays, &earningsCents, &track.Active, &track.UploadedAt)
	if err != nil {
		return nil, err
	}
	track.Earnings = models.FromCents(earningsCents)
	return &track, nil
}

// CreateTrack stores track metadata, enforcing the per-artist track limit
func (s *Service) CreateTrack(ctx context.Context, params store.CreateTrackParams) (*models.Track, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if params.MaxTracks > 0 {
		var count int
		if err := tx.QueryRowContext(ctx, queryCountArtistTracks, params.ArtistId).Scan(&count); err != nil {
			return nil, fmt.Errorf("failed to count tracks: %w", err)
		}
		if count >= params.MaxTracks {
			return nil, fmt.Errorf("%w: %d of %d", store.ErrTrackLimitReached, count, params.MaxTracks)
		}
	}

	track, err := scanTrack(tx.QueryRowContext(ctx, queryInsertTrack,
		params.ArtistId, params.Title, params.Filename, params.Genre, params.Description, params.UploadedAt))
	if err != nil {
		return nil, fmt.Errorf("failed to insert track: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	zap.L().Info("Track created",
		zap.Int64("track_id", track.Id),
		zap.Int64("artist_id", track.ArtistId),
		zap.String("title", track.Title))

	return track, nil
}

func (s *Service) GetTrack(ctx context.Context, trackId int64) (*models.Track, error) {
	track, err := scanTrack(s.db.QueryRowContext(ctx, queryGetTrack, trackId))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrTrackNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get track: %w", err)
	}
	return track, nil
}

func (s *Service) ListActiveTracks(ctx context.Context) ([]models.Track, error) {
	return s.listTracks(ctx, queryListActiveTracks)
}

func (s *Service) ListArtistTracks(ctx context.Context, artistId int64) ([]models.Track, error) {
	return s.listTracks(ctx, queryListArtistTracks, artistId)
}

func (s *Service) ListTracks(ctx context.Context) ([]models.Track, error) {
	return s.listTracks(ctx, queryListTracks)
}

func (s *Service) listTracks(ctx context.Context, query string, args ...any) ([]models.Track, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tracks: %w", err)
	}
	defer rows.Close()

	var tracks []models.Track
	for rows.Next() {
		track, err := scanTrack(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan track: %w", err)
		}
		tracks = append(tracks, *track)
	}

	return tracks, rows.Err()
}

func (s *Service) SetTrackActive(ctx context.Context, trackId int64, active bool) error {
	result, err := s.db.ExecContext(ctx, querySetTrackActive, active, trackId)
	if err != nil {
		return fmt.Errorf("failed to update track: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if affected == 0 {
		return store.ErrTrackNotFound
	}

	zap.L().Info("Track status changed", zap.Int64("track_id", trackId), zap.Bool("active", active))
	return nil
}
