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
	"path/filepath"
	"strings"

	"stream-earn-go/internal/models"
	"stream-earn-go/internal/store"
)

// CreateTrack registers an uploaded track for an artist
func (s *LedgerService) CreateTrack(ctx context.Context, artistId int64, params models.TrackParams) (*models.Track, error) {
	if _, err := s.activeAccount(ctx, artistId, models.RoleArtist); err != nil {
		return nil, err
	}

	params.Title = strings.TrimSpace(params.Title)
	params.Filename = filepath.Base(strings.TrimSpace(params.Filename))
	params.Genre = strings.TrimSpace(params.Genre)
	params.Description = strings.TrimSpace(params.Description)
	if err := validateParams(params); err != nil {
		return nil, err
	}

	return s.db.CreateTrack(ctx, store.CreateTrackParams{
		ArtistId:    artistId,
		Title:       params.Title,
		Filename:    params.Filename,
		Genre:       params.Genre,
		Description: params.Description,
		MaxTracks:   s.rewards.MaxTracksPerArtist,
		UploadedAt:  s.now(),
	})
}

// DeleteTrack deactivates a track owned by the artist. Plays keep referencing it.
func (s *LedgerService) DeleteTrack(ctx context.Context, artistId, trackId int64) error {
	if _, err := s.activeAccount(ctx, artistId, models.RoleArtist); err != nil {
		return err
	}

	track, err := s.db.GetTrack(ctx, trackId)
	if err != nil {
		return err
	}
	if track.ArtistId != artistId {
		return store.ErrTrackNotFound
	}
	return s.db.SetTrackActive(ctx, trackId, false)
}

// SetTrackActive is the admin toggle for a track
func (s *LedgerService) SetTrackActive(ctx context.Context, adminId, trackId int64, active bool) error {
	if _, err := s.activeAccount(ctx, adminId, models.RoleAdmin); err != nil {
		return err
	}
	return s.db.SetTrackActive(ctx, trackId, active)
}

func (s *LedgerService) ListActiveTracks(ctx context.Context) ([]models.Track, error) {
	return s.db.ListActiveTracks(ctx)
}

func (s *LedgerService) ListArtistTracks(ctx context.Context, artistId int64) ([]models.Track, error) {
	return s.db.ListArtistTracks(ctx, artistId)
}

func (s *LedgerService) ListTracks(ctx context.Context) ([]models.Track, error) {
	return s.db.ListTracks(ctx)
}
