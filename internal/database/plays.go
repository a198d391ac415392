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
)

// RecordPlay credits the artist and the streamer for one play of an active
// track, bumps the track counters and writes the Play row atomically. The
// streamer's unlock window must be open at PlayedAt.
func (s *Service) RecordPlay(ctx context.Context, params store.RecordPlayParams) (*models.PlayResult, error) {
	streamerCents, ok := models.ToCents(params.StreamerReward)
	if !ok || streamerCents < 0 {
		return nil, fmt.Errorf("%w: streamer reward %s", store.ErrInvalidAmount, params.StreamerReward.String())
	}
	artistCents, ok := models.ToCents(params.ArtistReward)
	if !ok || artistCents < 0 {
		return nil, fmt.Errorf("%w: artist reward %s", store.ErrInvalidAmount, params.ArtistReward.String())
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	expiresAt, err := unlockExpiry(ctx, tx, params.StreamerId)
	if err != nil {
		return nil, err
	}
	if expiresAt == nil || !params.PlayedAt.Before(*expiresAt) {
		return nil, store.ErrLocked
	}

	var artistId, plays, earningsCents int64
	err = tx.QueryRowContext(ctx, queryIncrementTrackPlay, artistCents, params.TrackId).
		Scan(&artistId, &plays, &earningsCents)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrTrackNotFound
	} else if err != nil {
		return nil, fmt.Errorf("failed to update track: %w", err)
	}

	play := &models.Play{
		StreamerId:     params.StreamerId,
		TrackId:        params.TrackId,
		StreamerReward: models.FromCents(streamerCents),
		ArtistReward:   models.FromCents(artistCents),
		PlayedAt:       params.PlayedAt,
	}
	if err := tx.QueryRowContext(ctx, queryInsertPlay,
		params.StreamerId, params.TrackId, streamerCents, artistCents, params.PlayedAt).Scan(&play.Id); err != nil {
		return nil, fmt.Errorf("failed to insert play: %w", err)
	}

	reference := fmt.Sprintf("play:%d", play.Id)

	artistEntry, err := s.subledger.applyEntry(ctx, tx, entryParams{
		AccountId:   artistId,
		EntryType:   models.EntryPlayRoyalty,
		AmountCents: artistCents,
		Reference:   reference,
		CreatedAt:   params.PlayedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to credit artist: %w", err)
	}

	streamerEntry, err := s.subledger.applyEntry(ctx, tx, entryParams{
		AccountId:   params.StreamerId,
		EntryType:   models.EntryPlayReward,
		AmountCents: streamerCents,
		Reference:   reference,
		CreatedAt:   params.PlayedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to credit streamer: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &models.PlayResult{
		Play:               play,
		TrackPlays:         plays,
		TrackEarnings:      models.FromCents(earningsCents),
		StreamerBalance:    streamerEntry.BalanceAfter,
		ArtistBalanceAfter: artistEntry.BalanceAfter,
	}, nil
}
