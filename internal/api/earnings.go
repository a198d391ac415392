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
	"errors"
	"time"

	"stream-earn-go/internal/models"
	"stream-earn-go/internal/store"

	"go.uber.org/zap"
)

// StartAd records the start of an ad for a streamer
func (s *LedgerService) StartAd(ctx context.Context, streamerId int64) (time.Time, error) {
	if _, err := s.activeAccount(ctx, streamerId, models.RoleStreamer); err != nil {
		return time.Time{}, err
	}
	return s.gate.StartAd(ctx, streamerId)
}

// RecordAdWatch credits a completed ad and opens the unlock window
func (s *LedgerService) RecordAdWatch(ctx context.Context, streamerId int64) (*models.AdCompletion, error) {
	if _, err := s.activeAccount(ctx, streamerId, models.RoleStreamer); err != nil {
		return nil, err
	}

	completion, err := s.gate.CompleteAd(ctx, streamerId)
	if err != nil {
		if !errors.Is(err, store.ErrPrematureCompletion) && !errors.Is(err, store.ErrNoAdStarted) {
			zap.L().Error("Ad completion failed",
				append(actorFields(ctx), zap.Int64("streamer_id", streamerId), zap.Error(err))...)
		}
		return nil, err
	}

	zap.L().Info("Ad watch credited",
		zap.Int64("streamer_id", streamerId),
		zap.String("reward", completion.Watch.Reward.String()),
		zap.String("new_balance", completion.NewBalance.String()),
		zap.Time("unlocked_until", completion.ExpiresAt))

	return completion, nil
}

func (s *LedgerService) CheckAdStatus(ctx context.Context, streamerId int64) (*models.AdStatus, error) {
	account, err := s.db.GetAccountById(ctx, streamerId)
	if err != nil {
		return nil, err
	}
	if account.Role != models.RoleStreamer {
		return nil, store.ErrWrongRole
	}
	return s.gate.CheckStatus(ctx, streamerId)
}

// RecordPlay pays the streamer and the track's artist for one play. The
// streamer must hold an open unlock window.
func (s *LedgerService) RecordPlay(ctx context.Context, streamerId, trackId int64) (*models.PlayResult, error) {
	if _, err := s.activeAccount(ctx, streamerId, models.RoleStreamer); err != nil {
		return nil, err
	}

	playedAt := s.now()
	// Cheap rejection for locked streamers; the store re-checks the window at playedAt.
	if err := s.gate.RequireUnlocked(ctx, streamerId); err != nil {
		if errors.Is(err, store.ErrLocked) {
			zap.L().Info("Play rejected, rewards locked",
				zap.Int64("streamer_id", streamerId),
				zap.Int64("track_id", trackId))
		}
		return nil, err
	}

	result, err := s.db.RecordPlay(ctx, store.RecordPlayParams{
		StreamerId:     streamerId,
		TrackId:        trackId,
		StreamerReward: s.rewards.StreamerPlayReward,
		ArtistReward:   s.rewards.ArtistPlayReward,
		PlayedAt:       playedAt,
	})
	if err != nil {
		if !errors.Is(err, store.ErrTrackNotFound) && !errors.Is(err, store.ErrLocked) {
			zap.L().Error("Play recording failed",
				zap.Int64("streamer_id", streamerId),
				zap.Int64("track_id", trackId),
				zap.Error(err))
		}
		return nil, err
	}

	zap.L().Info("Play recorded",
		zap.Int64("play_id", result.Play.Id),
		zap.Int64("streamer_id", streamerId),
		zap.Int64("track_id", trackId),
		zap.Int64("track_plays", result.TrackPlays),
		zap.String("streamer_balance", result.StreamerBalance.String()))

	return result, nil
}
