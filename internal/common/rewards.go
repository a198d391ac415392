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

package common

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"stream-earn-go/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gopkg.in/yaml.v2"
)

// RewardsFile is the YAML form of the payout schedule. Amounts are decimal
// strings and timings are Go durations; omitted fields keep their defaults.
type RewardsFile struct {
	AdReward           string `yaml:"ad_reward"`
	StreamerPlayReward string `yaml:"streamer_play_reward"`
	ArtistPlayReward   string `yaml:"artist_play_reward"`
	ReferralBonus      string `yaml:"referral_bonus"`
	MinimumWithdrawal  string `yaml:"minimum_withdrawal"`
	AdMinDuration      string `yaml:"ad_min_duration"`
	UnlockWindow       string `yaml:"unlock_window"`
	MaxTracksPerArtist int    `yaml:"max_tracks_per_artist"`
}

// LoadRewards reads the payout schedule from rewardsFile on top of defaults.
// A missing file yields the defaults unchanged.
func LoadRewards(rewardsFile string, defaults models.RewardsConfig) (models.RewardsConfig, error) {
	rewards := defaults
	if rewardsFile == "" {
		return rewards, nil
	}

	var rewardsPath string
	if filepath.IsAbs(rewardsFile) {
		rewardsPath = rewardsFile
	} else {
		wd, err := os.Getwd()
		if err != nil {
			return rewards, fmt.Errorf("failed to get working directory: %w", err)
		}
		rewardsPath = filepath.Join(wd, rewardsFile)
	}

	data, err := os.ReadFile(rewardsPath)
	if errors.Is(err, fs.ErrNotExist) {
		zap.L().Info("No rewards file, using default payout schedule", zap.String("file", rewardsPath))
		return rewards, nil
	}
	if err != nil {
		return rewards, fmt.Errorf("unable to read %s: %w", rewardsFile, err)
	}

	var file RewardsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return rewards, fmt.Errorf("unable to parse %s: %w", rewardsFile, err)
	}

	amounts := []struct {
		name  string
		value string
		dst   *decimal.Decimal
	}{
		{"ad_reward", file.AdReward, &rewards.AdReward},
		{"streamer_play_reward", file.StreamerPlayReward, &rewards.StreamerPlayReward},
		{"artist_play_reward", file.ArtistPlayReward, &rewards.ArtistPlayReward},
		{"referral_bonus", file.ReferralBonus, &rewards.ReferralBonus},
		{"minimum_withdrawal", file.MinimumWithdrawal, &rewards.MinimumWithdrawal},
	}
	for _, a := range amounts {
		if a.value == "" {
			continue
		}
		amount, err := decimal.NewFromString(a.value)
		if err != nil {
			return rewards, fmt.Errorf("%s: invalid amount %q: %w", a.name, a.value, err)
		}
		if _, ok := models.ToCents(amount); !ok || amount.IsNegative() {
			return rewards, fmt.Errorf("%s: amount %q must be a non-negative whole number of cents", a.name, a.value)
		}
		*a.dst = amount
	}

	timings := []struct {
		name  string
		value string
		dst   *time.Duration
	}{
		{"ad_min_duration", file.AdMinDuration, &rewards.AdMinDuration},
		{"unlock_window", file.UnlockWindow, &rewards.UnlockWindow},
	}
	for _, d := range timings {
		if d.value == "" {
			continue
		}
		duration, err := time.ParseDuration(d.value)
		if err != nil || duration <= 0 {
			return rewards, fmt.Errorf("%s: invalid duration %q", d.name, d.value)
		}
		*d.dst = duration
	}

	if file.MaxTracksPerArtist < 0 {
		return rewards, fmt.Errorf("max_tracks_per_artist cannot be negative, got %d", file.MaxTracksPerArtist)
	}
	if file.MaxTracksPerArtist > 0 {
		rewards.MaxTracksPerArtist = file.MaxTracksPerArtist
	}

	zap.L().Info("Loaded payout schedule",
		zap.String("file", rewardsPath),
		zap.String("ad_reward", rewards.AdReward.String()),
		zap.String("streamer_play_reward", rewards.StreamerPlayReward.String()),
		zap.String("artist_play_reward", rewards.ArtistPlayReward.String()),
		zap.Duration("unlock_window", rewards.UnlockWindow))

	return rewards, nil
}
