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

package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"stream-earn-go/internal/models"

	radix "github.com/mediocregopher/radix/v3"
	"go.uber.org/zap"
)

const defaultPoolSize = 10

// Dial opens a redis pool. An empty address disables caching and returns a nil client.
func Dial(cfg models.RedisConfig) (radix.Client, error) {
	if cfg.Addr == "" {
		return nil, nil
	}
	size := cfg.PoolSize
	if size <= 0 {
		size = defaultPoolSize
	}
	pool, err := radix.NewPool("tcp", cfg.Addr, size)
	if err != nil {
		return nil, fmt.Errorf("failed to connect redis at %s: %w", cfg.Addr, err)
	}
	zap.L().Info("Redis unlock cache enabled", zap.String("addr", cfg.Addr), zap.Int("pool_size", size))
	return pool, nil
}

// UnlockCache keeps unlock window expiries in redis, keyed by account id, with
// a TTL equal to the time left in the window. A nil client turns every call
// into a miss.
type UnlockCache struct {
	redis  radix.Client
	prefix string
}

func NewUnlockCache(redis radix.Client, prefix string) *UnlockCache {
	if prefix == "" {
		prefix = "stream-earn"
	}
	return &UnlockCache{redis: redis, prefix: prefix}
}

func (c *UnlockCache) key(accountId int64) string {
	return fmt.Sprintf("%s:unlock:%d", c.prefix, accountId)
}

func (c *UnlockCache) Get(ctx context.Context, accountId int64) (time.Time, bool, error) {
	if c.redis == nil {
		return time.Time{}, false, nil
	}

	var raw string
	mn := radix.MaybeNil{Rcv: &raw}
	if err := c.redis.Do(radix.Cmd(&mn, "GET", c.key(accountId))); err != nil {
		return time.Time{}, false, err
	}
	if mn.Nil || raw == "" {
		return time.Time{}, false, nil
	}

	millis, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		_ = c.redis.Do(radix.Cmd(nil, "DEL", c.key(accountId)))
		return time.Time{}, false, nil
	}
	return time.UnixMilli(millis).UTC(), true, nil
}

func (c *UnlockCache) Set(ctx context.Context, accountId int64, expiresAt time.Time, ttl time.Duration) error {
	if c.redis == nil || ttl <= 0 {
		return nil
	}
	return c.redis.Do(radix.FlatCmd(nil, "SET", c.key(accountId), expiresAt.UnixMilli(), "PX", ttl.Milliseconds()))
}
