/*
Copyright 2026 Veriqan Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package cache implements the redis-backed DownloadTracker the ingestion
// stage uses to short-circuit re-downloading a file it has already seen
// (spec.md §4.4, invariant I1's content-addressed identity).
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisClient is the subset of *redis.Client DownloadTracker calls, so
// tests can substitute a miniredis-backed client or a fake.
type RedisClient interface {
	Exists(ctx context.Context, keys ...string) *redis.IntCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// DownloadTracker implements pkg/ingestion's DownloadTracker over a redis
// SET with a TTL, so old checksums age out rather than growing the
// keyspace without bound.
type DownloadTracker struct {
	Client RedisClient
	TTL    time.Duration // default 30 days
	Prefix string        // default "veriqan:seen-checksum:"
}

func (t *DownloadTracker) ttl() time.Duration {
	if t.TTL <= 0 {
		return 30 * 24 * time.Hour
	}
	return t.TTL
}

func (t *DownloadTracker) key(checksum string) string {
	prefix := t.Prefix
	if prefix == "" {
		prefix = "veriqan:seen-checksum:"
	}
	return prefix + checksum
}

// IsDuplicate implements ingestion.DownloadTracker.
func (t *DownloadTracker) IsDuplicate(ctx context.Context, checksum string) (bool, error) {
	n, err := t.Client.Exists(ctx, t.key(checksum)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return false, fmt.Errorf("check duplicate checksum: %w", err)
	}
	return n > 0, nil
}

// MarkSeen implements ingestion.DownloadTracker.
func (t *DownloadTracker) MarkSeen(ctx context.Context, checksum string) error {
	if err := t.Client.Set(ctx, t.key(checksum), "1", t.ttl()).Err(); err != nil {
		return fmt.Errorf("mark checksum seen: %w", err)
	}
	return nil
}
