package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// BlobCache caches raw file content keyed by (owner/repo, commit sha, path).
// A blob at a given sha never changes, so entries only expire by TTL. A nil
// *BlobCache is valid and behaves as an always-miss cache.
type BlobCache struct {
	client *redis.Client
	ttl    time.Duration
}

// New connects to Redis and verifies the connection.
func New(ctx context.Context, addr, password string, db int, ttl time.Duration) (*BlobCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis.New: ping: %w", err)
	}

	return &BlobCache{client: client, ttl: ttl}, nil
}

func (c *BlobCache) Close() error {
	if c == nil {
		return nil
	}
	if err := c.client.Close(); err != nil {
		return fmt.Errorf("redis.BlobCache.Close: %w", err)
	}
	return nil
}

// BlobKey names the cache entry for one file blob. Shas are immutable, so the
// key never needs invalidation.
func BlobKey(repoFullName, sha, path string) string {
	return "blob:" + repoFullName + ":" + sha + ":" + path
}

// Get returns the cached content and whether it was present. Cache errors are
// reported but callers treat them as a miss.
func (c *BlobCache) Get(ctx context.Context, repoFullName, sha, path string) (string, bool, error) {
	if c == nil {
		return "", false, nil
	}

	v, err := c.client.Get(ctx, BlobKey(repoFullName, sha, path)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis.BlobCache.Get: %w", err)
	}

	return v, true, nil
}

// Set stores content for a blob. No-op on a nil cache.
func (c *BlobCache) Set(ctx context.Context, repoFullName, sha, path, content string) error {
	if c == nil {
		return nil
	}

	err := c.client.Set(ctx, BlobKey(repoFullName, sha, path), content, c.ttl).Err()
	if err != nil {
		return fmt.Errorf("redis.BlobCache.Set: %w", err)
	}

	return nil
}
