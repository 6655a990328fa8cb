// internal/cache/processed.go
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "reconciled:"

// ProcessedReferenceCache is a Redis-backed fast path in front of the
// ledger's reference uniqueness check. It only ever short-circuits known
// duplicates; correctness never depends on it.
type ProcessedReferenceCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewProcessedReferenceCache creates a cache with the given entry TTL.
func NewProcessedReferenceCache(client *redis.Client, ttl time.Duration) *ProcessedReferenceCache {
	return &ProcessedReferenceCache{client: client, ttl: ttl}
}

// IsProcessed reports whether the reference was recently applied.
func (c *ProcessedReferenceCache) IsProcessed(ctx context.Context, reference string) (bool, error) {
	_, err := c.client.Get(ctx, keyPrefix+reference).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check processed reference: %w", err)
	}
	return true, nil
}

// MarkProcessed records a terminally-reconciled reference.
func (c *ProcessedReferenceCache) MarkProcessed(ctx context.Context, reference string) error {
	if err := c.client.Set(ctx, keyPrefix+reference, "1", c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to mark reference processed: %w", err)
	}
	return nil
}
