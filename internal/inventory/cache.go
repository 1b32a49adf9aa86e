package inventory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// Loader computes a fresh availability snapshot from the database.
type Loader func(ctx context.Context, variantID, colorID uuid.UUID) (*AvailabilitySnapshot, error)

// SnapshotCache serves availability snapshots from Redis, collapsing
// concurrent misses for the same pair into one database read.
type SnapshotCache struct {
	client *redis.Client
	ttl    time.Duration
	group  singleflight.Group
}

// NewSnapshotCache constructs SnapshotCache. A nil client disables caching
// and every read goes to the loader.
func NewSnapshotCache(client *redis.Client, ttl time.Duration) *SnapshotCache {
	return &SnapshotCache{client: client, ttl: ttl}
}

func snapshotKey(variantID, colorID uuid.UUID) string {
	return fmt.Sprintf("voltara:availability:%s:%s", variantID, colorID)
}

// Get returns the cached snapshot for the pair, loading and storing it on a
// miss. Cache failures fall through to the loader.
func (c *SnapshotCache) Get(ctx context.Context, variantID, colorID uuid.UUID, load Loader) (*AvailabilitySnapshot, error) {
	if c.client == nil {
		return load(ctx, variantID, colorID)
	}
	key := snapshotKey(variantID, colorID)

	payload, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var snap AvailabilitySnapshot
		if err := json.Unmarshal(payload, &snap); err == nil {
			return &snap, nil
		}
		// Unreadable entry: drop it and reload.
		_ = c.client.Del(ctx, key).Err()
	} else if !errors.Is(err, redis.Nil) && ctx.Err() != nil {
		return nil, ctx.Err()
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		snap, err := load(ctx, variantID, colorID)
		if err != nil {
			return nil, err
		}
		if encoded, err := json.Marshal(snap); err == nil {
			_ = c.client.Set(ctx, key, encoded, c.ttl).Err()
		}
		return snap, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*AvailabilitySnapshot), nil
}

// Invalidate drops the cached snapshot for the pair after a stock or order
// mutation.
func (c *SnapshotCache) Invalidate(ctx context.Context, variantID, colorID uuid.UUID) {
	if c.client == nil {
		return
	}
	_ = c.client.Del(ctx, snapshotKey(variantID, colorID)).Err()
}
