// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// listing.go provides a Valkey-backed cache for category product listings.
// A listing is stored as the JSON body produced for one category and sort
// so repeated requests skip the join and the category lookup entirely.
//
// Keys carry a generation number. InvalidateAll bumps it, so a listing read
// from the database before a write and stored after it lands under a
// generation no reader asks for again.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// listingKeyPrefix is the Valkey key prefix for cached listings.
	listingKeyPrefix = "listing:"

	// listingGenKey holds the current listing generation. It sits outside
	// listingKeyPrefix so InvalidateAll never scans it.
	listingGenKey = "listing-gen"

	// DefaultListingTTL is how long a listing stays cached.
	DefaultListingTTL = 5 * time.Minute
)

// ListingCache manages product listing caching in Valkey. All methods are
// best effort: errors are logged and reported as a miss.
type ListingCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewListingCache creates a listing cache backed by the given Valkey client.
func NewListingCache(client *redis.Client, ttl time.Duration) *ListingCache {
	if ttl == 0 {
		ttl = DefaultListingTTL
	}
	return &ListingCache{client: client, ttl: ttl}
}

// ListingKey returns the cache key for a category slug and sort key in the
// given generation.
func ListingKey(gen int64, categorySlug, sort string) string {
	return fmt.Sprintf("%d:%s:%s", gen, categorySlug, sort)
}

// Generation returns the current listing generation. Callers read it before
// querying the database and build both the Get and the Set key from it. The
// bool is false when Valkey cannot be reached and the cache should be skipped.
func (lc *ListingCache) Generation(ctx context.Context) (int64, bool) {
	gen, err := lc.client.Get(ctx, listingGenKey).Int64()
	if err == redis.Nil {
		return 0, true
	}
	if err != nil {
		slog.Warn("listing cache generation error", "error", err)
		return 0, false
	}
	return gen, true
}

// Get retrieves a cached listing. The bool is false on a miss.
func (lc *ListingCache) Get(ctx context.Context, key string) ([]byte, bool) {
	val, err := lc.client.Get(ctx, listingKeyPrefix+key).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		slog.Warn("listing cache get error", "key", key, "error", err)
		return nil, false
	}
	slog.Debug("listing cache hit", "key", key)
	return val, true
}

// Set stores a listing with the configured TTL.
func (lc *ListingCache) Set(ctx context.Context, key string, data []byte) {
	if err := lc.client.Set(ctx, listingKeyPrefix+key, data, lc.ttl).Err(); err != nil {
		slog.Warn("listing cache set error", "key", key, "error", err)
	}
}

// InvalidateAll starts a new generation and then removes the cached
// listings of earlier ones by scanning for the prefix. Any catalog write can
// change several listings (a product sits in many categories, a rename moves
// a slug), so writes retire them all.
func (lc *ListingCache) InvalidateAll(ctx context.Context) {
	if err := lc.client.Incr(ctx, listingGenKey).Err(); err != nil {
		slog.Warn("listing cache generation bump error", "error", err)
	}

	var cursor uint64
	var deleted int
	for {
		keys, nextCursor, err := lc.client.Scan(ctx, cursor, listingKeyPrefix+"*", 100).Result()
		if err != nil {
			slog.Warn("listing cache scan error", "error", err)
			return
		}
		if len(keys) > 0 {
			if err := lc.client.Del(ctx, keys...).Err(); err != nil {
				slog.Warn("listing cache bulk delete error", "error", err)
			}
			deleted += len(keys)
		}
		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}
	if deleted > 0 {
		slog.Info("listing cache cleared", "deleted", deleted)
	}
}
