package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/celobazaar/groupbuyd/internal/domain"
)

// ListingCache implements domain.ListingCache using a Redis hash keyed by
// listing id plus a marker key recording that a full refresh has happened.
//
// Key schema:
//
//	groupbuy:listings            - hash, field "{id}" -> JSON Listing
//	groupbuy:listings:populated  - string "1" once ReplaceAll has run
//
// ReplaceAll rewrites both keys in one MULTI/EXEC pipeline so readers never
// observe a half-replaced set.
type ListingCache struct {
	rdb *redis.Client
}

// NewListingCache creates a ListingCache backed by the given Client.
func NewListingCache(c *Client) *ListingCache {
	return &ListingCache{rdb: c.Underlying()}
}

const (
	listingsKey  = "groupbuy:listings"
	populatedKey = "groupbuy:listings:populated"
)

func fieldFor(id uint64) string { return strconv.FormatUint(id, 10) }

// ReplaceAll swaps in a complete new snapshot atomically.
func (lc *ListingCache) ReplaceAll(ctx context.Context, listings []domain.Listing) error {
	fields := make(map[string]interface{}, len(listings))
	for _, l := range listings {
		data, err := json.Marshal(l)
		if err != nil {
			return fmt.Errorf("redis: marshal listing %d: %w", l.ID, err)
		}
		fields[fieldFor(l.ID)] = data
	}

	pipe := lc.rdb.TxPipeline()
	pipe.Del(ctx, listingsKey)
	if len(fields) > 0 {
		pipe.HSet(ctx, listingsKey, fields)
	}
	pipe.Set(ctx, populatedKey, "1", 0)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: replace listings: %w", err)
	}
	return nil
}

// Snapshot returns all cached listings in ascending id order.
func (lc *ListingCache) Snapshot(ctx context.Context) ([]domain.Listing, bool, error) {
	populated, err := lc.rdb.Exists(ctx, populatedKey).Result()
	if err != nil {
		return nil, false, fmt.Errorf("redis: check populated: %w", err)
	}
	if populated == 0 {
		return nil, false, nil
	}

	raw, err := lc.rdb.HGetAll(ctx, listingsKey).Result()
	if err != nil {
		return nil, false, fmt.Errorf("redis: snapshot listings: %w", err)
	}

	listings := make([]domain.Listing, 0, len(raw))
	for _, data := range raw {
		var l domain.Listing
		if err := json.Unmarshal([]byte(data), &l); err != nil {
			return nil, false, fmt.Errorf("redis: unmarshal listing: %w", err)
		}
		listings = append(listings, l)
	}

	// Hash iteration order is unspecified; restore ledger enumeration order.
	sortListings(listings)
	return listings, true, nil
}

// Get returns a single cached listing or domain.ErrNotFound.
func (lc *ListingCache) Get(ctx context.Context, id uint64) (domain.Listing, error) {
	data, err := lc.rdb.HGet(ctx, listingsKey, fieldFor(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Listing{}, domain.ErrNotFound
		}
		return domain.Listing{}, fmt.Errorf("redis: get listing %d: %w", id, err)
	}

	var l domain.Listing
	if err := json.Unmarshal(data, &l); err != nil {
		return domain.Listing{}, fmt.Errorf("redis: unmarshal listing %d: %w", id, err)
	}
	return l, nil
}

// Put updates a single entry in place.
func (lc *ListingCache) Put(ctx context.Context, listing domain.Listing) error {
	data, err := json.Marshal(listing)
	if err != nil {
		return fmt.Errorf("redis: marshal listing %d: %w", listing.ID, err)
	}
	if err := lc.rdb.HSet(ctx, listingsKey, fieldFor(listing.ID), data).Err(); err != nil {
		return fmt.Errorf("redis: put listing %d: %w", listing.ID, err)
	}
	return nil
}

// Invalidate empties the cache.
func (lc *ListingCache) Invalidate(ctx context.Context) error {
	pipe := lc.rdb.TxPipeline()
	pipe.Del(ctx, listingsKey)
	pipe.Del(ctx, populatedKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: invalidate listings: %w", err)
	}
	return nil
}

// sortListings orders by ascending id.
func sortListings(listings []domain.Listing) {
	sort.Slice(listings, func(i, j int) bool {
		return listings[i].ID < listings[j].ID
	})
}

// Compile-time interface check.
var _ domain.ListingCache = (*ListingCache)(nil)
