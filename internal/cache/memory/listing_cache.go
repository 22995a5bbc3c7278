// Package memory provides in-process implementations of the listing cache and
// signal bus for single-instance deployments that do not need Redis.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/celobazaar/groupbuyd/internal/domain"
)

// ListingCache implements domain.ListingCache with a mutex-guarded map. The
// whole set is swapped on ReplaceAll, so readers never see a partial refresh.
type ListingCache struct {
	mu        sync.RWMutex
	listings  map[uint64]domain.Listing
	populated bool
}

// NewListingCache creates an empty ListingCache.
func NewListingCache() *ListingCache {
	return &ListingCache{
		listings: make(map[uint64]domain.Listing),
	}
}

// ReplaceAll swaps in a complete new snapshot.
func (lc *ListingCache) ReplaceAll(_ context.Context, listings []domain.Listing) error {
	next := make(map[uint64]domain.Listing, len(listings))
	for _, l := range listings {
		next[l.ID] = l
	}

	lc.mu.Lock()
	lc.listings = next
	lc.populated = true
	lc.mu.Unlock()
	return nil
}

// Snapshot returns all cached listings in ascending id order.
func (lc *ListingCache) Snapshot(_ context.Context) ([]domain.Listing, bool, error) {
	lc.mu.RLock()
	defer lc.mu.RUnlock()

	if !lc.populated {
		return nil, false, nil
	}

	out := make([]domain.Listing, 0, len(lc.listings))
	for _, l := range lc.listings {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, true, nil
}

// Get returns a single cached listing or domain.ErrNotFound.
func (lc *ListingCache) Get(_ context.Context, id uint64) (domain.Listing, error) {
	lc.mu.RLock()
	defer lc.mu.RUnlock()

	l, ok := lc.listings[id]
	if !ok {
		return domain.Listing{}, domain.ErrNotFound
	}
	return l, nil
}

// Put updates a single entry in place.
func (lc *ListingCache) Put(_ context.Context, listing domain.Listing) error {
	lc.mu.Lock()
	lc.listings[listing.ID] = listing
	lc.mu.Unlock()
	return nil
}

// Invalidate empties the cache.
func (lc *ListingCache) Invalidate(_ context.Context) error {
	lc.mu.Lock()
	lc.listings = make(map[uint64]domain.Listing)
	lc.populated = false
	lc.mu.Unlock()
	return nil
}

// Compile-time interface check.
var _ domain.ListingCache = (*ListingCache)(nil)
