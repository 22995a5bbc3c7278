package domain

import "context"

// ListingCache is the explicit cache object owned by the sync client. A full
// refresh replaces the whole set atomically; there is no partial merge, which
// trades redundant re-fetching for the absence of partial-update races.
type ListingCache interface {
	// ReplaceAll swaps in a complete new snapshot, discarding everything
	// previously cached including session-local hints.
	ReplaceAll(ctx context.Context, listings []Listing) error

	// Snapshot returns the cached listings in ascending id order. populated
	// is false until the first successful ReplaceAll.
	Snapshot(ctx context.Context) (listings []Listing, populated bool, err error)

	// Get returns a single cached listing or ErrNotFound.
	Get(ctx context.Context, id uint64) (Listing, error)

	// Put updates a single entry in place (buyers snapshot, withdrawn hint)
	// without touching the rest of the set.
	Put(ctx context.Context, listing Listing) error

	// Invalidate empties the cache, forcing the next read through to the
	// ledger.
	Invalidate(ctx context.Context) error
}

// SignalBus fans listing events out to push consumers (the WebSocket hub).
type SignalBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
}

// Event channels published by the sync client.
const (
	EventListingsRefreshed = "listings_refreshed"
	EventListingCreated    = "listing_created"
	EventOrderPlaced       = "order_placed"
	EventFundsWithdrawn    = "funds_withdrawn"
	EventRefreshFailed     = "refresh_failed"
)
