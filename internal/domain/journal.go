package domain

import (
	"context"
	"time"
)

// TxRecord is one submitted write transaction, journaled for operators. The
// journal is observability only: listing state is always rebuilt from the
// ledger, never from these rows.
type TxRecord struct {
	ID        int64          `json:"id"`
	Op        string         `json:"op"` // "create_listing", "place_order", "withdraw"
	ListingID *uint64        `json:"listing_id,omitempty"`
	TxHash    string         `json:"tx_hash"`
	Status    string         `json:"status"` // "confirmed" or "failed"
	Detail    map[string]any `json:"detail,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// TxJournal persists the transaction journal.
type TxJournal interface {
	Record(ctx context.Context, rec TxRecord) error
	ListRecent(ctx context.Context, limit int) ([]TxRecord, error)
}
