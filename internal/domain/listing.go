// Package domain defines the core types and interfaces for the group-buy
// ledger client: listings, wallet sessions, the contract-call boundary, and
// the cache and journal abstractions implemented elsewhere.
package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ListingState mirrors the lifecycle enum held by the registry contract.
// The transition Open -> Ended is one-way and happens on chain; this client
// only ever observes it.
type ListingState uint8

const (
	ListingOpen  ListingState = 0
	ListingEnded ListingState = 1
)

// String returns the display name used by the API and notifications.
func (s ListingState) String() string {
	if s == ListingEnded {
		return "Ended"
	}
	return "Open"
}

// Listing is one seller-created group-purchase offer, materialized from the
// registry contract. All fields except Buyers and Withdrawn are authoritative
// on chain and refreshed wholesale; local mutation is never trusted.
type Listing struct {
	// ID is the ordinal assigned by the registry at creation time. It is
	// unique and stable; contiguity holds today because the registry
	// exposes no removal, but callers must not rely on it surviving a
	// future contract upgrade.
	ID uint64 `json:"id"`

	// Seller is the creator's account, lowercase-normalized.
	Seller string `json:"seller"`

	// ContractAddress is the per-listing escrow contract instance.
	ContractAddress string `json:"contract_address"`

	ProductName        string `json:"product_name"`
	ProductDescription string `json:"product_description"`

	// UnitPrice is the decimal display value. On chain it is a fixed-point
	// integer with 6 implied decimal places.
	UnitPrice decimal.Decimal `json:"unit_price"`

	// EndTime is the Unix-seconds moment the listing transitions to Ended.
	EndTime int64 `json:"end_time"`

	State ListingState `json:"state"`

	// Buyers is a lazy snapshot of ordering accounts, lowercase-normalized.
	// It is empty until the listing is fetched in detail and is re-fetched
	// after every order or withdrawal; it is never kept live.
	Buyers []string `json:"buyers"`

	// Withdrawn is a session-local hint set after a successful withdrawal.
	// The contracts expose no withdrawal state, so this does not survive a
	// full refresh and must not be treated as ledger truth.
	Withdrawn bool `json:"withdrawn"`
}

// EndsIn returns the remaining time until EndTime, clamped at zero.
func (l Listing) EndsIn(now time.Time) time.Duration {
	d := time.Unix(l.EndTime, 0).Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// HasBuyer reports whether addr appears in the Buyers snapshot. Comparison is
// case-insensitive since addresses are hex strings.
func (l Listing) HasBuyer(addr string) bool {
	for _, b := range l.Buyers {
		if strings.EqualFold(b, addr) {
			return true
		}
	}
	return false
}

// IsSeller reports whether addr is the listing's seller.
func (l Listing) IsSeller(addr string) bool {
	return strings.EqualFold(l.Seller, addr)
}
