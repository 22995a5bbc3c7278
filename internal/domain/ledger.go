package domain

import (
	"context"
	"math/big"
)

// ListingRecord is the raw scalar tuple returned by the registry's
// getListingInfo call, before normalization into a Listing.
type ListingRecord struct {
	EndTime     uint64
	State       uint8
	Price       *big.Int // 6-dp fixed point
	Name        string
	Description string
	Seller      string
}

// Ledger is the contract-call boundary. Everything durable lives behind it:
// the registry contract enumerates listings, and each listing has its own
// escrow contract holding orders and funds. Implementations must treat read
// methods as side-effect-free; write methods block until the submitted
// transaction is mined (bounded by ctx) and return the transaction hash.
type Ledger interface {
	// Counter returns the total number of listings ever created.
	Counter(ctx context.Context) (uint64, error)

	// ListingInfo fetches the scalar fields of listing id.
	ListingInfo(ctx context.Context, id uint64) (ListingRecord, error)

	// ListingContractAddress fetches the per-listing escrow contract address.
	ListingContractAddress(ctx context.Context, id uint64) (string, error)

	// CreateListing submits a creation transaction. price is the 6-dp
	// fixed-point encoding.
	CreateListing(ctx context.Context, durationSeconds uint64, price *big.Int, name, description string) (txHash string, err error)

	// Orders returns the ordered buyer addresses of the escrow contract.
	Orders(ctx context.Context, contractAddr string) ([]string, error)

	// PlaceOrder submits a payment of value (native units) to the escrow
	// contract.
	PlaceOrder(ctx context.Context, contractAddr string, value *big.Int) (txHash string, err error)

	// WithdrawFunds submits a withdrawal transaction to the escrow contract.
	WithdrawFunds(ctx context.Context, contractAddr string) (txHash string, err error)

	// CanWrite reports whether a write-capable accessor (a wallet key) is
	// available. Write methods fail with ErrNoWriteCapability otherwise.
	CanWrite() bool

	// Account returns the lowercase address of the write accessor, or the
	// empty string when read-only.
	Account() string
}
