package domain

import "errors"

var (
	// Client-side validation failures. These are raised before any call
	// leaves the process; a rejected input costs zero ledger round-trips.
	ErrMissingField     = errors.New("missing required field")
	ErrInvalidPrice     = errors.New("invalid price")
	ErrDurationTooShort = errors.New("duration must be at least 5 minutes")

	// ErrNetworkMismatch is returned when the connected chain is not the
	// one the registry is deployed on. It aborts the operation outright.
	ErrNetworkMismatch = errors.New("connected to wrong network")

	// Defensive preconditions checked before submitting a transaction.
	// The contracts remain the authority; these just save gas and noise.
	ErrNotOpen          = errors.New("listing is not open")
	ErrNotEnded         = errors.New("listing has not ended")
	ErrSellerOrder      = errors.New("seller cannot order own listing")
	ErrAlreadyOrdered   = errors.New("account has already placed an order")
	ErrNotSeller        = errors.New("only the seller may withdraw")
	ErrNoBuyers         = errors.New("listing has no buyers")
	ErrAlreadyWithdrawn = errors.New("funds already withdrawn this session")

	ErrNotFound          = errors.New("not found")
	ErrTxReverted        = errors.New("transaction reverted")
	ErrNoWriteCapability = errors.New("no wallet configured for write operations")
	ErrUnlinked          = errors.New("no wallet session linked")
)
