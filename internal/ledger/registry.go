package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"

	"github.com/celobazaar/groupbuyd/internal/domain"
)

// Counter returns the total number of listings ever created. Ids are the
// ordinals [0, counter).
func (c *Client) Counter(ctx context.Context) (uint64, error) {
	var out []interface{}
	err := c.registry.Call(&bind.CallOpts{Context: ctx}, &out, "counter")
	if err != nil {
		return 0, fmt.Errorf("ledger: counter: %w", err)
	}
	return out[0].(*big.Int).Uint64(), nil
}

// ListingInfo fetches the scalar fields of listing id from the registry.
func (c *Client) ListingInfo(ctx context.Context, id uint64) (domain.ListingRecord, error) {
	var out []interface{}
	err := c.registry.Call(&bind.CallOpts{Context: ctx}, &out, "getListingInfo", new(big.Int).SetUint64(id))
	if err != nil {
		return domain.ListingRecord{}, fmt.Errorf("ledger: listing info %d: %w", id, err)
	}

	return domain.ListingRecord{
		EndTime:     out[0].(*big.Int).Uint64(),
		State:       uint8(out[1].(*big.Int).Uint64()),
		Price:       out[2].(*big.Int),
		Name:        out[3].(string),
		Description: out[4].(string),
		Seller:      strings.ToLower(out[5].(common.Address).Hex()),
	}, nil
}

// ListingContractAddress fetches the escrow contract address of listing id.
func (c *Client) ListingContractAddress(ctx context.Context, id uint64) (string, error) {
	var out []interface{}
	err := c.registry.Call(&bind.CallOpts{Context: ctx}, &out, "getListingContractAddress", new(big.Int).SetUint64(id))
	if err != nil {
		return "", fmt.Errorf("ledger: listing contract address %d: %w", id, err)
	}
	return out[0].(common.Address).Hex(), nil
}

// CreateListing submits a creation transaction and waits for it to be mined.
// price is the 6-dp fixed-point encoding; validation happens upstream.
func (c *Client) CreateListing(ctx context.Context, durationSeconds uint64, price *big.Int, name, description string) (string, error) {
	auth, err := c.transactor(ctx, nil)
	if err != nil {
		return "", err
	}

	tx, err := c.registry.Transact(auth, "createListing",
		new(big.Int).SetUint64(durationSeconds), price, name, description)
	if err != nil {
		return "", fmt.Errorf("ledger: create listing: %w", err)
	}

	c.logger.InfoContext(ctx, "create listing submitted",
		slog.String("tx", tx.Hash().Hex()),
		slog.String("name", name),
	)

	if err := c.waitMined(ctx, tx); err != nil {
		return tx.Hash().Hex(), err
	}
	return tx.Hash().Hex(), nil
}
