package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
)

// Orders returns the ordered buyer addresses recorded by the escrow contract
// at contractAddr, lowercase-normalized.
func (c *Client) Orders(ctx context.Context, contractAddr string) ([]string, error) {
	var out []interface{}
	err := c.escrow(contractAddr).Call(&bind.CallOpts{Context: ctx}, &out, "getAllOrders")
	if err != nil {
		return nil, fmt.Errorf("ledger: orders of %s: %w", contractAddr, err)
	}

	addrs := out[0].([]common.Address)
	buyers := make([]string, 0, len(addrs))
	for _, a := range addrs {
		buyers = append(buyers, strings.ToLower(a.Hex()))
	}
	return buyers, nil
}

// PlaceOrder submits a payment of value native units to the escrow contract
// and waits for it to be mined. The contract enforces that value matches the
// listing price; a mismatch reverts.
func (c *Client) PlaceOrder(ctx context.Context, contractAddr string, value *big.Int) (string, error) {
	auth, err := c.transactor(ctx, value)
	if err != nil {
		return "", err
	}

	tx, err := c.escrow(contractAddr).Transact(auth, "placeOrder")
	if err != nil {
		return "", fmt.Errorf("ledger: place order at %s: %w", contractAddr, err)
	}

	c.logger.InfoContext(ctx, "order submitted",
		slog.String("tx", tx.Hash().Hex()),
		slog.String("contract", contractAddr),
	)

	if err := c.waitMined(ctx, tx); err != nil {
		return tx.Hash().Hex(), err
	}
	return tx.Hash().Hex(), nil
}

// WithdrawFunds submits a withdrawal to the escrow contract and waits for it
// to be mined. Seller-only and end-state rules are enforced on chain.
func (c *Client) WithdrawFunds(ctx context.Context, contractAddr string) (string, error) {
	auth, err := c.transactor(ctx, nil)
	if err != nil {
		return "", err
	}

	tx, err := c.escrow(contractAddr).Transact(auth, "withdrawFunds")
	if err != nil {
		return "", fmt.Errorf("ledger: withdraw from %s: %w", contractAddr, err)
	}

	c.logger.InfoContext(ctx, "withdrawal submitted",
		slog.String("tx", tx.Hash().Hex()),
		slog.String("contract", contractAddr),
	)

	if err := c.waitMined(ctx, tx); err != nil {
		return tx.Hash().Hex(), err
	}
	return tx.Hash().Hex(), nil
}
