// Package ledger implements domain.Ledger against the deployed group-buy
// contracts using go-ethereum. All durable state lives in those contracts;
// this package only reads it and submits signed transactions.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"strings"

	"github.com/celobazaar/groupbuyd/internal/domain"
	"github.com/celobazaar/groupbuyd/internal/wallet"
)

// ClientConfig holds connection parameters for the ledger client.
type ClientConfig struct {
	// RPCURL is the JSON-RPC endpoint.
	RPCURL string

	// ChainID is the single accepted network identifier (44787 for Celo
	// Alfajores). A node reporting anything else fails the dial.
	ChainID uint64

	// RegistryAddress is the deployed registry contract.
	RegistryAddress string

	// ConfirmTimeout bounds the wait for a submitted transaction to be
	// mined. Zero means wait until ctx is done.
	ConfirmTimeout time.Duration

	// Wallet is the write accessor. Nil yields a read-only client whose
	// write methods fail with domain.ErrNoWriteCapability.
	Wallet *wallet.Wallet
}

// Client talks to the registry and per-listing escrow contracts over a single
// RPC connection. It is safe for concurrent use.
type Client struct {
	eth            *ethclient.Client
	chainID        *big.Int
	registry       *bind.BoundContract
	escrowABI      abi.ABI
	wallet         *wallet.Wallet
	confirmTimeout time.Duration
	logger         *slog.Logger
}

// Dial connects to the RPC endpoint, verifies the network identity against
// cfg.ChainID, and binds the registry contract. A network mismatch is a hard
// failure: proceeding on the wrong chain would sign transactions against
// contracts that do not exist there.
func Dial(ctx context.Context, cfg ClientConfig, logger *slog.Logger) (*Client, error) {
	eth, err := ethclient.DialContext(ctx, cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("ledger: dial %s: %w", cfg.RPCURL, err)
	}

	chainID, err := eth.ChainID(ctx)
	if err != nil {
		eth.Close()
		return nil, fmt.Errorf("ledger: query chain id: %w", err)
	}
	if chainID.Uint64() != cfg.ChainID {
		eth.Close()
		return nil, fmt.Errorf("ledger: %w: connected to chain %d, want %d",
			domain.ErrNetworkMismatch, chainID.Uint64(), cfg.ChainID)
	}

	regABI, err := abi.JSON(strings.NewReader(registryABI))
	if err != nil {
		eth.Close()
		return nil, fmt.Errorf("ledger: parse registry ABI: %w", err)
	}
	escABI, err := abi.JSON(strings.NewReader(escrowABI))
	if err != nil {
		eth.Close()
		return nil, fmt.Errorf("ledger: parse escrow ABI: %w", err)
	}

	registryAddr := common.HexToAddress(cfg.RegistryAddress)
	registry := bind.NewBoundContract(registryAddr, regABI, eth, eth, eth)

	logger.InfoContext(ctx, "ledger: connected",
		slog.Uint64("chain_id", chainID.Uint64()),
		slog.String("registry", registryAddr.Hex()),
		slog.Bool("write_capable", cfg.Wallet != nil),
	)

	return &Client{
		eth:            eth,
		chainID:        chainID,
		registry:       registry,
		escrowABI:      escABI,
		wallet:         cfg.Wallet,
		confirmTimeout: cfg.ConfirmTimeout,
		logger:         logger.With(slog.String("component", "ledger")),
	}, nil
}

// Close releases the RPC connection.
func (c *Client) Close() {
	c.eth.Close()
}

// CanWrite reports whether a wallet key is bound to this client.
func (c *Client) CanWrite() bool {
	return c.wallet != nil
}

// Account returns the lowercase write-accessor address, or "" when read-only.
func (c *Client) Account() string {
	if c.wallet == nil {
		return ""
	}
	return c.wallet.AddressHex()
}

// ChainID returns the verified network identifier.
func (c *Client) ChainID() uint64 {
	return c.chainID.Uint64()
}

// escrow binds the per-listing contract at addr.
func (c *Client) escrow(addr string) *bind.BoundContract {
	return bind.NewBoundContract(common.HexToAddress(addr), c.escrowABI, c.eth, c.eth, c.eth)
}

// transactor builds write options, failing when no wallet is configured.
// value may be nil for non-payable calls.
func (c *Client) transactor(ctx context.Context, value *big.Int) (*bind.TransactOpts, error) {
	if c.wallet == nil {
		return nil, domain.ErrNoWriteCapability
	}
	auth, err := c.wallet.Transactor(c.chainID)
	if err != nil {
		return nil, fmt.Errorf("ledger: %w", err)
	}
	auth.Context = ctx
	auth.Value = value
	return auth, nil
}

// waitMined blocks until tx is mined or the confirm timeout expires, then
// checks the receipt status. A reverted execution surfaces as ErrTxReverted.
func (c *Client) waitMined(ctx context.Context, tx *types.Transaction) error {
	if c.confirmTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.confirmTimeout)
		defer cancel()
	}

	receipt, err := bind.WaitMined(ctx, c.eth, tx)
	if err != nil {
		return fmt.Errorf("ledger: wait for tx %s: %w", tx.Hash().Hex(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return fmt.Errorf("ledger: tx %s: %w", tx.Hash().Hex(), domain.ErrTxReverted)
	}

	c.logger.DebugContext(ctx, "transaction mined",
		slog.String("tx", tx.Hash().Hex()),
		slog.Uint64("block", receipt.BlockNumber.Uint64()),
		slog.Uint64("gas_used", receipt.GasUsed),
	)
	return nil
}

// Compile-time interface check.
var _ domain.Ledger = (*Client)(nil)
