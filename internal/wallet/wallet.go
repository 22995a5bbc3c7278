package wallet

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"github.com/celobazaar/groupbuyd/internal/domain"
)

// Wallet holds the secp256k1 key that authorizes fund-moving transactions.
// A nil *Wallet is a valid read-only accessor.
type Wallet struct {
	key     *ecdsa.PrivateKey
	address common.Address
}

// Load resolves the private key from cfg and derives the account address.
// An unconfigured cfg yields a nil wallet, the read-only accessor.
func Load(cfg KeyConfig) (*Wallet, error) {
	if !cfg.Configured() {
		return nil, nil
	}

	keyHex, err := resolveKeyHex(cfg)
	if err != nil {
		return nil, err
	}

	key, err := ethcrypto.HexToECDSA(keyHex)
	if err != nil {
		return nil, fmt.Errorf("wallet: invalid private key: %w", err)
	}

	return &Wallet{
		key:     key,
		address: ethcrypto.PubkeyToAddress(key.PublicKey),
	}, nil
}

// Address returns the account address.
func (w *Wallet) Address() common.Address {
	return w.address
}

// AddressHex returns the lowercase-normalized hex address used throughout the
// listing domain.
func (w *Wallet) AddressHex() string {
	return strings.ToLower(w.address.Hex())
}

// Transactor builds signing transaction options for the given chain. Each
// call returns a fresh value so callers can set Value and Context without
// racing each other.
func (w *Wallet) Transactor(chainID *big.Int) (*bind.TransactOpts, error) {
	auth, err := bind.NewKeyedTransactorWithChainID(w.key, chainID)
	if err != nil {
		return nil, fmt.Errorf("wallet: build transactor: %w", err)
	}
	return auth, nil
}

// Session returns the session identity for this wallet on the given chain.
// A nil wallet yields an unlinked session.
func (w *Wallet) Session(chainID uint64) domain.Session {
	if w == nil {
		return domain.Session{Address: domain.UnlinkedAddress, ChainID: chainID}
	}
	return domain.Session{Address: w.AddressHex(), ChainID: chainID}
}
