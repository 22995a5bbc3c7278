package domain

// UnlinkedAddress is the sentinel reported before a wallet is configured.
const UnlinkedAddress = "unlinked"

// Session is the connected identity for this process. It is created once at
// startup from the configured wallet (or left unlinked for read-only use) and
// is never persisted; a restart rebuilds it.
type Session struct {
	// Address is the lowercase account identifier, or UnlinkedAddress.
	Address string `json:"address"`

	// ChainID is the connected network identifier. Operations require it to
	// equal the registry's chain; a mismatch is fatal to the operation.
	ChainID uint64 `json:"chain_id"`
}

// Linked reports whether a wallet is bound to this session.
func (s Session) Linked() bool {
	return s.Address != "" && s.Address != UnlinkedAddress
}
