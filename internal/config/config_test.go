package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	cfg := Defaults()
	cfg.Chain.RegistryAddress = "0x1111111111111111111111111111111111111111"
	return cfg
}

func TestValidateAcceptsDefaultsWithRegistry(t *testing.T) {
	cfg := validConfig()
	assert.NoError(t, cfg.Validate())
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := validConfig()
	cfg.Mode = "race"
	cfg.Chain.RPCURL = ""
	cfg.Chain.RegistryAddress = "not-an-address"
	cfg.Chain.FetchConcurrency = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
	assert.Contains(t, err.Error(), "rpc_url")
	assert.Contains(t, err.Error(), "registry_address")
	assert.Contains(t, err.Error(), "fetch_concurrency")
}

func TestValidateWalletKeyFileRequiresPassword(t *testing.T) {
	cfg := validConfig()
	cfg.Wallet.EncryptedKeyPath = "wallet.key.json"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "key_password")
}

func TestValidateOptionalSubsystemsOnlyWhenEnabled(t *testing.T) {
	cfg := validConfig()

	// Garbage in disabled subsystems is ignored.
	cfg.Redis.Enabled = false
	cfg.Redis.Addr = ""
	cfg.S3.Enabled = false
	cfg.S3.Bucket = ""
	require.NoError(t, cfg.Validate())

	cfg.Redis.Enabled = true
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis: addr")
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
mode = "watch"

[chain]
registry_address = "0x2222222222222222222222222222222222222222"
confirm_timeout = "45s"
fetch_concurrency = 8
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "watch", cfg.Mode)
	assert.Equal(t, 45*time.Second, cfg.Chain.ConfirmTimeout.Duration)
	assert.Equal(t, 8, cfg.Chain.FetchConcurrency)

	// Untouched fields keep their defaults.
	assert.Equal(t, uint64(44787), cfg.Chain.ChainID)
	assert.Equal(t, "https://alfajores-forno.celo-testnet.org", cfg.Chain.RPCURL)
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[chain]
registry_address = "0x2222222222222222222222222222222222222222"
`), 0o600))

	t.Setenv("GROUPBUY_MODE", "sync")
	t.Setenv("GROUPBUY_CHAIN_FETCH_CONCURRENCY", "16")
	t.Setenv("GROUPBUY_CHAIN_PARTIAL_RESULTS", "true")
	t.Setenv("GROUPBUY_REFRESH_INTERVAL", "1m")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "sync", cfg.Mode)
	assert.Equal(t, 16, cfg.Chain.FetchConcurrency)
	assert.True(t, cfg.Chain.PartialResults)
	assert.Equal(t, time.Minute, cfg.Refresh.Interval.Duration)
}

func TestDurationUnmarshalText(t *testing.T) {
	var d duration
	require.NoError(t, d.UnmarshalText([]byte("90s")))
	assert.Equal(t, 90*time.Second, d.Duration)

	assert.Error(t, d.UnmarshalText([]byte("ninety")))
}
