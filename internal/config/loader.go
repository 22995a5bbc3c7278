package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies GROUPBUY_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known GROUPBUY_* environment variables and
// overwrites the corresponding Config fields when a variable is set. This lets
// operators inject secrets at deploy time without touching the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Chain ──
	setStr(&cfg.Chain.RPCURL, "GROUPBUY_CHAIN_RPC_URL")
	setUint64(&cfg.Chain.ChainID, "GROUPBUY_CHAIN_ID")
	setStr(&cfg.Chain.RegistryAddress, "GROUPBUY_CHAIN_REGISTRY_ADDRESS")
	setDuration(&cfg.Chain.ConfirmTimeout, "GROUPBUY_CHAIN_CONFIRM_TIMEOUT")
	setInt(&cfg.Chain.FetchConcurrency, "GROUPBUY_CHAIN_FETCH_CONCURRENCY")
	setBool(&cfg.Chain.PartialResults, "GROUPBUY_CHAIN_PARTIAL_RESULTS")

	// ── Wallet ──
	setStr(&cfg.Wallet.PrivateKey, "GROUPBUY_WALLET_PRIVATE_KEY")
	setStr(&cfg.Wallet.EncryptedKeyPath, "GROUPBUY_WALLET_ENCRYPTED_KEY_PATH")
	setStr(&cfg.Wallet.KeyPassword, "GROUPBUY_WALLET_KEY_PASSWORD")

	// ── Redis ──
	setBool(&cfg.Redis.Enabled, "GROUPBUY_REDIS_ENABLED")
	setStr(&cfg.Redis.Addr, "GROUPBUY_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "GROUPBUY_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "GROUPBUY_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "GROUPBUY_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "GROUPBUY_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "GROUPBUY_REDIS_TLS_ENABLED")

	// ── Postgres ──
	setBool(&cfg.Postgres.Enabled, "GROUPBUY_POSTGRES_ENABLED")
	setStr(&cfg.Postgres.DSN, "GROUPBUY_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "GROUPBUY_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "GROUPBUY_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "GROUPBUY_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "GROUPBUY_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "GROUPBUY_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "GROUPBUY_POSTGRES_SSLMODE")
	setInt(&cfg.Postgres.PoolMaxConns, "GROUPBUY_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "GROUPBUY_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "GROUPBUY_POSTGRES_RUN_MIGRATIONS")

	// ── S3 ──
	setBool(&cfg.S3.Enabled, "GROUPBUY_S3_ENABLED")
	setStr(&cfg.S3.Endpoint, "GROUPBUY_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "GROUPBUY_S3_REGION")
	setStr(&cfg.S3.Bucket, "GROUPBUY_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "GROUPBUY_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "GROUPBUY_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "GROUPBUY_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "GROUPBUY_S3_FORCE_PATH_STYLE")
	setStr(&cfg.S3.SnapshotPrefix, "GROUPBUY_S3_SNAPSHOT_PREFIX")

	// ── Refresh ──
	setBool(&cfg.Refresh.Enabled, "GROUPBUY_REFRESH_ENABLED")
	setDuration(&cfg.Refresh.Interval, "GROUPBUY_REFRESH_INTERVAL")

	// ── Server ──
	setBool(&cfg.Server.Enabled, "GROUPBUY_SERVER_ENABLED")
	setInt(&cfg.Server.Port, "GROUPBUY_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "GROUPBUY_SERVER_CORS_ORIGINS")
	setStr(&cfg.Server.APIKey, "GROUPBUY_SERVER_API_KEY")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "GROUPBUY_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "GROUPBUY_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "GROUPBUY_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "GROUPBUY_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.Mode, "GROUPBUY_MODE")
	setStr(&cfg.LogLevel, "GROUPBUY_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setUint64(dst *uint64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
