package app

import (
	"context"
	"fmt"
	"log/slog"

	s3blob "github.com/celobazaar/groupbuyd/internal/blob/s3"
	"github.com/celobazaar/groupbuyd/internal/cache/memory"
	"github.com/celobazaar/groupbuyd/internal/cache/redis"
	"github.com/celobazaar/groupbuyd/internal/config"
	"github.com/celobazaar/groupbuyd/internal/domain"
	"github.com/celobazaar/groupbuyd/internal/ledger"
	"github.com/celobazaar/groupbuyd/internal/notify"
	"github.com/celobazaar/groupbuyd/internal/service"
	"github.com/celobazaar/groupbuyd/internal/store/postgres"
	"github.com/celobazaar/groupbuyd/internal/wallet"
)

// Dependencies bundles everything the application modes need. It is
// constructed by Wire and torn down by the returned cleanup function.
type Dependencies struct {
	Ledger  *ledger.Client
	Cache   domain.ListingCache
	Bus     domain.SignalBus
	Journal domain.TxJournal // nil when Postgres is disabled
	Sync    *service.SyncClient

	Archiver *s3blob.SnapshotArchiver // nil when S3 is disabled
	Notifier *notify.Notifier

	Session domain.Session
}

// Wire constructs all concrete dependencies from the configuration and
// returns them with a cleanup function to be called on shutdown. The ledger
// connection is mandatory; Redis, Postgres, and S3 are optional and fall back
// to in-process or absent implementations.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- Wallet (optional: absent credentials yield a read-only client) ---
	w, err := wallet.Load(wallet.KeyConfig{
		RawPrivateKey:    cfg.Wallet.PrivateKey,
		EncryptedKeyPath: cfg.Wallet.EncryptedKeyPath,
		KeyPassword:      cfg.Wallet.KeyPassword,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("wire: wallet: %w", err)
	}
	deps.Session = w.Session(cfg.Chain.ChainID)

	// --- Ledger (mandatory; chain mismatch aborts here) ---
	ledgerClient, err := ledger.Dial(ctx, ledger.ClientConfig{
		RPCURL:          cfg.Chain.RPCURL,
		ChainID:         cfg.Chain.ChainID,
		RegistryAddress: cfg.Chain.RegistryAddress,
		ConfirmTimeout:  cfg.Chain.ConfirmTimeout.Duration,
		Wallet:          w,
	}, logger)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: ledger: %w", err)
	}
	closers = append(closers, ledgerClient.Close)
	deps.Ledger = ledgerClient

	// --- Cache + signal bus: Redis when enabled, in-process otherwise ---
	if cfg.Redis.Enabled {
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })

		deps.Cache = redis.NewListingCache(redisClient)
		deps.Bus = redis.NewSignalBus(redisClient)
	} else {
		deps.Cache = memory.NewListingCache()
		deps.Bus = memory.NewSignalBus()
	}

	// --- Postgres transaction journal (optional) ---
	if cfg.Postgres.Enabled {
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Postgres.DSN,
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			Database: cfg.Postgres.Database,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			SSLMode:  cfg.Postgres.SSLMode,
			MaxConns: cfg.Postgres.PoolMaxConns,
			MinConns: cfg.Postgres.PoolMinConns,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres: %w", err)
		}
		closers = append(closers, pgClient.Close)

		if cfg.Postgres.RunMigrations {
			if err := pgClient.RunMigrations(ctx); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
			}
		}
		deps.Journal = postgres.NewJournalStore(pgClient.Pool())
	}

	// --- S3 snapshot archiver (optional) ---
	if cfg.S3.Enabled {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		deps.Archiver = s3blob.NewSnapshotArchiver(s3Client, cfg.S3.SnapshotPrefix)
	}

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			cfg.Notify.TelegramToken,
			cfg.Notify.TelegramChatID,
		))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)

	// --- Sync client ---
	deps.Sync = service.NewSyncClient(
		ledgerClient,
		deps.Cache,
		deps.Bus,
		deps.Journal,
		deps.Notifier,
		service.Config{
			FetchConcurrency: cfg.Chain.FetchConcurrency,
			PartialResults:   cfg.Chain.PartialResults,
		},
		deps.Session,
		logger,
	)

	return deps, cleanup, nil
}
