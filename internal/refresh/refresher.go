// Package refresh drives periodic re-synchronization of the listing cache
// from the ledger.
package refresh

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/celobazaar/groupbuyd/internal/domain"
)

// Syncer is the part of the sync client the refresher drives.
type Syncer interface {
	RefreshAll(ctx context.Context) ([]domain.Listing, error)
}

// Archiver uploads a snapshot of the refreshed listing set. Optional.
type Archiver interface {
	Archive(ctx context.Context, listings []domain.Listing) (string, error)
}

// Refresher re-enumerates the ledger on a fixed interval, keeping the cache
// warm for readers, and optionally archives each refreshed set.
type Refresher struct {
	syncer   Syncer
	archiver Archiver // optional
	interval time.Duration
	logger   *slog.Logger
}

// New creates a Refresher. archiver may be nil.
func New(syncer Syncer, archiver Archiver, interval time.Duration, logger *slog.Logger) *Refresher {
	return &Refresher{
		syncer:   syncer,
		archiver: archiver,
		interval: interval,
		logger:   logger.With(slog.String("component", "refresher")),
	}
}

// Run executes a single refresh pass.
func (r *Refresher) Run(ctx context.Context) error {
	listings, err := r.syncer.RefreshAll(ctx)
	if err != nil {
		return fmt.Errorf("refresh: %w", err)
	}

	if r.archiver != nil {
		key, err := r.archiver.Archive(ctx, listings)
		if err != nil {
			// A failed snapshot never fails the refresh.
			r.logger.WarnContext(ctx, "snapshot archive failed",
				slog.String("error", err.Error()),
			)
		} else {
			r.logger.InfoContext(ctx, "snapshot archived", slog.String("key", key))
		}
	}
	return nil
}

// RunLoop runs refresh passes on the configured interval until the context
// is cancelled. The first pass runs immediately. Individual failures are
// logged and the loop keeps going.
func (r *Refresher) RunLoop(ctx context.Context) error {
	r.logger.InfoContext(ctx, "refresher started", slog.Duration("interval", r.interval))

	if err := r.Run(ctx); err != nil {
		r.logger.ErrorContext(ctx, "refresh pass failed", slog.String("error", err.Error()))
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.InfoContext(ctx, "refresher stopped")
			return ctx.Err()
		case <-ticker.C:
			if err := r.Run(ctx); err != nil {
				r.logger.ErrorContext(ctx, "refresh pass failed", slog.String("error", err.Error()))
			}
		}
	}
}
