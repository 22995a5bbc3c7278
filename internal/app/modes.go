package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/celobazaar/groupbuyd/internal/refresh"
	"github.com/celobazaar/groupbuyd/internal/server"
	"github.com/celobazaar/groupbuyd/internal/server/handler"
	"github.com/celobazaar/groupbuyd/internal/server/ws"
)

// shutdownGrace bounds how long the HTTP server waits for in-flight requests
// on shutdown.
const shutdownGrace = 10 * time.Second

// ServeMode runs the HTTP + WebSocket API, plus the background refresher when
// enabled, until the context is cancelled.
func (a *App) ServeMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting serve mode")

	g, ctx := errgroup.WithContext(ctx)

	a.startRefresher(ctx, g, deps)
	a.startHTTPServer(ctx, g, deps)

	return waitGroup(g)
}

// SyncMode performs a single full refresh, optionally archives the snapshot,
// and exits. Suitable for cron-driven deployments.
func (a *App) SyncMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting sync mode")

	listings, err := deps.Sync.RefreshAll(ctx)
	if err != nil {
		return fmt.Errorf("app: sync: %w", err)
	}
	a.logger.InfoContext(ctx, "sync complete", slog.Int("listings", len(listings)))

	if deps.Archiver != nil {
		key, err := deps.Archiver.Archive(ctx, listings)
		if err != nil {
			return fmt.Errorf("app: sync snapshot: %w", err)
		}
		a.logger.InfoContext(ctx, "snapshot archived", slog.String("key", key))
	}
	return nil
}

// WatchMode runs the refresher loop without the HTTP surface. Listing events
// still flow to the signal bus and notification channels.
func (a *App) WatchMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting watch mode")

	interval := a.cfg.Refresh.Interval.Duration
	if !a.cfg.Refresh.Enabled || interval <= 0 {
		return fmt.Errorf("app: watch mode requires refresh.enabled with a positive interval")
	}

	refresher := refresh.New(deps.Sync, deps.Archiver, interval, a.logger)
	if err := refresher.RunLoop(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("app: watch: %w", err)
	}
	return nil
}

// FullMode runs everything: HTTP + WebSocket API and the refresher loop.
func (a *App) FullMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting full mode")

	g, ctx := errgroup.WithContext(ctx)

	// Full mode always refreshes in the background, even when the serve
	// default leaves it off.
	interval := a.cfg.Refresh.Interval.Duration
	if interval <= 0 {
		interval = 30 * time.Second
	}
	refresher := refresh.New(deps.Sync, deps.Archiver, interval, a.logger)
	g.Go(func() error {
		return refresher.RunLoop(ctx)
	})

	a.startHTTPServer(ctx, g, deps)

	return waitGroup(g)
}

// startRefresher launches the background refresh loop when enabled.
func (a *App) startRefresher(ctx context.Context, g *errgroup.Group, deps *Dependencies) {
	if !a.cfg.Refresh.Enabled || a.cfg.Refresh.Interval.Duration <= 0 {
		a.logger.InfoContext(ctx, "background refresher disabled")
		return
	}
	refresher := refresh.New(deps.Sync, deps.Archiver, a.cfg.Refresh.Interval.Duration, a.logger)
	g.Go(func() error {
		return refresher.RunLoop(ctx)
	})
}

// startHTTPServer builds the handler set, starts the WebSocket hub, and runs
// the HTTP server with graceful shutdown on context cancellation.
func (a *App) startHTTPServer(ctx context.Context, g *errgroup.Group, deps *Dependencies) {
	hub := ws.NewHub(deps.Bus, a.logger, ws.Config{
		Mode:      a.cfg.Mode,
		Session:   deps.Session,
		StartedAt: time.Now().UTC(),
	})
	g.Go(func() error {
		return hub.Run(ctx)
	})

	handlers := server.Handlers{
		Health:   handler.NewHealthHandler(deps.Ledger.ChainID(), a.logger),
		Session:  handler.NewSessionHandler(deps.Session, a.logger),
		Listings: handler.NewListingHandler(deps.Sync, a.logger),
	}
	if deps.Journal != nil {
		handlers.Journal = handler.NewJournalHandler(deps.Journal, a.logger)
	}

	srv := server.NewServer(server.Config{
		Port:        a.cfg.Server.Port,
		CORSOrigins: a.cfg.Server.CORSOrigins,
		APIKey:      a.cfg.Server.APIKey,
	}, handlers, hub, a.logger)

	g.Go(func() error {
		return srv.Start()
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
}

// waitGroup waits for the errgroup, treating context cancellation as a clean
// exit.
func waitGroup(g *errgroup.Group) error {
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
