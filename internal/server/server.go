// Package server assembles the HTTP + WebSocket API over the sync client.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/celobazaar/groupbuyd/internal/server/handler"
	"github.com/celobazaar/groupbuyd/internal/server/middleware"
	"github.com/celobazaar/groupbuyd/internal/server/ws"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port        int
	CORSOrigins []string
	APIKey      string // if empty, authentication is disabled
}

// Handlers aggregates the HTTP handlers the server registers. Journal may be
// nil when no journal store is configured.
type Handlers struct {
	Health   *handler.HealthHandler
	Session  *handler.SessionHandler
	Listings *handler.ListingHandler
	Journal  *handler.JournalHandler
}

// Server is the headless HTTP + WebSocket API for the marketplace client.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer registers all routes and wires the middleware chain
// (request id, CORS, logging, auth). wsHub may be nil.
func NewServer(cfg Config, handlers Handlers, wsHub *ws.Hub, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	// Health check (no auth required for the rest either; auth applies to
	// the whole chain when configured).
	mux.HandleFunc("GET /api/health", handlers.Health.HealthCheck)

	mux.HandleFunc("GET /api/session", handlers.Session.GetSession)

	mux.HandleFunc("GET /api/listings", handlers.Listings.ListListings)
	mux.HandleFunc("GET /api/listings/{id}", handlers.Listings.GetListing)
	mux.HandleFunc("POST /api/listings", handlers.Listings.CreateListing)
	mux.HandleFunc("POST /api/listings/{id}/order", handlers.Listings.PlaceOrder)
	mux.HandleFunc("POST /api/listings/{id}/withdraw", handlers.Listings.Withdraw)
	mux.HandleFunc("POST /api/refresh", handlers.Listings.Refresh)

	if handlers.Journal != nil {
		mux.HandleFunc("GET /api/journal", handlers.Journal.ListRecent)
	}

	if wsHub != nil {
		mux.HandleFunc("GET /ws", wsHub.HandleWS)
	}

	var h http.Handler = mux
	h = middleware.Auth(cfg.APIKey)(h)
	h = middleware.Logging(logger)(h)
	h = middleware.CORS(cfg.CORSOrigins)(h)
	h = middleware.RequestID()(h)

	srv := &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.Port),
		Handler:     h,
		ReadTimeout: 15 * time.Second,
		// No WriteTimeout: write endpoints block on transaction
		// confirmation, which is bounded by the chain confirm timeout.
		IdleTimeout: 60 * time.Second,
	}

	return &Server{
		httpServer: srv,
		logger:     logger,
	}
}

// Start begins listening for HTTP requests. It blocks until the server
// encounters an error or is shut down.
func (s *Server) Start() error {
	s.logger.Info("server: starting",
		slog.String("addr", s.httpServer.Addr),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server, waiting for in-flight requests
// to complete within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server: shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
