package handler

import (
	"log/slog"
	"net/http"
	"time"
)

// HealthHandler serves the health-check endpoint.
type HealthHandler struct {
	chainID uint64
	logger  *slog.Logger
}

// NewHealthHandler creates a HealthHandler reporting the connected chain.
func NewHealthHandler(chainID uint64, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{chainID: chainID, logger: logger}
}

// HealthCheck responds with a simple JSON status indicating the server is alive.
// GET /api/health
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"chain_id":  h.chainID,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
