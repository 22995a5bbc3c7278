package handler

import (
	"log/slog"
	"net/http"

	"github.com/celobazaar/groupbuyd/internal/domain"
)

// SessionHandler reports the wallet session this process is running under.
type SessionHandler struct {
	session domain.Session
	logger  *slog.Logger
}

// NewSessionHandler creates a SessionHandler for the given session.
func NewSessionHandler(session domain.Session, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{session: session, logger: logger}
}

// GetSession returns the active account address and chain id. An unlinked
// session reports the sentinel address and linked=false.
// GET /api/session
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"address":  h.session.Address,
		"chain_id": h.session.ChainID,
		"linked":   h.session.Linked(),
	})
}
