package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/celobazaar/groupbuyd/internal/domain"
)

// JournalHandler exposes the transaction journal for operators.
type JournalHandler struct {
	journal domain.TxJournal
	logger  *slog.Logger
}

// NewJournalHandler creates a JournalHandler over the given journal.
func NewJournalHandler(journal domain.TxJournal, logger *slog.Logger) *JournalHandler {
	return &JournalHandler{journal: journal, logger: logger}
}

// ListRecent returns the most recent journal entries, newest first.
// GET /api/journal?limit=50
func (h *JournalHandler) ListRecent(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > 500 {
		limit = 500
	}

	records, err := h.journal.ListRecent(r.Context(), limit)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: list journal failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list journal entries")
		return
	}
	if records == nil {
		records = []domain.TxRecord{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"records": records,
		"total":   len(records),
	})
}
