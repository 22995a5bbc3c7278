// Package handler contains the HTTP handlers for the marketplace API.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/celobazaar/groupbuyd/internal/domain"
)

// writeJSON marshals v as JSON and writes it with the given status code. If
// marshaling fails, it falls back to a plain 500.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	w.Write(data)
}

// writeError sends a JSON-formatted error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeDomainError maps domain sentinel errors to HTTP status codes and
// writes the corresponding error response. The boolean reports whether the
// error was recognized; unrecognized errors are the caller's to handle.
func writeDomainError(w http.ResponseWriter, err error) bool {
	var status int
	switch {
	case errors.Is(err, domain.ErrMissingField),
		errors.Is(err, domain.ErrInvalidPrice),
		errors.Is(err, domain.ErrDurationTooShort):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrNotOpen),
		errors.Is(err, domain.ErrNotEnded),
		errors.Is(err, domain.ErrSellerOrder),
		errors.Is(err, domain.ErrAlreadyOrdered),
		errors.Is(err, domain.ErrNotSeller),
		errors.Is(err, domain.ErrNoBuyers),
		errors.Is(err, domain.ErrAlreadyWithdrawn):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrNoWriteCapability):
		status = http.StatusForbidden
	default:
		return false
	}
	writeError(w, status, err.Error())
	return true
}

// pathID extracts a numeric {id} path parameter using Go 1.22+ routing.
func pathID(r *http.Request) (uint64, error) {
	return strconv.ParseUint(r.PathValue("id"), 10, 64)
}
