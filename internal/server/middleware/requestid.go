package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// requestIDKey is the context key under which the request id is stored.
type requestIDKey struct{}

// headerRequestID is the header carrying the request id in both directions.
const headerRequestID = "X-Request-Id"

// RequestID returns middleware that assigns every request a UUID, honoring
// an inbound X-Request-Id header so ids propagate across services. The id is
// stored in the request context and echoed in the response header.
func RequestID() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(headerRequestID)
			if id == "" {
				id = uuid.NewString()
			}

			w.Header().Set(headerRequestID, id)
			ctx := context.WithValue(r.Context(), requestIDKey{}, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequestIDFromContext returns the request id assigned by RequestID, or an
// empty string when the middleware did not run.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
