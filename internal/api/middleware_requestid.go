package api

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"
)

// MiddlewareHandler holds shared state for the middleware chain.
type MiddlewareHandler struct {
	l          *slog.Logger
	adminToken string
}

// NewMiddlewareHandler creates a new middleware handler.
func NewMiddlewareHandler(l *slog.Logger, adminToken string) *MiddlewareHandler {
	return &MiddlewareHandler{l: l, adminToken: adminToken}
}

// RequestIDMiddleware extracts the request ID from the request header or generates a new one
// if it's not present and stores it in the request context.
func (m *MiddlewareHandler) RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Get or generate request ID
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}

		w.Header().Set(RequestIDHeader, requestID)

		// Store request ID in context
		ctx := WithRequestID(r.Context(), requestID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
