package api

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"led-fleet-gateway/internal/apitypes"
)

// AuthMiddleware rejects requests that do not carry the admin bearer token.
func (m *MiddlewareHandler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(m.adminToken)) != 1 {
			RespondJSON(w, r, http.StatusUnauthorized, &apitypes.ErrorResponse{
				RequestID: GetRequestIDFromContext(r.Context()),
				Message:   "Unauthorized",
			})

			return
		}

		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) (string, bool) {
	auth := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(auth, "Bearer ")
	if !ok || token == "" {
		return "", false
	}

	return token, true
}
