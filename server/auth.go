package server

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"
)

// authMiddleware validates Bearer token authentication on mutating requests.
// When AdminToken is empty, the middleware is a no-op. Read-only requests
// always pass: the public site consumes the GET endpoints unauthenticated.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	if s.config.AdminToken == "" {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet || r.Method == http.MethodHead {
			next.ServeHTTP(w, r)
			return
		}

		if !bearerMatch(r, s.config.AdminToken) {
			unauthorizedResponse(w)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// bearerMatch reports whether the request carries the expected Bearer token,
// using a constant-time comparison.
func bearerMatch(r *http.Request, expected string) bool {
	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return false
	}
	provided := []byte(strings.TrimPrefix(auth, "Bearer "))
	return subtle.ConstantTimeCompare(provided, []byte(expected)) == 1
}

func unauthorizedResponse(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"}) //nolint:errcheck
}
