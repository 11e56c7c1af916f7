package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
)

type contextKey string

const ClaimsKey contextKey = "stream_claims"

// Middleware guards a stream handler with a bearer token.
// The token is read from the Authorization header, or from the "token" query
// parameter for players that cannot set headers.
// resourceOf names the resource the request targets.
func Middleware(secret []byte, log *slog.Logger, resourceOf func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := bearerToken(r)
			if tokenStr == "" {
				unauthorized(w, "authorization token is missing")
				return
			}

			claims, err := ValidateToken(secret, tokenStr)
			if err != nil {
				log.Debug("Rejected stream token", "path", r.URL.Path, "error", err)
				unauthorized(w, "invalid or expired token")
				return
			}

			resource := resourceOf(r)
			if !claims.Allows(resource) {
				log.Debug("Token does not grant resource", "subject", claims.Subject, "resource", resource)
				http.Error(w, "token does not grant this resource", http.StatusForbidden)
				return
			}

			ctx := context.WithValue(r.Context(), ClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		scheme, token, ok := strings.Cut(header, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	return r.URL.Query().Get("token")
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="stream-lab"`)
	http.Error(w, msg, http.StatusUnauthorized)
}
