package server

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"

	"github.com/54b3r/refubot-go/internal/logging"
)

// authMiddleware guards operator endpoints with a static Bearer token.
// An empty apiKey disables the check; New logs that once at startup.
// Token values are never logged.
func authMiddleware(apiKey string, next http.Handler) http.Handler {
	if apiKey == "" {
		return next
	}
	want := []byte(apiKey)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		switch {
		case token == "":
			reject(w, r, "authorization required", `Bearer realm="refubot"`)
		case subtle.ConstantTimeCompare([]byte(token), want) != 1:
			reject(w, r, "invalid token", `Bearer realm="refubot", error="invalid_token"`)
		default:
			next.ServeHTTP(w, r)
		}
	})
}

// reject answers 401 with a WWW-Authenticate challenge.
func reject(w http.ResponseWriter, r *http.Request, reason, challenge string) {
	logging.FromContext(r.Context()).Warn("auth: request rejected",
		slog.String("reason", reason),
		slog.String("path", r.URL.Path),
	)
	w.Header().Set("WWW-Authenticate", challenge)
	http.Error(w, reason, http.StatusUnauthorized)
}

// bearerToken extracts the token of an "Authorization: Bearer <token>"
// header, or "" when the header is absent or uses another scheme.
func bearerToken(r *http.Request) string {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
