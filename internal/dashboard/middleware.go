package dashboard

import (
	"net/http"
	"strings"
)

// authMiddleware validates the Bearer token in the Authorization header
// against expectedToken. The dashboard reuses the tunnel's own auth token
// as its bearer secret rather than introducing a second, unspecified
// credential (see DESIGN.md).
func authMiddleware(expectedToken string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		const prefix = "Bearer "
		if !strings.HasPrefix(auth, prefix) || auth[len(prefix):] != expectedToken {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or missing bearer token")
			return
		}
		next.ServeHTTP(w, r)
	})
}
