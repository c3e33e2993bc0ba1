package middleware

import (
	"net/http"
	"strings"
)

// AuthCookie is set by the login handler once the password matches.
const AuthCookie = "authenticated"

// AuthMiddleware rejects requests to non-public paths that lack the
// 'authenticated=true' cookie. An empty password disables the check.
func AuthMiddleware(password string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if password == "" || isPublic(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		cookie, err := r.Cookie(AuthCookie)
		if err != nil || cookie.Value != "true" {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Cameras, viewers, metrics scraping and the login itself need no cookie.
func isPublic(path string) bool {
	return path == "/auth/login" ||
		path == "/metrics" ||
		strings.HasPrefix(path, "/api/camera") ||
		strings.HasPrefix(path, "/api/view")
}
