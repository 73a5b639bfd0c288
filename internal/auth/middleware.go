package auth

import (
	"log/slog"
	"net/http"
	"strings"
)

// Gate redirects unauthenticated requests for prefix, or anything below
// prefix + "/", to loginPath. loginPath itself is always let through.
func Gate(prefix, loginPath string) func(http.Handler) http.Handler {
	prefix = strings.TrimSuffix(prefix, "/")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := r.URL.Path
			if path != prefix && !strings.HasPrefix(path, prefix+"/") {
				next.ServeHTTP(w, r)
				return
			}
			if path == loginPath || IsAuthenticated(r) {
				next.ServeHTTP(w, r)
				return
			}
			slog.Debug("admin gate redirect", "path", path)
			http.Redirect(w, r, loginPath, http.StatusSeeOther)
		})
	}
}

// RequireAPISession rejects admin API calls without the session marker.
func RequireAPISession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !IsAuthenticated(r) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"unauthorized"}` + "\n"))
			return
		}
		next.ServeHTTP(w, r)
	})
}
