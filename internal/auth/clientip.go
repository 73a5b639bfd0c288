package auth

import (
	"net/http"
	"strings"
)

const identifierPrefix = "login:"

// ClientIP returns the first address in X-Forwarded-For, else X-Real-IP,
// else "unknown". Both headers are client-controlled.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	return "unknown"
}

// ClientIdentifier is the limiter key for login attempts from r.
func ClientIdentifier(r *http.Request) string {
	return identifierPrefix + ClientIP(r)
}
