package auth

import (
	"net/http"
	"strings"
	"time"
)

const (
	CookieName      = "admin_auth"
	CookieValue     = "authenticated"
	SessionDuration = 24 * time.Hour * 7 // 7 days
)

// CookieOptions carries the attributes shared by IssueCookie and ClearCookie.
type CookieOptions struct {
	Domain string
}

// IsSecureRequest reports whether r arrived over HTTPS, directly or through a
// TLS-terminating proxy.
func IsSecureRequest(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	if strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https") {
		return true
	}
	return r.Header.Get("CF-Connecting-IP") != ""
}

// IsAuthenticated reports whether r carries the admin session marker.
func IsAuthenticated(r *http.Request) bool {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return false
	}
	return cookie.Value == CookieValue
}

func IssueCookie(w http.ResponseWriter, r *http.Request, opts CookieOptions) {
	http.SetCookie(w, sessionCookie(r, opts, CookieValue, int(SessionDuration/time.Second)))
}

// ClearCookie expires the marker using the same attributes it was issued with.
func ClearCookie(w http.ResponseWriter, r *http.Request, opts CookieOptions) {
	http.SetCookie(w, sessionCookie(r, opts, "", -1))
}

func sessionCookie(r *http.Request, opts CookieOptions, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		Domain:   opts.Domain,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   IsSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
	}
}
