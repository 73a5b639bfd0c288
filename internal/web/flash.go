package web

import (
	"net/http"
	"net/url"
)

const (
	flashSuccessCookie = "flash_success"
	flashErrorCookie   = "flash_error"
)

// Flash messages survive exactly one redirect of the server-rendered admin
// forms.
func setFlash(w http.ResponseWriter, name, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    url.QueryEscape(value),
		Path:     adminPrefix,
		MaxAge:   5,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func popFlash(w http.ResponseWriter, r *http.Request, name string) string {
	cookie, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Path:     adminPrefix,
		MaxAge:   -1,
		HttpOnly: true,
	})
	val, _ := url.QueryUnescape(cookie.Value)
	return val
}
