package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/acgh213/reelfolio/internal/auth"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if auth.IsAuthenticated(r) {
		http.Redirect(w, r, dashboardPath, http.StatusSeeOther)
		return
	}
	s.render(w, r, "login.html", s.newPageData(r, "Admin login"))
}

func (s *Server) handleAdminRoot(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, dashboardPath, http.StatusSeeOther)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if !s.creds.Configured() {
		slog.Error("admin login attempted but credentials are not configured")
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error":   "admin credentials not configured",
			"message": "set ADMIN_USERNAME and ADMIN_PASSWORD (or ADMIN_PASSWORD_HASH)",
		})
		return
	}

	id := auth.ClientIdentifier(r)
	limit := s.limiter.Limit()

	st := s.limiter.Check(ctx, id)
	if !st.Allowed {
		s.writeRateLimited(w, limit, st)
		s.access.Log(r, http.StatusTooManyRequests, eventRateLimited, id)
		return
	}

	if err := s.creds.Verify(req.Username, req.Password); err != nil {
		if !errors.Is(err, auth.ErrInvalidCredentials) {
			slog.Error("credential check failed", "error", err)
		}
		s.loginFailed(ctx, w, r, id, limit)
		return
	}

	s.limiter.Reset(ctx, id)
	auth.IssueCookie(w, r, s.cookieOpts)
	setRateLimitHeaders(w, limit, limit, time.Time{})
	s.access.Log(r, http.StatusOK, eventLoginSuccess, "")
	slog.Info("admin logged in", "ip", auth.ClientIP(r))
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) loginFailed(ctx context.Context, w http.ResponseWriter, r *http.Request, id string, limit int) {
	st := s.limiter.RecordFailure(ctx, id)
	setRateLimitHeaders(w, limit, st.Remaining, st.ResetTime)
	s.access.Log(r, http.StatusUnauthorized, eventLoginFailed, "remaining="+strconv.Itoa(st.Remaining))
	writeJSON(w, http.StatusUnauthorized, map[string]any{
		"error":     "invalid username or password",
		"remaining": st.Remaining,
	})
}

func (s *Server) writeRateLimited(w http.ResponseWriter, limit int, st auth.Status) {
	w.Header().Set("Retry-After", strconv.Itoa(st.RetryAfter(s.now())))
	setRateLimitHeaders(w, limit, 0, st.ResetTime)
	writeJSON(w, http.StatusTooManyRequests, map[string]string{
		"error":     "too many failed login attempts, please try again later",
		"resetTime": st.ResetTime.UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	auth.ClearCookie(w, r, s.cookieOpts)
	s.access.Log(r, http.StatusOK, eventLogout, "")
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
