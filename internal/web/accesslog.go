package web

import (
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/acgh213/reelfolio/internal/auth"
)

const (
	eventLoginSuccess = "login_success"
	eventLoginFailed  = "login_failed"
	eventRateLimited  = "rate_limited"
	eventLogout       = "logout"
	eventUnauthorized = "unauthorized"
	eventBadSignature = "webhook_bad_signature"
)

// AccessLogger records security events (logins, throttling, rejected
// webhooks) to a rotating file. A nil *AccessLogger discards everything.
type AccessLogger struct {
	mu     sync.Mutex
	writer io.WriteCloser
	now    func() time.Time
}

func NewAccessLogger(path string) *AccessLogger {
	if path == "" {
		return nil
	}
	return newAccessLogger(&lumberjack.Logger{
		Filename:   path,
		MaxSize:    10, // megabytes
		MaxBackups: 1,
	})
}

func newAccessLogger(w io.WriteCloser) *AccessLogger {
	return &AccessLogger{writer: w, now: time.Now}
}

func (a *AccessLogger) Close() error {
	if a == nil {
		return nil
	}
	return a.writer.Close()
}

// Log writes one line:
// timestamp ip "method path" status event "user-agent" [detail]
func (a *AccessLogger) Log(r *http.Request, status int, event, detail string) {
	if a == nil {
		return
	}
	line := fmt.Sprintf("%s %s \"%s %s\" %d %s \"%s\"",
		a.now().UTC().Format(time.RFC3339),
		auth.ClientIP(r),
		r.Method,
		r.URL.Path,
		status,
		event,
		escapeQuotes(r.UserAgent()),
	)
	if detail != "" {
		line += fmt.Sprintf(" detail=\"%s\"", escapeQuotes(detail))
	}
	line += "\n"

	a.mu.Lock()
	defer a.mu.Unlock()
	_, _ = a.writer.Write([]byte(line))
}

func escapeQuotes(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '"', '\\':
			out = append(out, '\\', s[i])
		case '\n', '\r':
			out = append(out, ' ')
		default:
			out = append(out, s[i])
		}
	}
	return string(out)
}
