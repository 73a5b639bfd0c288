package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger appends admin actions to a JSON-lines file. Without a file it
// forwards entries to slog.
type Logger struct {
	mu  sync.Mutex
	out io.WriteCloser
	now func() time.Time
}

// NewLogger writes to a rotating file at path, or to slog if path is empty.
func NewLogger(path string) *Logger {
	l := &Logger{now: time.Now}
	if path != "" {
		l.out = &lumberjack.Logger{
			Filename:   path,
			MaxSize:    10, // megabytes
			MaxBackups: 5,
			MaxAge:     90, // days
			Compress:   true,
		}
	}
	return l
}

func newWriterLogger(w io.WriteCloser) *Logger {
	return &Logger{out: w, now: time.Now}
}

type Entry struct {
	Time       time.Time      `json:"time"`
	Action     string         `json:"action"`
	TargetType string         `json:"target_type"`
	TargetID   string         `json:"target_id,omitempty"`
	IP         string         `json:"ip,omitempty"`
	UserAgent  string         `json:"user_agent,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

func (l *Logger) Log(ctx context.Context, e Entry) error {
	if e.Time.IsZero() {
		e.Time = l.now().UTC()
	}

	if l.out == nil {
		slog.InfoContext(ctx, "audit",
			"action", e.Action,
			"target_type", e.TargetType,
			"target_id", e.TargetID,
			"ip", e.IP,
			"metadata", e.Metadata)
		return nil
	}

	line, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal audit entry: %w", err)
	}
	line = append(line, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := l.out.Write(line); err != nil {
		return fmt.Errorf("write audit entry: %w", err)
	}
	return nil
}

func (l *Logger) Close() error {
	if l == nil || l.out == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.out.Close()
}

const (
	ActionContentSave      = "content.save"
	ActionMediaUpload      = "media.upload"
	ActionSubmissionRead   = "submission.read"
	ActionSubmissionUnread = "submission.unread"
	ActionSubmissionDelete = "submission.delete"
	ActionDeployRun        = "deploy.run"
	ActionDeployFailed     = "deploy.failed"
)

const (
	TargetContent    = "content"
	TargetMedia      = "media"
	TargetSubmission = "submission"
	TargetDeploy     = "deploy"
)
