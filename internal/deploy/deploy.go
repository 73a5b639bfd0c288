// Package deploy runs the deploy script when GitHub reports a push to the
// main branch.
package deploy

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"
)

const SignatureHeader = "X-Hub-Signature-256"

var ErrInProgress = errors.New("a deploy is already running")

// Push is the subset of a GitHub push event the webhook reads.
type Push struct {
	Ref        string  `json:"ref"`
	HeadCommit *Commit `json:"head_commit"`
}

type Commit struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

// Deployable reports whether the push targets main or master.
func (p Push) Deployable() bool {
	return p.Ref == "refs/heads/main" || p.Ref == "refs/heads/master"
}

func (p Push) CommitID() string {
	if p.HeadCommit == nil {
		return ""
	}
	return p.HeadCommit.ID
}

func (p Push) CommitMessage() string {
	if p.HeadCommit == nil {
		return "Unknown commit"
	}
	return p.HeadCommit.Message
}

// Sign returns the X-Hub-Signature-256 value for body.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature compares header against the expected HMAC in constant
// time. An empty header never verifies.
func VerifySignature(secret string, body []byte, header string) bool {
	if header == "" || !strings.HasPrefix(header, "sha256=") {
		return false
	}
	return hmac.Equal([]byte(header), []byte(Sign(secret, body)))
}

type Result struct {
	Stdout   string        `json:"output"`
	Stderr   string        `json:"stderr,omitempty"`
	Duration time.Duration `json:"-"`
}

// Runner executes one deploy at a time with bash.
type Runner struct {
	Script  string
	Dir     string
	Timeout time.Duration

	mu sync.Mutex
}

func NewRunner(script string, timeout time.Duration) *Runner {
	return &Runner{Script: script, Timeout: timeout}
}

func (r *Runner) Run(ctx context.Context) (Result, error) {
	if !r.mu.TryLock() {
		return Result{}, ErrInProgress
	}
	defer r.mu.Unlock()

	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, "bash", r.Script)
	cmd.Dir = r.Dir
	cmd.Env = append(os.Environ(), "APP_ENV=production")
	cmd.WaitDelay = 10 * time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	res := Result{Stdout: stdout.String(), Stderr: stderr.String(), Duration: time.Since(start)}
	if err != nil {
		if ctx.Err() != nil {
			return res, fmt.Errorf("deploy script: %w", ctx.Err())
		}
		return res, fmt.Errorf("deploy script: %w", err)
	}
	return res, nil
}
