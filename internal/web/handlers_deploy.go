package web

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/acgh213/reelfolio/internal/audit"
	"github.com/acgh213/reelfolio/internal/auth"
	"github.com/acgh213/reelfolio/internal/deploy"
)

const maxWebhookBody = 5 << 20

func (s *Server) handleWebhookStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message":   "GitHub webhook endpoint is active",
		"timestamp": s.now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleWebhookDeploy(w http.ResponseWriter, r *http.Request) {
	secret := s.cfg.Deploy.WebhookSecret
	if secret == "" {
		slog.Error("deploy webhook called but GITHUB_WEBHOOK_SECRET is not set")
		writeError(w, http.StatusInternalServerError, "webhook secret not configured")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read body")
		return
	}
	if !deploy.VerifySignature(secret, body, r.Header.Get(deploy.SignatureHeader)) {
		s.access.Log(r, http.StatusUnauthorized, eventBadSignature, "")
		writeError(w, http.StatusUnauthorized, "invalid signature")
		return
	}

	var push deploy.Push
	if err := json.Unmarshal(body, &push); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if !push.Deployable() {
		writeJSON(w, http.StatusOK, map[string]string{"message": "ignored: not main/master branch"})
		return
	}

	slog.Info("deploy triggered", "commit", push.CommitID(), "message", push.CommitMessage())

	// GitHub gives up on slow webhooks; the deploy must outlive the request.
	res, err := s.deployer.Run(context.WithoutCancel(r.Context()))
	if errors.Is(err, deploy.ErrInProgress) {
		writeError(w, http.StatusConflict, err.Error())
		return
	}

	entry := audit.Entry{
		Action:     audit.ActionDeployRun,
		TargetType: audit.TargetDeploy,
		TargetID:   push.CommitID(),
		IP:         auth.ClientIP(r),
		UserAgent:  r.UserAgent(),
		Metadata:   map[string]any{"duration_ms": res.Duration.Milliseconds()},
	}
	if err != nil {
		entry.Action = audit.ActionDeployFailed
		_ = s.audit.Log(r.Context(), entry)
		slog.Error("deploy failed", "commit", push.CommitID(), "error", err, "stderr", res.Stderr)
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"success": false,
			"error":   "deploy failed",
			"message": err.Error(),
			"stderr":  res.Stderr,
		})
		return
	}
	_ = s.audit.Log(r.Context(), entry)

	slog.Info("deploy completed", "commit", push.CommitID(), "duration", res.Duration)
	writeJSON(w, http.StatusOK, map[string]any{
		"success":       true,
		"message":       "deploy completed successfully",
		"commit":        push.CommitID(),
		"commitMessage": push.CommitMessage(),
		"output":        res.Stdout,
	})
}
