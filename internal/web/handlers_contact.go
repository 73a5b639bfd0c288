package web

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/acgh213/reelfolio/internal/submissions"
)

func (s *Server) handleContactSubmit(w http.ResponseWriter, r *http.Request) {
	var in submissions.Input
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sub, err := s.submissions.Add(in)
	if err != nil {
		if errors.Is(err, submissions.ErrMissingFields) || errors.Is(err, submissions.ErrInvalidEmail) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		slog.Error("failed to store submission", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to send message")
		return
	}
	slog.Info("contact message received", "id", sub.ID)

	notifier := s.notifier
	go func() {
		if err := notifier.SubmissionReceived(*sub); err != nil {
			slog.Warn("failed to send submission notification", "id", sub.ID, "error", err)
		}
	}()

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "your message has been sent",
	})
}
