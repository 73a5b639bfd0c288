package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/acgh213/reelfolio/internal/audit"
	"github.com/acgh213/reelfolio/internal/auth"
	"github.com/acgh213/reelfolio/internal/content"
)

type saveContentRequest struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func (s *Server) handleContentGet(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("type")
	if raw == "" {
		writeError(w, http.StatusBadRequest, "content type is required")
		return
	}
	t, err := content.ParseType(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	data, err := s.content.Read(t)
	if errors.Is(err, content.ErrNotFound) {
		writeError(w, http.StatusNotFound, "content not found")
		return
	}
	if err != nil {
		slog.Error("failed to read content", "type", t, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to read content")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleContentSave(w http.ResponseWriter, r *http.Request) {
	var req saveContentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Type == "" || len(req.Data) == 0 {
		writeError(w, http.StatusBadRequest, "type and data are required")
		return
	}
	t, err := content.ParseType(req.Type)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	change, err := s.content.Save(t, req.Data)
	if err != nil {
		if errors.Is(err, content.ErrInvalidData) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		slog.Error("failed to save content", "type", t, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save content")
		return
	}
	s.cache.Invalidate()

	_ = s.audit.Log(r.Context(), audit.Entry{
		Action:     audit.ActionContentSave,
		TargetType: audit.TargetContent,
		TargetID:   string(t),
		IP:         auth.ClientIP(r),
		UserAgent:  r.UserAgent(),
		Metadata:   map[string]any{"lines_added": change.Added, "lines_removed": change.Removed},
	})
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
