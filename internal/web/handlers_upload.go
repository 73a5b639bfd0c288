package web

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/acgh213/reelfolio/internal/audit"
	"github.com/acgh213/reelfolio/internal/auth"
	"github.com/acgh213/reelfolio/internal/media"
)

type uploadResponse struct {
	Success bool `json:"success"`
	*media.Saved
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if limit := s.cfg.MaxUploadBytes; limit > 0 {
		if r.ContentLength > limit {
			writeUploadError(w, http.StatusRequestEntityTooLarge, "file is too large")
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, limit)
	}
	if err := r.ParseMultipartForm(multipartInMem); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeUploadError(w, http.StatusRequestEntityTooLarge, "file is too large")
			return
		}
		writeUploadError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeUploadError(w, http.StatusBadRequest, media.ErrMissingFile.Error())
		return
	}
	defer file.Close()

	saved, err := s.media.Save(media.Upload{
		OriginalName: header.Filename,
		ContentType:  header.Header.Get("Content-Type"),
		Folder:       r.FormValue("folder"),
		CustomName:   r.FormValue("customName"),
	}, file)
	if err != nil {
		status, msg := media.ErrorStatus(err)
		if status >= http.StatusInternalServerError {
			slog.Error("upload failed", "file", header.Filename, "error", err)
		}
		writeUploadError(w, status, msg)
		return
	}

	_ = s.audit.Log(r.Context(), audit.Entry{
		Action:     audit.ActionMediaUpload,
		TargetType: audit.TargetMedia,
		TargetID:   saved.URL,
		IP:         auth.ClientIP(r),
		UserAgent:  r.UserAgent(),
		Metadata:   map[string]any{"size": saved.Size, "type": saved.Type},
	})
	writeJSON(w, http.StatusOK, uploadResponse{Success: true, Saved: saved})
}

func writeUploadError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"success": false, "error": msg})
}
