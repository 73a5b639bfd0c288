package web

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/acgh213/reelfolio/internal/audit"
	"github.com/acgh213/reelfolio/internal/auth"
	"github.com/acgh213/reelfolio/internal/pagination"
	"github.com/acgh213/reelfolio/internal/submissions"
)

const submissionsPagePath = "/adminpanel/dashboard/submissions"

type updateSubmissionRequest struct {
	ID   string `json:"id"`
	Read *bool  `json:"read"`
}

// JSON API

func (s *Server) handleSubmissionsList(w http.ResponseWriter, r *http.Request) {
	list, err := s.submissions.List()
	if err != nil {
		slog.Error("failed to list submissions", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to read submissions")
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleSubmissionUpdate(w http.ResponseWriter, r *http.Request) {
	var req updateSubmissionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ID == "" || req.Read == nil {
		writeError(w, http.StatusBadRequest, "id and read are required")
		return
	}

	if err := s.setSubmissionRead(r, req.ID, *req.Read); err != nil {
		writeSubmissionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleSubmissionDelete(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	if err := s.deleteSubmission(r, id); err != nil {
		writeSubmissionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func writeSubmissionError(w http.ResponseWriter, err error) {
	if errors.Is(err, submissions.ErrNotFound) {
		writeError(w, http.StatusNotFound, "submission not found")
		return
	}
	slog.Error("failed to update submissions", "error", err)
	writeError(w, http.StatusInternalServerError, "failed to update submissions")
}

// Dashboard page

type SubmissionsPageData struct {
	Submissions []submissions.Submission
	Unread      int
	OnlyUnread  bool
	Pagination  pagination.View
}

func (s *Server) handleSubmissionsPage(w http.ResponseWriter, r *http.Request) {
	data := s.newPageData(r, "Messages")

	list, err := s.submissions.List()
	if err != nil {
		slog.Error("failed to list submissions", "error", err)
		data.Error = "Failed to load messages"
		s.render(w, r, "submissions.html", data)
		return
	}

	unread := 0
	for _, sub := range list {
		if !sub.Read {
			unread++
		}
	}

	onlyUnread := r.URL.Query().Get("filter") == "unread"
	if onlyUnread {
		filtered := make([]submissions.Submission, 0, unread)
		for _, sub := range list {
			if !sub.Read {
				filtered = append(filtered, sub)
			}
		}
		list = filtered
	}

	page := pagination.FromRequest(r, pagination.DefaultPerPage)
	items := pagination.Slice(&page, list)

	data.Content = SubmissionsPageData{
		Submissions: items,
		Unread:      unread,
		OnlyUnread:  onlyUnread,
		Pagination:  page.View(r),
	}
	s.render(w, r, "submissions.html", data)
}

func (s *Server) handleSubmissionReadForm(w http.ResponseWriter, r *http.Request) {
	read := r.FormValue("read") != "false"
	if err := s.setSubmissionRead(r, chi.URLParam(r, "id"), read); err != nil {
		s.flashSubmissionError(w, err)
	} else if read {
		setFlash(w, flashSuccessCookie, "Message marked as read")
	} else {
		setFlash(w, flashSuccessCookie, "Message marked as unread")
	}
	http.Redirect(w, r, submissionsPagePath, http.StatusSeeOther)
}

func (s *Server) handleSubmissionDeleteForm(w http.ResponseWriter, r *http.Request) {
	if err := s.deleteSubmission(r, chi.URLParam(r, "id")); err != nil {
		s.flashSubmissionError(w, err)
	} else {
		setFlash(w, flashSuccessCookie, "Message deleted")
	}
	http.Redirect(w, r, submissionsPagePath, http.StatusSeeOther)
}

func (s *Server) flashSubmissionError(w http.ResponseWriter, err error) {
	if errors.Is(err, submissions.ErrNotFound) {
		setFlash(w, flashErrorCookie, "Message not found")
		return
	}
	slog.Error("failed to update submissions", "error", err)
	setFlash(w, flashErrorCookie, "Failed to update message")
}

func (s *Server) setSubmissionRead(r *http.Request, id string, read bool) error {
	if err := s.submissions.SetRead(id, read); err != nil {
		return err
	}
	action := audit.ActionSubmissionRead
	if !read {
		action = audit.ActionSubmissionUnread
	}
	s.auditSubmission(r, action, id)
	return nil
}

func (s *Server) deleteSubmission(r *http.Request, id string) error {
	if err := s.submissions.Delete(id); err != nil {
		return err
	}
	s.auditSubmission(r, audit.ActionSubmissionDelete, id)
	return nil
}

func (s *Server) auditSubmission(r *http.Request, action, id string) {
	_ = s.audit.Log(r.Context(), audit.Entry{
		Action:     action,
		TargetType: audit.TargetSubmission,
		TargetID:   id,
		IP:         auth.ClientIP(r),
		UserAgent:  r.UserAgent(),
	})
}
