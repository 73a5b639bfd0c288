package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/acgh213/reelfolio/internal/content"
)

// section is one editable area of the dashboard.
type section struct {
	Slug         string
	Title        string
	Type         content.Type
	UploadFolder string // empty when the section takes no uploads
}

var sections = []section{
	{Slug: "videos", Title: "Videos", Type: content.TypeVideos, UploadFolder: "videos"},
	{Slug: "references", Title: "References", Type: content.TypeBrands, UploadFolder: "brands"},
	{Slug: "services", Title: "Services", Type: content.TypeServices},
	{Slug: "equipment", Title: "Equipment", Type: content.TypeEquipment},
	{Slug: "contact", Title: "Contact details", Type: content.TypeContact},
	{Slug: "backgrounds", Title: "Background videos", Type: content.TypeBackgrounds, UploadFolder: "videos"},
}

func findSection(slug string) (section, bool) {
	for _, sec := range sections {
		if sec.Slug == slug {
			return sec, true
		}
	}
	return section{}, false
}

type DashboardPageData struct {
	Sections []section
	Unread   int
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	data := s.newPageData(r, "Dashboard")

	unread, err := s.submissions.Unread()
	if err != nil {
		slog.Error("failed to count unread submissions", "error", err)
	}
	data.Content = DashboardPageData{Sections: sections, Unread: unread}
	s.render(w, r, "dashboard.html", data)
}

type SectionPageData struct {
	Section section
	JSON    string
}

func (s *Server) handleSectionPage(w http.ResponseWriter, r *http.Request) {
	sec, ok := findSection(chi.URLParam(r, "section"))
	if !ok {
		http.NotFound(w, r)
		return
	}

	data := s.newPageData(r, sec.Title)
	raw, err := s.content.Read(sec.Type)
	switch {
	case errors.Is(err, content.ErrNotFound):
		data.Error = "No content saved yet"
	case err != nil:
		slog.Error("failed to read content", "type", sec.Type, "error", err)
		data.Error = "Failed to load content"
	}

	body := string(raw)
	var pretty bytes.Buffer
	if len(raw) > 0 && json.Indent(&pretty, raw, "", "  ") == nil {
		body = pretty.String()
	}
	data.Content = SectionPageData{Section: sec, JSON: body}
	s.render(w, r, "section.html", data)
}
