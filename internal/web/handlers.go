package web

import (
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/justinas/nosurf"

	"github.com/acgh213/reelfolio/internal/auth"
)

type PageData struct {
	Title         string
	CSRFToken     string
	Authenticated bool
	Content       any
	Error         string
	Success       string
}

func (s *Server) newPageData(r *http.Request, title string) PageData {
	return PageData{
		Title:         title,
		CSRFToken:     nosurf.Token(r),
		Authenticated: auth.IsAuthenticated(r),
	}
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data PageData) {
	if flash := popFlash(w, r, flashSuccessCookie); flash != "" && data.Success == "" {
		data.Success = flash
	}
	if flash := popFlash(w, r, flashErrorCookie); flash != "" && data.Error == "" {
		data.Error = flash
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		slog.Error("template render error", "template", name, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	site, err := s.cache.Site()
	if err != nil {
		slog.Error("failed to load site content", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	data := s.newPageData(r, "Portfolio")
	data.Content = site
	s.render(w, r, "index.html", data)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if _, err := os.Stat(s.cfg.ContentDir); err != nil {
		slog.Error("health check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unhealthy",
			"error":  "content directory unavailable",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handlePublicFile serves uploads and other files under the public
// directory. Directories are never listed.
func (s *Server) handlePublicFile(w http.ResponseWriter, r *http.Request) {
	name := path.Clean("/" + chi.URLParam(r, "*"))
	full := filepath.Join(s.cfg.PublicDir, filepath.FromSlash(name))

	f, err := os.Open(full)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		http.NotFound(w, r)
		return
	}
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}
