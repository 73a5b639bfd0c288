package web

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/justinas/nosurf"

	"github.com/acgh213/reelfolio/internal/audit"
	"github.com/acgh213/reelfolio/internal/auth"
	"github.com/acgh213/reelfolio/internal/config"
	"github.com/acgh213/reelfolio/internal/content"
	"github.com/acgh213/reelfolio/internal/deploy"
	"github.com/acgh213/reelfolio/internal/media"
	"github.com/acgh213/reelfolio/internal/notify"
	"github.com/acgh213/reelfolio/internal/submissions"
)

//go:embed templates
var templatesFS embed.FS

//go:embed static
var staticFS embed.FS

const (
	adminPrefix    = "/adminpanel"
	loginPath      = "/adminpanel/login"
	dashboardPath  = "/adminpanel/dashboard"
	webhookPath    = "/api/webhook/deploy"
	multipartInMem = 32 << 20
)

// Deployer runs the deploy script for the webhook.
type Deployer interface {
	Run(ctx context.Context) (deploy.Result, error)
}

// Deps are the collaborators New cannot build from the config alone. Nil
// fields get in-process defaults.
type Deps struct {
	Limiter  auth.Limiter
	Notifier notify.Notifier
	Deployer Deployer
	Audit    *audit.Logger
	Access   *AccessLogger
	// Now is the clock for Retry-After and timestamps; time.Now when nil.
	// Pass the same clock the Limiter uses.
	Now func() time.Time
}

type Server struct {
	cfg        *config.Config
	templates  *template.Template
	creds      auth.Credentials
	cookieOpts auth.CookieOptions

	limiter     auth.Limiter
	content     *content.Store
	cache       *content.Cache
	media       *media.LocalStorage
	submissions *submissions.Store
	notifier    notify.Notifier
	deployer    Deployer
	audit       *audit.Logger
	access      *AccessLogger
	contact     *contactLimiter
	now         func() time.Time

	handler http.Handler
}

func New(cfg *config.Config, deps Deps) (*Server, error) {
	storage, err := media.NewLocalStorage(cfg.PublicDir)
	if err != nil {
		return nil, err
	}
	store := content.NewStore(cfg.ContentDir)

	s := &Server{
		cfg: cfg,
		creds: auth.Credentials{
			Username:     cfg.Admin.Username,
			Password:     cfg.Admin.Password,
			PasswordHash: cfg.Admin.PasswordHash,
		},
		cookieOpts:  auth.CookieOptions{Domain: cfg.Admin.CookieDomain},
		limiter:     deps.Limiter,
		content:     store,
		cache:       content.NewCache(store),
		media:       storage,
		submissions: submissions.NewStore(cfg.ContentDir),
		notifier:    deps.Notifier,
		deployer:    deps.Deployer,
		audit:       deps.Audit,
		access:      deps.Access,
		contact:     newContactLimiter(cfg.ContactRatePerMinute, cfg.ContactBurst),
		now:         deps.Now,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.limiter == nil {
		s.limiter = auth.NewRateLimiter(cfg.Login.MaxAttempts, cfg.Login.Window)
	}
	if s.notifier == nil {
		s.notifier = notify.Nop{}
	}
	if s.deployer == nil {
		s.deployer = deploy.NewRunner(cfg.Deploy.ScriptPath, cfg.Deploy.Timeout)
	}
	if s.audit == nil {
		s.audit = audit.NewLogger("")
	}

	if err := s.loadTemplates(); err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}
	s.handler = s.routes()
	return s, nil
}

func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start runs the background work tied to ctx: contact limiter cleanup and,
// when watch is set, reloading content edited on disk.
func (s *Server) Start(ctx context.Context, watch bool) {
	go s.contact.run(ctx)
	if !watch {
		return
	}
	if err := s.cache.Watch(ctx); err != nil {
		slog.Warn("content watcher disabled", "error", err)
	}
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))

	r.Use(auth.Gate(adminPrefix, loginPath))
	r.Use(csrfProtect)

	staticContent, _ := fs.Sub(staticFS, "static")
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticContent))))

	r.Get("/health", s.handleHealth)
	r.Get("/", s.handleHome)
	r.With(s.contact.Middleware).Post("/api/contact/submit", s.handleContactSubmit)

	r.Route(adminPrefix, func(r chi.Router) {
		r.Get("/", s.handleAdminRoot)
		r.Get("/login", s.handleLoginPage)
		r.Get("/dashboard", s.handleDashboard)
		r.Get("/dashboard/submissions", s.handleSubmissionsPage)
		r.Post("/dashboard/submissions/{id}/read", s.handleSubmissionReadForm)
		r.Post("/dashboard/submissions/{id}/delete", s.handleSubmissionDeleteForm)
		r.Get("/dashboard/{section}", s.handleSectionPage)
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Post("/login", s.handleLogin)
		r.Post("/logout", s.handleLogout)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAPISession)
			r.Get("/content", s.handleContentGet)
			r.Post("/content", s.handleContentSave)
			r.Post("/upload", s.handleUpload)
			r.Get("/submissions", s.handleSubmissionsList)
			r.Patch("/submissions", s.handleSubmissionUpdate)
			r.Delete("/submissions", s.handleSubmissionDelete)
		})
	})

	r.Get(webhookPath, s.handleWebhookStatus)
	r.Post(webhookPath, s.handleWebhookDeploy)

	// Uploaded media and anything else under the public directory.
	r.Get("/*", s.handlePublicFile)

	return r
}

func (s *Server) requireAPISession(next http.Handler) http.Handler {
	guarded := auth.RequireAPISession(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !auth.IsAuthenticated(r) {
			s.access.Log(r, http.StatusUnauthorized, eventUnauthorized, "")
		}
		guarded.ServeHTTP(w, r)
	})
}

func (s *Server) loadTemplates() error {
	funcMap := template.FuncMap{
		"markdown": content.Markdown,
		"mediaURL": media.NormalizeURL,
		"timeTag": func(t time.Time, format string) template.HTML {
			iso := t.Format(time.RFC3339)
			display := t.Local().Format(format)
			return template.HTML(fmt.Sprintf(`<time datetime="%s">%s</time>`, iso, template.HTMLEscapeString(display)))
		},
	}

	tmpl, err := template.New("").Funcs(funcMap).ParseFS(templatesFS,
		"templates/layout/*.html",
		"templates/site/*.html",
		"templates/admin/*.html",
	)
	if err != nil {
		return err
	}
	s.templates = tmpl
	return nil
}

// csrfProtect wraps nosurf. The deploy webhook is exempt: GitHub
// authenticates it with an HMAC signature instead. The token cookie is
// Secure under the same rule as the session cookie.
func csrfProtect(next http.Handler) http.Handler {
	secure := newCSRFHandler(next, true)
	plain := newCSRFHandler(next, false)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth.IsSecureRequest(r) {
			secure.ServeHTTP(w, r)
			return
		}
		plain.ServeHTTP(w, r)
	})
}

func newCSRFHandler(next http.Handler, secure bool) *nosurf.CSRFHandler {
	csrf := nosurf.New(next)
	csrf.SetBaseCookie(http.Cookie{
		Name:     "csrf_token",
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
	csrf.SetIsTLSFunc(auth.IsSecureRequest)
	csrf.ExemptPath(webhookPath)
	csrf.SetFailureHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		slog.Warn("CSRF validation failed",
			"method", r.Method,
			"path", r.URL.Path,
			"reason", nosurf.Reason(r),
			"ip", auth.ClientIP(r),
		)
		writeError(w, http.StatusForbidden, "invalid CSRF token")
	}))
	return csrf
}
