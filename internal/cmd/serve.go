package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/acgh213/reelfolio/internal/audit"
	"github.com/acgh213/reelfolio/internal/auth"
	"github.com/acgh213/reelfolio/internal/config"
	"github.com/acgh213/reelfolio/internal/notify"
	"github.com/acgh213/reelfolio/internal/web"
)

var (
	servePort    string
	serveNoWatch bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web server",
	Long: `Serve the public site, the admin panel and the deploy webhook.

Example:
  reelfolio serve                # listen on $PORT (default 3000)
  reelfolio serve --port 8080
  reelfolio serve --no-watch     # do not reload content edited on disk`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&servePort, "port", "", "HTTP port; overrides PORT")
	serveCmd.Flags().BoolVar(&serveNoWatch, "no-watch", false, "Disable reloading content files changed on disk")
}

func runServe(cmd *cobra.Command, args []string) error {
	if servePort != "" {
		cfg.Port = servePort
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	limiter, closeLimiter, err := newLimiter(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeLimiter()

	auditLog := audit.NewLogger(cfg.Log.AuditLogPath)
	defer auditLog.Close()
	accessLog := web.NewAccessLogger(cfg.Log.AccessLogPath)
	defer accessLog.Close()

	var notifier notify.Notifier = notify.Nop{}
	if cfg.SMTPEnabled() {
		notifier = notify.NewSMTPNotifier(cfg.SMTP)
		slog.Info("contact notifications enabled", "to", cfg.SMTP.NotifyTo)
	}

	srv, err := web.New(cfg, web.Deps{
		Limiter:  limiter,
		Notifier: notifier,
		Audit:    auditLog,
		Access:   accessLog,
	})
	if err != nil {
		return fmt.Errorf("failed to build server: %w", err)
	}
	srv.Start(ctx, !serveNoWatch)

	if !cfg.HasAdminCredentials() {
		slog.Warn("ADMIN_USERNAME and ADMIN_PASSWORD are not set; admin login is disabled")
	}
	if cfg.Deploy.WebhookSecret == "" {
		slog.Warn("GITHUB_WEBHOOK_SECRET is not set; the deploy webhook will reject every push")
	}

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", httpServer.Addr, "env", cfg.Env, "limiter", cfg.Login.Store)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

// newLimiter builds the login limiter selected by RATE_LIMIT_STORE. The
// returned func releases whatever the limiter holds.
func newLimiter(ctx context.Context, cfg *config.Config) (auth.Limiter, func(), error) {
	if cfg.Login.Store == "redis" {
		client, err := auth.NewRedisClient(ctx, auth.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		slog.Info("login limiter using redis", "addr", cfg.Redis.Addr)
		limiter := auth.NewRedisRateLimiter(client, cfg.Login.MaxAttempts, cfg.Login.Window)
		return limiter, func() { client.Close() }, nil
	}

	limiter := auth.NewRateLimiter(cfg.Login.MaxAttempts, cfg.Login.Window)
	if cfg.Login.SweepInterval > 0 {
		go limiter.RunSweeper(ctx, cfg.Login.SweepInterval)
	}
	return limiter, func() {}, nil
}
