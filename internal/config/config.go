package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env        string
	Port       string
	ContentDir string
	PublicDir  string

	Admin  AdminConfig
	Login  LoginConfig
	Redis  RedisConfig
	SMTP   SMTPConfig
	Deploy DeployConfig
	Log    LogConfig

	ContactRatePerMinute float64
	ContactBurst         int
	MaxUploadBytes       int64
}

// AdminConfig holds the single operator's credentials. Empty values are not a
// startup error; the login endpoint reports them per request.
type AdminConfig struct {
	Username     string
	Password     string
	PasswordHash string
	CookieDomain string
}

type LoginConfig struct {
	MaxAttempts   int
	Window        time.Duration
	SweepInterval time.Duration
	Store         string // "memory" or "redis"
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	NotifyTo string
}

type DeployConfig struct {
	WebhookSecret string
	ScriptPath    string
	Timeout       time.Duration
}

type LogConfig struct {
	Level         string
	Format        string
	File          string
	AccessLogPath string
	AuditLogPath  string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Env:        getEnv("APP_ENV", "development"),
		Port:       getEnv("PORT", "3000"),
		ContentDir: getEnv("CONTENT_DIR", "./content"),
		PublicDir:  getEnv("PUBLIC_DIR", "./public"),
		Admin: AdminConfig{
			Username:     os.Getenv("ADMIN_USERNAME"),
			Password:     os.Getenv("ADMIN_PASSWORD"),
			PasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),
			CookieDomain: os.Getenv("COOKIE_DOMAIN"),
		},
		Login: LoginConfig{
			Store: strings.ToLower(getEnv("RATE_LIMIT_STORE", "memory")),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
		},
		SMTP: SMTPConfig{
			Host:     os.Getenv("SMTP_HOST"),
			Username: os.Getenv("SMTP_USERNAME"),
			Password: os.Getenv("SMTP_PASSWORD"),
			From:     os.Getenv("SMTP_FROM"),
			NotifyTo: os.Getenv("NOTIFY_EMAIL"),
		},
		Deploy: DeployConfig{
			WebhookSecret: os.Getenv("GITHUB_WEBHOOK_SECRET"),
			ScriptPath:    getEnv("DEPLOY_SCRIPT_PATH", "./scripts/deploy.sh"),
		},
		Log: LogConfig{
			Level:         getEnv("LOG_LEVEL", "info"),
			Format:        getEnv("LOG_FORMAT", "text"),
			File:          os.Getenv("LOG_FILE"),
			AccessLogPath: os.Getenv("ACCESS_LOG_PATH"),
			AuditLogPath:  os.Getenv("AUDIT_LOG_PATH"),
		},
	}

	var err error
	if cfg.Login.MaxAttempts, err = getInt("LOGIN_MAX_ATTEMPTS", 5); err != nil {
		return nil, err
	}
	if cfg.Login.MaxAttempts < 1 {
		return nil, fmt.Errorf("LOGIN_MAX_ATTEMPTS must be positive")
	}
	if cfg.Login.Window, err = getDuration("LOGIN_WINDOW", 15*time.Minute); err != nil {
		return nil, err
	}
	if cfg.Login.Window <= 0 {
		return nil, fmt.Errorf("LOGIN_WINDOW must be positive")
	}
	if cfg.Login.SweepInterval, err = getDuration("LOGIN_SWEEP_INTERVAL", 0); err != nil {
		return nil, err
	}
	switch cfg.Login.Store {
	case "memory", "redis":
	default:
		return nil, fmt.Errorf("unsupported RATE_LIMIT_STORE: %s", cfg.Login.Store)
	}
	if cfg.Redis.DB, err = getInt("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if cfg.SMTP.Port, err = getInt("SMTP_PORT", 587); err != nil {
		return nil, err
	}
	if cfg.Deploy.Timeout, err = getDuration("DEPLOY_TIMEOUT", 5*time.Minute); err != nil {
		return nil, err
	}

	perMinute, err := strconv.ParseFloat(getEnv("CONTACT_RATE_PER_MINUTE", "5"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid CONTACT_RATE_PER_MINUTE: %w", err)
	}
	cfg.ContactRatePerMinute = perMinute
	if cfg.ContactBurst, err = getInt("CONTACT_BURST", 3); err != nil {
		return nil, err
	}

	uploadMB, err := getInt("MAX_UPLOAD_MB", 512)
	if err != nil {
		return nil, err
	}
	cfg.MaxUploadBytes = int64(uploadMB) << 20

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

// HasAdminCredentials reports whether a username and either a plain or a
// hashed password are configured.
func (c *Config) HasAdminCredentials() bool {
	return c.Admin.Username != "" && (c.Admin.Password != "" || c.Admin.PasswordHash != "")
}

// SMTPEnabled reports whether contact submissions should be mailed out.
func (c *Config) SMTPEnabled() bool {
	return c.SMTP.Host != "" && c.SMTP.NotifyTo != ""
}
