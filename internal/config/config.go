package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Environment
	Env      string // "development", "production", etc.
	LogLevel string // debug, info, warn, error

	// Server
	ServerAddr    string
	BaseURL       string // dashboard origin
	PublicBaseURL string // origin embedded in approval links

	// Database
	DatabaseURL string

	// Redis (optional, shared rate-limit storage)
	RedisURL string

	// TLS
	TLSEnabled  bool
	TLSCertFile string
	TLSKeyFile  string

	// OIDC
	OIDCIssuer       string
	OIDCClientID     string
	OIDCClientSecret string
	OIDCRedirectURL  string

	// Session
	SessionSecret string // Used for signing cookies (min 32 chars)

	// CORS
	CORSOrigins string // Comma-separated allowed origins

	// Approval links
	ApprovalLinkTTL   time.Duration // env: APPROVAL_LINK_TTL, default 30 days
	ApprovalRateLimit int           // requests per minute per IP on public endpoints

	// Email
	SMTPEnabled  bool
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
	SMTPFromName string
	SMTPTLS      string // none, tls, starttls

	TeamNotifyEmail string // fallback recipient when a client has no team email

	EmailNotifyClientOnIssue  bool
	EmailNotifyTeamOnResolve  bool
	EmailNotifyAssigneeOnMove bool

	// Site Branding
	SiteTitle string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	baseURL := getEnv("BASE_URL", "http://localhost:3000")
	return &Config{
		Env:              getEnv("ENV", "development"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		ServerAddr:       getEnv("SERVER_ADDR", ":3000"),
		BaseURL:          baseURL,
		PublicBaseURL:    getEnv("PUBLIC_BASE_URL", baseURL),
		DatabaseURL:      getEnv("DATABASE_URL", "postgres://localhost:5432/contentboard?sslmode=disable"),
		RedisURL:         getEnv("REDIS_URL", ""),
		TLSEnabled:       getEnv("TLS_ENABLED", "") != "",
		TLSCertFile:      getEnv("TLS_CERT_FILE", ""),
		TLSKeyFile:       getEnv("TLS_KEY_FILE", ""),
		OIDCIssuer:       getEnv("OIDC_ISSUER", ""),
		OIDCClientID:     getEnv("OIDC_CLIENT_ID", ""),
		OIDCClientSecret: getEnv("OIDC_CLIENT_SECRET", ""),
		OIDCRedirectURL:  getEnv("OIDC_REDIRECT_URL", "http://localhost:3000/auth/callback"),
		SessionSecret:    getEnv("SESSION_SECRET", "change-me-in-production-min-32-chars"),
		CORSOrigins:      getEnv("CORS_ORIGINS", ""),

		ApprovalLinkTTL:   getEnvDuration("APPROVAL_LINK_TTL", 30*24*time.Hour),
		ApprovalRateLimit: getEnvInt("APPROVAL_RATE_LIMIT", 30),

		SMTPEnabled:  getEnv("SMTP_ENABLED", "") != "",
		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     getEnvInt("SMTP_PORT", 587),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		SMTPFrom:     getEnv("SMTP_FROM", ""),
		SMTPFromName: getEnv("SMTP_FROM_NAME", "Content Board"),
		SMTPTLS:      getEnv("SMTP_TLS", "starttls"),

		TeamNotifyEmail: getEnv("TEAM_NOTIFY_EMAIL", ""),

		EmailNotifyClientOnIssue:  getEnv("EMAIL_NOTIFY_CLIENT_ON_ISSUE", "true") == "true",
		EmailNotifyTeamOnResolve:  getEnv("EMAIL_NOTIFY_TEAM_ON_RESOLVE", "true") == "true",
		EmailNotifyAssigneeOnMove: getEnv("EMAIL_NOTIFY_ASSIGNEE_ON_MOVE", "") == "true",

		SiteTitle: getEnv("SITE_TITLE", "Content Board"),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}

// IsDev returns true if the environment is set to development.
func (c *Config) IsDev() bool {
	return c.Env == "development" || c.Env == "dev"
}

// IsEmailEnabled returns true if SMTP is configured well enough to send.
func (c *Config) IsEmailEnabled() bool {
	return c.SMTPEnabled && c.SMTPHost != "" && c.SMTPFrom != ""
}

// IsOIDCEnabled returns true if dashboard login is configured.
func (c *Config) IsOIDCEnabled() bool {
	return c.OIDCIssuer != "" && c.OIDCClientID != ""
}
