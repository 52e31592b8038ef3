package server

import (
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/encryptcookie"
	"github.com/gofiber/fiber/v3/middleware/limiter"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/gofiber/fiber/v3/middleware/session"
	"github.com/gofiber/storage/redis/v3"
	"github.com/rs/zerolog/log"

	"contentboard/internal/config"
)

// Server wraps the Fiber app and configuration.
type Server struct {
	App *fiber.App
	Cfg *config.Config

	// limiterStorage backs the public rate limiter; nil means in-memory.
	limiterStorage fiber.Storage
}

// New creates a new server with middleware configured.
func New(cfg *config.Config) *Server {
	app := fiber.New(fiber.Config{
		AppName:      cfg.SiteTitle,
		ErrorHandler: errorHandler,
	})

	app.Use(recover.New())
	app.Use(logger.New())

	corsOrigins := cfg.BaseURL
	if cfg.CORSOrigins != "" {
		corsOrigins = cfg.CORSOrigins
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     splitOrigins(corsOrigins),
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	app.Use(encryptcookie.New(encryptcookie.Config{
		Key: deriveEncryptionKey(cfg.SessionSecret),
	}))

	sessionMiddleware, _ := session.NewWithStore(session.Config{
		CookieSecure:   cfg.TLSEnabled || !cfg.IsDev(),
		CookieHTTPOnly: true,
		CookieSameSite: "Lax",
	})
	app.Use(sessionMiddleware)

	s := &Server{App: app, Cfg: cfg}
	if cfg.RedisURL != "" {
		s.limiterStorage = redis.New(redis.Config{URL: cfg.RedisURL})
		log.Info().Msg("rate limiter using redis storage")
	}
	return s
}

// PublicLimiter rate-limits the anonymous approval endpoints per client IP.
// Storage is shared through Redis when configured so every instance counts
// against the same budget.
func (s *Server) PublicLimiter() fiber.Handler {
	max := s.Cfg.ApprovalRateLimit
	if max <= 0 {
		max = 30
	}
	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: time.Minute,
		Storage:    s.limiterStorage,
		KeyGenerator: func(c fiber.Ctx) string {
			return "approval:" + c.IP()
		},
		LimitReached: func(c fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"status": "error",
				"code":   "rate_limited",
				"error":  "too many requests, please try again later",
			})
		},
	})
}

// Start starts the server with the configured address and TLS settings.
func (s *Server) Start() error {
	if s.Cfg.TLSEnabled {
		log.Info().Str("addr", s.Cfg.ServerAddr).Msg("starting server with TLS")
		return s.App.Listen(s.Cfg.ServerAddr, fiber.ListenConfig{
			CertFile:              s.Cfg.TLSCertFile,
			CertKeyFile:           s.Cfg.TLSKeyFile,
			DisableStartupMessage: !s.Cfg.IsDev(),
		})
	}
	log.Info().Str("addr", s.Cfg.ServerAddr).Msg("starting server")
	return s.App.Listen(s.Cfg.ServerAddr, fiber.ListenConfig{
		DisableStartupMessage: !s.Cfg.IsDev(),
	})
}

// Shutdown gracefully shuts down the server and releases the limiter storage.
func (s *Server) Shutdown() error {
	err := s.App.Shutdown()
	if s.limiterStorage != nil {
		err = errors.Join(err, s.limiterStorage.Close())
	}
	return err
}

// errorHandler renders errors that escaped a handler in the API envelope.
func errorHandler(c fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "internal server error"

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		message = fe.Message
	} else {
		log.Error().Err(err).Str("path", c.Path()).Msg("unhandled error")
	}

	return c.Status(code).JSON(fiber.Map{
		"status": "error",
		"error":  message,
	})
}

func splitOrigins(raw string) []string {
	var out []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// deriveEncryptionKey derives a 32-byte encryption key from the session secret.
func deriveEncryptionKey(secret string) string {
	hash := sha256.Sum256([]byte(secret))
	return base64.StdEncoding.EncodeToString(hash[:])
}
