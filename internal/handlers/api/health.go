package api

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"
)

// Pinger checks a dependency.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports liveness of the service and its database.
type HealthHandler struct {
	db Pinger
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(db Pinger) *HealthHandler {
	return &HealthHandler{db: db}
}

// Check returns 200 when the database answers, 503 otherwise.
func (h *HealthHandler) Check(c fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		log.Warn().Err(err).Msg("health check failed")
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status":   "error",
			"database": "unreachable",
		})
	}
	return c.JSON(fiber.Map{"status": "ok", "database": "ok"})
}
