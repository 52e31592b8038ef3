package api

import (
	"context"

	"github.com/gofiber/fiber/v3"

	"contentboard/internal/models"
	"contentboard/internal/status"
)

// ClientLister lists clients.
type ClientLister interface {
	ListClients(ctx context.Context) ([]models.Client, error)
}

// MetaStore lists the reference data the dashboard needs.
type MetaStore interface {
	ClientLister
	ListUsers(ctx context.Context) ([]models.User, error)
}

// MetaHandler serves the reference data the dashboard needs.
type MetaHandler struct {
	store    MetaStore
	registry *status.Registry
}

// NewMetaHandler creates a new meta handler.
func NewMetaHandler(store MetaStore, registry *status.Registry) *MetaHandler {
	return &MetaHandler{store: store, registry: registry}
}

// Statuses returns the board columns in order, inbox first.
func (h *MetaHandler) Statuses(c fiber.Ctx) error {
	return jsonSuccess(c, h.registry.Columns())
}

// Clients returns all clients.
func (h *MetaHandler) Clients(c fiber.Ctx) error {
	clients, err := h.store.ListClients(c.Context())
	if err != nil {
		return writeError(c, err)
	}
	if clients == nil {
		clients = []models.Client{}
	}
	return jsonSuccess(c, clients)
}

// Users returns the team members content can be assigned to.
func (h *MetaHandler) Users(c fiber.Ctx) error {
	users, err := h.store.ListUsers(c.Context())
	if err != nil {
		return writeError(c, err)
	}
	if users == nil {
		users = []models.User{}
	}
	return jsonSuccess(c, users)
}
