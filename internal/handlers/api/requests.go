package api

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"contentboard/internal/models"
	"contentboard/internal/validation"
)

// RequestStore persists client requests.
type RequestStore interface {
	CreateRequest(ctx context.Context, r *models.Request) error
	GetRequestByID(ctx context.Context, id uuid.UUID) (*models.Request, error)
	ListRequests(ctx context.Context, clientID *uuid.UUID, openOnly bool) ([]models.Request, error)
	UpdateRequestStatus(ctx context.Context, id uuid.UUID, newStatus string) error
}

// Accepter converts requests into contents.
type Accepter interface {
	AcceptRequest(ctx context.Context, requestID uuid.UUID, actor string) (*models.Content, error)
}

// RequestHandler handles request intake and review.
type RequestHandler struct {
	store    RequestStore
	accepter Accepter
}

// NewRequestHandler creates a new request handler.
func NewRequestHandler(store RequestStore, accepter Accepter) *RequestHandler {
	return &RequestHandler{store: store, accepter: accepter}
}

// List returns requests, newest first. ?open=true limits to board-visible ones.
func (h *RequestHandler) List(c fiber.Ctx) error {
	clientID, err := optionalUUID(c.Query("client_id"), "client_id")
	if err != nil {
		return writeError(c, err)
	}
	requests, err := h.store.ListRequests(c.Context(), clientID, c.Query("open") == "true")
	if err != nil {
		return writeError(c, err)
	}
	return jsonSuccess(c, requests)
}

// Get returns a single request.
func (h *RequestHandler) Get(c fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, CodeBadRequest, "invalid request id")
	}
	r, err := h.store.GetRequestByID(c.Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return jsonSuccess(c, r)
}

// Create records a new request from a client.
func (h *RequestHandler) Create(c fiber.Ctx) error {
	var body struct {
		ClientID    uuid.UUID `json:"client_id"`
		Title       string    `json:"title"`
		Description string    `json:"description"`
		ContentType string    `json:"content_type"`
		Priority    string    `json:"priority"`
	}
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return jsonError(c, fiber.StatusBadRequest, CodeBadRequest, "invalid request body")
	}

	if body.ClientID == uuid.Nil {
		return validationError(c, "client_id", "client_id is required")
	}
	if ok, msg := validation.ValidateTitle(body.Title); !ok {
		return validationError(c, "title", msg)
	}
	if ok, msg := validation.ValidateDescription(body.Description); !ok {
		return validationError(c, "description", msg)
	}
	if body.Priority == "" {
		body.Priority = models.PriorityNormal
	}
	if !models.IsValidPriority(body.Priority) {
		return validationError(c, "priority", "priority must be low, normal, high or urgent")
	}

	r := &models.Request{
		ClientID:    body.ClientID,
		Title:       strings.TrimSpace(body.Title),
		Description: body.Description,
		ContentType: strings.TrimSpace(body.ContentType),
		Priority:    body.Priority,
	}
	if err := h.store.CreateRequest(c.Context(), r); err != nil {
		return writeError(c, err)
	}
	return jsonCreated(c, r)
}

// UpdateStatus moves a request through review, or rejects it.
func (h *RequestHandler) UpdateStatus(c fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, CodeBadRequest, "invalid request id")
	}

	var body struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return jsonError(c, fiber.StatusBadRequest, CodeBadRequest, "invalid request body")
	}
	if body.Status == models.RequestConverted {
		return validationError(c, "status", "use the accept endpoint to convert a request")
	}
	if !models.IsValidRequestStatus(body.Status) {
		return validationError(c, "status", "unknown request status")
	}

	if err := h.store.UpdateRequestStatus(c.Context(), id, body.Status); err != nil {
		return writeError(c, err)
	}
	r, err := h.store.GetRequestByID(c.Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return jsonSuccess(c, r)
}

// Accept converts a request into a content. Repeated calls return the same content.
func (h *RequestHandler) Accept(c fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, CodeBadRequest, "invalid request id")
	}
	content, err := h.accepter.AcceptRequest(c.Context(), id, actor(c))
	if err != nil {
		return writeError(c, err)
	}
	return jsonSuccess(c, content)
}
