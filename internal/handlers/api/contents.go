package api

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"contentboard/internal/models"
	"contentboard/internal/status"
	"contentboard/internal/validation"
)

// ContentStore persists contents and reads their history.
type ContentStore interface {
	CreateContent(ctx context.Context, c *models.Content) error
	GetContentByID(ctx context.Context, id uuid.UUID) (*models.Content, error)
	ListContents(ctx context.Context, filter models.ContentFilter) ([]models.Content, error)
	UpdateContent(ctx context.Context, c *models.Content) error
	UpdateContentPosition(ctx context.Context, id uuid.UUID, position int) error
	DeleteContent(ctx context.Context, id uuid.UUID) error
	ListAuditEntries(ctx context.Context, contentID uuid.UUID) ([]models.AuditEntry, error)
	ListApprovalLinksByContent(ctx context.Context, contentID uuid.UUID) ([]models.ApprovalLink, error)
}

// LinkIssuer issues approval links.
type LinkIssuer interface {
	Issue(ctx context.Context, contentID, clientID uuid.UUID, actor string) (*models.ApprovalLinkResponse, error)
}

// ContentHandler handles content CRUD, ordering and approval link issuance.
type ContentHandler struct {
	store  ContentStore
	issuer LinkIssuer
}

// NewContentHandler creates a new content handler.
func NewContentHandler(store ContentStore, issuer LinkIssuer) *ContentHandler {
	return &ContentHandler{store: store, issuer: issuer}
}

type contentBody struct {
	ClientID    uuid.UUID  `json:"client_id"`
	Title       string     `json:"title"`
	Status      string     `json:"status"`
	AssigneeID  *uuid.UUID `json:"assignee_id"`
	ScheduledAt *time.Time `json:"scheduled_at"`
	Channels    []string   `json:"channels"`
	ContentType string     `json:"content_type"`
	Priority    string     `json:"priority"`
}

func (b *contentBody) validate() *validation.Error {
	if ok, msg := validation.ValidateTitle(b.Title); !ok {
		return validation.Errorf("title", "%s", msg)
	}
	b.Channels = validation.NormalizeChannels(b.Channels)
	if ok, msg := validation.ValidateChannels(b.Channels); !ok {
		return validation.Errorf("channels", "%s", msg)
	}
	if b.Priority == "" {
		b.Priority = models.PriorityNormal
	}
	if !models.IsValidPriority(b.Priority) {
		return validation.Errorf("priority", "priority must be low, normal, high or urgent")
	}
	return nil
}

func contentID(c fiber.Ctx) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Params("id"))
	return id, err == nil
}

// List returns contents, optionally filtered by client and status.
func (h *ContentHandler) List(c fiber.Ctx) error {
	clientID, err := optionalUUID(c.Query("client_id"), "client_id")
	if err != nil {
		return writeError(c, err)
	}
	filter := models.ContentFilter{ClientID: clientID}
	if raw := c.Query("status"); raw != "" {
		filter.Status = status.Normalize(raw)
	}

	contents, err := h.store.ListContents(c.Context(), filter)
	if err != nil {
		return writeError(c, err)
	}
	if contents == nil {
		contents = []models.Content{}
	}
	return jsonSuccess(c, contents)
}

// Get returns a single content.
func (h *ContentHandler) Get(c fiber.Ctx) error {
	id, ok := contentID(c)
	if !ok {
		return jsonError(c, fiber.StatusBadRequest, CodeBadRequest, "invalid content id")
	}
	content, err := h.store.GetContentByID(c.Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return jsonSuccess(c, content)
}

// Create adds a content directly, without a request.
func (h *ContentHandler) Create(c fiber.Ctx) error {
	var body contentBody
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return jsonError(c, fiber.StatusBadRequest, CodeBadRequest, "invalid request body")
	}
	if body.ClientID == uuid.Nil {
		return validationError(c, "client_id", "client_id is required")
	}
	if verr := body.validate(); verr != nil {
		return writeError(c, verr)
	}

	content := &models.Content{
		ClientID:    body.ClientID,
		Title:       strings.TrimSpace(body.Title),
		Status:      status.Normalize(body.Status),
		AssigneeID:  body.AssigneeID,
		ScheduledAt: body.ScheduledAt,
		Channels:    body.Channels,
		ContentType: strings.TrimSpace(body.ContentType),
		Priority:    body.Priority,
	}
	if err := h.store.CreateContent(c.Context(), content); err != nil {
		return writeError(c, err)
	}
	return jsonCreated(c, content)
}

// Update edits a content's fields. Status changes go through the board.
func (h *ContentHandler) Update(c fiber.Ctx) error {
	id, ok := contentID(c)
	if !ok {
		return jsonError(c, fiber.StatusBadRequest, CodeBadRequest, "invalid content id")
	}

	var body contentBody
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return jsonError(c, fiber.StatusBadRequest, CodeBadRequest, "invalid request body")
	}
	if verr := body.validate(); verr != nil {
		return writeError(c, verr)
	}

	content, err := h.store.GetContentByID(c.Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	content.Title = strings.TrimSpace(body.Title)
	content.AssigneeID = body.AssigneeID
	content.ScheduledAt = body.ScheduledAt
	content.Channels = body.Channels
	content.ContentType = strings.TrimSpace(body.ContentType)
	content.Priority = body.Priority

	if err := h.store.UpdateContent(c.Context(), content); err != nil {
		return writeError(c, err)
	}
	return jsonSuccess(c, content)
}

// UpdatePosition sets a content's order within its column.
func (h *ContentHandler) UpdatePosition(c fiber.Ctx) error {
	id, ok := contentID(c)
	if !ok {
		return jsonError(c, fiber.StatusBadRequest, CodeBadRequest, "invalid content id")
	}

	var body struct {
		Order *int `json:"order"`
	}
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return jsonError(c, fiber.StatusBadRequest, CodeBadRequest, "invalid request body")
	}
	if body.Order == nil || *body.Order < 0 {
		return validationError(c, "order", "order must be a non-negative integer")
	}

	if err := h.store.UpdateContentPosition(c.Context(), id, *body.Order); err != nil {
		return writeError(c, err)
	}
	return jsonSuccess(c, fiber.Map{"id": id, "order": *body.Order})
}

// Delete removes a content with its links and history.
func (h *ContentHandler) Delete(c fiber.Ctx) error {
	id, ok := contentID(c)
	if !ok {
		return jsonError(c, fiber.StatusBadRequest, CodeBadRequest, "invalid content id")
	}
	if err := h.store.DeleteContent(c.Context(), id); err != nil {
		return writeError(c, err)
	}
	return jsonSuccess(c, fiber.Map{"deleted": true})
}

// History returns the audit trail and approval links of a content.
func (h *ContentHandler) History(c fiber.Ctx) error {
	id, ok := contentID(c)
	if !ok {
		return jsonError(c, fiber.StatusBadRequest, CodeBadRequest, "invalid content id")
	}
	if _, err := h.store.GetContentByID(c.Context(), id); err != nil {
		return writeError(c, err)
	}

	entries, err := h.store.ListAuditEntries(c.Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	links, err := h.store.ListApprovalLinksByContent(c.Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	if entries == nil {
		entries = []models.AuditEntry{}
	}
	return jsonSuccess(c, fiber.Map{"entries": entries, "links": links})
}

// IssueLink creates an approval link for the content.
func (h *ContentHandler) IssueLink(c fiber.Ctx) error {
	id, ok := contentID(c)
	if !ok {
		return jsonError(c, fiber.StatusBadRequest, CodeBadRequest, "invalid content id")
	}

	var body struct {
		ClientID uuid.UUID `json:"client_id"`
	}
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return jsonError(c, fiber.StatusBadRequest, CodeBadRequest, "invalid request body")
	}
	if body.ClientID == uuid.Nil {
		return validationError(c, "client_id", "client_id is required")
	}

	resp, err := h.issuer.Issue(c.Context(), id, body.ClientID, actor(c))
	if err != nil {
		return writeError(c, err)
	}
	return jsonCreated(c, resp)
}
