package api

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"contentboard/internal/board"
	"contentboard/internal/models"
	"contentboard/internal/status"
	"contentboard/internal/workflow"
)

// BoardStore lists the inputs of the board view.
type BoardStore interface {
	ListRequests(ctx context.Context, clientID *uuid.UUID, openOnly bool) ([]models.Request, error)
	ListContents(ctx context.Context, filter models.ContentFilter) ([]models.Content, error)
}

// Mover applies board drops.
type Mover interface {
	MoveItem(ctx context.Context, itemID, target, actor string) (*workflow.Result, error)
}

// BoardHandler serves the board and its drag-and-drop moves.
type BoardHandler struct {
	store    BoardStore
	mover    Mover
	registry *status.Registry
}

// NewBoardHandler creates a new board handler.
func NewBoardHandler(store BoardStore, mover Mover, registry *status.Registry) *BoardHandler {
	return &BoardHandler{store: store, mover: mover, registry: registry}
}

// Get returns the board columns, filtered by the query string.
func (h *BoardHandler) Get(c fiber.Ctx) error {
	f, err := parseFilters(c)
	if err != nil {
		return writeError(c, err)
	}

	requests, err := h.store.ListRequests(c.Context(), f.ClientID, true)
	if err != nil {
		return writeError(c, err)
	}
	contents, err := h.store.ListContents(c.Context(), models.ContentFilter{ClientID: f.ClientID})
	if err != nil {
		return writeError(c, err)
	}

	return jsonSuccess(c, fiber.Map{
		"columns": board.Build(requests, contents, f).Columns(h.registry),
	})
}

// Move drops an item on a column.
func (h *BoardHandler) Move(c fiber.Ctx) error {
	var body struct {
		ItemID string `json:"item_id"`
		Target string `json:"target"`
	}
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return jsonError(c, fiber.StatusBadRequest, CodeBadRequest, "invalid request body")
	}
	if body.ItemID == "" {
		return validationError(c, "item_id", "item_id is required")
	}

	res, err := h.mover.MoveItem(c.Context(), body.ItemID, body.Target, actor(c))
	if err != nil {
		return writeError(c, err)
	}
	return jsonSuccess(c, res)
}

func parseFilters(c fiber.Ctx) (board.Filters, error) {
	var f board.Filters
	var err error

	if f.ClientID, err = optionalUUID(c.Query("client_id"), "client_id"); err != nil {
		return f, err
	}
	if f.AssigneeID, err = optionalUUID(c.Query("assignee_id"), "assignee_id"); err != nil {
		return f, err
	}
	if f.From, err = optionalTime(c.Query("from"), "from"); err != nil {
		return f, err
	}
	if f.To, err = optionalTime(c.Query("to"), "to"); err != nil {
		return f, err
	}
	f.ContentType = strings.TrimSpace(c.Query("content_type"))
	f.Query = c.Query("q")
	return f, nil
}

func optionalUUID(raw, field string) (*uuid.UUID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, invalidField(field, "must be a uuid")
	}
	return &id, nil
}

// optionalTime accepts RFC 3339 timestamps or plain dates (midnight UTC).
func optionalTime(raw, field string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, nil
		}
	}
	return nil, invalidField(field, "must be a date (YYYY-MM-DD) or RFC 3339 timestamp")
}
