package api

import (
	"context"
	"encoding/json"

	"github.com/gofiber/fiber/v3"

	"contentboard/internal/approval"
	"contentboard/internal/models"
)

// ApprovalResolver is the public side of the approval link service.
type ApprovalResolver interface {
	Lookup(ctx context.Context, token string) (*models.ApprovalPageResponse, error)
	Resolve(ctx context.Context, in approval.ResolveInput) (*models.ApprovalPageResponse, error)
}

// ApprovalHandler serves the unauthenticated approval page API.
type ApprovalHandler struct {
	resolver ApprovalResolver
}

// NewApprovalHandler creates a new approval handler.
func NewApprovalHandler(resolver ApprovalResolver) *ApprovalHandler {
	return &ApprovalHandler{resolver: resolver}
}

// Lookup returns what the approval page shows for ?token=.
func (h *ApprovalHandler) Lookup(c fiber.Ctx) error {
	page, err := h.resolver.Lookup(c.Context(), c.Query("token"))
	if err != nil {
		return writeError(c, err)
	}
	return jsonSuccess(c, page)
}

// Resolve records the client's decision.
func (h *ApprovalHandler) Resolve(c fiber.Ctx) error {
	var body struct {
		Token       string `json:"token"`
		Status      string `json:"status"`
		Comment     string `json:"comentario"`
		DisplayName string `json:"cliente_nome"`
	}
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return jsonError(c, fiber.StatusBadRequest, CodeBadRequest, "invalid request body")
	}

	page, err := h.resolver.Resolve(c.Context(), approval.ResolveInput{
		Token:       body.Token,
		Decision:    body.Status,
		Comment:     body.Comment,
		DisplayName: body.DisplayName,
	})
	if err != nil {
		return writeError(c, err)
	}
	return jsonSuccess(c, page)
}
