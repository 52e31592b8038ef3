package models

import (
	"time"

	"github.com/google/uuid"
)

// Audit actions.
const (
	AuditLinkIssued       = "approval_link_issued"
	AuditLinkResolved     = "approval_link_resolved"
	AuditRequestConverted = "request_converted"
	AuditContentMoved     = "content_moved"
)

// AuditEntry records one state change on a content.
type AuditEntry struct {
	ID        uuid.UUID      `json:"id"`
	ContentID uuid.UUID      `json:"content_id"`
	LinkID    *uuid.UUID     `json:"link_id,omitempty"`
	Action    string         `json:"action"`
	Actor     string         `json:"actor"`
	Detail    map[string]any `json:"detail,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}
