package models

import (
	"time"

	"github.com/google/uuid"

	"contentboard/internal/status"
)

// Content is a social-media post moving through production for one client.
type Content struct {
	ID              uuid.UUID  `json:"id"`
	ClientID        uuid.UUID  `json:"client_id"`
	Title           string     `json:"title"`
	Status          status.Key `json:"status"`
	AssigneeID      *uuid.UUID `json:"assignee_id"`
	ScheduledAt     *time.Time `json:"scheduled_at"`
	Channels        []string   `json:"channels"`
	ContentType     string     `json:"content_type"`
	Priority        string     `json:"priority"`
	Order           int        `json:"order"`
	SourceRequestID *uuid.UUID `json:"source_request_id"`
	ApprovalComment string     `json:"approval_comment,omitempty"` // last changes_requested comment, shown on the card
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// ContentFilter narrows content listings. Zero fields are ignored.
type ContentFilter struct {
	ClientID *uuid.UUID
	Status   status.Key
}
