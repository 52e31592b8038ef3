package models

import (
	"time"

	"github.com/google/uuid"

	"contentboard/internal/status"
)

// Approval link status constants. Any non-pending status is terminal.
const (
	LinkPending          = "pending"
	LinkApproved         = "approved"
	LinkChangesRequested = "changes_requested"
)

// Wire values used by the public approval page.
const (
	WireApproved         = "aprovado"
	WireChangesRequested = "ajuste"
	WirePending          = "pendente"
)

// ApprovalLink is a time-boxed, single-use token letting a client without an
// account resolve one content's approval.
type ApprovalLink struct {
	ID                    uuid.UUID  `json:"id"`
	ContentID             uuid.UUID  `json:"content_id"`
	ClientID              uuid.UUID  `json:"client_id"`
	Token                 string     `json:"-"`
	Status                string     `json:"status"`
	IssuedAt              time.Time  `json:"issued_at"`
	ExpiresAt             time.Time  `json:"expires_at"`
	ResolvedAt            *time.Time `json:"resolved_at"`
	ClientComment         string     `json:"client_comment,omitempty"`
	ClientDisplayName     string     `json:"client_display_name,omitempty"`
	PreviousContentStatus status.Key `json:"previous_content_status"`
}

// IsPending returns true if the link has not been resolved yet.
func (l *ApprovalLink) IsPending() bool {
	return l.Status == LinkPending
}

// IsExpired returns true if now is past the link's expiry. Expiry is never stored.
func (l *ApprovalLink) IsExpired(now time.Time) bool {
	return now.After(l.ExpiresAt)
}

// WireStatus returns the status as shown on the public approval page.
func (l *ApprovalLink) WireStatus() string {
	switch l.Status {
	case LinkApproved:
		return WireApproved
	case LinkChangesRequested:
		return WireChangesRequested
	default:
		return WirePending
	}
}

// ParseDecision maps a wire or internal decision onto a terminal link status.
func ParseDecision(s string) (string, bool) {
	switch s {
	case WireApproved, LinkApproved:
		return LinkApproved, true
	case WireChangesRequested, LinkChangesRequested:
		return LinkChangesRequested, true
	}
	return "", false
}
