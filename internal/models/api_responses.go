package models

import (
	"time"
)

// ApprovalLinkResponse is returned to the dashboard when a link is issued.
type ApprovalLinkResponse struct {
	Token     string    `json:"token"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ApprovalPageResponse is what the public approval page renders. When the link
// is already resolved, Decision/Comment/DisplayName carry the outcome.
type ApprovalPageResponse struct {
	Content     *PublicContent `json:"content"`
	Client      *PublicClient  `json:"client"`
	LinkStatus  string         `json:"link_status"`
	ExpiresAt   time.Time      `json:"expires_at"`
	ResolvedAt  *time.Time     `json:"resolved_at,omitempty"`
	Comment     string         `json:"comentario,omitempty"`
	DisplayName string         `json:"cliente_nome,omitempty"`
}

// PublicContent is the subset of a content visible to an anonymous visitor.
type PublicContent struct {
	Title       string     `json:"title"`
	ContentType string     `json:"content_type,omitempty"`
	Channels    []string   `json:"channels"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
}

// PublicClient is the subset of a client visible to an anonymous visitor.
type PublicClient struct {
	Name string `json:"name"`
}
