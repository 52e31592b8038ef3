package models

import (
	"time"

	"github.com/google/uuid"
)

// Client is an agency customer. Clients are managed outside this service and
// synced from configuration.
type Client struct {
	ID           uuid.UUID `json:"id"`
	Slug         string    `json:"slug"`
	Name         string    `json:"name"`
	ContactEmail string    `json:"contact_email,omitempty"`
	TeamEmail    string    `json:"-"` // owning team, notified on resolution
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
