// Package board builds the status-keyed board view that merges open requests
// and contents. Build is pure: callers re-fetch both lists and rebuild after
// every mutation.
package board

import (
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"contentboard/internal/models"
	"contentboard/internal/status"
)

// Item kinds.
const (
	KindRequest = "request"
	KindContent = "content"
)

// Item is one card on the board.
type Item struct {
	ID              string     `json:"id"` // opaque drag id, see ItemID
	Kind            string     `json:"kind"`
	EntityID        uuid.UUID  `json:"entity_id"`
	ClientID        uuid.UUID  `json:"client_id"`
	Title           string     `json:"title"`
	Column          status.Key `json:"column"`
	RequestStatus   string     `json:"request_status,omitempty"`
	Priority        string     `json:"priority,omitempty"`
	ContentType     string     `json:"content_type,omitempty"`
	AssigneeID      *uuid.UUID `json:"assignee_id,omitempty"`
	ScheduledAt     *time.Time `json:"scheduled_at,omitempty"`
	Channels        []string   `json:"channels,omitempty"`
	ApprovalComment string     `json:"approval_comment,omitempty"`
	Order           int        `json:"order"`
	CreatedAt       time.Time  `json:"created_at"`
}

// Filters narrow the board. All set fields AND-combine; zero fields match everything.
type Filters struct {
	ClientID    *uuid.UUID
	From        *time.Time // inclusive
	To          *time.Time // exclusive
	AssigneeID  *uuid.UUID
	ContentType string
	Query       string // case- and accent-insensitive substring of the title
}

// Board maps each column key to its ordered cards. Every column is present,
// possibly empty.
type Board map[status.Key][]Item

// Column is one ordered board column with its cards, for serialization.
type Column struct {
	status.Entry
	Items []Item `json:"items"`
}

// ItemID returns the opaque drag id of an entity.
func ItemID(kind string, id uuid.UUID) string {
	return kind + ":" + id.String()
}

// ParseItemID splits an opaque drag id. A bare uuid yields an empty kind.
func ParseItemID(raw string) (kind string, id uuid.UUID, ok bool) {
	if k, rest, found := strings.Cut(raw, ":"); found {
		if k != KindRequest && k != KindContent {
			return "", uuid.Nil, false
		}
		id, err := uuid.Parse(rest)
		if err != nil {
			return "", uuid.Nil, false
		}
		return k, id, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", uuid.Nil, false
	}
	return "", id, true
}

// Build groups requests and contents into board columns.
//
// Only open requests are shown, all under the inbox column regardless of their
// own status, newest first. Contents go under their own status column ordered
// by Order ascending.
func Build(requests []models.Request, contents []models.Content, f Filters) Board {
	b := make(Board)
	b[status.Inbox] = []Item{}
	for _, e := range status.NewRegistry(nil).Entries() {
		b[e.Key] = []Item{}
	}

	query := fold(f.Query)

	for i := range requests {
		r := &requests[i]
		if !r.IsOpen() || !f.matchRequest(r, query) {
			continue
		}
		b[status.Inbox] = append(b[status.Inbox], Item{
			ID:            ItemID(KindRequest, r.ID),
			Kind:          KindRequest,
			EntityID:      r.ID,
			ClientID:      r.ClientID,
			Title:         r.Title,
			Column:        status.Inbox,
			RequestStatus: r.Status,
			Priority:      r.Priority,
			ContentType:   r.ContentType,
			CreatedAt:     r.CreatedAt,
		})
	}

	for i := range contents {
		c := &contents[i]
		if !f.matchContent(c, query) {
			continue
		}
		col := status.Normalize(string(c.Status))
		b[col] = append(b[col], Item{
			ID:              ItemID(KindContent, c.ID),
			Kind:            KindContent,
			EntityID:        c.ID,
			ClientID:        c.ClientID,
			Title:           c.Title,
			Column:          col,
			Priority:        c.Priority,
			ContentType:     c.ContentType,
			AssigneeID:      c.AssigneeID,
			ScheduledAt:     c.ScheduledAt,
			Channels:        c.Channels,
			ApprovalComment: c.ApprovalComment,
			Order:           c.Order,
			CreatedAt:       c.CreatedAt,
		})
	}

	inbox := b[status.Inbox]
	sort.SliceStable(inbox, func(i, j int) bool {
		if !inbox[i].CreatedAt.Equal(inbox[j].CreatedAt) {
			return inbox[i].CreatedAt.After(inbox[j].CreatedAt)
		}
		return inbox[i].ID < inbox[j].ID
	})

	for key, items := range b {
		if key == status.Inbox {
			continue
		}
		sort.SliceStable(items, func(i, j int) bool {
			if items[i].Order != items[j].Order {
				return items[i].Order < items[j].Order
			}
			if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
				return items[i].CreatedAt.Before(items[j].CreatedAt)
			}
			return items[i].ID < items[j].ID
		})
	}

	return b
}

// Columns returns the board in column order with the registry's display metadata.
func (b Board) Columns(reg *status.Registry) []Column {
	entries := reg.Columns()
	cols := make([]Column, 0, len(entries))
	for _, e := range entries {
		items := b[e.Key]
		if items == nil {
			items = []Item{}
		}
		cols = append(cols, Column{Entry: e, Items: items})
	}
	return cols
}

func (f Filters) matchRequest(r *models.Request, query string) bool {
	if f.ClientID != nil && r.ClientID != *f.ClientID {
		return false
	}
	// Requests have no assignee yet.
	if f.AssigneeID != nil {
		return false
	}
	if f.ContentType != "" && !strings.EqualFold(r.ContentType, f.ContentType) {
		return false
	}
	if !f.inPeriod(r.CreatedAt) {
		return false
	}
	return query == "" || strings.Contains(fold(r.Title), query)
}

func (f Filters) matchContent(c *models.Content, query string) bool {
	if f.ClientID != nil && c.ClientID != *f.ClientID {
		return false
	}
	if f.AssigneeID != nil && (c.AssigneeID == nil || *c.AssigneeID != *f.AssigneeID) {
		return false
	}
	if f.ContentType != "" && !strings.EqualFold(c.ContentType, f.ContentType) {
		return false
	}
	when := c.CreatedAt
	if c.ScheduledAt != nil {
		when = *c.ScheduledAt
	}
	if !f.inPeriod(when) {
		return false
	}
	return query == "" || strings.Contains(fold(c.Title), query)
}

func (f Filters) inPeriod(t time.Time) bool {
	if f.From != nil && t.Before(*f.From) {
		return false
	}
	if f.To != nil && !t.Before(*f.To) {
		return false
	}
	return true
}

// fold lowercases s and strips combining marks, so "Promoção" matches "promocao".
func fold(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}
