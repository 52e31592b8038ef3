// Package status defines the closed set of content lifecycle states shown as
// board columns, and the normalization seam for legacy status strings.
package status

import (
	"strings"
)

// Key identifies a content lifecycle state.
type Key string

// Registered content states, in board order.
const (
	Production       Key = "production"
	Review           Key = "review"
	AwaitingApproval Key = "awaiting_approval"
	NeedsChanges     Key = "needs_changes"
	Approved         Key = "approved"
	Scheduled        Key = "scheduled"
	Published        Key = "published"
)

// Inbox is the board column holding open requests. It is not a content state.
const Inbox Key = "inbox"

// Default is the state unknown values normalize to and the initial state of
// converted content.
const Default = Production

// Entry is the display metadata of one board column.
type Entry struct {
	Key       Key    `json:"key"`
	Label     string `json:"label"`
	ColorHint string `json:"color_hint"`
}

var defaultEntries = []Entry{
	{Key: Production, Label: "Em produção", ColorHint: "#3b82f6"},
	{Key: Review, Label: "Revisão interna", ColorHint: "#8b5cf6"},
	{Key: AwaitingApproval, Label: "Aguardando aprovação", ColorHint: "#f59e0b"},
	{Key: NeedsChanges, Label: "Ajustes solicitados", ColorHint: "#ef4444"},
	{Key: Approved, Label: "Aprovado", ColorHint: "#10b981"},
	{Key: Scheduled, Label: "Agendado", ColorHint: "#06b6d4"},
	{Key: Published, Label: "Publicado", ColorHint: "#6b7280"},
}

var inboxEntry = Entry{Key: Inbox, Label: "Solicitações", ColorHint: "#94a3b8"}

// legacy maps deprecated or localized status strings onto registered keys.
var legacy = map[string]Key{
	"em_producao":          Production,
	"producao":             Production,
	"rascunho":             Production,
	"draft":                Production,
	"revisao":              Review,
	"em_revisao":           Review,
	"aprovacao":            AwaitingApproval,
	"aguardando_aprovacao": AwaitingApproval,
	"pending_approval":     AwaitingApproval,
	"ajuste":               NeedsChanges,
	"ajustes":              NeedsChanges,
	"changes_requested":    NeedsChanges,
	"aprovado":             Approved,
	"agendado":             Scheduled,
	"publicado":            Published,
	"posted":               Published,
}

// Registry is the ordered list of board columns. The zero value is not usable;
// use NewRegistry.
type Registry struct {
	entries []Entry
	index   map[Key]int
}

// Override replaces the label and/or color of a registered key.
type Override struct {
	Label     string
	ColorHint string
}

// NewRegistry returns the registry with display overrides applied. Overrides
// for keys that are not registered are ignored; the key set never changes.
func NewRegistry(overrides map[Key]Override) *Registry {
	r := &Registry{
		entries: make([]Entry, len(defaultEntries)),
		index:   make(map[Key]int, len(defaultEntries)),
	}
	copy(r.entries, defaultEntries)
	for i, e := range r.entries {
		r.index[e.Key] = i
		if o, ok := overrides[e.Key]; ok {
			if o.Label != "" {
				r.entries[i].Label = o.Label
			}
			if o.ColorHint != "" {
				r.entries[i].ColorHint = o.ColorHint
			}
		}
	}
	return r
}

// Entries returns the content columns in board order.
func (r *Registry) Entries() []Entry {
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Columns returns the inbox column followed by the content columns.
func (r *Registry) Columns() []Entry {
	return append([]Entry{inboxEntry}, r.entries...)
}

// Label returns the display label for key, or the key itself if unknown.
func (r *Registry) Label(key Key) string {
	if key == Inbox {
		return inboxEntry.Label
	}
	if i, ok := r.index[key]; ok {
		return r.entries[i].Label
	}
	return string(key)
}

// Valid reports whether key is a registered content state.
func Valid(key Key) bool {
	for _, e := range defaultEntries {
		if e.Key == key {
			return true
		}
	}
	return false
}

// Normalize maps any raw string to a registered content state. Unknown,
// empty and deprecated values map to Default.
func Normalize(raw string) Key {
	if k, ok := Lookup(raw); ok {
		return k
	}
	return Default
}

// Lookup maps raw onto a registered content state, accepting legacy aliases.
// Unlike Normalize it reports unknown values instead of falling back to Default.
func Lookup(raw string) (Key, bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.NewReplacer(" ", "_", "-", "_").Replace(s)
	if Valid(Key(s)) {
		return Key(s), true
	}
	k, ok := legacy[s]
	return k, ok
}

// ParseTarget validates a board drop target: either the inbox or a registered
// content state. Targets are matched exactly, without legacy aliasing.
func ParseTarget(raw string) (Key, bool) {
	k := Key(strings.TrimSpace(raw))
	if k == Inbox || Valid(k) {
		return k, true
	}
	return "", false
}
