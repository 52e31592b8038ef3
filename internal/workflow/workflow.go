// Package workflow moves board items between columns: content status changes
// and the accept-and-convert path from an inbox request to a content.
package workflow

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"contentboard/internal/board"
	"contentboard/internal/db"
	"contentboard/internal/metrics"
	"contentboard/internal/models"
	"contentboard/internal/notify"
	"contentboard/internal/status"
	"contentboard/internal/validation"
)

// Store is the persistence the engine needs. *db.DB satisfies it.
type Store interface {
	GetRequestByID(ctx context.Context, id uuid.UUID) (*models.Request, error)
	GetContentByID(ctx context.Context, id uuid.UUID) (*models.Content, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	ConvertRequest(ctx context.Context, id uuid.UUID, initial status.Key, actor string, now time.Time) (*models.Content, bool, error)
	UpdateContentStatus(ctx context.Context, id uuid.UUID, to status.Key, actor string, now time.Time) (*models.Content, error)
}

// Result describes the outcome of a move.
type Result struct {
	Kind    string          `json:"kind"`
	Changed bool            `json:"changed"`
	Content *models.Content `json:"content,omitempty"` // set when the item is or became a content
}

// Engine applies board moves.
type Engine struct {
	store    Store
	notifier notify.Sender
	registry *status.Registry
	now      func() time.Time
	log      zerolog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLogger sets the engine's logger.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// NewEngine creates an engine. A nil notifier discards notifications.
func NewEngine(store Store, notifier notify.Sender, registry *status.Registry, opts ...Option) *Engine {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	if registry == nil {
		registry = status.NewRegistry(nil)
	}
	e := &Engine{
		store:    store,
		notifier: notifier,
		registry: registry,
		now:      time.Now,
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// MoveItem drops the board item itemID on the target column.
//
// A request dropped on the inbox is left alone. A request dropped anywhere else
// is accepted and, when the new content's initial status is not the target,
// moved again to match the drop. A content already in target is left alone;
// otherwise its status changes and a "moved to <label>" notification is sent.
// Concurrent moves of the same content are last-write-wins.
func (e *Engine) MoveItem(ctx context.Context, itemID, target, actor string) (*Result, error) {
	key, ok := status.ParseTarget(target)
	if !ok {
		return nil, validation.Errorf("target", "unknown column %q", target)
	}
	kind, id, ok := board.ParseItemID(itemID)
	if !ok {
		return nil, validation.Errorf("item_id", "malformed item id %q", itemID)
	}

	switch kind {
	case board.KindRequest:
		return e.moveRequest(ctx, id, key, actor)
	case board.KindContent:
		return e.moveContent(ctx, id, key, actor)
	}

	// Bare ids: contents first, then requests.
	res, err := e.moveContent(ctx, id, key, actor)
	if errors.Is(err, db.ErrContentNotFound) {
		return e.moveRequest(ctx, id, key, actor)
	}
	return res, err
}

func (e *Engine) moveRequest(ctx context.Context, id uuid.UUID, target status.Key, actor string) (*Result, error) {
	if target == status.Inbox {
		if _, err := e.store.GetRequestByID(ctx, id); err != nil {
			return nil, err
		}
		return &Result{Kind: board.KindRequest}, nil
	}

	content, err := e.AcceptRequest(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	res := &Result{Kind: board.KindRequest, Changed: true, Content: content}
	if content.Status == target {
		return res, nil
	}

	moved, err := e.setStatus(ctx, content, target, actor)
	if err != nil {
		return nil, err
	}
	res.Content = moved
	return res, nil
}

func (e *Engine) moveContent(ctx context.Context, id uuid.UUID, target status.Key, actor string) (*Result, error) {
	content, err := e.store.GetContentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if target == status.Inbox {
		return nil, validation.Errorf("target", "contents cannot move back to the inbox")
	}
	if content.Status == target {
		return &Result{Kind: board.KindContent, Content: content}, nil
	}

	moved, err := e.setStatus(ctx, content, target, actor)
	if err != nil {
		return nil, err
	}
	return &Result{Kind: board.KindContent, Changed: true, Content: moved}, nil
}

func (e *Engine) setStatus(ctx context.Context, content *models.Content, target status.Key, actor string) (*models.Content, error) {
	moved, err := e.store.UpdateContentStatus(ctx, content.ID, target, actor, e.now())
	if err != nil {
		return nil, err
	}
	metrics.RecordMove(target)
	e.log.Info().
		Str("content_id", moved.ID.String()).
		Str("from", string(content.Status)).
		Str("to", string(target)).
		Str("actor", actor).
		Msg("content moved")
	e.notifyMoved(ctx, content.Status, moved, actor)
	return moved, nil
}

func (e *Engine) notifyMoved(ctx context.Context, from status.Key, c *models.Content, actor string) {
	var recipient string
	if c.AssigneeID != nil {
		u, err := e.store.GetUserByID(ctx, *c.AssigneeID)
		if err != nil {
			e.log.Warn().Err(err).Str("content_id", c.ID.String()).Msg("failed to load assignee for notification")
		} else {
			recipient = u.Email
		}
	}

	label := e.registry.Label(c.Status)
	e.notifier.Notify(ctx, notify.Notification{
		Type:      notify.TypeContentMoved,
		Recipient: recipient,
		Data: map[string]any{
			"message":    "moved to " + label,
			"content_id": c.ID.String(),
			"title":      c.Title,
			"from":       e.registry.Label(from),
			"to":         label,
			"actor":      actor,
		},
	})
}

// AcceptRequest converts an open request into a content in the default
// production state. Repeated calls for the same request return the content
// created by the first one. Rejected requests fail with
// db.ErrRequestAlreadyProcessed.
func (e *Engine) AcceptRequest(ctx context.Context, requestID uuid.UUID, actor string) (*models.Content, error) {
	content, created, err := e.store.ConvertRequest(ctx, requestID, status.Default, actor, e.now())
	if err != nil {
		return nil, err
	}
	metrics.RecordConversion(created)
	if created {
		e.log.Info().
			Str("request_id", requestID.String()).
			Str("content_id", content.ID.String()).
			Str("actor", actor).
			Msg("request converted")
	}
	return content, nil
}
