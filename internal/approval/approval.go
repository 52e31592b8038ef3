// Package approval issues single-use approval links and resolves them on
// behalf of anonymous client visitors.
package approval

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"contentboard/internal/db"
	"contentboard/internal/metrics"
	"contentboard/internal/models"
	"contentboard/internal/notify"
	"contentboard/internal/status"
	"contentboard/internal/validation"
)

// DefaultTTL is how long an issued link stays usable.
const DefaultTTL = 30 * 24 * time.Hour

// PagePath is the public page a link points to.
const PagePath = "/aprovacao"

const maxTokenAttempts = 3

// Store is the persistence the service needs. *db.DB satisfies it.
type Store interface {
	GetContentByID(ctx context.Context, id uuid.UUID) (*models.Content, error)
	GetClientByID(ctx context.Context, id uuid.UUID) (*models.Client, error)
	CreateApprovalLink(ctx context.Context, link *models.ApprovalLink, awaitingStatus status.Key, actor string) error
	GetApprovalLinkByToken(ctx context.Context, token string) (*models.ApprovalLink, error)
	ResolveApprovalLink(ctx context.Context, p db.ResolveParams) (*models.ApprovalLink, *models.Content, error)
}

// Service issues and resolves approval links.
type Service struct {
	store     Store
	notifier  notify.Sender
	tokens    TokenGenerator
	registry  *status.Registry
	now       func() time.Time
	ttl       time.Duration
	baseURL   string
	teamEmail string
	log       zerolog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithTokenGenerator overrides the token source.
func WithTokenGenerator(g TokenGenerator) Option {
	return func(s *Service) { s.tokens = g }
}

// WithTTL overrides the link lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithTeamEmail sets the recipient for resolutions of clients without a team address.
func WithTeamEmail(addr string) Option {
	return func(s *Service) { s.teamEmail = addr }
}

// WithRegistry sets the status registry used for notification labels.
func WithRegistry(r *status.Registry) Option {
	return func(s *Service) { s.registry = r }
}

// WithLogger sets the service's logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) { s.log = l }
}

// NewService creates a service building links under publicBaseURL.
// A nil notifier discards notifications.
func NewService(store Store, notifier notify.Sender, publicBaseURL string, opts ...Option) *Service {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	s := &Service{
		store:    store,
		notifier: notifier,
		tokens:   RandomTokens{},
		registry: status.NewRegistry(nil),
		now:      time.Now,
		ttl:      DefaultTTL,
		baseURL:  strings.TrimRight(publicBaseURL, "/"),
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// URL returns the public page URL for token.
func (s *Service) URL(token string) string {
	return s.baseURL + PagePath + "?token=" + url.QueryEscape(token)
}

// Issue creates a pending link for a content of clientID. The content moves to
// awaiting approval and its previous status is kept on the link.
func (s *Service) Issue(ctx context.Context, contentID, clientID uuid.UUID, actor string) (*models.ApprovalLinkResponse, error) {
	content, err := s.store.GetContentByID(ctx, contentID)
	if err != nil {
		return nil, err
	}
	client, err := s.store.GetClientByID(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if content.ClientID != client.ID {
		return nil, db.ErrContentClientMismatch
	}

	var link *models.ApprovalLink
	for attempt := 1; ; attempt++ {
		token, err := s.tokens.Generate()
		if err != nil {
			return nil, err
		}
		issuedAt := s.now()
		link = &models.ApprovalLink{
			ContentID: content.ID,
			ClientID:  client.ID,
			Token:     token,
			IssuedAt:  issuedAt,
			ExpiresAt: issuedAt.Add(s.ttl),
		}
		err = s.store.CreateApprovalLink(ctx, link, status.AwaitingApproval, actor)
		if err == nil {
			break
		}
		if !errors.Is(err, db.ErrDuplicateToken) || attempt == maxTokenAttempts {
			return nil, fmt.Errorf("failed to issue approval link: %w", err)
		}
		s.log.Warn().Int("attempt", attempt).Msg("approval token collision, retrying")
	}

	metrics.RecordLinkIssued()
	s.log.Info().
		Str("content_id", content.ID.String()).
		Str("link_id", link.ID.String()).
		Str("previous_status", string(link.PreviousContentStatus)).
		Str("actor", actor).
		Msg("approval link issued")

	resp := &models.ApprovalLinkResponse{
		Token:     link.Token,
		URL:       s.URL(link.Token),
		ExpiresAt: link.ExpiresAt,
	}

	s.notifier.Notify(ctx, notify.Notification{
		Type:      notify.TypeApprovalRequested,
		Recipient: client.ContactEmail,
		Data: map[string]any{
			"client_name": client.Name,
			"title":       content.Title,
			"url":         resp.URL,
			"expires_at":  link.ExpiresAt,
		},
	})
	return resp, nil
}

// Lookup returns what the public page shows for token. Expiry is checked first
// and wins over everything else. A resolved link is a successful read carrying
// the stored decision.
func (s *Service) Lookup(ctx context.Context, token string) (*models.ApprovalPageResponse, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, validation.Errorf("token", "token is required")
	}
	if !validation.ValidateToken(token) {
		return nil, db.ErrApprovalLinkNotFound
	}

	link, err := s.store.GetApprovalLinkByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if link.IsExpired(s.now()) {
		return nil, db.ErrApprovalLinkExpired
	}

	content, err := s.store.GetContentByID(ctx, link.ContentID)
	if err != nil {
		return nil, err
	}
	client, err := s.store.GetClientByID(ctx, link.ClientID)
	if err != nil {
		return nil, err
	}
	return pageResponse(link, content, client), nil
}

// ResolveInput is one client decision as submitted from the public page.
type ResolveInput struct {
	Token       string
	Decision    string // wire ("aprovado", "ajuste") or internal value
	Comment     string
	DisplayName string
}

// Resolve records a client decision. The input is validated before the token
// is looked at, so a rejected submission never changes state. Only the first
// valid submission for a pending, unexpired link is stored; later ones fail
// with db.ErrApprovalLinkAlreadyUsed.
func (s *Service) Resolve(ctx context.Context, in ResolveInput) (*models.ApprovalPageResponse, error) {
	decision, ok := models.ParseDecision(strings.TrimSpace(in.Decision))
	if !ok {
		return nil, validation.Errorf("status", "status must be %q or %q", models.WireApproved, models.WireChangesRequested)
	}
	comment := strings.TrimSpace(in.Comment)
	if ok, msg := validation.ValidateComment(comment, decision == models.LinkChangesRequested); !ok {
		return nil, validation.Errorf("comentario", "%s", msg)
	}
	name := strings.TrimSpace(in.DisplayName)
	if ok, msg := validation.ValidateDisplayName(name); !ok {
		return nil, validation.Errorf("cliente_nome", "%s", msg)
	}
	token := strings.TrimSpace(in.Token)
	if token == "" {
		return nil, validation.Errorf("token", "token is required")
	}
	if !validation.ValidateToken(token) {
		metrics.RecordResolution("not_found")
		return nil, db.ErrApprovalLinkNotFound
	}

	target := status.Approved
	if decision == models.LinkChangesRequested {
		target = status.NeedsChanges
	}

	link, content, err := s.store.ResolveApprovalLink(ctx, db.ResolveParams{
		Token:         token,
		Decision:      decision,
		Comment:       comment,
		DisplayName:   name,
		ContentStatus: target,
		Now:           s.now(),
	})
	if err != nil {
		metrics.RecordResolution(failureOutcome(err))
		return nil, err
	}
	metrics.RecordResolution(decision)

	s.log.Info().
		Str("content_id", content.ID.String()).
		Str("link_id", link.ID.String()).
		Str("decision", decision).
		Msg("approval link resolved")

	client, err := s.store.GetClientByID(ctx, link.ClientID)
	if err != nil {
		// The decision is committed; only the notification and client name are lost.
		s.log.Warn().Err(err).Str("client_id", link.ClientID.String()).Msg("failed to load client after resolution")
		client = &models.Client{ID: link.ClientID}
	}
	s.notifyResolved(ctx, link, content, client)

	return pageResponse(link, content, client), nil
}

func (s *Service) notifyResolved(ctx context.Context, link *models.ApprovalLink, content *models.Content, client *models.Client) {
	recipient := client.TeamEmail
	if recipient == "" {
		recipient = s.teamEmail
	}
	s.notifier.Notify(ctx, notify.Notification{
		Type:      notify.TypeApprovalResolved,
		Recipient: recipient,
		Data: map[string]any{
			"client_name":  client.Name,
			"title":        content.Title,
			"decision":     link.Status,
			"status_label": s.registry.Label(content.Status),
			"comment":      link.ClientComment,
			"display_name": link.ClientDisplayName,
			"content_id":   content.ID.String(),
		},
	})
}

func failureOutcome(err error) string {
	switch {
	case errors.Is(err, db.ErrApprovalLinkNotFound):
		return "not_found"
	case errors.Is(err, db.ErrApprovalLinkExpired):
		return "expired"
	case errors.Is(err, db.ErrApprovalLinkAlreadyUsed):
		return "already_used"
	}
	return "error"
}

func pageResponse(link *models.ApprovalLink, content *models.Content, client *models.Client) *models.ApprovalPageResponse {
	channels := content.Channels
	if channels == nil {
		channels = []string{}
	}
	resp := &models.ApprovalPageResponse{
		Content: &models.PublicContent{
			Title:       content.Title,
			ContentType: content.ContentType,
			Channels:    channels,
			ScheduledAt: content.ScheduledAt,
		},
		Client:     &models.PublicClient{Name: client.Name},
		LinkStatus: link.WireStatus(),
		ExpiresAt:  link.ExpiresAt,
	}
	if !link.IsPending() {
		resp.ResolvedAt = link.ResolvedAt
		resp.Comment = link.ClientComment
		resp.DisplayName = link.ClientDisplayName
	}
	return resp
}
