package approval

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"contentboard/internal/db"
	"contentboard/internal/models"
	"contentboard/internal/notify"
	"contentboard/internal/status"
	"contentboard/internal/testutil"
	"contentboard/internal/validation"
)

var issuedAt = time.Date(2026, 12, 1, 9, 0, 0, 0, time.UTC)

// memStore mirrors the transactional semantics of the Postgres store: link
// creation and resolution apply to link and content together under one lock,
// and resolution is a compare-and-swap on the pending status.
type memStore struct {
	mu       sync.Mutex
	contents map[uuid.UUID]*models.Content
	clients  map[uuid.UUID]*models.Client
	links    map[string]*models.ApprovalLink
	resolves int
	failNext error
}

func newMemStore() *memStore {
	return &memStore{
		contents: map[uuid.UUID]*models.Content{},
		clients:  map[uuid.UUID]*models.Client{},
		links:    map[string]*models.ApprovalLink{},
	}
}

func (s *memStore) seed() (*models.Client, *models.Content) {
	client := &models.Client{ID: uuid.New(), Slug: "padaria-sol", Name: "Padaria Sol",
		ContactEmail: "marketing@padariasol.example", TeamEmail: "time-sol@agency.example"}
	content := &models.Content{ID: uuid.New(), ClientID: client.ID, Title: "Post Natal",
		Status: status.Review, Channels: []string{"instagram"}}
	s.clients[client.ID] = client
	s.contents[content.ID] = content
	return client, content
}

func (s *memStore) GetContentByID(_ context.Context, id uuid.UUID) (*models.Content, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.contents[id]
	if !ok {
		return nil, db.ErrContentNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *memStore) GetClientByID(_ context.Context, id uuid.UUID) (*models.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.clients[id]
	if !ok {
		return nil, db.ErrClientNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *memStore) CreateApprovalLink(_ context.Context, link *models.ApprovalLink, awaiting status.Key, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failNext != nil {
		err := s.failNext
		s.failNext = nil
		return err
	}
	if _, dup := s.links[link.Token]; dup {
		return db.ErrDuplicateToken
	}
	c, ok := s.contents[link.ContentID]
	if !ok {
		return db.ErrContentNotFound
	}
	link.ID = uuid.New()
	link.Status = models.LinkPending
	link.PreviousContentStatus = c.Status
	cp := *link
	s.links[link.Token] = &cp
	c.Status = awaiting
	return nil
}

func (s *memStore) GetApprovalLinkByToken(_ context.Context, token string) (*models.ApprovalLink, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.links[token]
	if !ok {
		return nil, db.ErrApprovalLinkNotFound
	}
	cp := *l
	return &cp, nil
}

func (s *memStore) ResolveApprovalLink(_ context.Context, p db.ResolveParams) (*models.ApprovalLink, *models.Content, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.links[p.Token]
	if !ok {
		return nil, nil, db.ErrApprovalLinkNotFound
	}
	if l.IsExpired(p.Now) {
		return nil, nil, db.ErrApprovalLinkExpired
	}
	if !l.IsPending() {
		return nil, nil, db.ErrApprovalLinkAlreadyUsed
	}
	s.resolves++
	now := p.Now
	l.Status = p.Decision
	l.ClientComment = p.Comment
	l.ClientDisplayName = p.DisplayName
	l.ResolvedAt = &now

	c := s.contents[l.ContentID]
	c.Status = p.ContentStatus
	if p.Decision == models.LinkChangesRequested {
		c.ApprovalComment = p.Comment
	} else {
		c.ApprovalComment = ""
	}
	lc, cc := *l, *c
	return &lc, &cc, nil
}

func newTestService(store *memStore, sender notify.Sender, clk *testutil.Clock, opts ...Option) *Service {
	opts = append([]Option{WithClock(clk.Now)}, opts...)
	return NewService(store, sender, "https://agencia.example/", opts...)
}

func issue(t *testing.T, svc *Service, content *models.Content, client *models.Client) *models.ApprovalLinkResponse {
	t.Helper()
	resp, err := svc.Issue(context.Background(), content.ID, client.ID, "ana")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	return resp
}

func TestIssue(t *testing.T) {
	store := newMemStore()
	client, content := store.seed()
	sender := &testutil.RecordingSender{}
	svc := newTestService(store, sender, testutil.NewClock(issuedAt))

	resp := issue(t, svc, content, client)

	if !validation.ValidateToken(resp.Token) || len(resp.Token) < 32 {
		t.Errorf("Token = %q, want >= 32 alphanumeric characters", resp.Token)
	}
	if want := issuedAt.Add(30 * 24 * time.Hour); !resp.ExpiresAt.Equal(want) {
		t.Errorf("ExpiresAt = %v, want %v", resp.ExpiresAt, want)
	}
	u, err := url.Parse(resp.URL)
	if err != nil {
		t.Fatalf("URL %q does not parse: %v", resp.URL, err)
	}
	if u.Host != "agencia.example" || u.Path != "/aprovacao" || u.Query().Get("token") != resp.Token {
		t.Errorf("URL = %q, want https://agencia.example/aprovacao?token=<token>", resp.URL)
	}

	link := store.links[resp.Token]
	if link.Status != models.LinkPending || link.PreviousContentStatus != status.Review {
		t.Errorf("link = %+v, want pending with previous status review", link)
	}
	if store.contents[content.ID].Status != status.AwaitingApproval {
		t.Errorf("content status = %q, want awaiting_approval", store.contents[content.ID].Status)
	}

	sent := sender.Sent()
	if len(sent) != 1 || sent[0].Type != notify.TypeApprovalRequested ||
		sent[0].Recipient != client.ContactEmail || sent[0].Data["url"] != resp.URL {
		t.Errorf("notifications = %+v", sent)
	}
}

func TestIssue_Errors(t *testing.T) {
	store := newMemStore()
	client, content := store.seed()
	other := &models.Client{ID: uuid.New(), Name: "Outro"}
	store.clients[other.ID] = other
	svc := newTestService(store, nil, testutil.NewClock(issuedAt))
	ctx := context.Background()

	if _, err := svc.Issue(ctx, uuid.New(), client.ID, "ana"); !errors.Is(err, db.ErrContentNotFound) {
		t.Errorf("unknown content error = %v", err)
	}
	if _, err := svc.Issue(ctx, content.ID, uuid.New(), "ana"); !errors.Is(err, db.ErrClientNotFound) {
		t.Errorf("unknown client error = %v", err)
	}
	if _, err := svc.Issue(ctx, content.ID, other.ID, "ana"); !errors.Is(err, db.ErrContentClientMismatch) {
		t.Errorf("mismatched client error = %v", err)
	}
	if len(store.links) != 0 {
		t.Error("failed issue stored a link")
	}
}

func TestIssue_RetriesTokenCollision(t *testing.T) {
	store := newMemStore()
	client, content := store.seed()
	store.failNext = db.ErrDuplicateToken

	var calls atomic.Int32
	gen := TokenFunc(func() (string, error) {
		calls.Add(1)
		return RandomTokens{}.Generate()
	})
	svc := newTestService(store, nil, testutil.NewClock(issuedAt), WithTokenGenerator(gen))

	issue(t, svc, content, client)
	if calls.Load() != 2 {
		t.Errorf("generated %d tokens, want 2", calls.Load())
	}
}

func TestLookup(t *testing.T) {
	store := newMemStore()
	client, content := store.seed()
	clk := testutil.NewClock(issuedAt)
	svc := newTestService(store, nil, clk)
	ctx := context.Background()
	resp := issue(t, svc, content, client)

	page, err := svc.Lookup(ctx, resp.Token)
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if page.LinkStatus != models.WirePending || page.Content.Title != "Post Natal" || page.Client.Name != "Padaria Sol" {
		t.Errorf("Lookup() = %+v", page)
	}

	if _, err := svc.Lookup(ctx, strings.Repeat("x", 40)); !errors.Is(err, db.ErrApprovalLinkNotFound) {
		t.Errorf("unknown token error = %v, want ErrApprovalLinkNotFound", err)
	}
	if _, err := svc.Lookup(ctx, "short"); !errors.Is(err, db.ErrApprovalLinkNotFound) {
		t.Errorf("malformed token error = %v, want ErrApprovalLinkNotFound", err)
	}
	var verr *validation.Error
	if _, err := svc.Lookup(ctx, " "); !errors.As(err, &verr) {
		t.Errorf("empty token error = %v, want validation error", err)
	}

	// Expiry is inclusive of expires_at itself.
	clk.Set(resp.ExpiresAt)
	if _, err := svc.Lookup(ctx, resp.Token); err != nil {
		t.Errorf("Lookup() at expires_at error = %v", err)
	}
	clk.Set(resp.ExpiresAt.Add(time.Second))
	if _, err := svc.Lookup(ctx, resp.Token); !errors.Is(err, db.ErrApprovalLinkExpired) {
		t.Errorf("Lookup() after expiry error = %v, want ErrApprovalLinkExpired", err)
	}
}

func TestResolve_ChangesRequestedThenViewable(t *testing.T) {
	store := newMemStore()
	client, content := store.seed()
	sender := &testutil.RecordingSender{}
	clk := testutil.NewClock(issuedAt)
	svc := newTestService(store, sender, clk)
	ctx := context.Background()
	resp := issue(t, svc, content, client)

	clk.Set(issuedAt.Add(2 * time.Hour))
	page, err := svc.Resolve(ctx, ResolveInput{
		Token:       resp.Token,
		Decision:    "ajuste",
		Comment:     "trocar a cor do fundo",
		DisplayName: "Joana",
	})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if page.LinkStatus != models.WireChangesRequested || page.Comment != "trocar a cor do fundo" || page.DisplayName != "Joana" {
		t.Errorf("Resolve() = %+v", page)
	}

	stored := store.contents[content.ID]
	if stored.Status != status.NeedsChanges || stored.ApprovalComment != "trocar a cor do fundo" {
		t.Errorf("content = %+v, want needs_changes with comment on card", stored)
	}

	// The resolved link stays viewable with its outcome.
	view, err := svc.Lookup(ctx, resp.Token)
	if err != nil {
		t.Fatalf("Lookup() resolved error = %v", err)
	}
	if view.LinkStatus != models.WireChangesRequested || view.Comment != "trocar a cor do fundo" ||
		view.ResolvedAt == nil || !view.ResolvedAt.Equal(issuedAt.Add(2*time.Hour)) {
		t.Errorf("Lookup() resolved = %+v", view)
	}

	// A second submission loses and changes nothing.
	_, err = svc.Resolve(ctx, ResolveInput{Token: resp.Token, Decision: "aprovado"})
	if !errors.Is(err, db.ErrApprovalLinkAlreadyUsed) {
		t.Errorf("second Resolve() error = %v, want ErrApprovalLinkAlreadyUsed", err)
	}
	if l := store.links[resp.Token]; l.Status != models.LinkChangesRequested || l.ClientComment != "trocar a cor do fundo" {
		t.Errorf("stored link changed: %+v", l)
	}

	resolved := sender.OfType(notify.TypeApprovalResolved)
	if len(resolved) != 1 || resolved[0].Recipient != client.TeamEmail || resolved[0].Data["comment"] != "trocar a cor do fundo" {
		t.Errorf("resolution notifications = %+v", resolved)
	}
}

func TestResolve_ApprovedClearsCardComment(t *testing.T) {
	store := newMemStore()
	client, content := store.seed()
	content.ApprovalComment = "old remark"
	client.TeamEmail = ""
	sender := &testutil.RecordingSender{}
	svc := newTestService(store, sender, testutil.NewClock(issuedAt), WithTeamEmail("team@agency.example"))
	resp := issue(t, svc, content, client)

	if _, err := svc.Resolve(context.Background(), ResolveInput{Token: resp.Token, Decision: "aprovado"}); err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if c := store.contents[content.ID]; c.Status != status.Approved || c.ApprovalComment != "" {
		t.Errorf("content = %+v, want approved without comment", c)
	}
	sent := sender.Sent()
	last := sent[len(sent)-1]
	if last.Recipient != "team@agency.example" {
		t.Errorf("Recipient = %q, want team fallback", last.Recipient)
	}
}

func TestResolve_Validation(t *testing.T) {
	store := newMemStore()
	client, content := store.seed()
	svc := newTestService(store, nil, testutil.NewClock(issuedAt))
	resp := issue(t, svc, content, client)

	tests := []struct {
		name  string
		in    ResolveInput
		field string
	}{
		{"changes without comment", ResolveInput{Token: resp.Token, Decision: "ajuste"}, "comentario"},
		{"changes with blank comment", ResolveInput{Token: resp.Token, Decision: "ajuste", Comment: "   "}, "comentario"},
		{"unknown decision", ResolveInput{Token: resp.Token, Decision: "talvez"}, "status"},
		{"name too long", ResolveInput{Token: resp.Token, Decision: "aprovado", DisplayName: strings.Repeat("a", 500)}, "cliente_nome"},
		{"missing token", ResolveInput{Decision: "aprovado"}, "token"},
		// Payload problems are reported even for tokens that do not exist.
		{"bad payload unknown token", ResolveInput{Token: strings.Repeat("z", 40), Decision: "ajuste"}, "comentario"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Resolve(context.Background(), tt.in)
			var verr *validation.Error
			if !errors.As(err, &verr) || verr.Field != tt.field {
				t.Errorf("Resolve() error = %v, want validation error on %q", err, tt.field)
			}
		})
	}

	if store.resolves != 0 || !store.links[resp.Token].IsPending() {
		t.Error("validation failure changed the link")
	}
	if store.contents[content.ID].Status != status.AwaitingApproval {
		t.Error("validation failure changed the content")
	}
}

func TestResolve_ExpiredStaysPending(t *testing.T) {
	store := newMemStore()
	client, content := store.seed()
	clk := testutil.NewClock(issuedAt)
	svc := newTestService(store, nil, clk)
	resp := issue(t, svc, content, client)

	clk.Set(issuedAt.Add(31 * 24 * time.Hour))
	_, err := svc.Resolve(context.Background(), ResolveInput{Token: resp.Token, Decision: "aprovado"})
	if !errors.Is(err, db.ErrApprovalLinkExpired) {
		t.Fatalf("Resolve() error = %v, want ErrApprovalLinkExpired", err)
	}
	if !store.links[resp.Token].IsPending() {
		t.Error("expired link left pending state")
	}
}

func TestResolve_ConcurrentSubmissions(t *testing.T) {
	store := newMemStore()
	client, content := store.seed()
	svc := newTestService(store, nil, testutil.NewClock(issuedAt))
	resp := issue(t, svc, content, client)

	const callers = 20
	var wins, used atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			in := ResolveInput{Token: resp.Token, Decision: "aprovado"}
			if i%2 == 1 {
				in = ResolveInput{Token: resp.Token, Decision: "ajuste", Comment: "outra foto"}
			}
			_, err := svc.Resolve(context.Background(), in)
			switch {
			case err == nil:
				wins.Add(1)
			case errors.Is(err, db.ErrApprovalLinkAlreadyUsed):
				used.Add(1)
			default:
				t.Errorf("Resolve() error = %v", err)
			}
		}(i)
	}
	wg.Wait()

	if wins.Load() != 1 || used.Load() != callers-1 {
		t.Errorf("wins = %d, already used = %d, want 1 and %d", wins.Load(), used.Load(), callers-1)
	}
	if store.resolves != 1 {
		t.Errorf("resolves = %d, want 1", store.resolves)
	}
}

func TestRandomTokens(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		tok, err := RandomTokens{}.Generate()
		if err != nil {
			t.Fatalf("Generate() error = %v", err)
		}
		if len(tok) != TokenLength || !validation.ValidateToken(tok) {
			t.Fatalf("Generate() = %q, want %d alphanumeric characters", tok, TokenLength)
		}
		if seen[tok] {
			t.Fatalf("duplicate token %q", tok)
		}
		seen[tok] = true
	}
}
