package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"contentboard/internal/approval"
	"contentboard/internal/board"
	"contentboard/internal/db"
	"contentboard/internal/models"
	"contentboard/internal/status"
	"contentboard/internal/validation"
	"contentboard/internal/workflow"
)

type envelope struct {
	Status string          `json:"status"`
	Code   string          `json:"code"`
	Error  string          `json:"error"`
	Field  string          `json:"field"`
	Data   json.RawMessage `json:"data"`
}

func doJSON(t *testing.T, app *fiber.App, method, target, body string) (int, envelope) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, target, err)
	}
	defer resp.Body.Close()

	var env envelope
	raw, _ := io.ReadAll(resp.Body)
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("%s %s: invalid JSON %q: %v", method, target, raw, err)
	}
	return resp.StatusCode, env
}

func withUser(c fiber.Ctx) error {
	c.Locals("user", &models.User{Name: "Ana", Email: "ana@agency.example"})
	return c.Next()
}

type fakeResolver struct {
	page   *models.ApprovalPageResponse
	err    error
	gotIn  approval.ResolveInput
	gotTok string
}

func (f *fakeResolver) Lookup(_ context.Context, token string) (*models.ApprovalPageResponse, error) {
	f.gotTok = token
	return f.page, f.err
}

func (f *fakeResolver) Resolve(_ context.Context, in approval.ResolveInput) (*models.ApprovalPageResponse, error) {
	f.gotIn = in
	return f.page, f.err
}

func TestApprovalHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"not found", db.ErrApprovalLinkNotFound, http.StatusNotFound, CodeNotFound},
		{"expired", db.ErrApprovalLinkExpired, http.StatusGone, CodeExpired},
		{"already used", db.ErrApprovalLinkAlreadyUsed, http.StatusConflict, CodeAlreadyUsed},
		{"validation", validation.Errorf("comentario", "a comment is required"), http.StatusUnprocessableEntity, CodeValidation},
		{"store failure", errors.New("connection reset"), http.StatusInternalServerError, CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewApprovalHandler(&fakeResolver{err: tt.err})
			app := fiber.New()
			app.Post("/api/aprovacao", h.Resolve)

			code, env := doJSON(t, app, http.MethodPost, "/api/aprovacao", `{"token":"x","status":"aprovado"}`)
			if code != tt.wantStatus || env.Code != tt.wantCode || env.Status != "error" {
				t.Errorf("got %d %+v, want %d %s", code, env, tt.wantStatus, tt.wantCode)
			}
		})
	}
}

func TestApprovalHandler_ResolveWireBody(t *testing.T) {
	fr := &fakeResolver{page: &models.ApprovalPageResponse{LinkStatus: models.WireChangesRequested, Comment: "trocar a cor"}}
	h := NewApprovalHandler(fr)
	app := fiber.New()
	app.Post("/api/aprovacao", h.Resolve)

	code, env := doJSON(t, app, http.MethodPost, "/api/aprovacao",
		`{"token":"abc","status":"ajuste","comentario":"trocar a cor","cliente_nome":"Joana"}`)
	if code != http.StatusOK || env.Status != "ok" {
		t.Fatalf("got %d %+v", code, env)
	}
	want := approval.ResolveInput{Token: "abc", Decision: "ajuste", Comment: "trocar a cor", DisplayName: "Joana"}
	if fr.gotIn != want {
		t.Errorf("ResolveInput = %+v, want %+v", fr.gotIn, want)
	}

	var page models.ApprovalPageResponse
	if err := json.Unmarshal(env.Data, &page); err != nil {
		t.Fatal(err)
	}
	if page.LinkStatus != "ajuste" || page.Comment != "trocar a cor" {
		t.Errorf("page = %+v", page)
	}

	code, env = doJSON(t, app, http.MethodPost, "/api/aprovacao", `{not json`)
	if code != http.StatusBadRequest || env.Code != CodeBadRequest {
		t.Errorf("malformed body: got %d %+v", code, env)
	}
}

func TestApprovalHandler_Lookup(t *testing.T) {
	fr := &fakeResolver{page: &models.ApprovalPageResponse{LinkStatus: models.WirePending}}
	app := fiber.New()
	app.Get("/api/aprovacao", NewApprovalHandler(fr).Lookup)

	code, _ := doJSON(t, app, http.MethodGet, "/api/aprovacao?token=abcDEF123", "")
	if code != http.StatusOK || fr.gotTok != "abcDEF123" {
		t.Errorf("got %d, token %q", code, fr.gotTok)
	}
}

type fakeBoardStore struct {
	requests  []models.Request
	contents  []models.Content
	gotClient *uuid.UUID
}

func (f *fakeBoardStore) ListRequests(_ context.Context, clientID *uuid.UUID, _ bool) ([]models.Request, error) {
	f.gotClient = clientID
	return f.requests, nil
}

func (f *fakeBoardStore) ListContents(context.Context, models.ContentFilter) ([]models.Content, error) {
	return f.contents, nil
}

type fakeMover struct {
	res       *workflow.Result
	err       error
	gotActor  string
	gotTarget string
}

func (f *fakeMover) MoveItem(_ context.Context, _, target, actor string) (*workflow.Result, error) {
	f.gotActor, f.gotTarget = actor, target
	return f.res, f.err
}

func TestBoardHandler_Get(t *testing.T) {
	client := uuid.New()
	store := &fakeBoardStore{
		requests: []models.Request{{ID: uuid.New(), ClientID: client, Title: "Nova campanha", Status: models.RequestNew, CreatedAt: time.Now()}},
		contents: []models.Content{{ID: uuid.New(), ClientID: client, Title: "Post Natal", Status: "ajuste", CreatedAt: time.Now()}},
	}
	app := fiber.New()
	app.Get("/api/board", NewBoardHandler(store, &fakeMover{}, status.NewRegistry(nil)).Get)

	code, env := doJSON(t, app, http.MethodGet, "/api/board?client_id="+client.String()+"&from=2020-01-01", "")
	if code != http.StatusOK {
		t.Fatalf("got %d %+v", code, env)
	}
	if store.gotClient == nil || *store.gotClient != client {
		t.Errorf("client filter not passed to store: %v", store.gotClient)
	}

	var data struct {
		Columns []board.Column `json:"columns"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatal(err)
	}
	if len(data.Columns) != 8 || data.Columns[0].Key != status.Inbox || len(data.Columns[0].Items) != 1 {
		t.Fatalf("columns = %+v", data.Columns)
	}
	for _, col := range data.Columns {
		if col.Key == status.NeedsChanges && len(col.Items) != 1 {
			t.Errorf("legacy status not normalized onto needs_changes: %+v", col)
		}
	}
}

func TestBoardHandler_GetInvalidFilter(t *testing.T) {
	app := fiber.New()
	app.Get("/api/board", NewBoardHandler(&fakeBoardStore{}, &fakeMover{}, status.NewRegistry(nil)).Get)

	for _, q := range []string{"client_id=nope", "from=yesterday", "assignee_id=1"} {
		code, env := doJSON(t, app, http.MethodGet, "/api/board?"+q, "")
		if code != http.StatusUnprocessableEntity || env.Code != CodeValidation {
			t.Errorf("?%s: got %d %+v, want 422", q, code, env)
		}
	}
}

func TestBoardHandler_Move(t *testing.T) {
	mover := &fakeMover{res: &workflow.Result{Kind: board.KindContent, Changed: true}}
	app := fiber.New()
	app.Post("/api/board/move", withUser, NewBoardHandler(&fakeBoardStore{}, mover, status.NewRegistry(nil)).Move)

	code, _ := doJSON(t, app, http.MethodPost, "/api/board/move", `{"item_id":"content:`+uuid.NewString()+`","target":"review"}`)
	if code != http.StatusOK || mover.gotActor != "Ana" || mover.gotTarget != "review" {
		t.Errorf("got %d, actor %q, target %q", code, mover.gotActor, mover.gotTarget)
	}

	code, env := doJSON(t, app, http.MethodPost, "/api/board/move", `{"target":"review"}`)
	if code != http.StatusUnprocessableEntity || env.Field != "item_id" {
		t.Errorf("missing item_id: got %d %+v", code, env)
	}

	mover.err = db.ErrRequestAlreadyProcessed
	code, env = doJSON(t, app, http.MethodPost, "/api/board/move", `{"item_id":"request:`+uuid.NewString()+`","target":"review"}`)
	if code != http.StatusConflict || env.Code != CodeAlreadyProcessed {
		t.Errorf("already processed: got %d %+v", code, env)
	}
}

type fakeRequestStore struct {
	created *models.Request
}

func (f *fakeRequestStore) CreateRequest(_ context.Context, r *models.Request) error {
	r.ID = uuid.New()
	r.Status = models.RequestNew
	f.created = r
	return nil
}

func (f *fakeRequestStore) GetRequestByID(context.Context, uuid.UUID) (*models.Request, error) {
	return nil, db.ErrRequestNotFound
}

func (f *fakeRequestStore) ListRequests(context.Context, *uuid.UUID, bool) ([]models.Request, error) {
	return []models.Request{}, nil
}

func (f *fakeRequestStore) UpdateRequestStatus(context.Context, uuid.UUID, string) error {
	return nil
}

type fakeAccepter struct {
	content *models.Content
}

func (f *fakeAccepter) AcceptRequest(context.Context, uuid.UUID, string) (*models.Content, error) {
	return f.content, nil
}

func TestRequestHandler(t *testing.T) {
	store := &fakeRequestStore{}
	content := &models.Content{ID: uuid.New(), Status: status.Production}
	h := NewRequestHandler(store, &fakeAccepter{content: content})
	app := fiber.New()
	app.Post("/api/requests", h.Create)
	app.Get("/api/requests/:id", h.Get)
	app.Patch("/api/requests/:id/status", h.UpdateStatus)
	app.Post("/api/requests/:id/accept", withUser, h.Accept)

	client := uuid.NewString()
	code, env := doJSON(t, app, http.MethodPost, "/api/requests", `{"client_id":"`+client+`","title":"  Reels de verão "}`)
	if code != http.StatusCreated || store.created == nil || store.created.Title != "Reels de verão" || store.created.Priority != models.PriorityNormal {
		t.Errorf("create: got %d %+v, stored %+v", code, env, store.created)
	}

	code, env = doJSON(t, app, http.MethodPost, "/api/requests", `{"client_id":"`+client+`","title":"x","priority":"asap"}`)
	if code != http.StatusUnprocessableEntity || env.Field != "priority" {
		t.Errorf("bad priority: got %d %+v", code, env)
	}

	code, env = doJSON(t, app, http.MethodPatch, "/api/requests/"+uuid.NewString()+"/status", `{"status":"converted"}`)
	if code != http.StatusUnprocessableEntity || env.Field != "status" {
		t.Errorf("converted via patch: got %d %+v", code, env)
	}

	code, _ = doJSON(t, app, http.MethodGet, "/api/requests/"+uuid.NewString(), "")
	if code != http.StatusNotFound {
		t.Errorf("get unknown: got %d, want 404", code)
	}

	code, env = doJSON(t, app, http.MethodPost, "/api/requests/"+uuid.NewString()+"/accept", "")
	if code != http.StatusOK {
		t.Fatalf("accept: got %d %+v", code, env)
	}
	var got models.Content
	if err := json.Unmarshal(env.Data, &got); err != nil || got.ID != content.ID {
		t.Errorf("accept returned %+v (%v)", got, err)
	}
}
