package server

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"contentboard/internal/approval"
	"contentboard/internal/db"
	"contentboard/internal/handlers"
	"contentboard/internal/handlers/api"
	"contentboard/internal/middleware"
	"contentboard/internal/models"
	"contentboard/internal/status"
	"contentboard/internal/workflow"
)

// Deps are the services the routes are wired to.
type Deps struct {
	DB        *db.DB
	Engine    *workflow.Engine
	Approvals *approval.Service
	Registry  *status.Registry
}

// RegisterRoutes registers all application routes.
func (s *Server) RegisterRoutes(ctx context.Context, deps Deps) error {
	auth, err := s.authMiddleware(ctx, deps.DB)
	if err != nil {
		return err
	}

	boardHandler := api.NewBoardHandler(deps.DB, deps.Engine, deps.Registry)
	requestHandler := api.NewRequestHandler(deps.DB, deps.Engine)
	contentHandler := api.NewContentHandler(deps.DB, deps.Approvals)
	approvalHandler := api.NewApprovalHandler(deps.Approvals)
	metaHandler := api.NewMetaHandler(deps.DB, deps.Registry)
	healthHandler := api.NewHealthHandler(deps.DB)

	s.App.Get("/healthz", healthHandler.Check)
	s.App.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Public approval page API, no account required
	limit := s.PublicLimiter()
	s.App.Get("/api/aprovacao", limit, approvalHandler.Lookup)
	s.App.Post("/api/aprovacao", limit, approvalHandler.Resolve)

	// Dashboard API. Auth is attached per route so it never covers the public paths.
	dash := s.App.Group("/api")
	require := auth.RequireAuth
	dash.Get("/statuses", require, metaHandler.Statuses)
	dash.Get("/clients", require, metaHandler.Clients)
	dash.Get("/users", require, metaHandler.Users)

	dash.Get("/board", require, boardHandler.Get)
	dash.Post("/board/move", require, boardHandler.Move)

	dash.Get("/requests", require, requestHandler.List)
	dash.Post("/requests", require, requestHandler.Create)
	dash.Get("/requests/:id", require, requestHandler.Get)
	dash.Patch("/requests/:id/status", require, requestHandler.UpdateStatus)
	dash.Post("/requests/:id/accept", require, requestHandler.Accept)

	dash.Get("/contents", require, contentHandler.List)
	dash.Post("/contents", require, contentHandler.Create)
	dash.Get("/contents/:id", require, contentHandler.Get)
	dash.Put("/contents/:id", require, contentHandler.Update)
	dash.Delete("/contents/:id", require, contentHandler.Delete)
	dash.Put("/contents/:id/position", require, contentHandler.UpdatePosition)
	dash.Get("/contents/:id/history", require, contentHandler.History)
	dash.Post("/contents/:id/approval-links", require, contentHandler.IssueLink)

	return nil
}

// authMiddleware wires OIDC login when configured. Development without OIDC
// runs every dashboard call as a local user.
func (s *Server) authMiddleware(ctx context.Context, database *db.DB) (*middleware.AuthMiddleware, error) {
	if s.Cfg.IsOIDCEnabled() {
		authHandler, err := handlers.NewAuthHandler(ctx, s.Cfg, database)
		if err != nil {
			return nil, err
		}
		s.App.Get("/auth/login", authHandler.Login)
		s.App.Get("/auth/callback", authHandler.Callback)
		s.App.Get("/auth/logout", authHandler.Logout)
		return middleware.NewAuthMiddleware(database), nil
	}

	if !s.Cfg.IsDev() {
		return nil, errors.New("OIDC_ISSUER and OIDC_CLIENT_ID are required outside development")
	}

	dev := &models.User{Sub: "dev", Email: "dev@localhost", Name: "Developer"}
	if err := database.UpsertUser(ctx, dev); err != nil {
		return nil, err
	}
	log.Warn().Msg("OIDC disabled: dashboard requests run as the development user")
	return middleware.NewDevAuthMiddleware(dev), nil
}
