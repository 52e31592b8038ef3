package handlers

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/session"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	"contentboard/internal/config"
	"contentboard/internal/models"
)

// UserUpserter records users on login.
type UserUpserter interface {
	UpsertUser(ctx context.Context, user *models.User) error
}

// AuthHandler handles OIDC authentication flows for the dashboard team.
type AuthHandler struct {
	provider     *oidc.Provider
	oauth2Config oauth2.Config
	verifier     *oidc.IDTokenVerifier
	users        UserUpserter
	cfg          *config.Config
}

// NewAuthHandler creates a new auth handler with OIDC configuration.
func NewAuthHandler(ctx context.Context, cfg *config.Config, users UserUpserter) (*AuthHandler, error) {
	provider, err := oidc.NewProvider(ctx, cfg.OIDCIssuer)
	if err != nil {
		return nil, err
	}

	oauth2Config := oauth2.Config{
		ClientID:     cfg.OIDCClientID,
		ClientSecret: cfg.OIDCClientSecret,
		RedirectURL:  cfg.OIDCRedirectURL,
		Endpoint:     provider.Endpoint(),
		Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
	}

	return &AuthHandler{
		provider:     provider,
		oauth2Config: oauth2Config,
		verifier:     provider.Verifier(&oidc.Config{ClientID: cfg.OIDCClientID}),
		users:        users,
		cfg:          cfg,
	}, nil
}

// Login initiates the OIDC login flow.
func (h *AuthHandler) Login(c fiber.Ctx) error {
	state, err := generateState()
	if err != nil {
		return err
	}

	sess := session.FromContext(c)
	if sess == nil {
		return fiber.NewError(fiber.StatusInternalServerError, "session not available")
	}
	sess.Set("oauth_state", state)

	return c.Redirect().To(h.oauth2Config.AuthCodeURL(state))
}

// Callback handles the OIDC callback after authentication.
func (h *AuthHandler) Callback(c fiber.Ctx) error {
	sess := session.FromContext(c)
	if sess == nil {
		return fiber.NewError(fiber.StatusInternalServerError, "session not available")
	}

	savedState, _ := sess.Get("oauth_state").(string)
	if savedState == "" || savedState != c.Query("state") {
		return fiber.NewError(fiber.StatusBadRequest, "invalid state")
	}
	sess.Delete("oauth_state")

	oauth2Token, err := h.oauth2Config.Exchange(c.Context(), c.Query("code"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "failed to exchange code")
	}

	rawIDToken, ok := oauth2Token.Extra("id_token").(string)
	if !ok {
		return fiber.NewError(fiber.StatusBadRequest, "missing id_token")
	}

	idToken, err := h.verifier.Verify(c.Context(), rawIDToken)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id_token")
	}

	claims := make(map[string]any)
	if err := idToken.Claims(&claims); err != nil {
		return err
	}

	// Some providers only put email and name on the userinfo endpoint.
	userInfo, err := h.provider.UserInfo(c.Context(), oauth2.StaticTokenSource(oauth2Token))
	if err == nil {
		var extra map[string]any
		if err := userInfo.Claims(&extra); err == nil {
			for k, v := range extra {
				claims[k] = v
			}
		}
	} else {
		log.Warn().Err(err).Msg("failed to fetch userinfo")
	}

	user := userFromClaims(claims)
	if user.Sub == "" {
		return fiber.NewError(fiber.StatusBadRequest, "missing subject claim")
	}
	if err := h.users.UpsertUser(c.Context(), user); err != nil {
		return err
	}
	log.Info().Str("user_id", user.ID.String()).Str("email", user.Email).Msg("user logged in")

	sess.Set("user_sub", user.Sub)

	redirectURL := "/"
	if saved, ok := sess.Get("redirect_after_login").(string); ok && strings.HasPrefix(saved, "/") && !strings.HasPrefix(saved, "//") {
		redirectURL = saved
	}
	sess.Delete("redirect_after_login")

	return c.Redirect().To(redirectURL)
}

// Logout clears the user session.
func (h *AuthHandler) Logout(c fiber.Ctx) error {
	if sess := session.FromContext(c); sess != nil {
		sess.Destroy()
	}
	return c.Redirect().To("/")
}

func userFromClaims(claims map[string]any) *models.User {
	sub, _ := claims["sub"].(string)
	email, _ := claims["email"].(string)
	name, _ := claims["name"].(string)
	picture, _ := claims["picture"].(string)
	return &models.User{Sub: sub, Email: email, Name: name, Picture: picture}
}

func generateState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
