package middleware

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/session"

	"contentboard/internal/models"
)

// UserLoader resolves a session subject to a user.
type UserLoader interface {
	GetUserBySub(ctx context.Context, sub string) (*models.User, error)
}

// AuthMiddleware handles dashboard authentication via sessions.
type AuthMiddleware struct {
	users   UserLoader
	devUser *models.User
}

// NewAuthMiddleware creates a new auth middleware instance.
func NewAuthMiddleware(users UserLoader) *AuthMiddleware {
	return &AuthMiddleware{users: users}
}

// NewDevAuthMiddleware authenticates every request as user. Only used in
// development when OIDC is not configured.
func NewDevAuthMiddleware(user *models.User) *AuthMiddleware {
	return &AuthMiddleware{devUser: user}
}

// RequireAuth ensures the user is authenticated. API calls get a JSON 401,
// page loads are redirected to the login flow.
func (m *AuthMiddleware) RequireAuth(c fiber.Ctx) error {
	if m.devUser != nil {
		c.Locals("user", m.devUser)
		return c.Next()
	}

	user := m.loadUser(c)
	if user == nil {
		return unauthorized(c)
	}

	c.Locals("user", user)
	return c.Next()
}

func (m *AuthMiddleware) loadUser(c fiber.Ctx) *models.User {
	sess := session.FromContext(c)
	if sess == nil {
		return nil
	}

	sub, ok := sess.Get("user_sub").(string)
	if !ok || sub == "" {
		return nil
	}

	user, err := m.users.GetUserBySub(c.Context(), sub)
	if err != nil {
		sess.Destroy()
		return nil
	}
	return user
}

func unauthorized(c fiber.Ctx) error {
	if strings.HasPrefix(c.Path(), "/api/") {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"status": "error",
			"code":   "unauthorized",
			"error":  "authentication required",
		})
	}
	if sess := session.FromContext(c); sess != nil {
		sess.Set("redirect_after_login", c.OriginalURL())
	}
	return c.Redirect().To("/auth/login")
}
