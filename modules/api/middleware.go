package api

import (
	"strings"

	domain "github.com/example/todo-tracker/domain/todo"
	"github.com/example/todo-tracker/domain/user"
	"github.com/example/todo-tracker/modules/auth"
	"github.com/gofiber/fiber/v2"
)

// UserContextKey is the Locals key holding the caller's *user.Claims.
const UserContextKey = "user"

// RequireAuth resolves the caller from a Bearer access token. Requests
// without a valid token are redirected to the login route and never reach
// the handler.
func RequireAuth(authPort auth.AuthPort) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := bearerToken(c.Get(fiber.HeaderAuthorization))
		if !ok {
			return redirectToLogin(c)
		}

		claims, err := authPort.ValidateToken(c.UserContext(), token)
		if err != nil || claims.UserID == "" {
			return redirectToLogin(c)
		}

		c.Locals(UserContextKey, claims)
		return c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, prefix))
	return token, token != ""
}

func redirectToLogin(c *fiber.Ctx) error {
	return c.Redirect(domain.LoginPath, fiber.StatusSeeOther)
}

// owner returns the authenticated caller's id, or "" when none is set.
func owner(c *fiber.Ctx) string {
	claims, ok := c.Locals(UserContextKey).(*user.Claims)
	if !ok || claims == nil {
		return ""
	}
	return claims.UserID
}
