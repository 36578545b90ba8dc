package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/errand-service/internal/domain"
	apperrors "github.com/spec-kit/errand-service/pkg/util"
)

const (
	principalKey = "auth_principal"

	// TokenQueryParam is accepted when no Authorization header is sent.
	TokenQueryParam = "token"
)

// AuthMiddleware validates bearer tokens and loads the calling user.
type AuthMiddleware struct {
	guard *Guard
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(guard *Guard) *AuthMiddleware {
	return &AuthMiddleware{guard: guard}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	token, err := bearerToken(c)
	if err != nil {
		return err
	}

	user, err := m.guard.Authenticate(c.UserContext(), token)
	if err != nil {
		c.Set(fiber.HeaderWWWAuthenticate, "Bearer")
		return err
	}

	c.Locals(principalKey, user)
	return c.Next()
}

// UserFromContext retrieves the authenticated user.
func UserFromContext(c *fiber.Ctx) (*domain.User, bool) {
	user, ok := c.Locals(principalKey).(*domain.User)
	return user, ok && user != nil
}

func bearerToken(c *fiber.Ctx) (string, error) {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return c.Query(TokenQueryParam), nil
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		c.Set(fiber.HeaderWWWAuthenticate, "Bearer")
		return "", apperrors.NewUnauthorized("invalid authorization header")
	}
	return strings.TrimSpace(parts[1]), nil
}
