package auth

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/errand-service/internal/domain"
	apperrors "github.com/spec-kit/errand-service/pkg/util"
)

// RequireOwner ensures the authenticated user owns the account named by
// the route parameter param. It must run after AuthMiddleware.Handle.
func RequireOwner(guard *Guard, param string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, ok := UserFromContext(c)
		if !ok {
			return domain.ErrUnauthenticated
		}

		ownerID, err := strconv.ParseInt(c.Params(param), 10, 64)
		if err != nil {
			return apperrors.NewValidationError("invalid "+param, map[string]any{param: c.Params(param)})
		}

		if err := guard.AuthorizeOwner(user, ownerID); err != nil {
			return err
		}
		return c.Next()
	}
}
