package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"outfitted/internal/model"
	"outfitted/internal/service"
)

// UserLocalKey is the locals key holding the authenticated *model.User.
const UserLocalKey = "user"

// TokenAuthScheme is the keyword expected in the Authorization header.
const TokenAuthScheme = "Token"

// TokenResolver looks up the user owning an API token.
type TokenResolver interface {
	UserForToken(ctx context.Context, key string) (*model.User, error)
}

// TokenAuth requires "Authorization: Token <key>" and stores the resolved
// user under UserLocalKey. Failures are returned as 401 fiber errors.
func TokenAuth(users TokenResolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		parts := strings.Fields(c.Get(fiber.HeaderAuthorization))
		if len(parts) == 0 || !strings.EqualFold(parts[0], TokenAuthScheme) {
			return fiber.NewError(fiber.StatusUnauthorized, "authentication credentials were not provided")
		}
		switch {
		case len(parts) == 1:
			return fiber.NewError(fiber.StatusUnauthorized, "invalid token header, no credentials provided")
		case len(parts) > 2:
			return fiber.NewError(fiber.StatusUnauthorized, "invalid token header, token string should not contain spaces")
		}

		u, err := users.UserForToken(c.UserContext(), parts[1])
		switch {
		case errors.Is(err, service.ErrInvalidToken):
			return fiber.NewError(fiber.StatusUnauthorized, "invalid token")
		case errors.Is(err, service.ErrInactiveUser):
			return fiber.NewError(fiber.StatusUnauthorized, "user inactive or deleted")
		case err != nil:
			return err
		}

		c.Locals(UserLocalKey, u)
		return c.Next()
	}
}

// UserFromCtx returns the user stored by TokenAuth, or nil.
func UserFromCtx(c *fiber.Ctx) *model.User {
	u, _ := c.Locals(UserLocalKey).(*model.User)
	return u
}
