package middleware

import (
	"context"
	"errors"
	"strings"

	"articles/internal/models"
	"articles/internal/shared"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const (
	localsUser    = "auth.user"
	localsTokenID = "auth.token_id"
)

// Authenticator resolves a bearer token to its user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, string, error)
}

// AuthRequired is a Fiber middleware that resolves the bearer token before any
// handler runs. The result is stored in request locals; see CurrentUser and
// CurrentTokenID.
func AuthRequired(auth Authenticator, logger *zap.SugaredLogger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString, ok := bearerToken(c.Get(fiber.HeaderAuthorization))
		if !ok {
			return unauthenticated(c)
		}

		user, tokenID, err := auth.Authenticate(c.UserContext(), tokenString)
		if err != nil {
			if errors.Is(err, shared.ErrUnauthenticated) {
				logger.Debugw("bearer token rejected", "path", c.Path(), "reason", err)
				return unauthenticated(c)
			}
			logger.Errorw("failed to authenticate request", "path", c.Path(), "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"message": "Server error.",
			})
		}

		c.Locals(localsUser, user)
		c.Locals(localsTokenID, tokenID)
		return c.Next()
	}
}

// Expected format: "Bearer <token>"
func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

func unauthenticated(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"message": "Unauthenticated.",
	})
}

// CurrentUser returns the user resolved by AuthRequired, or nil outside an
// authenticated route.
func CurrentUser(c *fiber.Ctx) *models.User {
	user, _ := c.Locals(localsUser).(*models.User)
	return user
}

// CurrentTokenID returns the ID of the token that authenticated the request.
func CurrentTokenID(c *fiber.Ctx) string {
	id, _ := c.Locals(localsTokenID).(string)
	return id
}
