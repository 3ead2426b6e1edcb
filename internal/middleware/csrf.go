package middleware

import (
	"errors"

	"articles/internal/session"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// CSRFHeader carries the XSRF-TOKEN cookie value back on state-changing requests.
const CSRFHeader = "X-XSRF-TOKEN"

// StatusCSRFMismatch is the status returned for a failed anti-forgery check.
const StatusCSRFMismatch = 419

// CSRFProtect rejects state-changing requests that present a live session
// cookie without the session's anti-forgery token in CSRFHeader. Requests
// without a session cookie, or whose session has expired, pass through.
func CSRFProtect(sessions *session.Manager, logger *zap.SugaredLogger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		switch c.Method() {
		case fiber.MethodGet, fiber.MethodHead, fiber.MethodOptions:
			return c.Next()
		}

		id := c.Cookies(sessions.CookieName())
		if id == "" {
			return c.Next()
		}

		err := sessions.VerifyCSRF(c.UserContext(), id, c.Get(CSRFHeader))
		switch {
		case err == nil, errors.Is(err, session.ErrNotFound):
			return c.Next()
		case errors.Is(err, session.ErrCSRFMismatch):
			return c.Status(StatusCSRFMismatch).JSON(fiber.Map{
				"message": "CSRF token mismatch.",
			})
		default:
			logger.Errorw("failed to verify csrf token", "path", c.Path(), "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"message": "Server error.",
			})
		}
	}
}
