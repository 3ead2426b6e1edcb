package handlers

import (
	"time"

	"articles/internal/middleware"
	"articles/internal/services"
	"articles/internal/session"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// CSRFCookie carries the anti-forgery token issued with each session.
const CSRFCookie = "XSRF-TOKEN"

// AuthHandler handles HTTP requests for authentication.
type AuthHandler struct {
	authService   *services.AuthService
	sessions      *session.Manager
	secureCookies bool
	logger        *zap.SugaredLogger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService, sessions *session.Manager, secureCookies bool, logger *zap.SugaredLogger) *AuthHandler {
	return &AuthHandler{
		authService:   authService,
		sessions:      sessions,
		secureCookies: secureCookies,
		logger:        logger,
	}
}

// RegisterRoutes registers the authentication routes. limiter guards the
// credential endpoints; auth guards logout.
func (h *AuthHandler) RegisterRoutes(router fiber.Router, auth, limiter fiber.Handler) {
	router.Post("/register", limiter, h.HandleRegister)
	router.Post("/login", limiter, h.HandleLogin)
	router.Post("/logout", auth, h.HandleLogout)
}

// HandleRegister handles new user registration.
func (h *AuthHandler) HandleRegister(c *fiber.Ctx) error {
	var in services.RegisterInput
	if err := parseBody(c, &in); err != nil {
		return respondError(c, h.logger, err)
	}

	user, err := h.authService.Register(c.UserContext(), in)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	h.logger.Infow("user registered", "user_id", user.ID)
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"data": newUserResource(user),
	})
}

// HandleLogin checks credentials, issues a bearer token and starts a fresh
// server-side session.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	var in services.LoginInput
	if err := parseBody(c, &in); err != nil {
		return respondError(c, h.logger, err)
	}

	token, user, err := h.authService.Login(c.UserContext(), in)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	sess, err := h.sessions.Start(c.UserContext(), c.Cookies(h.sessions.CookieName()), user.ID)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	h.setSessionCookies(c, sess)

	return c.JSON(fiber.Map{
		"state": "success",
		"token": token,
	})
}

// HandleLogout revokes the presenting token, then invalidates the session
// and issues a new session identifier and anti-forgery token.
func (h *AuthHandler) HandleLogout(c *fiber.Ctx) error {
	if err := h.authService.Logout(c.UserContext(), middleware.CurrentTokenID(c)); err != nil {
		return respondError(c, h.logger, err)
	}

	sess, err := h.sessions.Rotate(c.UserContext(), c.Cookies(h.sessions.CookieName()))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	h.setSessionCookies(c, sess)

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *AuthHandler) setSessionCookies(c *fiber.Ctx, sess *session.Session) {
	expires := time.Now().Add(h.sessions.TTL())
	c.Cookie(&fiber.Cookie{
		Name:     h.sessions.CookieName(),
		Value:    sess.ID,
		Path:     "/",
		Expires:  expires,
		HTTPOnly: true,
		Secure:   h.secureCookies,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	c.Cookie(&fiber.Cookie{
		Name:     CSRFCookie,
		Value:    sess.CSRFToken,
		Path:     "/",
		Expires:  expires,
		Secure:   h.secureCookies,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}
