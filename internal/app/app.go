// Package app assembles the HTTP application from its dependencies.
package app

import (
	"errors"
	"time"

	"articles/internal/config"
	"articles/internal/handlers"
	"articles/internal/middleware"
	"articles/internal/repositories"
	"articles/internal/services"
	"articles/internal/session"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Deps are the collaborators the application is built from.
type Deps struct {
	Config    *config.Config
	DB        *gorm.DB
	Sessions  *session.Manager
	Publisher services.EventPublisher // nil disables article events
	Logger    *zap.SugaredLogger

	// HashCost overrides the bcrypt cost; zero keeps the default.
	HashCost int
	// DisableRequestLog turns off the per-request access log.
	DisableRequestLog bool
}

// Server is the fiber application plus the services background jobs need.
type Server struct {
	*fiber.App
	Auth *services.AuthService
}

// New wires repositories, services, handlers and middleware into a Server.
func New(deps Deps) *Server {
	cfg := deps.Config
	log := deps.Logger
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	userRepo := repositories.NewGORMUserRepository(deps.DB)
	articleRepo := repositories.NewGORMArticleRepository(deps.DB)
	tokenRepo := repositories.NewGORMTokenRepository(deps.DB)

	authService := services.NewAuthService(userRepo, tokenRepo, cfg.JWTSecret, cfg.TokenTTL)
	if deps.HashCost > 0 {
		authService.WithHashCost(deps.HashCost)
	}
	articleService := services.NewArticleService(articleRepo, deps.Publisher, log)
	userService := services.NewUserService(userRepo)

	authHandler := handlers.NewAuthHandler(authService, deps.Sessions, cfg.IsProduction(), log)
	articleHandler := handlers.NewArticleHandler(articleService, log)
	userHandler := handlers.NewUserHandler(userService, log)

	app := fiber.New(fiber.Config{
		AppName:      "articles",
		ErrorHandler: errorHandler(log),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	})

	app.Use(requestid.New())
	app.Use(recover.New())
	if !deps.DisableRequestLog {
		app.Use(logger.New(logger.Config{
			Format: "${time} ${locals:requestid} ${status} ${method} ${path} ${latency}\n",
		}))
	}
	app.Use(middleware.SecureHeaders(cfg.IsProduction()))
	app.Use(middleware.CSRFProtect(deps.Sessions, log))

	app.Get("/health", func(c *fiber.Ctx) error {
		status := "healthy"
		code := fiber.StatusOK
		if sqlDB, err := deps.DB.DB(); err != nil || sqlDB.PingContext(c.UserContext()) != nil {
			status = "degraded"
			code = fiber.StatusServiceUnavailable
		}
		return c.Status(code).JSON(fiber.Map{
			"status": status,
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	auth := middleware.AuthRequired(authService, log)
	limiter := middleware.RateLimit(cfg.LoginRateLimit, time.Minute)

	apiV1 := app.Group("/v1")
	authHandler.RegisterRoutes(apiV1, auth, limiter)
	articleHandler.RegisterRoutes(apiV1, auth)
	userHandler.RegisterRoutes(apiV1, auth)

	return &Server{App: app, Auth: authService}
}

// errorHandler renders errors that escape the handlers, such as unknown
// routes and recovered panics.
func errorHandler(log *zap.SugaredLogger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := "Server error."

		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
			message = fe.Message
			if code == fiber.StatusNotFound {
				message = "Not found."
			}
		}
		if code >= fiber.StatusInternalServerError {
			log.Errorw("unhandled error", "method", c.Method(), "path", c.Path(), "error", err)
		}
		return c.Status(code).JSON(fiber.Map{"message": message})
	}
}
