package handlers

import (
	"articles/internal/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// UserHandler serves read-only user profiles.
type UserHandler struct {
	service *services.UserService
	logger  *zap.SugaredLogger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(service *services.UserService, logger *zap.SugaredLogger) *UserHandler {
	return &UserHandler{service: service, logger: logger}
}

// RegisterRoutes registers the user routes behind auth.
func (h *UserHandler) RegisterRoutes(router fiber.Router, auth fiber.Handler) {
	userRoutes := router.Group("/users", auth)
	userRoutes.Get("/", h.HandleList)
	userRoutes.Get("/:id", h.HandleGet)
}

func (h *UserHandler) HandleList(c *fiber.Ctx) error {
	page, err := h.service.List(c.UserContext(), c.QueryInt("page", 1))
	if err != nil {
		return respondError(c, h.logger, err)
	}

	data := make([]userResource, 0, len(page.Items))
	for i := range page.Items {
		data = append(data, newUserResource(&page.Items[i]))
	}
	return c.JSON(newCollection(c, data, len(data), page.Pagination))
}

func (h *UserHandler) HandleGet(c *fiber.Ctx) error {
	user, err := h.service.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(fiber.Map{
		"data": newUserResource(user),
	})
}
