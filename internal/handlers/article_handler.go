package handlers

import (
	"articles/internal/middleware"
	"articles/internal/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ArticleHandler handles HTTP requests for articles.
type ArticleHandler struct {
	service *services.ArticleService
	logger  *zap.SugaredLogger
}

// NewArticleHandler creates a new ArticleHandler.
func NewArticleHandler(service *services.ArticleService, logger *zap.SugaredLogger) *ArticleHandler {
	return &ArticleHandler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes registers the article routes behind auth.
func (h *ArticleHandler) RegisterRoutes(router fiber.Router, auth fiber.Handler) {
	articleRoutes := router.Group("/articles", auth)
	articleRoutes.Get("/", h.HandleList)
	articleRoutes.Post("/", h.HandleCreate)
	articleRoutes.Get("/:id", h.HandleGet)
	articleRoutes.Put("/:id", h.HandleReplace)
	articleRoutes.Patch("/:id", h.HandlePatch)
	articleRoutes.Delete("/:id", h.HandleDelete)
}

// HandleList returns one page of published articles.
func (h *ArticleHandler) HandleList(c *fiber.Ctx) error {
	page, err := h.service.ListPublished(c.UserContext(), c.QueryInt("page", 1))
	if err != nil {
		return respondError(c, h.logger, err)
	}

	data := make([]articleResource, 0, len(page.Items))
	for i := range page.Items {
		data = append(data, newArticleResource(&page.Items[i]))
	}
	return c.JSON(newCollection(c, data, len(data), page.Pagination))
}

// HandleCreate stores a new article owned by the caller.
func (h *ArticleHandler) HandleCreate(c *fiber.Ctx) error {
	var in services.ArticleInput
	if err := parseBody(c, &in); err != nil {
		return respondError(c, h.logger, err)
	}

	article, err := h.service.Create(c.UserContext(), middleware.CurrentUser(c), in)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"data": newArticleResource(article),
	})
}

// HandleGet returns one article if the caller may view it.
func (h *ArticleHandler) HandleGet(c *fiber.Ctx) error {
	article, err := h.service.Get(c.UserContext(), middleware.CurrentUser(c), c.Params("id"))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(fiber.Map{
		"data": newArticleResource(article),
	})
}

// HandleReplace serves PUT: title and body must be supplied.
func (h *ArticleHandler) HandleReplace(c *fiber.Ctx) error {
	return h.update(c, false)
}

// HandlePatch serves PATCH: only supplied fields change.
func (h *ArticleHandler) HandlePatch(c *fiber.Ctx) error {
	return h.update(c, true)
}

func (h *ArticleHandler) update(c *fiber.Ctx, partial bool) error {
	var in services.ArticleInput
	if err := parseBody(c, &in); err != nil {
		return respondError(c, h.logger, err)
	}

	article, err := h.service.Update(c.UserContext(), middleware.CurrentUser(c), c.Params("id"), in, partial)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(fiber.Map{
		"data": newArticleResource(article),
	})
}

// HandleDelete removes an article owned by the caller.
func (h *ArticleHandler) HandleDelete(c *fiber.Ctx) error {
	if err := h.service.Delete(c.UserContext(), middleware.CurrentUser(c), c.Params("id")); err != nil {
		return respondError(c, h.logger, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
