package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"articles/internal/models"
	"articles/internal/shared"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

var errMalformedBody = errors.New("malformed request body")

type authorResource struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type articleResource struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	Body      string          `json:"body"`
	Published bool            `json:"published"`
	MinToRead int             `json:"min-to-read"`
	Author    *authorResource `json:"author"`
}

func newArticleResource(a *models.Article) articleResource {
	res := articleResource{
		ID:        a.ID,
		Title:     a.Title,
		Body:      a.Body,
		Published: a.Published,
		MinToRead: a.MinToRead,
	}
	if a.Author != nil {
		res.Author = &authorResource{ID: a.Author.ID, Name: a.Author.Name}
	}
	return res
}

type userResource struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func newUserResource(u *models.User) userResource {
	return userResource{ID: u.ID, Name: u.Name, Email: u.Email}
}

type paginationLinks struct {
	First string  `json:"first"`
	Last  string  `json:"last"`
	Prev  *string `json:"prev"`
	Next  *string `json:"next"`
}

type paginationMeta struct {
	CurrentPage int    `json:"current_page"`
	From        int    `json:"from"`
	To          int    `json:"to"`
	LastPage    int    `json:"last_page"`
	PerPage     int    `json:"per_page"`
	Total       int    `json:"total"`
	Path        string `json:"path"`
}

type collection struct {
	Data  any             `json:"data"`
	Links paginationLinks `json:"links"`
	Meta  paginationMeta  `json:"meta"`
}

func newCollection(c *fiber.Ctx, data any, count int, p shared.Pagination) collection {
	path := c.BaseURL() + c.Path()
	pageURL := func(n int) string { return fmt.Sprintf("%s?page=%d", path, n) }

	links := paginationLinks{First: pageURL(1), Last: pageURL(p.TotalPages)}
	if p.Page > 1 {
		prev := pageURL(min(p.Page-1, p.TotalPages))
		links.Prev = &prev
	}
	if p.Page < p.TotalPages {
		next := pageURL(p.Page + 1)
		links.Next = &next
	}

	return collection{
		Data:  data,
		Links: links,
		Meta: paginationMeta{
			CurrentPage: p.Page,
			From:        p.From(count),
			To:          p.To(count),
			LastPage:    p.TotalPages,
			PerPage:     p.PerPage,
			Total:       p.Total,
			Path:        path,
		},
	}
}

// parseBody decodes the JSON body into out. An empty body leaves out
// untouched, so it reads as "no fields supplied". A value of the wrong JSON
// type is reported as a validation failure on that field.
func parseBody(c *fiber.Ctx, out any) error {
	if len(bytes.TrimSpace(c.Body())) == 0 {
		return nil
	}
	err := c.BodyParser(out)
	if err == nil {
		return nil
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		verr := shared.NewValidationError()
		verr.Add(typeErr.Field, typeMessage(typeErr.Field, typeErr.Type))
		return verr
	}
	return fmt.Errorf("%w: %v", errMalformedBody, err)
}

func typeMessage(field string, t reflect.Type) string {
	label := strings.ReplaceAll(field, "_", " ")
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return fmt.Sprintf("The %s field must be a number.", label)
	case reflect.Bool:
		return fmt.Sprintf("The %s field must be true or false.", label)
	case reflect.String:
		return fmt.Sprintf("The %s field must be a string.", label)
	default:
		return fmt.Sprintf("The %s field is invalid.", label)
	}
}

// respondError is the single place where domain errors become HTTP statuses.
func respondError(c *fiber.Ctx, logger *zap.SugaredLogger, err error) error {
	var verr *shared.ValidationError
	switch {
	case errors.As(err, &verr):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"message": "The given data was invalid.",
			"errors":  verr.Fields,
		})
	case errors.Is(err, errMalformedBody):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body.",
		})
	case errors.Is(err, shared.ErrInvalidCredentials):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"state":   "error",
			"message": "Invalid credentials",
		})
	case errors.Is(err, shared.ErrUnauthenticated):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "Unauthenticated.",
		})
	case errors.Is(err, shared.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"message": "This action is unauthorized.",
		})
	case errors.Is(err, shared.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": "Not found.",
		})
	default:
		logger.Errorw("request failed", "method", c.Method(), "path", c.Path(), "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Server error.",
		})
	}
}
