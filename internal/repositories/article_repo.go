package repositories

import (
	"context"

	"articles/internal/models"
)

// ArticleFilter narrows List results.
type ArticleFilter struct {
	PublishedOnly bool
	UserID        string
}

// ArticleRepository defines the interface for article data access.
type ArticleRepository interface {
	List(ctx context.Context, filter ArticleFilter, offset, limit int) ([]models.Article, int64, error)
	GetByID(ctx context.Context, id string) (*models.Article, error)
	Create(ctx context.Context, article *models.Article) error
	Update(ctx context.Context, article *models.Article) error
	Delete(ctx context.Context, id string) error
}
