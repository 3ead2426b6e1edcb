package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"articles/internal/models"
	"articles/internal/shared"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GORMArticleRepository is a GORM implementation of ArticleRepository.
type GORMArticleRepository struct {
	db *gorm.DB
}

// NewGORMArticleRepository creates a new instance of GORMArticleRepository.
func NewGORMArticleRepository(db *gorm.DB) *GORMArticleRepository {
	return &GORMArticleRepository{
		db: db,
	}
}

func (r *GORMArticleRepository) scoped(ctx context.Context, filter ArticleFilter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&models.Article{})
	if filter.PublishedOnly {
		q = q.Where("published = ?", true)
	}
	if filter.UserID != "" {
		q = q.Where("user_id = ?", filter.UserID)
	}
	return q
}

// List returns one window of articles in creation order, plus the number of
// articles matching the filter.
func (r *GORMArticleRepository) List(ctx context.Context, filter ArticleFilter, offset, limit int) ([]models.Article, int64, error) {
	var total int64
	if err := r.scoped(ctx, filter).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count articles: %w", err)
	}

	articles := make([]models.Article, 0, limit)
	err := r.scoped(ctx, filter).
		Preload("Author").
		Order("created_at ASC").Order("id ASC").
		Offset(offset).Limit(limit).
		Find(&articles).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list articles: %w", err)
	}
	return articles, total, nil
}

// GetByID retrieves a single article, with its author, by ID.
func (r *GORMArticleRepository) GetByID(ctx context.Context, id string) (*models.Article, error) {
	var article models.Article
	if err := r.db.WithContext(ctx).Preload("Author").First(&article, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("article with ID %s: %w", id, shared.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get article by ID %s: %w", id, err)
	}
	return &article, nil
}

// Create inserts a new article. The author association is never written.
func (r *GORMArticleRepository) Create(ctx context.Context, article *models.Article) error {
	if article.ID == "" {
		article.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(article).Error; err != nil {
		return fmt.Errorf("failed to create article: %w", err)
	}
	return nil
}

// Update writes the mutable columns of an article. ID and owner are left untouched.
func (r *GORMArticleRepository) Update(ctx context.Context, article *models.Article) error {
	article.UpdatedAt = time.Now()
	res := r.db.WithContext(ctx).
		Model(&models.Article{}).
		Where("id = ?", article.ID).
		Select("title", "body", "published", "min_to_read", "updated_at").
		Updates(map[string]any{
			"title":       article.Title,
			"body":        article.Body,
			"published":   article.Published,
			"min_to_read": article.MinToRead,
			"updated_at":  article.UpdatedAt,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to update article: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("article with ID %s: %w", article.ID, shared.ErrNotFound)
	}
	return nil
}

// Delete removes an article by its ID. Deleting a missing article is an error.
func (r *GORMArticleRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&models.Article{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete article: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("article with ID %s: %w", id, shared.ErrNotFound)
	}
	return nil
}
