package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"articles/internal/models"
	"articles/internal/shared"

	"gorm.io/gorm"
)

// GORMTokenRepository is a GORM implementation of TokenRepository.
type GORMTokenRepository struct {
	db *gorm.DB
}

// NewGORMTokenRepository creates a new instance of GORMTokenRepository.
func NewGORMTokenRepository(db *gorm.DB) *GORMTokenRepository {
	return &GORMTokenRepository{db: db}
}

func (r *GORMTokenRepository) Create(ctx context.Context, token *models.Token) error {
	if err := r.db.WithContext(ctx).Create(token).Error; err != nil {
		return fmt.Errorf("failed to create token: %w", err)
	}
	return nil
}

func (r *GORMTokenRepository) GetByID(ctx context.Context, id string) (*models.Token, error) {
	var token models.Token
	if err := r.db.WithContext(ctx).First(&token, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("token %s: %w", id, shared.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get token %s: %w", id, err)
	}
	return &token, nil
}

// Delete revokes a token. It is a single-row delete, so a concurrent lookup
// either still sees the row or does not.
func (r *GORMTokenRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&models.Token{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete token: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("token %s: %w", id, shared.ErrNotFound)
	}
	return nil
}

// DeleteExpired removes tokens whose expiry is before now and reports how many
// were removed.
func (r *GORMTokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("expires_at < ?", now).Delete(&models.Token{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to prune tokens: %w", res.Error)
	}
	return res.RowsAffected, nil
}
