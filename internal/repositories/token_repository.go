package repositories

import (
	"context"
	"time"

	"articles/internal/models"
)

// TokenRepository stores issued bearer tokens.
type TokenRepository interface {
	Create(ctx context.Context, token *models.Token) error
	GetByID(ctx context.Context, id string) (*models.Token, error)
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
