package services

import (
	"context"

	"articles/internal/models"
	"articles/internal/repositories"
	"articles/internal/shared"
)

// UserService exposes read-only user profiles.
type UserService struct {
	repo repositories.UserRepository
}

// NewUserService creates a new UserService.
func NewUserService(repo repositories.UserRepository) *UserService {
	return &UserService{repo: repo}
}

// List returns one page of users in registration order.
func (s *UserService) List(ctx context.Context, page int) (*shared.Page[models.User], error) {
	p := shared.NewPagination(page, shared.PerPage, 0)
	items, total, err := s.repo.List(ctx, p.Offset(), p.PerPage)
	if err != nil {
		return nil, err
	}
	return &shared.Page[models.User]{
		Items:      items,
		Pagination: shared.NewPagination(p.Page, p.PerPage, int(total)),
	}, nil
}

// Get retrieves a single user by ID.
func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	return s.repo.GetByID(ctx, id)
}
