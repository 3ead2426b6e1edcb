package services

import (
	"context"
	"errors"
	"fmt"

	"articles/internal/models"
	"articles/internal/policy"
	"articles/internal/repositories"
	"articles/internal/shared"

	"go.uber.org/zap"
)

// ArticleInput carries the writable article fields. Nil pointers mean the
// field was not supplied.
type ArticleInput struct {
	Title     *string `json:"title" validate:"omitempty,notblank,max=255"`
	Body      *string `json:"body" validate:"omitempty,notblank"`
	Published *bool   `json:"published"`
	MinToRead *int    `json:"min_to_read" validate:"omitempty,gte=0"`
}

// Validate checks the input. A full input (create or replace) must carry
// title and body; a partial one only has its supplied fields checked.
func (in ArticleInput) Validate(partial bool) error {
	verr := shared.NewValidationError()
	if err := validateStruct(in); err != nil {
		if !errors.As(err, &verr) {
			return err
		}
	}
	if !partial {
		if in.Title == nil {
			verr.Add("title", "The title field is required.")
		}
		if in.Body == nil {
			verr.Add("body", "The body field is required.")
		}
	}
	if verr.Empty() {
		return nil
	}
	return verr
}

func (in ArticleInput) applyTo(article *models.Article) {
	if in.Title != nil {
		article.Title = *in.Title
	}
	if in.Body != nil {
		article.Body = *in.Body
	}
	if in.Published != nil {
		article.Published = *in.Published
	}
	if in.MinToRead != nil {
		article.MinToRead = *in.MinToRead
	}
}

// ArticleService handles business logic related to articles.
type ArticleService struct {
	repo      repositories.ArticleRepository
	publisher EventPublisher
	logger    *zap.SugaredLogger
}

// NewArticleService creates a new ArticleService. publisher may be nil.
func NewArticleService(repo repositories.ArticleRepository, publisher EventPublisher, logger *zap.SugaredLogger) *ArticleService {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &ArticleService{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
	}
}

// ListPublished returns one page of published articles in creation order.
func (s *ArticleService) ListPublished(ctx context.Context, page int) (*shared.Page[models.Article], error) {
	p := shared.NewPagination(page, shared.PerPage, 0)
	items, total, err := s.repo.List(ctx, repositories.ArticleFilter{PublishedOnly: true}, p.Offset(), p.PerPage)
	if err != nil {
		return nil, err
	}
	return &shared.Page[models.Article]{
		Items:      items,
		Pagination: shared.NewPagination(p.Page, p.PerPage, int(total)),
	}, nil
}

// Create validates the input and stores a new article owned by actor.
func (s *ArticleService) Create(ctx context.Context, actor *models.User, in ArticleInput) (*models.Article, error) {
	if err := in.Validate(false); err != nil {
		return nil, err
	}

	article := &models.Article{UserID: actor.ID}
	in.applyTo(article)

	if err := s.repo.Create(ctx, article); err != nil {
		return nil, err
	}
	article.Author = actor

	publishArticleEvent(s.publisher, s.logger, EventArticleCreated, article)
	return article, nil
}

// Get returns the article if actor may view it.
func (s *ArticleService) Get(ctx context.Context, actor *models.User, id string) (*models.Article, error) {
	article, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !policy.Allowed(actor.ID, policy.View, article) {
		return nil, fmt.Errorf("view article %s: %w", id, shared.ErrForbidden)
	}
	return article, nil
}

// Update applies in to the article. partial selects PATCH semantics.
func (s *ArticleService) Update(ctx context.Context, actor *models.User, id string, in ArticleInput, partial bool) (*models.Article, error) {
	if err := in.Validate(partial); err != nil {
		return nil, err
	}

	article, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !policy.Allowed(actor.ID, policy.Update, article) {
		return nil, fmt.Errorf("update article %s: %w", id, shared.ErrForbidden)
	}

	in.applyTo(article)
	if err := s.repo.Update(ctx, article); err != nil {
		return nil, err
	}

	publishArticleEvent(s.publisher, s.logger, EventArticleUpdated, article)
	return article, nil
}

// Delete removes the article if actor owns it.
func (s *ArticleService) Delete(ctx context.Context, actor *models.User, id string) error {
	article, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !policy.Allowed(actor.ID, policy.Delete, article) {
		return fmt.Errorf("delete article %s: %w", id, shared.ErrForbidden)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	publishArticleEvent(s.publisher, s.logger, EventArticleDeleted, article)
	return nil
}
