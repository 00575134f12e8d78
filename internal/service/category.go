package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/sakif/cookbook/internal/access"
	"github.com/sakif/cookbook/internal/apperror"
	"github.com/sakif/cookbook/internal/model"
	"github.com/sakif/cookbook/internal/repository"
	"github.com/sakif/cookbook/internal/validate"
)

type CategoryService struct {
	categories repository.CategoryRepository
	logger     *slog.Logger
}

func NewCategoryService(categories repository.CategoryRepository, logger *slog.Logger) *CategoryService {
	return &CategoryService{categories: categories, logger: logger}
}

type CategoryInput struct {
	Name string `json:"name" validate:"max=50"`
}

// List returns all categories by name. Categories are public.
func (s *CategoryService) List(ctx context.Context) ([]model.Category, error) {
	return s.categories.List(ctx)
}

// Create adds a category. Admin only; names are unique.
func (s *CategoryService) Create(ctx context.Context, actor *model.User, in CategoryInput) (*model.Category, error) {
	if err := access.Authorize(actor, access.Create, access.Resource{Kind: access.KindCategory}); err != nil {
		return nil, err
	}

	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, apperror.ValidationFailed("name", "Category name is required")
	}
	if err := validate.Struct(in); err != nil {
		return nil, err
	}

	c := &model.Category{Name: in.Name}
	if err := s.categories.Create(ctx, c); err != nil {
		return nil, err
	}
	s.logger.Info("category created", slog.String("category_id", c.ID), slog.String("name", c.Name))
	return c, nil
}

// Delete removes a category. Admin only.
func (s *CategoryService) Delete(ctx context.Context, actor *model.User, id string) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	if _, err := s.categories.GetByID(ctx, id); err != nil {
		return err
	}
	if err := access.Authorize(actor, access.Delete, access.Resource{Kind: access.KindCategory}); err != nil {
		return err
	}
	return s.categories.Delete(ctx, id)
}
