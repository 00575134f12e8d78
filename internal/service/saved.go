package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sakif/cookbook/internal/access"
	"github.com/sakif/cookbook/internal/apperror"
	"github.com/sakif/cookbook/internal/model"
	"github.com/sakif/cookbook/internal/repository"
)

// SavedRecipeService manages a user's bookmarks. A user only ever sees and
// changes their own.
type SavedRecipeService struct {
	saved   repository.SavedRecipeRepository
	recipes repository.RecipeRepository
	logger  *slog.Logger
}

func NewSavedRecipeService(saved repository.SavedRecipeRepository, recipes repository.RecipeRepository, logger *slog.Logger) *SavedRecipeService {
	return &SavedRecipeService{saved: saved, recipes: recipes, logger: logger}
}

// Save bookmarks a recipe. Saving it twice fails with ErrConflict.
func (s *SavedRecipeService) Save(ctx context.Context, actor *model.User, recipeID string) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	if _, err := s.recipes.GetByID(ctx, recipeID); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return apperror.NotFoundMessage("Recipe not found")
		}
		return err
	}
	if err := access.Authorize(actor, access.Create, access.Resource{Kind: access.KindSavedRecipe, OwnerID: actor.ID}); err != nil {
		return err
	}

	return s.saved.Create(ctx, &model.SavedRecipe{UserID: actor.ID, RecipeID: recipeID})
}

// Unsave removes a bookmark. Removing one that does not exist fails with
// ErrNotFound.
func (s *SavedRecipeService) Unsave(ctx context.Context, actor *model.User, recipeID string) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	link, err := s.saved.Get(ctx, actor.ID, recipeID)
	if err != nil {
		return err
	}
	if err := access.Authorize(actor, access.Delete, access.Resource{Kind: access.KindSavedRecipe, OwnerID: link.UserID}); err != nil {
		return err
	}
	return s.saved.Delete(ctx, actor.ID, recipeID)
}

// IsSaved reports whether actor bookmarked the recipe. Anonymous callers
// get false.
func (s *SavedRecipeService) IsSaved(ctx context.Context, actor *model.User, recipeID string) (bool, error) {
	if actor == nil {
		return false, nil
	}
	_, err := s.saved.Get(ctx, actor.ID, recipeID)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, apperror.ErrNotFound):
		return false, nil
	default:
		return false, fmt.Errorf("service/saved: checking: %w", err)
	}
}

// List returns the actor's bookmarked recipes, most recently saved first.
func (s *SavedRecipeService) List(ctx context.Context, actor *model.User) ([]model.RecipeSummary, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if err := access.Authorize(actor, access.Read, access.Resource{Kind: access.KindSavedRecipe, OwnerID: actor.ID}); err != nil {
		return nil, err
	}
	rows, err := s.saved.ListByUser(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("service/saved: listing: %w", err)
	}
	return summarizeAll(rows), nil
}
