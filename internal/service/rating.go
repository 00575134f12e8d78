package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/cookbook/internal/access"
	"github.com/sakif/cookbook/internal/model"
	"github.com/sakif/cookbook/internal/repository"
	"github.com/sakif/cookbook/internal/validate"
)

// Notifier delivers a message to a user. NotificationService implements it.
type Notifier interface {
	Notify(ctx context.Context, userID, message string) error
}

type RatingService struct {
	ratings  repository.RatingRepository
	recipes  repository.RecipeRepository
	notifier Notifier
	logger   *slog.Logger
}

func NewRatingService(
	ratings repository.RatingRepository,
	recipes repository.RecipeRepository,
	notifier Notifier,
	logger *slog.Logger,
) *RatingService {
	return &RatingService{
		ratings:  ratings,
		recipes:  recipes,
		notifier: notifier,
		logger:   logger,
	}
}

type RateInput struct {
	Rating  int    `json:"rating" validate:"required,gte=1,lte=5"`
	Comment string `json:"comment" validate:"max=1000"`
}

// RateResult reports the stored rating and the recipe's figures after it.
type RateResult struct {
	Rating        *model.Rating `json:"rating"`
	Created       bool          `json:"created"`
	AverageRating float64       `json:"averageRating"`
	RatingCount   int           `json:"ratingCount"`
}

// Rate records actor's score for a recipe. Rating the same recipe again
// overwrites the earlier score and comment. The first rating of someone
// else's recipe notifies its owner.
func (s *RatingService) Rate(ctx context.Context, actor *model.User, recipeID string, in RateInput) (*RateResult, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	recipe, err := s.recipes.GetByID(ctx, recipeID)
	if err != nil {
		return nil, err
	}
	if err := access.Authorize(actor, access.Create, access.Resource{Kind: access.KindRating, OwnerID: actor.ID}); err != nil {
		return nil, err
	}

	in.Comment = strings.TrimSpace(in.Comment)
	if err := validate.Struct(in); err != nil {
		return nil, err
	}

	rating := &model.Rating{
		RecipeID: recipe.ID,
		UserID:   actor.ID,
		UserName: actor.Name,
		Score:    in.Rating,
		Comment:  in.Comment,
	}
	created, err := s.ratings.Upsert(ctx, rating)
	if err != nil {
		return nil, fmt.Errorf("service/rating: saving: %w", err)
	}

	if created && recipe.UserID != actor.ID {
		msg := fmt.Sprintf("%s rated your recipe \"%s\"", actor.Name, recipe.Title)
		// The rating is already stored; a lost notification is not worth failing it.
		if err := s.notifier.Notify(ctx, recipe.UserID, msg); err != nil {
			s.logger.Error("notifying recipe owner",
				slog.String("recipe_id", recipe.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	row, err := s.recipes.GetRow(ctx, recipe.ID)
	if err != nil {
		return nil, fmt.Errorf("service/rating: reloading recipe: %w", err)
	}

	return &RateResult{
		Rating:        rating,
		Created:       created,
		AverageRating: AverageRating(row.Stats.Sum, row.Stats.Count),
		RatingCount:   row.Stats.Count,
	}, nil
}

// List returns a recipe's ratings, newest first.
func (s *RatingService) List(ctx context.Context, recipeID string) ([]model.Rating, error) {
	if _, err := s.recipes.GetByID(ctx, recipeID); err != nil {
		return nil, err
	}
	return s.ratings.ListByRecipe(ctx, recipeID)
}

// Delete removes a rating. Only its author or an admin may.
func (s *RatingService) Delete(ctx context.Context, actor *model.User, id string) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	rating, err := s.ratings.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := access.Authorize(actor, access.Delete, access.Resource{Kind: access.KindRating, OwnerID: rating.UserID}); err != nil {
		return err
	}
	return s.ratings.Delete(ctx, id)
}
