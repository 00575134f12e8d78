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

type RecipeService struct {
	recipes     repository.RecipeRepository
	ratings     repository.RatingRepository
	ingredients repository.IngredientRepository
	logger      *slog.Logger
}

func NewRecipeService(
	recipes repository.RecipeRepository,
	ratings repository.RatingRepository,
	ingredients repository.IngredientRepository,
	logger *slog.Logger,
) *RecipeService {
	return &RecipeService{
		recipes:     recipes,
		ratings:     ratings,
		ingredients: ingredients,
		logger:      logger,
	}
}

// RecipeInput is the create/update payload. It has no owner field: the owner
// is always the actor on create and never changes on update.
type RecipeInput struct {
	Title        string            `json:"title" validate:"required,min=3,max=200"`
	Description  string            `json:"description" validate:"required,min=10,max=2000"`
	Cuisine      string            `json:"cuisine" validate:"max=50"`
	PrepTime     int               `json:"prepTime" validate:"gte=1,lte=10000"`
	CookTime     int               `json:"cookTime" validate:"gte=1,lte=10000"`
	Instructions string            `json:"instructions" validate:"required,min=10,max=20000"`
	Ingredients  []IngredientInput `json:"ingredients" validate:"omitempty,max=100,dive"`
}

type IngredientInput struct {
	Name     string  `json:"name" validate:"required,max=100"`
	Category string  `json:"category" validate:"max=50"`
	Quantity float64 `json:"quantity" validate:"gte=0"`
	Unit     string  `json:"unit" validate:"max=30"`
}

func (in *RecipeInput) normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Cuisine = strings.TrimSpace(in.Cuisine)
	in.Instructions = strings.TrimSpace(in.Instructions)
	for i := range in.Ingredients {
		in.Ingredients[i].Name = strings.TrimSpace(in.Ingredients[i].Name)
		in.Ingredients[i].Category = strings.TrimSpace(in.Ingredients[i].Category)
		in.Ingredients[i].Unit = strings.TrimSpace(in.Ingredients[i].Unit)
	}
}

func (in *RecipeInput) lines() []repository.IngredientLine {
	out := make([]repository.IngredientLine, 0, len(in.Ingredients))
	for _, ing := range in.Ingredients {
		out = append(out, repository.IngredientLine{
			Name:     ing.Name,
			Category: ing.Category,
			Quantity: ing.Quantity,
			Unit:     ing.Unit,
		})
	}
	return out
}

type ListParams struct {
	Page    int
	Limit   int
	Search  string
	Cuisine string
	UserID  string
}

type RecipePage struct {
	Recipes    []model.RecipeSummary `json:"recipes"`
	Pagination Pagination            `json:"pagination"`
}

// List returns one page of recipes, newest first.
func (s *RecipeService) List(ctx context.Context, p ListParams) (*RecipePage, error) {
	page, limit := normalizePage(p.Page, p.Limit)
	filter := repository.RecipeFilter{
		ListOptions: repository.ListOptions{Limit: limit, Offset: (page - 1) * limit},
		Search:      strings.TrimSpace(p.Search),
		Cuisine:     strings.TrimSpace(p.Cuisine),
		UserID:      strings.TrimSpace(p.UserID),
	}

	rows, err := s.recipes.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("service/recipe: listing: %w", err)
	}
	total, err := s.recipes.Count(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("service/recipe: counting: %w", err)
	}

	return &RecipePage{
		Recipes:    summarizeAll(rows),
		Pagination: newPagination(total, page, limit),
	}, nil
}

// Get returns a recipe with its ingredients and ratings. Recipes are public.
func (s *RecipeService) Get(ctx context.Context, id string) (*model.RecipeDetail, error) {
	row, err := s.recipes.GetRow(ctx, id)
	if err != nil {
		return nil, err
	}
	ingredients, err := s.recipes.Ingredients(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/recipe: loading ingredients: %w", err)
	}
	ratings, err := s.ratings.ListByRecipe(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/recipe: loading ratings: %w", err)
	}

	return &model.RecipeDetail{
		RecipeSummary: Summarize(*row),
		Ingredients:   ingredients,
		Ratings:       ratings,
	}, nil
}

func (s *RecipeService) Cuisines(ctx context.Context) ([]string, error) {
	return s.recipes.ListCuisines(ctx)
}

func (s *RecipeService) Ingredients(ctx context.Context) ([]model.Ingredient, error) {
	return s.ingredients.ListIngredients(ctx)
}

// Create stores a new recipe owned by actor.
func (s *RecipeService) Create(ctx context.Context, actor *model.User, in RecipeInput) (*model.RecipeDetail, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if err := access.Authorize(actor, access.Create, access.Resource{Kind: access.KindRecipe, OwnerID: actor.ID}); err != nil {
		return nil, err
	}

	in.normalize()
	if err := validate.Struct(in); err != nil {
		return nil, err
	}

	recipe := &model.Recipe{
		Title:        in.Title,
		Description:  in.Description,
		Cuisine:      in.Cuisine,
		PrepTime:     in.PrepTime,
		CookTime:     in.CookTime,
		Instructions: in.Instructions,
		UserID:       actor.ID,
	}
	if err := s.recipes.Create(ctx, recipe); err != nil {
		return nil, fmt.Errorf("service/recipe: creating: %w", err)
	}
	if len(in.Ingredients) > 0 {
		if err := s.recipes.ReplaceIngredients(ctx, recipe.ID, in.lines()); err != nil {
			return nil, fmt.Errorf("service/recipe: saving ingredients: %w", err)
		}
	}

	s.logger.Info("recipe created",
		slog.String("recipe_id", recipe.ID),
		slog.String("user_id", actor.ID),
	)
	return s.Get(ctx, recipe.ID)
}

// Update overwrites a recipe's fields. A nil Ingredients list keeps the
// current ingredients; an empty one clears them.
func (s *RecipeService) Update(ctx context.Context, actor *model.User, id string, in RecipeInput) (*model.RecipeDetail, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	recipe, err := s.recipes.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := access.Authorize(actor, access.Update, access.Resource{Kind: access.KindRecipe, OwnerID: recipe.UserID}); err != nil {
		return nil, err
	}

	in.normalize()
	if err := validate.Struct(in); err != nil {
		return nil, err
	}

	recipe.Title = in.Title
	recipe.Description = in.Description
	recipe.Cuisine = in.Cuisine
	recipe.PrepTime = in.PrepTime
	recipe.CookTime = in.CookTime
	recipe.Instructions = in.Instructions
	if err := s.recipes.Update(ctx, recipe); err != nil {
		return nil, err
	}
	if in.Ingredients != nil {
		if err := s.recipes.ReplaceIngredients(ctx, recipe.ID, in.lines()); err != nil {
			return nil, fmt.Errorf("service/recipe: saving ingredients: %w", err)
		}
	}

	s.logger.Info("recipe updated",
		slog.String("recipe_id", recipe.ID),
		slog.String("user_id", actor.ID),
	)
	return s.Get(ctx, recipe.ID)
}

// Delete removes a recipe and, through the store's cascades, its ratings,
// ingredient links and saved links.
func (s *RecipeService) Delete(ctx context.Context, actor *model.User, id string) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	recipe, err := s.recipes.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := access.Authorize(actor, access.Delete, access.Resource{Kind: access.KindRecipe, OwnerID: recipe.UserID}); err != nil {
		return err
	}

	if err := s.recipes.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("recipe deleted",
		slog.String("recipe_id", id),
		slog.String("user_id", actor.ID),
		slog.Bool("by_admin", actor.ID != recipe.UserID),
	)
	return nil
}
