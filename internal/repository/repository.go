// Package repository declares the storage interfaces the service layer depends on.
// The sqlite sub-package is the production implementation.
package repository

import (
	"context"

	"github.com/sakif/cookbook/internal/model"
)

type ListOptions struct {
	Limit  int
	Offset int
}

// RecipeFilter narrows a recipe listing. Zero values mean "no filter".
type RecipeFilter struct {
	ListOptions
	Search  string // matched against title and description
	Cuisine string
	UserID  string
}

// IngredientLine is one line of a recipe's ingredient list as submitted by
// the author. The ingredient itself is found or created by Name.
type IngredientLine struct {
	Name     string
	Category string
	Quantity float64
	Unit     string
}

// SiteCounts backs the admin overview.
type SiteCounts struct {
	Users      int `json:"users"`
	Recipes    int `json:"recipes"`
	Ratings    int `json:"ratings"`
	Categories int `json:"categories"`
}

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	Update(ctx context.Context, user *model.User) error
	List(ctx context.Context) ([]model.User, error)
}

type RecipeRepository interface {
	Create(ctx context.Context, recipe *model.Recipe) error
	GetByID(ctx context.Context, id string) (*model.Recipe, error)
	GetRow(ctx context.Context, id string) (*model.RecipeRow, error)
	List(ctx context.Context, filter RecipeFilter) ([]model.RecipeRow, error)
	Count(ctx context.Context, filter RecipeFilter) (int, error)
	ListCuisines(ctx context.Context) ([]string, error)
	Update(ctx context.Context, recipe *model.Recipe) error
	Delete(ctx context.Context, id string) error
	Ingredients(ctx context.Context, recipeID string) ([]model.RecipeIngredient, error)
	ReplaceIngredients(ctx context.Context, recipeID string, lines []IngredientLine) error
}

type IngredientRepository interface {
	FindOrCreateIngredient(ctx context.Context, ingredient *model.Ingredient) error
	FindOrCreateSupplier(ctx context.Context, supplier *model.Supplier) error
	ListIngredients(ctx context.Context) ([]model.Ingredient, error)
}

type RatingRepository interface {
	// Upsert inserts the rating or overwrites score and comment of the existing
	// rating for the same (recipe, user) pair. created reports which happened.
	Upsert(ctx context.Context, rating *model.Rating) (created bool, err error)
	GetByID(ctx context.Context, id string) (*model.Rating, error)
	ListByRecipe(ctx context.Context, recipeID string) ([]model.Rating, error)
	Delete(ctx context.Context, id string) error
}

type NotificationRepository interface {
	Create(ctx context.Context, n *model.Notification) error
	GetByID(ctx context.Context, id string) (*model.Notification, error)
	ListByUser(ctx context.Context, userID string) ([]model.Notification, error)
	CountUnread(ctx context.Context, userID string) (int, error)
	MarkRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context, userID string) (int64, error)
	Delete(ctx context.Context, id string) error
}

type SavedRecipeRepository interface {
	Create(ctx context.Context, saved *model.SavedRecipe) error
	Get(ctx context.Context, userID, recipeID string) (*model.SavedRecipe, error)
	Delete(ctx context.Context, userID, recipeID string) error
	ListByUser(ctx context.Context, userID string) ([]model.RecipeRow, error)
}

type CategoryRepository interface {
	Create(ctx context.Context, category *model.Category) error
	GetByID(ctx context.Context, id string) (*model.Category, error)
	List(ctx context.Context) ([]model.Category, error)
	Delete(ctx context.Context, id string) error
}

type StatsRepository interface {
	Counts(ctx context.Context) (*SiteCounts, error)
}
