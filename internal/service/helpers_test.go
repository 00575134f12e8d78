package service

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sakif/cookbook/internal/auth"
	"github.com/sakif/cookbook/internal/model"
	"github.com/sakif/cookbook/internal/repository/sqlite"
)

// testEnv wires every service to one throwaway SQLite file.
type testEnv struct {
	db            *sqlite.DB
	tokens        *auth.TokenService
	auth          *AuthService
	recipes       *RecipeService
	ratings       *RatingService
	notifications *NotificationService
	saved         *SavedRecipeService
	categories    *CategoryService
	dashboard     *DashboardService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tokens, err := auth.NewTokenService("test-secret-at-least-16-chars!!")
	require.NoError(t, err)

	notifications := NewNotificationService(db.Notifications(), logger)
	return &testEnv{
		db:            db,
		tokens:        tokens,
		auth:          NewAuthService(db.Users(), tokens, auth.NewPasswordServiceForTest(), logger),
		recipes:       NewRecipeService(db.Recipes(), db.Ratings(), db.Ingredients(), logger),
		ratings:       NewRatingService(db.Ratings(), db.Recipes(), notifications, logger),
		notifications: notifications,
		saved:         NewSavedRecipeService(db.SavedRecipes(), db.Recipes(), logger),
		categories:    NewCategoryService(db.Categories(), logger),
		dashboard:     NewDashboardService(db.Users(), db.Recipes(), db.SavedRecipes(), db.Notifications(), db),
	}
}

// user registers an account and returns its projection, as the resolver would.
func (e *testEnv) user(t *testing.T, name string) *model.User {
	t.Helper()
	res, err := e.auth.Register(context.Background(), RegisterInput{
		Name:     name,
		Email:    name + "@example.com",
		Password: "password123",
	})
	require.NoError(t, err)
	return res.User
}

// admin registers an account and promotes it.
func (e *testEnv) admin(t *testing.T, name string) *model.User {
	t.Helper()
	u := e.user(t, name)
	stored, err := e.db.Users().GetUserByID(context.Background(), u.ID)
	require.NoError(t, err)
	stored.Role = model.RoleAdmin
	require.NoError(t, e.db.Users().Update(context.Background(), stored))
	return stored.Projection()
}

func validRecipeInput(title string) RecipeInput {
	return RecipeInput{
		Title:        title,
		Description:  "A dependable weeknight dinner.",
		Cuisine:      "Italian",
		PrepTime:     10,
		CookTime:     20,
		Instructions: "Boil water, cook pasta, add sauce.",
		Ingredients: []IngredientInput{
			{Name: "Spaghetti", Category: "Pasta", Quantity: 200, Unit: "g"},
			{Name: "Tomato", Quantity: 3, Unit: "pcs"},
		},
	}
}

func (e *testEnv) recipe(t *testing.T, owner *model.User, title string) *model.RecipeDetail {
	t.Helper()
	r, err := e.recipes.Create(context.Background(), owner, validRecipeInput(title))
	require.NoError(t, err)
	return r
}
