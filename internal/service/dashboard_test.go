package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/cookbook/internal/apperror"
)

func TestDashboard(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "alice")
	bob := env.user(t, "bob")
	for _, title := range []string{"One", "Two", "Three", "Four", "Five", "Six"} {
		env.recipe(t, alice, title)
	}
	bobs := env.recipe(t, bob, "Bob's Stew")
	require.NoError(t, env.saved.Save(ctx, alice, bobs.ID))
	_, err := env.ratings.Rate(ctx, alice, bobs.ID, RateInput{Rating: 5})
	require.NoError(t, err)

	d, err := env.dashboard.Dashboard(ctx, alice)
	require.NoError(t, err)
	assert.Len(t, d.RecentRecipes, 5)
	assert.Equal(t, 6, d.RecipeCount)
	assert.Equal(t, 1, d.SavedCount)
	assert.Equal(t, 0, d.UnreadCount)

	d, err = env.dashboard.Dashboard(ctx, bob)
	require.NoError(t, err)
	assert.Equal(t, 1, d.UnreadCount)

	_, err = env.dashboard.Dashboard(ctx, nil)
	assert.ErrorIs(t, err, apperror.ErrUnauthenticated)
}

func TestAdminOverview(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "alice")
	root := env.admin(t, "root")
	env.recipe(t, alice, "Pasta")

	_, err := env.dashboard.Admin(ctx, nil)
	assert.ErrorIs(t, err, apperror.ErrUnauthenticated)
	_, err = env.dashboard.Admin(ctx, alice)
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	overview, err := env.dashboard.Admin(ctx, root)
	require.NoError(t, err)
	assert.Equal(t, 2, overview.Counts.Users)
	assert.Equal(t, 1, overview.Counts.Recipes)
	require.Len(t, overview.Users, 2)
	for _, u := range overview.Users {
		assert.Empty(t, u.PasswordHash)
	}
}
