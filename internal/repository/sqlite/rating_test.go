package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/cookbook/internal/apperror"
	"github.com/sakif/cookbook/internal/model"
)

func TestRatingUpsert_CreatesThenUpdates(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	recipe := createTestRecipe(t, db, alice, "Pasta")

	first := &model.Rating{RecipeID: recipe.ID, UserID: bob.ID, Score: 2, Comment: "meh"}
	created, err := db.Ratings().Upsert(ctx, first)
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if !created {
		t.Error("first Upsert() reported created = false")
	}
	if first.ID == "" {
		t.Fatal("Upsert() did not set rating.ID")
	}

	second := &model.Rating{RecipeID: recipe.ID, UserID: bob.ID, Score: 5, Comment: "grew on me"}
	created, err = db.Ratings().Upsert(ctx, second)
	if err != nil {
		t.Fatalf("second Upsert() error = %v", err)
	}
	if created {
		t.Error("second Upsert() reported created = true")
	}
	if second.ID != first.ID {
		t.Errorf("second Upsert() ID = %s, want existing %s", second.ID, first.ID)
	}

	ratings, err := db.Ratings().ListByRecipe(ctx, recipe.ID)
	if err != nil {
		t.Fatalf("ListByRecipe() error = %v", err)
	}
	if len(ratings) != 1 {
		t.Fatalf("got %d ratings, want 1", len(ratings))
	}
	if ratings[0].Score != 5 || ratings[0].Comment != "grew on me" || ratings[0].UserName != "bob" {
		t.Errorf("stored rating = %+v", ratings[0])
	}
}

func TestRatingUpsert_ScoreOutOfRangeRejected(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "alice")
	recipe := createTestRecipe(t, db, alice, "Pasta")

	_, err := db.Ratings().Upsert(context.Background(), &model.Rating{RecipeID: recipe.ID, UserID: alice.ID, Score: 6})
	if err == nil {
		t.Error("Upsert() with score 6 succeeded, want CHECK failure")
	}
}

func TestRatingGetAndDelete(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	alice := createTestUser(t, db, "alice")
	recipe := createTestRecipe(t, db, alice, "Pasta")

	r := &model.Rating{RecipeID: recipe.ID, UserID: alice.ID, Score: 4}
	if _, err := db.Ratings().Upsert(ctx, r); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	got, err := db.Ratings().GetByID(ctx, r.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Score != 4 || got.UserID != alice.ID {
		t.Errorf("GetByID() = %+v", got)
	}

	if err := db.Ratings().Delete(ctx, r.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := db.Ratings().GetByID(ctx, r.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByID() after delete error = %v, want ErrNotFound", err)
	}
	if err := db.Ratings().Delete(ctx, r.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}
}
