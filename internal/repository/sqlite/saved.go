package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sakif/cookbook/internal/apperror"
	"github.com/sakif/cookbook/internal/model"
	"github.com/sakif/cookbook/internal/repository"
)

var _ repository.SavedRecipeRepository = (*SavedRecipeDB)(nil)

// SavedRecipeDB stores bookmarks. The (user_id, recipe_id) primary key makes
// a second save of the same pair fail at the database.
type SavedRecipeDB struct {
	conn *sql.DB
}

func (d *SavedRecipeDB) Create(ctx context.Context, saved *model.SavedRecipe) error {
	saved.CreatedAt = time.Now().UTC()

	_, err := d.conn.ExecContext(ctx,
		`INSERT INTO saved_recipes (user_id, recipe_id, created_at) VALUES (?, ?, ?)`,
		saved.UserID, saved.RecipeID, saved.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("Recipe already saved")
		}
		return fmt.Errorf("sqlite: saving recipe: %w", err)
	}
	return nil
}

func (d *SavedRecipeDB) Get(ctx context.Context, userID, recipeID string) (*model.SavedRecipe, error) {
	var s model.SavedRecipe
	err := d.conn.QueryRowContext(ctx,
		`SELECT user_id, recipe_id, created_at FROM saved_recipes WHERE user_id = ? AND recipe_id = ?`,
		userID, recipeID,
	).Scan(&s.UserID, &s.RecipeID, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFoundMessage("Recipe not saved")
		}
		return nil, fmt.Errorf("sqlite: getting saved recipe: %w", err)
	}
	return &s, nil
}

func (d *SavedRecipeDB) Delete(ctx context.Context, userID, recipeID string) error {
	res, err := d.conn.ExecContext(ctx,
		`DELETE FROM saved_recipes WHERE user_id = ? AND recipe_id = ?`, userID, recipeID)
	if err != nil {
		return fmt.Errorf("sqlite: unsaving recipe: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperror.NotFoundMessage("Recipe not saved")
	}
	return nil
}

// ListByUser returns the recipes userID saved, most recently saved first.
func (d *SavedRecipeDB) ListByUser(ctx context.Context, userID string) ([]model.RecipeRow, error) {
	rows, err := d.conn.QueryContext(ctx,
		recipeRowSelect+`
		JOIN saved_recipes s ON s.recipe_id = r.id
		WHERE s.user_id = ?
		GROUP BY r.id
		ORDER BY s.created_at DESC, r.id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing saved recipes: %w", err)
	}
	defer rows.Close()

	return collectRecipeRows(rows)
}
