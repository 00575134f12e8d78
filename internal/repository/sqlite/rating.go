package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/cookbook/internal/apperror"
	"github.com/sakif/cookbook/internal/model"
	"github.com/sakif/cookbook/internal/repository"
)

var _ repository.RatingRepository = (*RatingDB)(nil)

// RatingDB stores recipe ratings. UNIQUE (recipe_id, user_id) keeps one per pair.
type RatingDB struct {
	conn *sql.DB
}

// Upsert inserts rating, or overwrites score and comment of the rating the same
// user already left on the same recipe. rating is refreshed from the stored row.
//
// The insert is attempted first with ON CONFLICT DO NOTHING so two concurrent
// first ratings from one user cannot both count as "created".
func (d *RatingDB) Upsert(ctx context.Context, rating *model.Rating) (bool, error) {
	now := time.Now().UTC()

	res, err := d.conn.ExecContext(ctx,
		`INSERT INTO ratings (id, recipe_id, user_id, rating, comment, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (recipe_id, user_id) DO NOTHING`,
		xid.New().String(),
		rating.RecipeID,
		rating.UserID,
		rating.Score,
		rating.Comment,
		now,
		now,
	)
	if err != nil {
		return false, fmt.Errorf("sqlite: inserting rating: %w", err)
	}

	created := false
	if n, _ := res.RowsAffected(); n == 1 {
		created = true
	} else {
		_, err := d.conn.ExecContext(ctx,
			`UPDATE ratings SET rating = ?, comment = ?, updated_at = ?
			 WHERE recipe_id = ? AND user_id = ?`,
			rating.Score, rating.Comment, now, rating.RecipeID, rating.UserID,
		)
		if err != nil {
			return false, fmt.Errorf("sqlite: updating rating: %w", err)
		}
	}

	err = d.conn.QueryRowContext(ctx,
		`SELECT id, created_at, updated_at FROM ratings WHERE recipe_id = ? AND user_id = ?`,
		rating.RecipeID, rating.UserID,
	).Scan(&rating.ID, &rating.CreatedAt, &rating.UpdatedAt)
	if err != nil {
		return false, fmt.Errorf("sqlite: reloading rating: %w", err)
	}

	return created, nil
}

// GetByID retrieves a rating with the rater's name.
func (d *RatingDB) GetByID(ctx context.Context, id string) (*model.Rating, error) {
	rating, err := scanRating(d.conn.QueryRowContext(ctx,
		ratingSelect+` WHERE rt.id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("rating", id)
		}
		return nil, fmt.Errorf("sqlite: getting rating %s: %w", id, err)
	}
	return rating, nil
}

// ListByRecipe returns a recipe's ratings, newest first.
func (d *RatingDB) ListByRecipe(ctx context.Context, recipeID string) ([]model.Rating, error) {
	rows, err := d.conn.QueryContext(ctx,
		ratingSelect+` WHERE rt.recipe_id = ? ORDER BY rt.created_at DESC, rt.id DESC`, recipeID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing ratings for recipe %s: %w", recipeID, err)
	}
	defer rows.Close()

	out := []model.Rating{}
	for rows.Next() {
		rating, err := scanRating(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning rating: %w", err)
		}
		out = append(out, *rating)
	}
	return out, rows.Err()
}

// Delete removes a rating by ID.
func (d *RatingDB) Delete(ctx context.Context, id string) error {
	res, err := d.conn.ExecContext(ctx, `DELETE FROM ratings WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting rating %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperror.NotFound("rating", id)
	}
	return nil
}

const ratingSelect = `
	SELECT rt.id, rt.recipe_id, rt.user_id, u.name, rt.rating, rt.comment, rt.created_at, rt.updated_at
	FROM ratings rt
	JOIN users u ON u.id = rt.user_id`

func scanRating(s scanner) (*model.Rating, error) {
	var r model.Rating
	if err := s.Scan(
		&r.ID,
		&r.RecipeID,
		&r.UserID,
		&r.UserName,
		&r.Score,
		&r.Comment,
		&r.CreatedAt,
		&r.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &r, nil
}
