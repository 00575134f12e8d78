package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/cookbook/internal/apperror"
	"github.com/sakif/cookbook/internal/model"
	"github.com/sakif/cookbook/internal/repository"
)

var _ repository.RecipeRepository = (*RecipeDB)(nil)

// RecipeDB stores recipes and their ingredient links.
type RecipeDB struct {
	conn *sql.DB
}

// Create inserts a new recipe. The caller sets UserID; ID and timestamps are filled in here.
func (r *RecipeDB) Create(ctx context.Context, recipe *model.Recipe) error {
	now := time.Now().UTC()
	recipe.ID = xid.New().String()
	recipe.CreatedAt = now
	recipe.UpdatedAt = now

	_, err := r.conn.ExecContext(ctx,
		`INSERT INTO recipes (id, title, description, cuisine, prep_time, cook_time, instructions, user_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		recipe.ID,
		recipe.Title,
		recipe.Description,
		nullString(recipe.Cuisine),
		recipe.PrepTime,
		recipe.CookTime,
		recipe.Instructions,
		recipe.UserID,
		recipe.CreatedAt,
		recipe.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating recipe: %w", err)
	}
	return nil
}

// GetByID retrieves a single recipe by its ID.
// Returns apperror.ErrNotFound if it does not exist.
func (r *RecipeDB) GetByID(ctx context.Context, id string) (*model.Recipe, error) {
	var (
		recipe  model.Recipe
		cuisine sql.NullString
	)
	err := r.conn.QueryRowContext(ctx,
		`SELECT id, title, description, cuisine, prep_time, cook_time, instructions, user_id, created_at, updated_at
		 FROM recipes WHERE id = ?`,
		id,
	).Scan(
		&recipe.ID,
		&recipe.Title,
		&recipe.Description,
		&cuisine,
		&recipe.PrepTime,
		&recipe.CookTime,
		&recipe.Instructions,
		&recipe.UserID,
		&recipe.CreatedAt,
		&recipe.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("recipe", id)
		}
		return nil, fmt.Errorf("sqlite: getting recipe %s: %w", id, err)
	}
	recipe.Cuisine = cuisine.String
	return &recipe, nil
}

// recipeRowSelect joins the author and aggregates ratings. Callers append an
// optional WHERE clause followed by GROUP BY r.id.
const recipeRowSelect = `
	SELECT r.id, r.title, r.description, r.cuisine, r.prep_time, r.cook_time, r.instructions,
	       r.user_id, r.created_at, r.updated_at, u.name,
	       COALESCE(SUM(rt.rating), 0), COUNT(rt.id)
	FROM recipes r
	JOIN users u ON u.id = r.user_id
	LEFT JOIN ratings rt ON rt.recipe_id = r.id`

func scanRecipeRow(s scanner) (*model.RecipeRow, error) {
	var (
		row     model.RecipeRow
		cuisine sql.NullString
	)
	if err := s.Scan(
		&row.ID,
		&row.Title,
		&row.Description,
		&cuisine,
		&row.PrepTime,
		&row.CookTime,
		&row.Instructions,
		&row.UserID,
		&row.CreatedAt,
		&row.UpdatedAt,
		&row.AuthorName,
		&row.Stats.Sum,
		&row.Stats.Count,
	); err != nil {
		return nil, err
	}
	row.Cuisine = cuisine.String
	return &row, nil
}

// GetRow returns one recipe with its author name and rating aggregate.
func (r *RecipeDB) GetRow(ctx context.Context, id string) (*model.RecipeRow, error) {
	row, err := scanRecipeRow(r.conn.QueryRowContext(ctx,
		recipeRowSelect+` WHERE r.id = ? GROUP BY r.id`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("recipe", id)
		}
		return nil, fmt.Errorf("sqlite: getting recipe row %s: %w", id, err)
	}
	return row, nil
}

// likeEscaper makes LIKE match search text literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// filterClause builds the WHERE clause and its arguments for a RecipeFilter.
func filterClause(f repository.RecipeFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if f.Search != "" {
		conds = append(conds, `(r.title LIKE '%' || ? || '%' ESCAPE '\' OR r.description LIKE '%' || ? || '%' ESCAPE '\')`)
		pattern := likeEscaper.Replace(f.Search)
		args = append(args, pattern, pattern)
	}
	if f.Cuisine != "" {
		conds = append(conds, `r.cuisine = ?`)
		args = append(args, f.Cuisine)
	}
	if f.UserID != "" {
		conds = append(conds, `r.user_id = ?`)
		args = append(args, f.UserID)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// List returns recipes matching the filter, newest first.
func (r *RecipeDB) List(ctx context.Context, f repository.RecipeFilter) ([]model.RecipeRow, error) {
	where, args := filterClause(f)
	query := recipeRowSelect + where + ` GROUP BY r.id ORDER BY r.created_at DESC, r.id DESC`
	if f.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, f.Limit, f.Offset)
	}

	rows, err := r.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing recipes: %w", err)
	}
	defer rows.Close()

	return collectRecipeRows(rows)
}

func collectRecipeRows(rows *sql.Rows) ([]model.RecipeRow, error) {
	out := []model.RecipeRow{}
	for rows.Next() {
		row, err := scanRecipeRow(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning recipe: %w", err)
		}
		out = append(out, *row)
	}
	return out, rows.Err()
}

// Count returns how many recipes match the filter (ignoring pagination).
func (r *RecipeDB) Count(ctx context.Context, f repository.RecipeFilter) (int, error) {
	where, args := filterClause(f)
	var n int
	if err := r.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM recipes r`+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("sqlite: counting recipes: %w", err)
	}
	return n, nil
}

// ListCuisines returns the distinct non-empty cuisines in alphabetical order.
func (r *RecipeDB) ListCuisines(ctx context.Context) ([]string, error) {
	rows, err := r.conn.QueryContext(ctx,
		`SELECT DISTINCT cuisine FROM recipes WHERE cuisine IS NOT NULL AND cuisine != '' ORDER BY cuisine`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing cuisines: %w", err)
	}
	defer rows.Close()

	cuisines := []string{}
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("sqlite: scanning cuisine: %w", err)
		}
		cuisines = append(cuisines, c)
	}
	return cuisines, rows.Err()
}

// Update overwrites the editable fields. Ownership never changes.
func (r *RecipeDB) Update(ctx context.Context, recipe *model.Recipe) error {
	recipe.UpdatedAt = time.Now().UTC()

	res, err := r.conn.ExecContext(ctx,
		`UPDATE recipes
		 SET title = ?, description = ?, cuisine = ?, prep_time = ?, cook_time = ?, instructions = ?, updated_at = ?
		 WHERE id = ?`,
		recipe.Title,
		recipe.Description,
		nullString(recipe.Cuisine),
		recipe.PrepTime,
		recipe.CookTime,
		recipe.Instructions,
		recipe.UpdatedAt,
		recipe.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating recipe %s: %w", recipe.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperror.NotFound("recipe", recipe.ID)
	}
	return nil
}

// Delete removes a recipe. Ratings, ingredient links and saved links go with
// it through ON DELETE CASCADE.
func (r *RecipeDB) Delete(ctx context.Context, id string) error {
	res, err := r.conn.ExecContext(ctx, `DELETE FROM recipes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting recipe %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperror.NotFound("recipe", id)
	}
	return nil
}

// Ingredients returns a recipe's ingredient lines in name order.
func (r *RecipeDB) Ingredients(ctx context.Context, recipeID string) ([]model.RecipeIngredient, error) {
	rows, err := r.conn.QueryContext(ctx,
		`SELECT ri.recipe_id, ri.ingredient_id, i.name, i.category, ri.quantity, ri.unit
		 FROM recipe_ingredients ri
		 JOIN ingredients i ON i.id = ri.ingredient_id
		 WHERE ri.recipe_id = ?
		 ORDER BY i.name`,
		recipeID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing ingredients for recipe %s: %w", recipeID, err)
	}
	defer rows.Close()

	out := []model.RecipeIngredient{}
	for rows.Next() {
		var ri model.RecipeIngredient
		if err := rows.Scan(&ri.RecipeID, &ri.IngredientID, &ri.Name, &ri.Category, &ri.Quantity, &ri.Unit); err != nil {
			return nil, fmt.Errorf("sqlite: scanning recipe ingredient: %w", err)
		}
		out = append(out, ri)
	}
	return out, rows.Err()
}

// ReplaceIngredients swaps the recipe's ingredient links for lines. Each
// ingredient is found by name or created. Runs in one transaction so a recipe
// never ends up with half a list.
func (r *RecipeDB) ReplaceIngredients(ctx context.Context, recipeID string, lines []repository.IngredientLine) error {
	tx, err := r.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM recipe_ingredients WHERE recipe_id = ?`, recipeID); err != nil {
		return fmt.Errorf("sqlite: clearing ingredients for recipe %s: %w", recipeID, err)
	}

	for _, line := range lines {
		ingredient := &model.Ingredient{Name: line.Name, Category: line.Category}
		if err := findOrCreateIngredient(ctx, tx, ingredient); err != nil {
			return err
		}

		// The same ingredient listed twice is merged into the last line.
		_, err := tx.ExecContext(ctx,
			`INSERT INTO recipe_ingredients (recipe_id, ingredient_id, quantity, unit)
			 VALUES (?, ?, ?, ?)
			 ON CONFLICT (recipe_id, ingredient_id) DO UPDATE SET quantity = excluded.quantity, unit = excluded.unit`,
			recipeID, ingredient.ID, line.Quantity, line.Unit,
		)
		if err != nil {
			return fmt.Errorf("sqlite: linking ingredient %q: %w", line.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing ingredients: %w", err)
	}
	return nil
}
