package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/xid"

	"github.com/sakif/cookbook/internal/apperror"
	"github.com/sakif/cookbook/internal/model"
	"github.com/sakif/cookbook/internal/repository"
)

var _ repository.CategoryRepository = (*CategoryDB)(nil)

type CategoryDB struct {
	conn *sql.DB
}

// Create inserts a category. Names are unique.
func (d *CategoryDB) Create(ctx context.Context, category *model.Category) error {
	category.ID = xid.New().String()

	_, err := d.conn.ExecContext(ctx,
		`INSERT INTO categories (id, name) VALUES (?, ?)`, category.ID, category.Name)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("Category already exists")
		}
		return fmt.Errorf("sqlite: creating category: %w", err)
	}
	return nil
}

func (d *CategoryDB) GetByID(ctx context.Context, id string) (*model.Category, error) {
	var c model.Category
	err := d.conn.QueryRowContext(ctx,
		`SELECT id, name FROM categories WHERE id = ?`, id).Scan(&c.ID, &c.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("category", id)
		}
		return nil, fmt.Errorf("sqlite: getting category %s: %w", id, err)
	}
	return &c, nil
}

// List returns all categories sorted by name.
func (d *CategoryDB) List(ctx context.Context) ([]model.Category, error) {
	rows, err := d.conn.QueryContext(ctx, `SELECT id, name FROM categories ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing categories: %w", err)
	}
	defer rows.Close()

	out := []model.Category{}
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("sqlite: scanning category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (d *CategoryDB) Delete(ctx context.Context, id string) error {
	res, err := d.conn.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting category %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperror.NotFound("category", id)
	}
	return nil
}
