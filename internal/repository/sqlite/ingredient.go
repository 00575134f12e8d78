package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/xid"

	"github.com/sakif/cookbook/internal/model"
	"github.com/sakif/cookbook/internal/repository"
)

var _ repository.IngredientRepository = (*IngredientDB)(nil)

// IngredientDB stores the ingredient and supplier reference data.
type IngredientDB struct {
	conn *sql.DB
}

// querier is the subset shared by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// FindOrCreateIngredient loads the ingredient with the same name into
// ingredient, inserting it first when it does not exist yet.
func (d *IngredientDB) FindOrCreateIngredient(ctx context.Context, ingredient *model.Ingredient) error {
	return findOrCreateIngredient(ctx, d.conn, ingredient)
}

func findOrCreateIngredient(ctx context.Context, q querier, ingredient *model.Ingredient) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO ingredients (id, name, category, supplier_id) VALUES (?, ?, ?, ?)
		 ON CONFLICT (name) DO NOTHING`,
		xid.New().String(), ingredient.Name, ingredient.Category, nullString(ingredient.SupplierID),
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting ingredient %q: %w", ingredient.Name, err)
	}

	var supplierID sql.NullString
	err = q.QueryRowContext(ctx,
		`SELECT id, category, supplier_id FROM ingredients WHERE name = ?`, ingredient.Name,
	).Scan(&ingredient.ID, &ingredient.Category, &supplierID)
	if err != nil {
		return fmt.Errorf("sqlite: loading ingredient %q: %w", ingredient.Name, err)
	}
	ingredient.SupplierID = supplierID.String
	return nil
}

// FindOrCreateSupplier is FindOrCreateIngredient for suppliers.
func (d *IngredientDB) FindOrCreateSupplier(ctx context.Context, supplier *model.Supplier) error {
	_, err := d.conn.ExecContext(ctx,
		`INSERT INTO suppliers (id, name, contact_info) VALUES (?, ?, ?)
		 ON CONFLICT (name) DO NOTHING`,
		xid.New().String(), supplier.Name, supplier.ContactInfo,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting supplier %q: %w", supplier.Name, err)
	}

	err = d.conn.QueryRowContext(ctx,
		`SELECT id, contact_info FROM suppliers WHERE name = ?`, supplier.Name,
	).Scan(&supplier.ID, &supplier.ContactInfo)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("sqlite: supplier %q vanished after insert", supplier.Name)
		}
		return fmt.Errorf("sqlite: loading supplier %q: %w", supplier.Name, err)
	}
	return nil
}

// ListIngredients returns all ingredients in name order.
func (d *IngredientDB) ListIngredients(ctx context.Context) ([]model.Ingredient, error) {
	rows, err := d.conn.QueryContext(ctx,
		`SELECT id, name, category, supplier_id FROM ingredients ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing ingredients: %w", err)
	}
	defer rows.Close()

	out := []model.Ingredient{}
	for rows.Next() {
		var (
			i          model.Ingredient
			supplierID sql.NullString
		)
		if err := rows.Scan(&i.ID, &i.Name, &i.Category, &supplierID); err != nil {
			return nil, fmt.Errorf("sqlite: scanning ingredient: %w", err)
		}
		i.SupplierID = supplierID.String
		out = append(out, i)
	}
	return out, rows.Err()
}
