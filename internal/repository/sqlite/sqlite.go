// Package sqlite implements the repository interfaces using SQLite as the storage backend.
//
// modernc.org/sqlite is a pure Go translation of SQLite, so the binary builds
// without a C toolchain. The *DB value is the single data-store client for the
// process: main opens it once, hands it to the server, and closes it on shutdown.
//
// The database is the arbiter of consistency. Uniqueness (emails, category
// names, saved pairs, one rating per user per recipe) and cascades (recipe ->
// ratings, ingredient links, saved links) are declared in the schema below.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/sakif/cookbook/internal/repository"
)

// DB wraps a sql.DB connection pool and hands out per-entity stores.
type DB struct {
	conn *sql.DB
}

// New opens the SQLite database at dbPath and runs migrations.
//
// dbPath examples:
//   - "data/cookbook.db"  → file-based database (persistent)
//   - ":memory:"          → in-memory database (tests)
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// One connection: SQLite serialises writers anyway, and pragmas are
	// per-connection so they must stick to the only one we have.
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets readers proceed while a write is in flight.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Foreign keys are OFF by default in SQLite. Cascading deletes depend on them.
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	if _, err := conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting busy timeout: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping reports whether the database is reachable. Used by the health endpoint.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

func (db *DB) Users() *UserDB                 { return &UserDB{conn: db.conn} }
func (db *DB) Recipes() *RecipeDB             { return &RecipeDB{conn: db.conn} }
func (db *DB) Ingredients() *IngredientDB     { return &IngredientDB{conn: db.conn} }
func (db *DB) Ratings() *RatingDB             { return &RatingDB{conn: db.conn} }
func (db *DB) Notifications() *NotificationDB { return &NotificationDB{conn: db.conn} }
func (db *DB) SavedRecipes() *SavedRecipeDB   { return &SavedRecipeDB{conn: db.conn} }
func (db *DB) Categories() *CategoryDB        { return &CategoryDB{conn: db.conn} }

var _ repository.StatsRepository = (*DB)(nil)

// Counts returns the row counts shown on the admin overview.
func (db *DB) Counts(ctx context.Context) (*repository.SiteCounts, error) {
	var c repository.SiteCounts
	err := db.conn.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM recipes),
			(SELECT COUNT(*) FROM ratings),
			(SELECT COUNT(*) FROM categories)`,
	).Scan(&c.Users, &c.Recipes, &c.Ratings, &c.Categories)
	if err != nil {
		return nil, fmt.Errorf("sqlite: counting rows: %w", err)
	}
	return &c, nil
}

// migrate creates the schema. Every statement is idempotent.
func (db *DB) migrate() error {
	stmts := []struct {
		name string
		sql  string
	}{
		{"users", `
			CREATE TABLE IF NOT EXISTS users (
				id            TEXT PRIMARY KEY,
				name          TEXT NOT NULL,
				email         TEXT NOT NULL UNIQUE,
				password_hash TEXT NOT NULL DEFAULT '',
				role          TEXT NOT NULL DEFAULT 'User' CHECK (role IN ('User', 'Admin')),
				created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
			);`},
		{"recipes", `
			CREATE TABLE IF NOT EXISTS recipes (
				id           TEXT PRIMARY KEY,
				title        TEXT NOT NULL,
				description  TEXT NOT NULL,
				cuisine      TEXT,
				prep_time    INTEGER NOT NULL,
				cook_time    INTEGER NOT NULL,
				instructions TEXT NOT NULL,
				user_id      TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
			);
			CREATE INDEX IF NOT EXISTS idx_recipes_user_id ON recipes(user_id);
			CREATE INDEX IF NOT EXISTS idx_recipes_created_at ON recipes(created_at);`},
		{"suppliers", `
			CREATE TABLE IF NOT EXISTS suppliers (
				id           TEXT PRIMARY KEY,
				name         TEXT NOT NULL UNIQUE,
				contact_info TEXT NOT NULL DEFAULT ''
			);`},
		{"ingredients", `
			CREATE TABLE IF NOT EXISTS ingredients (
				id          TEXT PRIMARY KEY,
				name        TEXT NOT NULL UNIQUE,
				category    TEXT NOT NULL DEFAULT '',
				supplier_id TEXT REFERENCES suppliers(id) ON DELETE SET NULL
			);`},
		{"recipe_ingredients", `
			CREATE TABLE IF NOT EXISTS recipe_ingredients (
				recipe_id     TEXT NOT NULL REFERENCES recipes(id) ON DELETE CASCADE,
				ingredient_id TEXT NOT NULL REFERENCES ingredients(id),
				quantity      REAL NOT NULL DEFAULT 0,
				unit          TEXT NOT NULL DEFAULT '',
				PRIMARY KEY (recipe_id, ingredient_id)
			);`},
		{"ratings", `
			CREATE TABLE IF NOT EXISTS ratings (
				id         TEXT PRIMARY KEY,
				recipe_id  TEXT NOT NULL REFERENCES recipes(id) ON DELETE CASCADE,
				user_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				rating     INTEGER NOT NULL CHECK (rating BETWEEN 1 AND 5),
				comment    TEXT NOT NULL DEFAULT '',
				created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
				UNIQUE (recipe_id, user_id)
			);`},
		{"notifications", `
			CREATE TABLE IF NOT EXISTS notifications (
				id      TEXT PRIMARY KEY,
				user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				message TEXT NOT NULL,
				is_read INTEGER NOT NULL DEFAULT 0,
				sent_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
			);
			CREATE INDEX IF NOT EXISTS idx_notifications_user_id ON notifications(user_id);`},
		{"saved_recipes", `
			CREATE TABLE IF NOT EXISTS saved_recipes (
				user_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				recipe_id  TEXT NOT NULL REFERENCES recipes(id) ON DELETE CASCADE,
				created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
				PRIMARY KEY (user_id, recipe_id)
			);`},
		{"categories", `
			CREATE TABLE IF NOT EXISTS categories (
				id   TEXT PRIMARY KEY,
				name TEXT NOT NULL UNIQUE
			);`},
	}

	for _, s := range stmts {
		if _, err := db.conn.Exec(s.sql); err != nil {
			return fmt.Errorf("creating %s table: %w", s.name, err)
		}
	}
	return nil
}

// isUniqueViolation reports whether err is a UNIQUE or PRIMARY KEY constraint failure.
func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		}
	}
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// nullString maps "" to SQL NULL for optional text columns.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
