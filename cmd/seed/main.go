// Command seed creates the admin account and the reference data (categories,
// suppliers, ingredients). Running it twice changes nothing.
//
//	SEED_ADMIN_PASSWORD=... go run ./cmd/seed
//
// It reads the same configuration as the server, so DB_PATH and BCRYPT_COST
// apply. SEED_ADMIN_EMAIL defaults to admin@cookbook.com.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/sakif/cookbook/internal/apperror"
	"github.com/sakif/cookbook/internal/auth"
	"github.com/sakif/cookbook/internal/config"
	"github.com/sakif/cookbook/internal/model"
	"github.com/sakif/cookbook/internal/repository/sqlite"
)

var categories = []string{
	"Italian", "Asian", "Mexican", "Mediterranean",
	"Desserts", "Breakfast", "Vegetarian", "Seafood",
}

var suppliers = []model.Supplier{
	{Name: "Fresh Farms", ContactInfo: "contact@freshfarms.com"},
	{Name: "Spice World", ContactInfo: "info@spiceworld.com"},
	{Name: "Dairy Delights", ContactInfo: "orders@dairydelights.com"},
}

// ingredients maps each ingredient to its supplier by name.
var ingredients = []struct {
	Name, Category, Supplier string
}{
	{"Pasta", "Grains", "Fresh Farms"},
	{"Tomatoes", "Vegetables", "Fresh Farms"},
	{"Garlic", "Vegetables", "Fresh Farms"},
	{"Parmesan Cheese", "Dairy", "Dairy Delights"},
	{"Basil", "Herbs", "Spice World"},
	{"Olive Oil", "Oils", "Spice World"},
	{"Chicken", "Meat", "Fresh Farms"},
	{"Rice", "Grains", "Fresh Farms"},
	{"Soy Sauce", "Condiments", "Spice World"},
	{"Ginger", "Vegetables", "Spice World"},
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	if err := run(context.Background(), logger); err != nil {
		logger.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("seed complete")
}

func run(ctx context.Context, logger *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	password := os.Getenv("SEED_ADMIN_PASSWORD")
	if len(password) < 6 {
		return errors.New("SEED_ADMIN_PASSWORD must be set to at least 6 characters")
	}
	email := strings.ToLower(strings.TrimSpace(os.Getenv("SEED_ADMIN_EMAIL")))
	if email == "" {
		email = "admin@cookbook.com"
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return err
	}
	db, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	passwords, err := auth.NewPasswordService(cfg.BcryptCost)
	if err != nil {
		return err
	}

	if err := seedAdmin(ctx, db, passwords, email, password, logger); err != nil {
		return err
	}
	if err := seedCategories(ctx, db, logger); err != nil {
		return err
	}
	return seedIngredients(ctx, db, logger)
}

// seedAdmin creates the admin, or promotes an existing account with that
// email. An existing password is left alone.
func seedAdmin(ctx context.Context, db *sqlite.DB, passwords *auth.PasswordService, email, password string, logger *slog.Logger) error {
	users := db.Users()

	existing, err := users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.Role == model.RoleAdmin {
			logger.Info("admin already present", slog.String("email", email))
			return nil
		}
		existing.Role = model.RoleAdmin
		if err := users.Update(ctx, existing); err != nil {
			return fmt.Errorf("promoting %s: %w", email, err)
		}
		logger.Info("promoted existing user to admin", slog.String("email", email))
		return nil
	case !errors.Is(err, apperror.ErrNotFound):
		return fmt.Errorf("looking up %s: %w", email, err)
	}

	hash, err := passwords.Hash(password)
	if err != nil {
		return err
	}
	admin := &model.User{
		Name:         "Admin User",
		Email:        email,
		PasswordHash: hash,
		Role:         model.RoleAdmin,
	}
	if err := users.Create(ctx, admin); err != nil {
		return fmt.Errorf("creating admin: %w", err)
	}
	logger.Info("created admin", slog.String("email", email), slog.String("id", admin.ID))
	return nil
}

func seedCategories(ctx context.Context, db *sqlite.DB, logger *slog.Logger) error {
	created := 0
	for _, name := range categories {
		err := db.Categories().Create(ctx, &model.Category{Name: name})
		switch {
		case err == nil:
			created++
		case errors.Is(err, apperror.ErrConflict):
		default:
			return fmt.Errorf("creating category %q: %w", name, err)
		}
	}
	logger.Info("categories seeded", slog.Int("created", created), slog.Int("total", len(categories)))
	return nil
}

func seedIngredients(ctx context.Context, db *sqlite.DB, logger *slog.Logger) error {
	store := db.Ingredients()

	supplierIDs := make(map[string]string, len(suppliers))
	for _, s := range suppliers {
		if err := store.FindOrCreateSupplier(ctx, &s); err != nil {
			return err
		}
		supplierIDs[s.Name] = s.ID
	}

	for _, i := range ingredients {
		ingredient := &model.Ingredient{
			Name:       i.Name,
			Category:   i.Category,
			SupplierID: supplierIDs[i.Supplier],
		}
		if err := store.FindOrCreateIngredient(ctx, ingredient); err != nil {
			return err
		}
	}
	logger.Info("reference data seeded",
		slog.Int("suppliers", len(suppliers)),
		slog.Int("ingredients", len(ingredients)),
	)
	return nil
}
