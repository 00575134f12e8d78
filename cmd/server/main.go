// Command server runs the cookbook HTTP API.
//
// Configuration comes from the environment and an optional .env file; see
// internal/config. The process exits at startup if JWT_SECRET is missing.
package main

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/sakif/cookbook/internal/config"
	"github.com/sakif/cookbook/internal/repository/sqlite"
	"github.com/sakif/cookbook/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// No configured logger yet.
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// run owns the database for the lifetime of the server so the deferred
// Close runs before main exits.
func run(cfg *config.Config, logger *slog.Logger) error {
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return err
	}

	db, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("closing database", slog.String("error", err.Error()))
		}
	}()

	srv, err := server.New(cfg, db, logger)
	if err != nil {
		return err
	}
	return srv.Start()
}
