// Package server is the composition root: it builds the services and
// handlers on top of an open database, mounts them on a chi router and runs
// the HTTP server until a shutdown signal arrives.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/cookbook/internal/auth"
	"github.com/sakif/cookbook/internal/config"
	"github.com/sakif/cookbook/internal/handler"
	"github.com/sakif/cookbook/internal/middleware"
	"github.com/sakif/cookbook/internal/repository/sqlite"
	"github.com/sakif/cookbook/internal/service"
)

// Server owns the router. The database is opened and closed by the caller.
type Server struct {
	router *chi.Mux
	config *config.Config
	logger *slog.Logger
}

// New wires every layer:
//
//	sqlite.DB → repositories → services → handlers → routes
//
// Each layer only sees the one below it through interfaces or concrete
// services; nothing reaches for globals.
func New(cfg *config.Config, db *sqlite.DB, logger *slog.Logger) (*Server, error) {
	tokens, err := auth.NewTokenService(cfg.JWTSecret, auth.WithTTL(cfg.TokenTTL))
	if err != nil {
		return nil, fmt.Errorf("server: token service: %w", err)
	}
	passwords, err := auth.NewPasswordService(cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("server: password service: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
	}
	s.setupRoutes(db, tokens, passwords)
	return s, nil
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes mounts middleware and handlers.
//
// Middleware order:
//  1. RequestID, then RealIP only when TRUST_PROXY is on; the forwarding
//     headers are client-controlled and the login throttle keys on RemoteAddr
//  2. Logger, wrapping Recoverer so a panic is logged as a 500
//  3. Authenticate puts the resolved user (or nil) in the context
//  4. RouteGate redirects page requests by session state
func (s *Server) setupRoutes(db *sqlite.DB, tokens *auth.TokenService, passwords *auth.PasswordService) {
	cookie := auth.SessionCookie{
		Secure: s.config.Production(),
		MaxAge: tokens.TTL(),
	}
	resolver := auth.NewResolver(tokens, cookie, db.Users(), s.logger)

	s.router.Use(chimiddleware.RequestID)
	if s.config.TrustProxy {
		s.router.Use(chimiddleware.RealIP)
	}
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(resolver.Authenticate)
	s.router.Use(auth.RouteGate(tokens, cookie))
	s.router.NotFound(handler.NotFound)

	notificationService := service.NewNotificationService(db.Notifications(), s.logger)
	authService := service.NewAuthService(db.Users(), tokens, passwords, s.logger)
	recipeService := service.NewRecipeService(db.Recipes(), db.Ratings(), db.Ingredients(), s.logger)
	ratingService := service.NewRatingService(db.Ratings(), db.Recipes(), notificationService, s.logger)
	savedService := service.NewSavedRecipeService(db.SavedRecipes(), db.Recipes(), s.logger)
	categoryService := service.NewCategoryService(db.Categories(), s.logger)
	dashboardService := service.NewDashboardService(db.Users(), db.Recipes(), db.SavedRecipes(), db.Notifications(), db)

	var github *auth.GitHubProvider
	if s.config.GitHubEnabled() {
		github = auth.NewGitHubProvider(s.config.GitHubClientID, s.config.GitHubClientSecret, s.config.GitHubCallbackURL)
	}

	authHandler := handler.NewAuthHandler(authService, cookie, github, s.logger)
	recipeHandler := handler.NewRecipeHandler(recipeService, s.logger)
	ratingHandler := handler.NewRatingHandler(ratingService, s.logger)
	savedHandler := handler.NewSavedRecipeHandler(savedService, s.logger)
	notificationHandler := handler.NewNotificationHandler(notificationService, s.logger)
	categoryHandler := handler.NewCategoryHandler(categoryService, s.logger)
	pageHandler := handler.NewPageHandler(dashboardService, s.logger)

	s.router.Get("/health", handler.HandleHealth(db, s.logger))

	// === Session ===
	limiter := middleware.NewIPLimiter(s.config.LoginRatePerMinute)
	throttle := middleware.RateLimit(limiter, handler.TooManyRequests)

	s.router.Get("/login", authHandler.HandleLoginPage)
	s.router.Get("/register", authHandler.HandleLoginPage)
	s.router.With(throttle).Post("/login", authHandler.HandleLogin)
	s.router.With(throttle).Post("/register", authHandler.HandleRegister)
	s.router.Post("/logout", authHandler.HandleLogout)

	if github != nil {
		s.router.Get("/auth/github/login", authHandler.HandleGitHubLogin)
		s.router.Get("/auth/github/callback", authHandler.HandleGitHubCallback)
	}

	// === Gated pages ===
	s.router.Get("/dashboard", pageHandler.HandleDashboard)
	s.router.Get("/admin", pageHandler.HandleAdmin)

	// === API ===
	// Reads are public. Writes pass whatever user the resolver found (possibly
	// nil) to the service, which decides between 401 and 403.
	s.router.Route("/api", func(r chi.Router) {
		r.Get("/me", authHandler.HandleMe)
		r.Put("/user/profile", authHandler.HandleUpdateProfile)
		r.Put("/user/password", authHandler.HandleChangePassword)

		r.Route("/recipes", func(r chi.Router) {
			r.Get("/", recipeHandler.HandleList)
			r.Post("/", recipeHandler.HandleCreate)
			r.Get("/cuisines", recipeHandler.HandleCuisines)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", recipeHandler.HandleGet)
				r.Put("/", recipeHandler.HandleUpdate)
				r.Delete("/", recipeHandler.HandleDelete)

				r.Get("/ratings", ratingHandler.HandleList)
				r.Post("/ratings", ratingHandler.HandleRate)

				r.Get("/save", savedHandler.HandleStatus)
				r.Post("/save", savedHandler.HandleSave)
				r.Delete("/save", savedHandler.HandleUnsave)
			})
		})

		r.Delete("/ratings/{id}", ratingHandler.HandleDelete)
		r.Get("/saved-recipes", savedHandler.HandleList)

		r.Get("/notifications", notificationHandler.HandleList)
		r.Put("/notifications/read-all", notificationHandler.HandleMarkAllRead)
		r.Put("/notifications/{id}/read", notificationHandler.HandleMarkRead)
		r.Delete("/notifications/{id}", notificationHandler.HandleDelete)

		r.Get("/categories", categoryHandler.HandleList)
		r.Post("/categories", categoryHandler.HandleCreate)
		r.Delete("/categories/{id}", categoryHandler.HandleDelete)

		r.Get("/ingredients", recipeHandler.HandleIngredients)
	})
}

// Start serves until SIGINT/SIGTERM, then gives in-flight requests up to 30
// seconds to finish.
func (s *Server) Start() error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
			slog.String("database", s.config.DBPath),
			slog.Bool("github", s.config.GitHubEnabled()),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
