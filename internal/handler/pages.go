package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/sakif/cookbook/internal/auth"
	"github.com/sakif/cookbook/internal/service"
)

// PageHandler serves the data behind the gated pages. The route gate has
// already redirected visitors without a valid cookie; the service still
// checks the resolved user, so a token for a deleted account gets 401 here.
type PageHandler struct {
	dashboard *service.DashboardService
	logger    *slog.Logger
}

func NewPageHandler(dashboard *service.DashboardService, logger *slog.Logger) *PageHandler {
	return &PageHandler{dashboard: dashboard, logger: logger}
}

// HTTP: GET /dashboard
func (h *PageHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	dash, err := h.dashboard.Dashboard(r.Context(), auth.UserFromContext(r.Context()))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeSuccess(w, http.StatusOK, "", dash)
}

// HTTP: GET /admin
func (h *PageHandler) HandleAdmin(w http.ResponseWriter, r *http.Request) {
	overview, err := h.dashboard.Admin(r.Context(), auth.UserFromContext(r.Context()))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeSuccess(w, http.StatusOK, "", overview)
}

// Pinger is satisfied by the database handle.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HandleHealth reports whether the database answers within two seconds.
//
// HTTP: GET /health
func HandleHealth(db Pinger, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.Ping(ctx); err != nil {
			logger.Error("health check failed", slog.String("error", err.Error()))
			writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{
				Error:   "unavailable",
				Message: "Database unavailable",
			})
			return
		}
		writeSuccess(w, http.StatusOK, "ok", nil)
	}
}
