package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sakif/cookbook/internal/auth"
	"github.com/sakif/cookbook/internal/service"
)

type RatingHandler struct {
	ratings *service.RatingService
	logger  *slog.Logger
}

func NewRatingHandler(ratings *service.RatingService, logger *slog.Logger) *RatingHandler {
	return &RatingHandler{ratings: ratings, logger: logger}
}

// HTTP: GET /api/recipes/{id}/ratings
func (h *RatingHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ratings, err := h.ratings.List(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeSuccess(w, http.StatusOK, "", ratings)
}

// HandleRate creates the caller's rating for a recipe, or overwrites it if
// they already rated it. 201 on first rating, 200 on overwrite.
//
// HTTP: POST /api/recipes/{id}/ratings  {"rating": 4, "comment": "..."}
func (h *RatingHandler) HandleRate(w http.ResponseWriter, r *http.Request) {
	var in service.RateInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, h.logger, err)
		return
	}

	result, err := h.ratings.Rate(r.Context(), auth.UserFromContext(r.Context()), chi.URLParam(r, "id"), in)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	if result.Created {
		writeSuccess(w, http.StatusCreated, "Rating submitted", result)
		return
	}
	writeSuccess(w, http.StatusOK, "Rating updated", result)
}

// HTTP: DELETE /api/ratings/{id}
func (h *RatingHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.ratings.Delete(r.Context(), auth.UserFromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Rating deleted", nil)
}
