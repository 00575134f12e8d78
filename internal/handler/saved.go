package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sakif/cookbook/internal/auth"
	"github.com/sakif/cookbook/internal/service"
)

// SavedRecipeHandler manages the signed-in user's bookmarks.
type SavedRecipeHandler struct {
	saved  *service.SavedRecipeService
	logger *slog.Logger
}

func NewSavedRecipeHandler(saved *service.SavedRecipeService, logger *slog.Logger) *SavedRecipeHandler {
	return &SavedRecipeHandler{saved: saved, logger: logger}
}

// HandleStatus reports whether the caller has saved the recipe. Anonymous
// callers get false rather than 401 so recipe pages can call it freely.
//
// HTTP: GET /api/recipes/{id}/save
func (h *SavedRecipeHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	saved, err := h.saved.IsSaved(r.Context(), auth.UserFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeSuccess(w, http.StatusOK, "", map[string]bool{"saved": saved})
}

// HTTP: POST /api/recipes/{id}/save
func (h *SavedRecipeHandler) HandleSave(w http.ResponseWriter, r *http.Request) {
	if err := h.saved.Save(r.Context(), auth.UserFromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeSuccess(w, http.StatusCreated, "Recipe saved", nil)
}

// HTTP: DELETE /api/recipes/{id}/save
func (h *SavedRecipeHandler) HandleUnsave(w http.ResponseWriter, r *http.Request) {
	if err := h.saved.Unsave(r.Context(), auth.UserFromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Recipe removed from saved", nil)
}

// HTTP: GET /api/saved-recipes
func (h *SavedRecipeHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	recipes, err := h.saved.List(r.Context(), auth.UserFromContext(r.Context()))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeSuccess(w, http.StatusOK, "", recipes)
}
