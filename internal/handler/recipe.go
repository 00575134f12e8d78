package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sakif/cookbook/internal/auth"
	"github.com/sakif/cookbook/internal/service"
)

// RecipeHandler serves recipe CRUD plus the cuisine and ingredient lookups
// the recipe form needs. Reads are public; writes go through the service,
// which checks the session and ownership.
type RecipeHandler struct {
	recipes *service.RecipeService
	logger  *slog.Logger
}

func NewRecipeHandler(recipes *service.RecipeService, logger *slog.Logger) *RecipeHandler {
	return &RecipeHandler{recipes: recipes, logger: logger}
}

// HandleList returns one page of recipes.
//
// HTTP: GET /api/recipes?page=1&limit=10&search=soup&cuisine=Thai&userId=...
func (h *RecipeHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	query := r.URL.Query()
	result, err := h.recipes.List(r.Context(), service.ListParams{
		Page:    page,
		Limit:   limit,
		Search:  query.Get("search"),
		Cuisine: query.Get("cuisine"),
		UserID:  query.Get("userId"),
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeSuccess(w, http.StatusOK, "", result)
}

// HTTP: GET /api/recipes/{id}
func (h *RecipeHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	recipe, err := h.recipes.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeSuccess(w, http.StatusOK, "", recipe)
}

// HTTP: GET /api/recipes/cuisines
func (h *RecipeHandler) HandleCuisines(w http.ResponseWriter, r *http.Request) {
	cuisines, err := h.recipes.Cuisines(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeSuccess(w, http.StatusOK, "", cuisines)
}

// HTTP: GET /api/ingredients
func (h *RecipeHandler) HandleIngredients(w http.ResponseWriter, r *http.Request) {
	ingredients, err := h.recipes.Ingredients(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeSuccess(w, http.StatusOK, "", ingredients)
}

// HandleCreate adds a recipe owned by the signed-in user. The owner always
// comes from the session, never from the body.
//
// HTTP: POST /api/recipes
func (h *RecipeHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in service.RecipeInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, h.logger, err)
		return
	}

	recipe, err := h.recipes.Create(r.Context(), auth.UserFromContext(r.Context()), in)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeSuccess(w, http.StatusCreated, "Recipe created successfully", recipe)
}

// HTTP: PUT /api/recipes/{id}
func (h *RecipeHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var in service.RecipeInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, h.logger, err)
		return
	}

	recipe, err := h.recipes.Update(r.Context(), auth.UserFromContext(r.Context()), chi.URLParam(r, "id"), in)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Recipe updated successfully", recipe)
}

// HTTP: DELETE /api/recipes/{id}
func (h *RecipeHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.recipes.Delete(r.Context(), auth.UserFromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Recipe deleted successfully", nil)
}
