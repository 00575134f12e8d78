package model

// Supplier provides ingredients. Reference data only.
type Supplier struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ContactInfo string `json:"contactInfo,omitempty"`
}

type Ingredient struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Category   string `json:"category,omitempty"`
	SupplierID string `json:"supplierId,omitempty"`
}

// RecipeIngredient links a recipe to an ingredient with an amount.
type RecipeIngredient struct {
	RecipeID     string  `json:"recipeId"`
	IngredientID string  `json:"ingredientId"`
	Name         string  `json:"name"`
	Category     string  `json:"category,omitempty"`
	Quantity     float64 `json:"quantity"`
	Unit         string  `json:"unit"`
}
