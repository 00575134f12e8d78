package model

import "time"

// SavedRecipe is the (user, recipe) bookmark link. The pair is unique.
type SavedRecipe struct {
	UserID    string    `json:"userId"`
	RecipeID  string    `json:"recipeId"`
	CreatedAt time.Time `json:"createdAt"`
}
