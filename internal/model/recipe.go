package model

import "time"

// Recipe is a user-authored recipe. UserID is the owner.
type Recipe struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Cuisine      string    `json:"cuisine,omitempty"` // empty when not set
	PrepTime     int       `json:"prepTime"`          // minutes
	CookTime     int       `json:"cookTime"`          // minutes
	Instructions string    `json:"instructions"`
	UserID       string    `json:"userId"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// RecipeSummary is a recipe as shown in lists: the owner's name and the
// derived rating figures ride along with it.
type RecipeSummary struct {
	Recipe
	AuthorName    string  `json:"authorName"`
	AverageRating float64 `json:"averageRating"`
	RatingCount   int     `json:"ratingCount"`
}

// RecipeDetail is the single-recipe view.
type RecipeDetail struct {
	RecipeSummary
	Ingredients []RecipeIngredient `json:"ingredients"`
	Ratings     []Rating           `json:"ratings"`
}

// RatingStats is the raw aggregate the store returns for a recipe.
// Averages are never stored; they are derived from these on every read.
type RatingStats struct {
	Sum   int
	Count int
}

// RecipeRow is what the store returns for list queries.
type RecipeRow struct {
	Recipe
	AuthorName string
	Stats      RatingStats
}
