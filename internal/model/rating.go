package model

import "time"

// Rating is one user's score (1-5) for one recipe. There is at most one per
// (user, recipe) pair.
type Rating struct {
	ID        string    `json:"id"`
	RecipeID  string    `json:"recipeId"`
	UserID    string    `json:"userId"`
	UserName  string    `json:"userName,omitempty"`
	Score     int       `json:"rating"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
