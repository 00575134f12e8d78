package model

// Category is an admin-managed label with a unique name.
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
