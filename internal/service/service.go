// Package service holds the business rules of the cookbook.
//
//	Handler (HTTP) → Service (rules, access checks) → Repository (SQL)
//
// Services know nothing about HTTP. Every method that changes state takes the
// acting user (nil for anonymous) as an explicit argument and follows the same
// order:
//
//  1. no actor → apperror.ErrUnauthenticated
//  2. load the stored resource → apperror.ErrNotFound
//  3. access.Authorize against the STORED owner → apperror.ErrForbidden
//  4. validate the payload → apperror.ErrValidation
//  5. write
//
// Ownership is never taken from the payload. Input structs have no owner
// field to forge.
package service

import (
	"math"

	"github.com/sakif/cookbook/internal/access"
	"github.com/sakif/cookbook/internal/apperror"
	"github.com/sakif/cookbook/internal/model"
)

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

// requireActor fails with ErrUnauthenticated before any lookup happens, so
// an anonymous caller learns nothing about which ids exist.
func requireActor(actor *model.User) error {
	if actor == nil {
		return apperror.Unauthenticated(access.ReasonAuthRequired)
	}
	return nil
}

// AverageRating returns sum/count rounded half-up to one decimal place, or 0
// when there are no ratings. It works in integer tenths so 4.25 rounds to 4.3
// regardless of float representation.
func AverageRating(sum, count int) float64 {
	if count <= 0 {
		return 0
	}
	tenths := (20*sum + count) / (2 * count)
	return float64(tenths) / 10
}

// Summarize derives the public list view of a stored recipe row.
func Summarize(row model.RecipeRow) model.RecipeSummary {
	return model.RecipeSummary{
		Recipe:        row.Recipe,
		AuthorName:    row.AuthorName,
		AverageRating: AverageRating(row.Stats.Sum, row.Stats.Count),
		RatingCount:   row.Stats.Count,
	}
}

func summarizeAll(rows []model.RecipeRow) []model.RecipeSummary {
	out := make([]model.RecipeSummary, 0, len(rows))
	for _, row := range rows {
		out = append(out, Summarize(row))
	}
	return out
}

// Pagination describes one page of a listing.
type Pagination struct {
	Total int `json:"total"`
	Pages int `json:"pages"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// normalizePage clamps page and limit to usable values.
func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	return page, limit
}

func newPagination(total, page, limit int) Pagination {
	return Pagination{
		Total: total,
		Pages: int(math.Ceil(float64(total) / float64(limit))),
		Page:  page,
		Limit: limit,
	}
}
