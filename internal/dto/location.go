package dto

import "github.com/noah-isme/review-desk-api/internal/models"

// LocationDetail is returned by GET /locations/:id, with reviews when include_reviews=true.
type LocationDetail struct {
	models.Location
	Reviews []models.Review `json:"reviews,omitempty"`
}

// ReviewQuery mirrors GET /locations/:id/reviews filters.
type ReviewQuery struct {
	Unreplied bool
	Page      int
	PageSize  int
}
