package models

import "time"

// ReplyTemplate is reply text with {placeholders}, eligible for ratings in [RatingMin, RatingMax].
type ReplyTemplate struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Content   string    `db:"content" json:"content"`
	RatingMin int       `db:"rating_min" json:"rating_min"`
	RatingMax int       `db:"rating_max" json:"rating_max"`
	IsActive  bool      `db:"is_active" json:"is_active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Covers reports whether rating falls inside the template's inclusive range.
func (t *ReplyTemplate) Covers(rating int) bool {
	return rating >= t.RatingMin && rating <= t.RatingMax
}

// TemplateFilter constrains template listings.
type TemplateFilter struct {
	ActiveOnly bool
}
