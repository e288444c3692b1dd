package models

import "time"

// Account is a connected Google identity. Tokens are stored sealed and never serialised.
type Account struct {
	ID           string     `db:"id" json:"id"`
	Email        string     `db:"email" json:"google_email"`
	AccessToken  string     `db:"access_token" json:"-"`
	RefreshToken *string    `db:"refresh_token" json:"-"`
	TokenExpiry  *time.Time `db:"token_expiry" json:"token_expiry,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// HasRefreshToken reports whether a sealed refresh token is stored.
func (a *Account) HasRefreshToken() bool {
	return a.RefreshToken != nil && *a.RefreshToken != ""
}
