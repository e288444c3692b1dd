package models

import "time"

// Location is a Business Profile location. LocationID is Google's natural key.
type Location struct {
	ID           string     `db:"id" json:"id"`
	AccountID    string     `db:"account_id" json:"account_id"`
	LocationID   string     `db:"location_id" json:"location_id"`
	Name         string     `db:"name" json:"name"`
	Address      *string    `db:"address" json:"address,omitempty"`
	LastSyncedAt *time.Time `db:"last_synced_at" json:"last_synced_at,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// LocationFilter narrows location listings.
type LocationFilter struct {
	AccountID string
}
