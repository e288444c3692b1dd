package dto

import "time"

// LoginURLResponse is returned when the client asks for the URL instead of a redirect.
type LoginURLResponse struct {
	AuthorizationURL string `json:"authorization_url"`
}

// SessionResponse is returned by the OAuth callback.
type SessionResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
	AccountID   string    `json:"account_id"`
	Email       string    `json:"google_email"`
}

// SyncResult summarises a synchronisation run.
type SyncResult struct {
	AccountID  string `json:"account_id,omitempty"`
	LocationID string `json:"location_id,omitempty"`
	Synced     int    `json:"synced"`
	Skipped    int    `json:"skipped"`
	Suggested  int    `json:"suggested,omitempty"`
}

// EnqueueSyncResponse is returned when review sync jobs were queued.
type EnqueueSyncResponse struct {
	Queued  int `json:"queued"`
	Skipped int `json:"skipped"`
}
