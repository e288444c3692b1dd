package models

import "github.com/golang-jwt/jwt/v5"

// SessionClaims is the payload of operator session tokens issued after the OAuth callback.
type SessionClaims struct {
	AccountID string `json:"account_id"`
	Email     string `json:"email"`
	jwt.RegisteredClaims
}

// OAuthStateClaims is the payload of the short-lived OAuth state parameter.
type OAuthStateClaims struct {
	Nonce    string `json:"nonce"`
	Redirect string `json:"redirect,omitempty"`
	jwt.RegisteredClaims
}
