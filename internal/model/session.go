package model

import (
	"errors"
	"time"
)

// SessionClaims is the verified content of a session token.
type SessionClaims struct {
	Subject     string
	DisplayName string
	IssuedAt    time.Time
	ExpiresAt   time.Time
}

// Session token errors. All verification failures look the same to clients
// but stay distinct for logging.
var (
	ErrNoCredential          = errors.New("no credential provided")
	ErrMissingSigningSecret  = errors.New("token signing secret is not configured")
	ErrTokenExpired          = errors.New("token expired")
	ErrTokenMalformed        = errors.New("token malformed")
	ErrTokenSignatureInvalid = errors.New("token signature invalid")
)

// Token API error codes (used in HTTP responses)
const (
	CodeNoToken      = "NO_TOKEN"
	CodeTokenInvalid = "TOKEN_INVALID"
)

// Auth failure messages the mobile client matches on.
const (
	MsgNoToken         = "No token provided"
	MsgInvalidToken    = "Invalid token."
	MsgInternalFailure = "Internal Server Error"
)

// DefaultSessionTokenMaxAge is how long a session token stays valid.
const DefaultSessionTokenMaxAge = 7 * 24 * time.Hour
