package model

import (
	"errors"
	"time"

	"github.com/lib/pq"
)

// User is a federated account keyed by the identity provider's subject.
type User struct {
	ID           string         `db:"id" json:"_id"`
	DisplayName  string         `db:"display_name" json:"username"`
	DeviceTokens pq.StringArray `db:"device_tokens" json:"firebaseToken,omitempty"` // append-only, sign-in order
	CreatedAt    time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time      `db:"updated_at" json:"updatedAt"`
}

// Public returns a copy safe to show to other users.
func (u *User) Public() *User {
	cp := *u
	cp.DeviceTokens = nil
	return &cp
}

// Identity is what the identity provider asserts about a caller.
type Identity struct {
	Subject     string
	DisplayName string
}

// SignInRequest is the body of POST /user/auth
type SignInRequest struct {
	GoogleToken   string `json:"googleToken"`
	FirebaseToken string `json:"firebaseToken"`
}

// SignInResponse is returned after a successful federated sign-in
type SignInResponse struct {
	Token  string `json:"token"`
	UserID string `json:"userID"`
}

var (
	// ErrUserNotFound is returned when a user cannot be found
	ErrUserNotFound = errors.New("user not found")

	// ErrDuplicateUser is returned by the store when a user id is already taken
	ErrDuplicateUser = errors.New("user already exists")

	// ErrInvalidIdentityToken is returned when the identity provider rejects a token
	ErrInvalidIdentityToken = errors.New("invalid identity token")
)
