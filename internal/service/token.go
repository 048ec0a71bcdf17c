package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"tomato_backend/internal/model"
)

// sessionClaims is the JWT payload of a session token.
type sessionClaims struct {
	Name string `json:"name"`
	jwt.RegisteredClaims
}

// TokenCodec mints and verifies HS256 session tokens.
type TokenCodec struct {
	secret string
	maxAge time.Duration
	now    func() time.Time
}

// NewTokenCodec builds a codec. An empty secret is allowed: every Issue and
// Verify then fails with model.ErrMissingSigningSecret.
func NewTokenCodec(secret string, maxAge time.Duration) *TokenCodec {
	if maxAge <= 0 {
		maxAge = model.DefaultSessionTokenMaxAge
	}
	return &TokenCodec{
		secret: secret,
		maxAge: maxAge,
		now:    time.Now,
	}
}

// HasSecret reports whether a signing secret is configured.
func (c *TokenCodec) HasSecret() bool {
	return c.secret != ""
}

// Issue signs a token for subject valid for the codec's max age.
func (c *TokenCodec) Issue(subject, name string) (string, error) {
	if !c.HasSecret() {
		return "", model.ErrMissingSigningSecret
	}

	now := c.now()
	claims := sessionClaims{
		Name: name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.maxAge)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(c.secret))
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// Verify checks signature and expiry and returns the token's claims.
// Failures are one of model.ErrTokenExpired, model.ErrTokenMalformed or
// model.ErrTokenSignatureInvalid, wrapping the parser's error.
func (c *TokenCodec) Verify(tokenString string) (*model.SessionClaims, error) {
	if !c.HasSecret() {
		return nil, model.ErrMissingSigningSecret
	}

	var claims sessionClaims
	_, err := jwt.ParseWithClaims(tokenString, &claims,
		func(*jwt.Token) (interface{}, error) {
			return []byte(c.secret), nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return nil, classifyTokenError(err)
	}

	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", model.ErrTokenMalformed)
	}

	verified := &model.SessionClaims{
		Subject:     claims.Subject,
		DisplayName: claims.Name,
		ExpiresAt:   claims.ExpiresAt.Time,
	}
	if claims.IssuedAt != nil {
		verified.IssuedAt = claims.IssuedAt.Time
	}
	return verified, nil
}

// classifyTokenError maps jwt parser errors onto the session token taxonomy.
func classifyTokenError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %v", model.ErrTokenSignatureInvalid, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %v", model.ErrTokenExpired, err)
	default:
		return fmt.Errorf("%w: %v", model.ErrTokenMalformed, err)
	}
}
