package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"google.golang.org/api/idtoken"
	"google.golang.org/api/option"

	"tomato_backend/internal/model"
)

// IdentityVerifier checks an identity-provider token and says who it belongs to.
type IdentityVerifier interface {
	Verify(ctx context.Context, rawToken string) (*model.Identity, error)
}

// payloadValidator is the part of *idtoken.Validator we depend on.
type payloadValidator interface {
	Validate(ctx context.Context, idToken string, audience string) (*idtoken.Payload, error)
}

// GoogleIdentityVerifier validates Google ID tokens against Google's
// published certificates.
//
// The idtoken package checks signature, issuer, audience and expiry; this
// type adds the Bearer stripping, the claim requirements and the timeout.
type GoogleIdentityVerifier struct {
	validator payloadValidator
	clientID  string
	timeout   time.Duration
}

// NewGoogleIdentityVerifier builds a verifier for tokens issued to clientID.
func NewGoogleIdentityVerifier(ctx context.Context, clientID string, timeout time.Duration, opts ...option.ClientOption) (*GoogleIdentityVerifier, error) {
	if clientID == "" {
		return nil, fmt.Errorf("google client id is required")
	}

	v, err := idtoken.NewValidator(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create google id token validator: %w", err)
	}

	return newGoogleIdentityVerifier(v, clientID, timeout), nil
}

func newGoogleIdentityVerifier(v payloadValidator, clientID string, timeout time.Duration) *GoogleIdentityVerifier {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &GoogleIdentityVerifier{
		validator: v,
		clientID:  clientID,
		timeout:   timeout,
	}
}

// Verify validates rawToken and extracts its subject and display name.
// Every failure, including network errors, is model.ErrInvalidIdentityToken.
func (g *GoogleIdentityVerifier) Verify(ctx context.Context, rawToken string) (*model.Identity, error) {
	token := strings.TrimSpace(strings.TrimPrefix(rawToken, "Bearer "))
	if token == "" {
		return nil, fmt.Errorf("%w: empty token", model.ErrInvalidIdentityToken)
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	payload, err := g.validator.Validate(ctx, token, g.clientID)
	if err != nil {
		log.Printf("[Identity] Google token rejected: %v", err)
		return nil, fmt.Errorf("%w: %v", model.ErrInvalidIdentityToken, err)
	}

	name, _ := payload.Claims["name"].(string)
	if payload.Subject == "" || name == "" {
		return nil, fmt.Errorf("%w: payload lacks subject or name", model.ErrInvalidIdentityToken)
	}

	return &model.Identity{
		Subject:     payload.Subject,
		DisplayName: name,
	}, nil
}
