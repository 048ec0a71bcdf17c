package service

import (
	"context"
	"fmt"
	"log"

	"tomato_backend/internal/model"
)

// AuthService bridges a federated identity token to a local session token.
type AuthService struct {
	verifier IdentityVerifier
	users    *UserService
	codec    *TokenCodec
}

func NewAuthService(verifier IdentityVerifier, users *UserService, codec *TokenCodec) *AuthService {
	return &AuthService{
		verifier: verifier,
		users:    users,
		codec:    codec,
	}
}

// SignIn verifies googleToken, makes sure the user exists, records the
// device token and issues a session token.
func (s *AuthService) SignIn(ctx context.Context, googleToken, deviceToken string) (*model.SignInResponse, error) {
	// A missing secret is a deployment problem; don't touch the provider or the store.
	if !s.codec.HasSecret() {
		return nil, model.ErrMissingSigningSecret
	}

	identity, err := s.verifier.Verify(ctx, googleToken)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetOrCreate(ctx, identity.Subject, identity.DisplayName)
	if err != nil {
		return nil, err
	}

	if err := s.users.LinkDevice(ctx, user.ID, deviceToken); err != nil {
		return nil, err
	}

	token, err := s.codec.Issue(identity.Subject, identity.DisplayName)
	if err != nil {
		return nil, fmt.Errorf("issue session token: %w", err)
	}

	log.Printf("[AuthService] User %s signed in", user.ID)
	return &model.SignInResponse{
		Token:  token,
		UserID: user.ID,
	}, nil
}
