package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"tomato_backend/internal/model"
	"tomato_backend/internal/repository"
)

// UserService is the user directory: federated subjects mapped to local records.
type UserService struct {
	repo repository.UserRepository
}

func NewUserService(repo repository.UserRepository) *UserService {
	return &UserService{repo: repo}
}

// GetByID retrieves a user by ID.
// Returns model.ErrUserNotFound, or an error wrapping model.ErrPersistence
// when the lookup itself failed.
func (s *UserService) GetByID(ctx context.Context, id string) (*model.User, error) {
	return s.repo.GetByID(ctx, id)
}

// GetOrCreate returns the user for subject, creating it on first sight.
//
// Two concurrent first sign-ins both miss the lookup and both try to insert;
// the primary key rejects the second one with ErrDuplicateUser and that caller
// reads back the winner's record.
func (s *UserService) GetOrCreate(ctx context.Context, subject, displayName string) (*model.User, error) {
	if strings.TrimSpace(subject) == "" {
		return nil, fmt.Errorf("subject is required")
	}

	user, err := s.repo.GetByID(ctx, subject)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, model.ErrUserNotFound) {
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	user = &model.User{
		ID:          subject,
		DisplayName: displayName,
	}
	err = s.repo.Create(ctx, user)
	if err == nil {
		log.Printf("[UserService] Created user %s", subject)
		return user, nil
	}
	if !errors.Is(err, model.ErrDuplicateUser) {
		return nil, fmt.Errorf("create user: %w", err)
	}

	log.Printf("[UserService] Concurrent create for user %s, reading existing record", subject)
	user, err = s.repo.GetByID(ctx, subject)
	if err != nil {
		return nil, fmt.Errorf("lookup user after duplicate create: %w", err)
	}
	return user, nil
}

// LinkDevice appends the device token used for a sign-in.
func (s *UserService) LinkDevice(ctx context.Context, userID, deviceToken string) error {
	if deviceToken == "" {
		return nil
	}
	if err := s.repo.AppendDeviceToken(ctx, userID, deviceToken); err != nil {
		return fmt.Errorf("link device: %w", err)
	}
	return nil
}
