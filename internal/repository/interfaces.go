package repository

import (
	"context"

	"tomato_backend/internal/model"
)

type UserRepository interface {
	// Create inserts a user. Returns model.ErrDuplicateUser when the id is taken.
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	// AppendDeviceToken adds token to the end of the user's device tokens.
	AppendDeviceToken(ctx context.Context, id, token string) error
}

type PostRepository interface {
	Create(ctx context.Context, post *model.Post) error
	GetByID(ctx context.Context, postID string) (*model.Post, error)
	// Update applies patch only if ownerID owns the post.
	// Returns model.ErrForbidden or model.ErrPostNotFound otherwise.
	Update(ctx context.Context, postID, ownerID string, patch model.UpdatePostRequest) (*model.Post, error)
	// Delete removes the post only if ownerID owns it.
	Delete(ctx context.Context, postID, ownerID string) error
	// Find returns posts matching filter in creation order.
	Find(ctx context.Context, filter model.PostFilter) ([]model.Post, error)
}
