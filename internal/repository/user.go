package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"tomato_backend/internal/model"
)

// uniqueViolation is the Postgres error code for a unique constraint violation
const uniqueViolation = "23505"

// userRepository implements UserRepository using sqlx
type userRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepository{db: db}
}

// Create inserts a new user. The primary key on id makes concurrent first
// sign-ins for the same subject fail with ErrDuplicateUser instead of racing.
func (r *userRepository) Create(ctx context.Context, u *model.User) error {
	if u.DeviceTokens == nil {
		u.DeviceTokens = pq.StringArray{}
	}

	query := `
		INSERT INTO users (id, display_name, device_tokens, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRowxContext(ctx, query, u.ID, u.DisplayName, u.DeviceTokens).
		Scan(&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return model.ErrDuplicateUser
		}
		return fmt.Errorf("insert user: %w: %v", model.ErrPersistence, err)
	}

	return nil
}

// GetByID retrieves a user by their ID
func (r *userRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	query := `
		SELECT id, display_name, device_tokens, created_at, updated_at
		FROM users
		WHERE id = $1
	`

	var u model.User
	err := r.db.GetContext(ctx, &u, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user by id: %w: %v", model.ErrPersistence, err)
	}

	return &u, nil
}

// AppendDeviceToken records the device used for a sign-in. Duplicates are kept.
func (r *userRepository) AppendDeviceToken(ctx context.Context, id, token string) error {
	query := `
		UPDATE users
		SET device_tokens = array_append(device_tokens, $2), updated_at = NOW()
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query, id, token)
	if err != nil {
		return fmt.Errorf("append device token: %w: %v", model.ErrPersistence, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w: %v", model.ErrPersistence, err)
	}
	if rows == 0 {
		return model.ErrUserNotFound
	}
	return nil
}
