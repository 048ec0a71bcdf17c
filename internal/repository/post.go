package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"tomato_backend/internal/model"
)

const postColumns = `id, seq, user_id, latitude, longitude, images, captured_at, note, is_private, created_at, updated_at`

type postRepository struct {
	db *sqlx.DB
}

func NewPostRepository(db *sqlx.DB) PostRepository {
	return &postRepository{db: db}
}

// Create inserts a new post. The id and creation sequence are assigned here.
func (r *postRepository) Create(ctx context.Context, post *model.Post) error {
	post.ID = uuid.NewString()
	if post.Images == nil {
		post.Images = pq.StringArray{}
	}

	query := `
		INSERT INTO posts (id, user_id, latitude, longitude, images, captured_at, note, is_private)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING seq, created_at, updated_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		post.ID,
		post.OwnerID,
		post.Latitude,
		post.Longitude,
		post.Images,
		post.CapturedAt,
		post.Note,
		post.IsPrivate,
	).Scan(&post.Seq, &post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert post: %w: %v", model.ErrPersistence, err)
	}

	return nil
}

// GetByID retrieves a single post.
func (r *postRepository) GetByID(ctx context.Context, postID string) (*model.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE id = $1`

	var post model.Post
	err := r.db.GetContext(ctx, &post, query, postID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrPostNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get post: %w: %v", model.ErrPersistence, err)
	}

	return &post, nil
}

// Update applies a partial patch. The owner check is part of the UPDATE
// statement, so a mismatched owner never changes the row.
func (r *postRepository) Update(ctx context.Context, postID, ownerID string, patch model.UpdatePostRequest) (*model.Post, error) {
	var images interface{}
	if patch.Images != nil {
		images = pq.StringArray(*patch.Images)
	}

	query := `
		UPDATE posts SET
			latitude    = COALESCE($3::double precision, latitude),
			longitude   = COALESCE($4::double precision, longitude),
			images      = COALESCE($5::text[], images),
			captured_at = COALESCE($6::timestamptz, captured_at),
			note        = COALESCE($7::text, note),
			is_private  = COALESCE($8::boolean, is_private),
			updated_at  = NOW()
		WHERE id = $1 AND user_id = $2
		RETURNING ` + postColumns

	var post model.Post
	err := r.db.GetContext(ctx, &post, query,
		postID,
		ownerID,
		patch.Latitude,
		patch.Longitude,
		images,
		patch.CapturedAt,
		patch.Note,
		patch.IsPrivate,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, r.missingOrForbidden(ctx, postID)
	}
	if err != nil {
		return nil, fmt.Errorf("update post: %w: %v", model.ErrPersistence, err)
	}

	return &post, nil
}

// Delete removes a post owned by ownerID.
func (r *postRepository) Delete(ctx context.Context, postID, ownerID string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM posts WHERE id = $1 AND user_id = $2`, postID, ownerID)
	if err != nil {
		return fmt.Errorf("delete post: %w: %v", model.ErrPersistence, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w: %v", model.ErrPersistence, err)
	}
	if rows == 0 {
		return r.missingOrForbidden(ctx, postID)
	}

	return nil
}

// Find returns the posts matching filter, oldest first.
func (r *postRepository) Find(ctx context.Context, filter model.PostFilter) ([]model.Post, error) {
	where, args := buildPostWhere(filter)
	query := `SELECT ` + postColumns + ` FROM posts WHERE ` + where + ` ORDER BY seq ASC`

	posts := []model.Post{}
	if err := r.db.SelectContext(ctx, &posts, query, args...); err != nil {
		return nil, fmt.Errorf("find posts: %w: %v", model.ErrPersistence, err)
	}
	return posts, nil
}

// missingOrForbidden tells apart a post that does not exist from one owned by someone else.
func (r *postRepository) missingOrForbidden(ctx context.Context, postID string) error {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM posts WHERE id = $1)`, postID)
	if err != nil {
		return fmt.Errorf("check post exists: %w: %v", model.ErrPersistence, err)
	}
	if exists {
		return model.ErrForbidden
	}
	return model.ErrPostNotFound
}

// buildPostWhere renders the privacy, ownership and location filters as one
// AND-ed WHERE clause with positional arguments.
func buildPostWhere(f model.PostFilter) (string, []interface{}) {
	var conds []string
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	switch f.Visibility {
	case model.VisibilityOwner:
		conds = append(conds, "user_id = "+arg(f.OwnerID))
	case model.VisibilityPublicOrOwner:
		conds = append(conds, "(is_private = FALSE OR user_id = "+arg(f.OwnerID)+")")
	default:
		conds = append(conds, "is_private = FALSE")
	}

	if b := f.BBox; b != nil {
		conds = append(conds,
			"latitude BETWEEN "+arg(b.StartLat)+" AND "+arg(b.EndLat),
			"longitude BETWEEN "+arg(b.StartLong)+" AND "+arg(b.EndLong),
		)
	}

	if at := f.At; at != nil {
		conds = append(conds,
			"latitude = "+arg(at.Latitude),
			"longitude = "+arg(at.Longitude),
		)
	}

	return strings.Join(conds, " AND "), args
}
