package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"tomato_backend/internal/cache"
	"tomato_backend/internal/model"
	"tomato_backend/internal/repository"
)

type PostService struct {
	postRepo repository.PostRepository
	cache    cache.PostCache
	now      func() time.Time
}

func NewPostService(postRepo repository.PostRepository, postCache cache.PostCache) *PostService {
	if postCache == nil {
		postCache = cache.NewNoopPostCache()
	}
	return &PostService{
		postRepo: postRepo,
		cache:    postCache,
		now:      time.Now,
	}
}

// Create stores a new post owned by ownerID.
func (s *PostService) Create(ctx context.Context, ownerID string, req model.CreatePostRequest) (*model.Post, error) {
	// Validate
	if !model.ValidCoordinates(req.Latitude, req.Longitude) {
		return nil, model.ErrInvalidCoordinates
	}
	if len(req.Images) > model.MaxPostImages {
		return nil, model.ErrTooManyImages
	}
	if len(req.Note) > model.MaxPostNoteLength {
		return nil, model.ErrNoteTooLong
	}

	capturedAt := s.now().UTC()
	if req.CapturedAt != nil {
		capturedAt = *req.CapturedAt
	}

	post := &model.Post{
		OwnerID:    ownerID,
		Latitude:   req.Latitude,
		Longitude:  req.Longitude,
		Images:     req.Images,
		CapturedAt: capturedAt,
		Note:       req.Note,
		IsPrivate:  req.IsPrivate,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}

	log.Printf("[PostService] Created post=%s owner=%s private=%t", post.ID, ownerID, post.IsPrivate)
	return post, nil
}

// GetByID returns a post by id. A private post is reported as not found
// to anyone but its owner; viewerID is nil for anonymous callers.
func (s *PostService) GetByID(ctx context.Context, postID string, viewerID *string) (*model.Post, error) {
	post, err := s.load(ctx, postID)
	if err != nil {
		return nil, err
	}

	if !visibleTo(viewerID).Matches(post) {
		return nil, model.ErrPostNotFound
	}
	return post, nil
}

// visibleTo is the filter of posts a viewer may see: public ones, plus
// their own when signed in.
func visibleTo(viewerID *string) model.PostFilter {
	if viewerID == nil {
		return model.PostFilter{Visibility: model.VisibilityPublic}
	}
	return model.PostFilter{
		Visibility: model.VisibilityPublicOrOwner,
		OwnerID:    *viewerID,
	}
}

// load reads through the cache. Cache failures only cost a store round trip.
// A write-back racing an Update or Delete is dropped by the cache's tombstone.
func (s *PostService) load(ctx context.Context, postID string) (*model.Post, error) {
	cached, found, err := s.cache.Get(ctx, postID)
	if err != nil {
		log.Printf("[PostService] Cache read failed, falling back to store: post=%s err=%v", postID, err)
	} else if found {
		return cached, nil
	}

	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, post); err != nil {
		log.Printf("[PostService] Cache write failed: post=%s err=%v", postID, err)
	}
	return post, nil
}

// Update applies a partial patch to a post owned by ownerID.
func (s *PostService) Update(ctx context.Context, postID, ownerID string, patch model.UpdatePostRequest) (*model.Post, error) {
	if patch.Latitude != nil && !model.ValidCoordinates(*patch.Latitude, 0) {
		return nil, model.ErrInvalidCoordinates
	}
	if patch.Longitude != nil && !model.ValidCoordinates(0, *patch.Longitude) {
		return nil, model.ErrInvalidCoordinates
	}
	if patch.Images != nil && len(*patch.Images) > model.MaxPostImages {
		return nil, model.ErrTooManyImages
	}
	if patch.Note != nil && len(*patch.Note) > model.MaxPostNoteLength {
		return nil, model.ErrNoteTooLong
	}

	post, err := s.postRepo.Update(ctx, postID, ownerID, patch)
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, postID)
	log.Printf("[PostService] Updated post=%s owner=%s", postID, ownerID)
	return post, nil
}

// Delete removes a post owned by ownerID.
func (s *PostService) Delete(ctx context.Context, postID, ownerID string) error {
	if err := s.postRepo.Delete(ctx, postID, ownerID); err != nil {
		return err
	}

	s.invalidate(ctx, postID)
	log.Printf("[PostService] Deleted post=%s owner=%s", postID, ownerID)
	return nil
}

func (s *PostService) invalidate(ctx context.Context, postID string) {
	if err := s.cache.Invalidate(ctx, postID); err != nil {
		log.Printf("[PostService] Cache invalidate failed: post=%s err=%v", postID, err)
	}
}

// QueryPublic returns every public post, optionally restricted to bbox.
func (s *PostService) QueryPublic(ctx context.Context, bbox *model.BoundingBox) ([]model.Post, error) {
	return s.find(ctx, model.PostFilter{
		Visibility: model.VisibilityPublic,
		BBox:       bbox,
	})
}

// QueryForUser returns ownerID's own posts when userPostOnly is set,
// otherwise public posts together with ownerID's private ones.
func (s *PostService) QueryForUser(ctx context.Context, ownerID string, userPostOnly bool, bbox *model.BoundingBox) ([]model.Post, error) {
	filter := model.PostFilter{
		Visibility: model.VisibilityPublicOrOwner,
		OwnerID:    ownerID,
		BBox:       bbox,
	}
	if userPostOnly {
		filter.Visibility = model.VisibilityOwner
	}
	return s.find(ctx, filter)
}

// QueryAtLocation returns the posts pinned at exactly lat/long that the
// viewer may see.
func (s *PostService) QueryAtLocation(ctx context.Context, lat, long float64, viewerID *string) ([]model.Post, error) {
	if !model.ValidCoordinates(lat, long) {
		return nil, model.ErrInvalidCoordinates
	}

	filter := visibleTo(viewerID)
	filter.At = &model.Location{Latitude: lat, Longitude: long}
	return s.find(ctx, filter)
}

func (s *PostService) find(ctx context.Context, filter model.PostFilter) ([]model.Post, error) {
	posts, err := s.postRepo.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("find posts: %w", err)
	}
	if posts == nil {
		posts = []model.Post{}
	}
	return posts, nil
}
