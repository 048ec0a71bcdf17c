package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"tomato_backend/internal/model"
)

const (
	// PostCachePrefix is the key prefix for cached posts
	PostCachePrefix = "post:"

	// DefaultPostCacheTTL bounds how stale a cached post can get if an
	// invalidation is lost.
	DefaultPostCacheTTL = 10 * time.Minute

	// InvalidationHold is how long an invalidated key refuses new entries.
	// It must outlast a reader's store round trip, or that reader can put
	// back the copy the invalidation removed.
	InvalidationHold = 30 * time.Second

	// tombstone marks an invalidated key. It is not valid JSON.
	tombstone = "-"
)

// PostCache is a read-through cache of single posts keyed by id.
type PostCache interface {
	// Get returns (post, found, error). found=false on a miss.
	Get(ctx context.Context, postID string) (*model.Post, bool, error)

	// Set stores a post with the cache TTL. It does nothing when the key
	// already holds an entry or was invalidated within InvalidationHold.
	Set(ctx context.Context, post *model.Post) error

	// Invalidate drops a post after it was updated or deleted and blocks
	// Set for that post for InvalidationHold.
	Invalidate(ctx context.Context, postID string) error
}

// RedisPostCache implements PostCache using plain Redis string keys holding JSON.
type RedisPostCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewPostCache creates a new PostCache backed by Redis.
func NewPostCache(client *redis.Client, ttl time.Duration) PostCache {
	if ttl <= 0 {
		ttl = DefaultPostCacheTTL
	}
	return &RedisPostCache{client: client, ttl: ttl}
}

// postKey returns the Redis key for a cached post.
func postKey(postID string) string {
	return PostCachePrefix + postID
}

// cachedPost carries the fields hidden from the API JSON.
type cachedPost struct {
	model.Post
	Seq int64 `json:"seq"`
}

func (c *RedisPostCache) Get(ctx context.Context, postID string) (*model.Post, bool, error) {
	data, err := c.client.Get(ctx, postKey(postID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		log.Printf("[PostCache] Get FAILED: post=%s err=%v", postID, err)
		return nil, false, fmt.Errorf("get cached post: %w", err)
	}
	if string(data) == tombstone {
		return nil, false, nil
	}

	var cp cachedPost
	if err := json.Unmarshal(data, &cp); err != nil {
		// Corrupt entry: drop it and treat as a miss.
		c.client.Del(ctx, postKey(postID))
		log.Printf("[PostCache] Get decode error: post=%s err=%v", postID, err)
		return nil, false, nil
	}
	cp.Post.Seq = cp.Seq
	return &cp.Post, true, nil
}

func (c *RedisPostCache) Set(ctx context.Context, post *model.Post) error {
	data, err := json.Marshal(cachedPost{Post: *post, Seq: post.Seq})
	if err != nil {
		return fmt.Errorf("marshal post: %w", err)
	}

	// SetNX: a stale read must not overwrite a tombstone.
	if err := c.client.SetNX(ctx, postKey(post.ID), data, c.ttl).Err(); err != nil {
		log.Printf("[PostCache] Set FAILED: post=%s err=%v", post.ID, err)
		return fmt.Errorf("set cached post: %w", err)
	}
	return nil
}

func (c *RedisPostCache) Invalidate(ctx context.Context, postID string) error {
	if err := c.client.Set(ctx, postKey(postID), tombstone, InvalidationHold).Err(); err != nil {
		log.Printf("[PostCache] Invalidate FAILED: post=%s err=%v", postID, err)
		return fmt.Errorf("invalidate cached post: %w", err)
	}
	return nil
}

// noopPostCache is used when Redis is not configured.
type noopPostCache struct{}

// NewNoopPostCache returns a PostCache that never hits.
func NewNoopPostCache() PostCache {
	return noopPostCache{}
}

func (noopPostCache) Get(context.Context, string) (*model.Post, bool, error) { return nil, false, nil }
func (noopPostCache) Set(context.Context, *model.Post) error                  { return nil }
func (noopPostCache) Invalidate(context.Context, string) error                { return nil }
