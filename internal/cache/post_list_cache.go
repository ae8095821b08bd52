package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redisv9 "github.com/redis/go-redis/v9"

	"online-shopping/internal/model"
)

const (
	postListGenerationKey = "shop:posts:generation"
	postListKeyPrefix     = "shop:posts:index"
)

// PostListCache keeps the index listing in Redis. Every post mutation bumps
// a generation counter and listings are stored under the generation they
// were read at, so a listing read before a mutation is never served after it.
type PostListCache struct {
	client *redisv9.Client
	ttl    time.Duration
}

func NewPostListCache(client *redisv9.Client, ttl time.Duration) *PostListCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &PostListCache{
		client: client,
		ttl:    ttl,
	}
}

// Generation returns the current listing generation. Callers must read it
// before loading posts from the database.
func (c *PostListCache) Generation(ctx context.Context) (int64, error) {
	gen, err := c.client.Get(ctx, postListGenerationKey).Int64()
	if err == redisv9.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis get post list generation failed: %w", err)
	}
	return gen, nil
}

func (c *PostListCache) GetPosts(ctx context.Context, generation int64) ([]model.PostView, bool, error) {
	raw, err := c.client.Get(ctx, postListKey(generation)).Bytes()
	if err == redisv9.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get post list failed: %w", err)
	}

	var posts []model.PostView
	if err := json.Unmarshal(raw, &posts); err != nil {
		return nil, false, fmt.Errorf("unmarshal cached post list failed: %w", err)
	}
	return posts, true, nil
}

func (c *PostListCache) SetPosts(ctx context.Context, generation int64, posts []model.PostView) error {
	payload, err := json.Marshal(posts)
	if err != nil {
		return fmt.Errorf("marshal post list cache failed: %w", err)
	}
	if err := c.client.Set(ctx, postListKey(generation), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set post list failed: %w", err)
	}
	return nil
}

// Invalidate moves readers to a new generation. Listings stored under older
// generations are left to expire.
func (c *PostListCache) Invalidate(ctx context.Context) error {
	if err := c.client.Incr(ctx, postListGenerationKey).Err(); err != nil {
		return fmt.Errorf("redis bump post list generation failed: %w", err)
	}
	return nil
}

func postListKey(generation int64) string {
	return fmt.Sprintf("%s:%d", postListKeyPrefix, generation)
}
