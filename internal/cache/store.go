package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"journal/internal/middleware"

	"github.com/redis/go-redis/v9"
)

const (
	PostKeyPrefix = "post:%d"
	PostTTL       = 30 * time.Minute
)

func PostKey(postID uint) string {
	return fmt.Sprintf(PostKeyPrefix, postID)
}

// Store is a JSON cache-aside layer over Redis. A Store built from a nil
// client is valid and always falls through to the loader.
type Store struct {
	client *redis.Client
}

// NewStore wraps client; client may be nil.
func NewStore(client *redis.Client) *Store {
	return &Store{client: client}
}

// Enabled reports whether a Redis client backs the store.
func (s *Store) Enabled() bool {
	return s != nil && s.client != nil
}

// Aside loads key into dest, calling load on a miss and caching its result
// for ttl. Redis failures degrade to calling load; load errors are never cached.
func (s *Store) Aside(ctx context.Context, key string, dest interface{}, ttl time.Duration, load func() error) error {
	if !s.Enabled() {
		return load()
	}

	raw, err := s.client.Get(ctx, key).Bytes()
	if err == nil {
		if jsonErr := json.Unmarshal(raw, dest); jsonErr == nil {
			return nil
		}
		s.Invalidate(ctx, key)
	} else if !errors.Is(err, redis.Nil) {
		middleware.Logger.WarnContext(ctx, "cache read failed", slog.String("key", key), slog.String("error", err.Error()))
	}

	if err := load(); err != nil {
		return err
	}

	payload, err := json.Marshal(dest)
	if err != nil {
		return nil
	}
	if err := s.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		middleware.Logger.WarnContext(ctx, "cache write failed", slog.String("key", key), slog.String("error", err.Error()))
	}
	return nil
}

// Invalidate drops key; errors are logged and otherwise ignored.
func (s *Store) Invalidate(ctx context.Context, keys ...string) {
	if !s.Enabled() || len(keys) == 0 {
		return
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		middleware.Logger.WarnContext(ctx, "cache invalidate failed", slog.Any("keys", keys), slog.String("error", err.Error()))
	}
}
