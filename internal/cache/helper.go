package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"fundboard/internal/middleware"

	"github.com/redis/go-redis/v9"
)

const (
	PostKeyPrefix    = "post:%d"
	BlacklistPrefix  = "blacklist:"
	PostTTL          = 30 * time.Minute
	reactionsKeyTmpl = "post:%d:reactions"
	ReactionsTTL     = 5 * time.Minute
)

// PostKey is the cache key of an anonymously viewed post.
func PostKey(postID uint) string {
	return fmt.Sprintf(PostKeyPrefix, postID)
}

// ReactionsKey is the cache key of a post's like/dislike counts.
func ReactionsKey(postID uint) string {
	return fmt.Sprintf(reactionsKeyTmpl, postID)
}

// GetJSON loads key into dest. It reports false on a miss or when Redis is unavailable.
func GetJSON(ctx context.Context, key string, dest any) bool {
	c := GetClient()
	if c == nil {
		return false
	}
	raw, err := c.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			middleware.Logger.WarnContext(ctx, "cache read failed", slog.String("key", key), slog.String("error", err.Error()))
		}
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		middleware.Logger.WarnContext(ctx, "cache entry corrupt, dropping", slog.String("key", key))
		c.Del(ctx, key)
		return false
	}
	return true
}

// SetJSON stores value under key. Failures are logged and otherwise ignored.
func SetJSON(ctx context.Context, key string, value any, ttl time.Duration) {
	c := GetClient()
	if c == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := c.Set(ctx, key, raw, ttl).Err(); err != nil {
		middleware.Logger.WarnContext(ctx, "cache write failed", slog.String("key", key), slog.String("error", err.Error()))
	}
}

// Aside serves dest from cache when present; otherwise it runs fetch, which must
// populate dest, and caches the result.
func Aside(ctx context.Context, key string, dest any, ttl time.Duration, fetch func() error) error {
	if GetJSON(ctx, key, dest) {
		return nil
	}
	if err := fetch(); err != nil {
		return err
	}
	SetJSON(ctx, key, dest, ttl)
	return nil
}

// Invalidate deletes the given keys.
func Invalidate(ctx context.Context, keys ...string) {
	c := GetClient()
	if c == nil || len(keys) == 0 {
		return
	}
	if err := c.Del(ctx, keys...).Err(); err != nil {
		middleware.Logger.WarnContext(ctx, "cache invalidation failed", slog.Any("keys", keys), slog.String("error", err.Error()))
	}
}

// InvalidatePost drops every cached view of a post.
func InvalidatePost(ctx context.Context, postID uint) {
	Invalidate(ctx, PostKey(postID), ReactionsKey(postID))
}

// Blacklist marks a token ID as revoked until ttl elapses.
func Blacklist(ctx context.Context, jti string, ttl time.Duration) error {
	c := GetClient()
	if c == nil || ttl <= 0 {
		return nil
	}
	return c.Set(ctx, BlacklistPrefix+jti, "1", ttl).Err()
}

// IsBlacklisted reports whether a token ID was revoked. Without Redis nothing is blacklisted.
func IsBlacklisted(ctx context.Context, jti string) bool {
	c := GetClient()
	if c == nil {
		return false
	}
	n, err := c.Exists(ctx, BlacklistPrefix+jti).Result()
	return err == nil && n > 0
}
