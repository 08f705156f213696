// AngelaMos | 2026
// redis.go

package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/carterperez-dev/artistry/internal/config"
)

const redisOpTimeout = 5 * time.Second

// Redis owns the shared client and the key namespace every component
// writes under.
type Redis struct {
	Client *redis.Client
	prefix string
}

func NewRedis(ctx context.Context, cfg config.RedisConfig) (*Redis, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns
	opts.PoolTimeout = 30 * time.Second
	opts.ConnMaxIdleTime = 5 * time.Minute

	r := NewRedisFromClient(redis.NewClient(opts), cfg.KeyPrefix)
	if err := r.Ping(ctx); err != nil {
		_ = r.Client.Close()
		return nil, err
	}

	return r, nil
}

// NewRedisFromClient wraps an existing client, used by tests against
// miniredis.
func NewRedisFromClient(client *redis.Client, prefix string) *Redis {
	if prefix != "" && !strings.HasSuffix(prefix, ":") {
		prefix += ":"
	}
	return &Redis{Client: client, prefix: prefix}
}

// Key joins parts under the configured prefix, e.g. "artistry:denylist:<jti>".
func (r *Redis) Key(parts ...string) string {
	return r.prefix + strings.Join(parts, ":")
}

func (r *Redis) Close() error {
	if r.Client != nil {
		return r.Client.Close()
	}
	return nil
}

func (r *Redis) Ping(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, redisOpTimeout)
	defer cancel()

	if err := r.Client.Ping(pingCtx).Err(); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}

	return nil
}

func (r *Redis) PoolStats() *redis.PoolStats {
	return r.Client.PoolStats()
}

// TokenDenylist records revoked access-token ids until the token would
// have expired on its own.
type TokenDenylist struct {
	redis *Redis
}

func NewTokenDenylist(r *Redis) *TokenDenylist {
	return &TokenDenylist{redis: r}
}

func (d *TokenDenylist) Deny(
	ctx context.Context,
	jti string,
	expiresAt time.Time,
) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 || jti == "" {
		return nil
	}

	if err := d.redis.Client.Set(ctx, d.redis.Key("denylist", jti), "1", ttl).Err(); err != nil {
		return fmt.Errorf("deny token: %w", err)
	}

	return nil
}

func (d *TokenDenylist) IsDenied(ctx context.Context, jti string) (bool, error) {
	err := d.redis.Client.Get(ctx, d.redis.Key("denylist", jti)).Err()
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, redis.Nil):
		return false, nil
	default:
		return false, fmt.Errorf("check denylist: %w", err)
	}
}
