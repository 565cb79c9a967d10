package tokenstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrRedisUnavailable wraps transport-level failures from the Redis client.
var ErrRedisUnavailable = errors.New("tokenstore: redis unavailable")

// Redis stores the token as a single string key. It suits shared terminals and
// headless agents where several processes act under one identity.
type Redis struct {
	client redis.UniversalClient
	key    string
	ttl    time.Duration
}

// RedisConfig configures a Redis store. Prefix and Key are joined with ":".
// A zero TTL stores the token without expiry.
type RedisConfig struct {
	Prefix string
	Key    string
	TTL    time.Duration
}

// NewRedis returns a Store backed by client.
func NewRedis(client redis.UniversalClient, cfg RedisConfig) (*Redis, error) {
	if client == nil {
		return nil, errors.New("tokenstore: nil redis client")
	}
	key := strings.TrimSpace(cfg.Key)
	if key == "" {
		key = DefaultKey
	}
	if cfg.TTL < 0 {
		return nil, errors.New("tokenstore: negative ttl")
	}
	if p := strings.TrimSpace(cfg.Prefix); p != "" {
		key = p + ":" + key
	}
	return &Redis{client: client, key: key, ttl: cfg.TTL}, nil
}

// Key returns the fully qualified Redis key.
func (r *Redis) Key() string {
	return r.key
}

func (r *Redis) Load(ctx context.Context) (string, error) {
	token, err := r.client.Get(ctx, r.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return token, nil
}

func (r *Redis) Save(ctx context.Context, token string) error {
	if token == "" {
		return r.Delete(ctx)
	}
	if err := r.client.Set(ctx, r.key, token, r.ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

func (r *Redis) Delete(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}
