// Package adapters provides the infrastructure implementations for the token feature.
package adapters

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"stock_ingest/internal/feature/token/usecase"
)

// TokenKey is the process-wide cache key for the KIS access token.
const TokenKey = "kis:access_token"

// TokenRedis implements usecase.TokenStore using Redis. The entry
// expires passively via the TTL set on write; nothing ever deletes it.
type TokenRedis struct {
	client *redis.Client
	key    string
}

var _ usecase.TokenStore = (*TokenRedis)(nil)

// NewTokenRedis creates a new TokenRedis. An empty key defaults to TokenKey.
func NewTokenRedis(client *redis.Client, key string) *TokenRedis {
	if key == "" {
		key = TokenKey
	}
	return &TokenRedis{client: client, key: key}
}

// Get returns the cached token, or usecase.ErrTokenNotCached if the key
// is missing or expired.
func (r *TokenRedis) Get(ctx context.Context) (string, error) {
	token, err := r.client.Get(ctx, r.key).Result()
	if err != nil {
		if err == redis.Nil {
			return "", usecase.ErrTokenNotCached
		}
		return "", err
	}
	return token, nil
}

// Set stores the token with the broker-supplied TTL.
func (r *TokenRedis) Set(ctx context.Context, token string, ttl time.Duration) error {
	return r.client.Set(ctx, r.key, token, ttl).Err()
}

// TTL returns the remaining validity of the cached token.
func (r *TokenRedis) TTL(ctx context.Context) (time.Duration, error) {
	ttl, err := r.client.TTL(ctx, r.key).Result()
	if err != nil {
		return 0, err
	}
	// -2: key missing, -1: no expiry set
	if ttl < 0 {
		return 0, usecase.ErrTokenNotCached
	}
	return ttl, nil
}
