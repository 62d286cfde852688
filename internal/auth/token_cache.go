package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	// M2MTokenKey is the key used to store the M2M token in Redis
	M2MTokenKey = "ticket-stats:m2m_token"
	// TokenExpiryBuffer is the buffer time before actual token expiry to refresh it (in seconds)
	TokenExpiryBuffer = 60
)

// TokenCache represents a cached token with its expiry time
type TokenCache struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// IsValid reports whether the token outlives the refresh buffer at now.
func (tc *TokenCache) IsValid(now time.Time) bool {
	if tc == nil || tc.Token == "" {
		return false
	}
	return now.Add(TokenExpiryBuffer * time.Second).Before(tc.ExpiresAt)
}

// RedisTokenCache implements token caching using Redis
type RedisTokenCache struct {
	Client *redis.Client
	Key    string
	now    func() time.Time
}

// NewRedisTokenCache creates a new Redis token cache
func NewRedisTokenCache(client *redis.Client) *RedisTokenCache {
	return &RedisTokenCache{
		Client: client,
		Key:    M2MTokenKey,
		now:    time.Now,
	}
}

// GetToken returns the cached token, or nil when it is missing or about to expire.
func (c *RedisTokenCache) GetToken(ctx context.Context) (*TokenCache, error) {
	if c.Client == nil {
		return nil, fmt.Errorf("redis client not initialized")
	}

	tokenJSON, err := c.Client.Get(ctx, c.Key).Result()
	if err == redis.Nil {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to get token from Redis: %w", err)
	}

	var tokenCache TokenCache
	if err := json.Unmarshal([]byte(tokenJSON), &tokenCache); err != nil {
		return nil, fmt.Errorf("failed to unmarshal token cache: %w", err)
	}

	if !tokenCache.IsValid(c.now()) {
		return nil, nil
	}

	return &tokenCache, nil
}

// SetToken stores a token in the cache with its expiry time
func (c *RedisTokenCache) SetToken(ctx context.Context, token string, expiresIn int) error {
	if c.Client == nil {
		return fmt.Errorf("redis client not initialized")
	}

	tokenCache := &TokenCache{
		Token:     token,
		ExpiresAt: c.now().Add(time.Duration(expiresIn) * time.Second),
	}

	tokenJSON, err := json.Marshal(tokenCache)
	if err != nil {
		return fmt.Errorf("failed to marshal token cache: %w", err)
	}

	// Redis TTL is the token lifetime plus the buffer for clock skew
	ttl := time.Duration(expiresIn+TokenExpiryBuffer) * time.Second
	if err := c.Client.Set(ctx, c.Key, tokenJSON, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store token in Redis: %w", err)
	}

	return nil
}
