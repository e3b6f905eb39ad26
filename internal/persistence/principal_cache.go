package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tokenauth/token-service/internal/domain"
)

const principalKeyPrefix = "principal:"

// PrincipalCache stores loaded principals in Redis as JSON.
type PrincipalCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewPrincipalCache builds a cache over the shared Redis client.
func NewPrincipalCache(r *Redis, ttl time.Duration) *PrincipalCache {
	var client *redis.Client
	if r != nil {
		client = r.Client
	}
	return &PrincipalCache{client: client, ttl: ttl}
}

// Get returns the cached principal. A miss is (nil, false, nil).
func (c *PrincipalCache) Get(ctx context.Context, username string) (*domain.Principal, bool, error) {
	if !c.enabled() {
		return nil, false, nil
	}
	raw, err := c.client.Get(ctx, principalKey(username)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get cached principal: %w", err)
	}

	var principal domain.Principal
	if err := json.Unmarshal(raw, &principal); err != nil {
		return nil, false, fmt.Errorf("decode cached principal: %w", err)
	}
	return &principal, true, nil
}

// Set stores the principal for the configured TTL.
func (c *PrincipalCache) Set(ctx context.Context, principal *domain.Principal) error {
	if !c.enabled() || principal == nil {
		return nil
	}
	raw, err := json.Marshal(principal)
	if err != nil {
		return fmt.Errorf("encode principal: %w", err)
	}
	return c.client.Set(ctx, principalKey(principal.Username), raw, c.ttl).Err()
}

// Delete evicts a cached principal.
func (c *PrincipalCache) Delete(ctx context.Context, username string) error {
	if !c.enabled() {
		return nil
	}
	return c.client.Del(ctx, principalKey(username)).Err()
}

func (c *PrincipalCache) enabled() bool {
	return c != nil && c.client != nil && c.ttl > 0
}

func principalKey(username string) string {
	return principalKeyPrefix + username
}
