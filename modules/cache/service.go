// Package cache provides a Redis-backed cache plugin for per-owner list results.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-monolith/mono/pkg/storage"
	"github.com/go-monolith/mono/pkg/types"
)

// CacheService is the port other modules use.
type CacheService interface {
	// Get unmarshals the cached value into dest. It reports false on a miss.
	Get(ctx context.Context, key string, dest any) (bool, error)

	// Set stores value with the default TTL.
	Set(ctx context.Context, key string, value any) error

	// Delete removes a key.
	Delete(ctx context.Context, key string) error

	// Close closes the underlying storage connection.
	Close() error
}

type cacheService struct {
	storage storage.Storage
	prefix  string
	ttl     time.Duration
	logger  types.Logger
}

// NewCacheService wraps a storage with a key prefix and default TTL.
func NewCacheService(s storage.Storage, prefix string, ttl time.Duration, logger types.Logger) CacheService {
	return &cacheService{
		storage: s,
		prefix:  prefix,
		ttl:     ttl,
		logger:  logger,
	}
}

func (c *cacheService) Get(ctx context.Context, key string, dest any) (bool, error) {
	fullKey := c.prefix + key

	data, err := c.storage.GetWithContext(ctx, fullKey)
	if err != nil {
		return false, fmt.Errorf("cache get error: %w", err)
	}
	if len(data) == 0 {
		c.logger.Debug("Cache miss", "key", fullKey)
		return false, nil
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("cache unmarshal error: %w", err)
	}

	c.logger.Debug("Cache hit", "key", fullKey)
	return true, nil
}

func (c *cacheService) Set(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal error: %w", err)
	}
	if err := c.storage.SetWithContext(ctx, c.prefix+key, data, c.ttl); err != nil {
		return fmt.Errorf("cache set error: %w", err)
	}
	return nil
}

func (c *cacheService) Delete(ctx context.Context, key string) error {
	if err := c.storage.DeleteWithContext(ctx, c.prefix+key); err != nil {
		return fmt.Errorf("cache delete error: %w", err)
	}
	return nil
}

func (c *cacheService) Close() error {
	return c.storage.Close()
}
