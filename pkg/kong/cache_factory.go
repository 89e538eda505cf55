package kong

import (
	"fmt"

	"github.com/fivetwenty-io/kongcli/internal/constants"
)

// CacheType represents the type of cache backend.
type CacheType string

const (
	// CacheTypeMemory represents the in-process LRU cache.
	CacheTypeMemory CacheType = "memory"

	// CacheTypeNone represents no caching.
	CacheTypeNone CacheType = "none"
)

// CacheConfig configures the cache backend.
type CacheConfig struct {
	// Type is the cache backend type
	Type CacheType

	// MaxSize is the maximum number of memoized results
	MaxSize int
}

// DefaultCacheConfig returns default cache configuration.
func DefaultCacheConfig() *CacheConfig {
	return &CacheConfig{
		Type:    CacheTypeMemory,
		MaxSize: constants.DefaultCacheSize,
	}
}

// NewCacheFromConfig creates a cache backend from configuration.
func NewCacheFromConfig(config *CacheConfig) (Cache, error) {
	if config == nil {
		config = DefaultCacheConfig()
	}

	switch config.Type {
	case CacheTypeMemory, "":
		return NewResultCache(config.MaxSize), nil

	case CacheTypeNone:
		return NewNoOpCache(), nil

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedCacheType, config.Type)
	}
}

// NoOpCache runs the producer on every call.
type NoOpCache struct{}

// NewNoOpCache creates a new no-op cache.
func NewNoOpCache() *NoOpCache {
	return &NoOpCache{}
}

// Get always calls producer.
func (c *NoOpCache) Get(key string, producer func() (interface{}, error)) (interface{}, error) {
	return producer()
}

// Forget does nothing.
func (c *NoOpCache) Forget(key string) {}

// Reset does nothing.
func (c *NoOpCache) Reset() {}

// Len is always zero.
func (c *NoOpCache) Len() int {
	return 0
}
