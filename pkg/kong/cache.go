package kong

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/fivetwenty-io/kongcli/internal/constants"
)

// Cache memoizes producer results by key.
type Cache interface {
	// Get returns the stored value for key, or runs producer, stores its
	// result and returns it. Producer errors are returned and not stored.
	Get(key string, producer func() (interface{}, error)) (interface{}, error)
	// Forget evicts one key.
	Forget(key string)
	// Reset evicts every key.
	Reset()
	// Len returns the number of resident keys.
	Len() int
}

// ResultCache is a bounded least-recently-used Cache.
// Producers run synchronously on the caller's goroutine.
type ResultCache struct {
	entries *lru.Cache[string, interface{}]
}

// NewResultCache creates a cache holding at most size entries.
// A non-positive size falls back to constants.DefaultCacheSize.
func NewResultCache(size int) *ResultCache {
	if size <= 0 {
		size = constants.DefaultCacheSize
	}

	entries, err := lru.New[string, interface{}](size)
	if err != nil {
		// only reachable with size <= 0
		panic(fmt.Sprintf("creating result cache: %v", err))
	}

	return &ResultCache{entries: entries}
}

// Get implements Cache.Get.
func (c *ResultCache) Get(key string, producer func() (interface{}, error)) (interface{}, error) {
	if value, ok := c.entries.Get(key); ok {
		return value, nil
	}

	value, err := producer()
	if err != nil {
		return nil, err
	}

	c.entries.Add(key, value)

	return value, nil
}

// Forget implements Cache.Forget.
func (c *ResultCache) Forget(key string) {
	c.entries.Remove(key)
}

// Reset implements Cache.Reset.
func (c *ResultCache) Reset() {
	c.entries.Purge()
}

// Len implements Cache.Len.
func (c *ResultCache) Len() int {
	return c.entries.Len()
}

// Memoize is a typed wrapper around Cache.Get.
func Memoize[T any](cache Cache, key string, producer func() (T, error)) (T, error) {
	value, err := cache.Get(key, func() (interface{}, error) {
		return producer()
	})
	if err != nil {
		var zero T

		return zero, err
	}

	typed, ok := value.(T)
	if !ok {
		var zero T

		return zero, fmt.Errorf("%w: cached %T for %q", ErrCacheTypeMismatch, value, key)
	}

	return typed, nil
}
