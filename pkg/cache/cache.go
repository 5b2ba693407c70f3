// Package cache provides the read-through caches shared by the import stages.
//
// Stages receive a Cache by reference instead of reaching for a process-wide singleton.
// Every stage that mutates an entity must Evict its key before a later stage reads it.
package cache

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Cache is a read-through cache with explicit invalidation.
type Cache[K comparable, V any] interface {
	Get(ctx context.Context, key K) (V, error)
	Evict(key K)
}

// Loader loads a value missing from the cache. Errors are returned as-is and never cached.
type Loader[K comparable, V any] func(ctx context.Context, key K) (V, error)

// LRU is a bounded Cache backed by hashicorp/golang-lru.
type LRU[K comparable, V any] struct {
	entries *lru.Cache[K, V]
	load    Loader[K, V]
}

// NewLRU returns a cache holding at most size entries.
func NewLRU[K comparable, V any](size int, load Loader[K, V]) (*LRU[K, V], error) {
	entries, err := lru.New[K, V](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache: %w", err)
	}
	return &LRU[K, V]{entries: entries, load: load}, nil
}

// Get returns the cached value or loads it.
func (c *LRU[K, V]) Get(ctx context.Context, key K) (V, error) {
	if v, ok := c.entries.Get(key); ok {
		return v, nil
	}
	v, err := c.load(ctx, key)
	if err != nil {
		var zero V
		return zero, err
	}
	c.entries.Add(key, v)
	return v, nil
}

// Evict drops key so that the next Get reloads it.
func (c *LRU[K, V]) Evict(key K) {
	c.entries.Remove(key)
}

// Len returns the number of cached entries.
func (c *LRU[K, V]) Len() int {
	return c.entries.Len()
}
