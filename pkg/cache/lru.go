package cache

import (
	lru "github.com/hashicorp/golang-lru"
)

// LRUCache keeps at most a fixed number of values, evicting the least
// recently used. An evicted value is simply a miss.
type LRUCache[T any] struct {
	cache *lru.Cache
}

// NewLRUCache returns an LRUCache of the given size (which must be > 0)
func NewLRUCache[T any](size int) (*LRUCache[T], error) {
	cache, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &LRUCache[T]{cache: cache}, nil
}

// Len returns the number of cached values
func (c *LRUCache[T]) Len() int {
	return c.cache.Len()
}

func (c *LRUCache[T]) TryGet(index int) (T, bool) {
	if v, ok := c.cache.Get(index); ok {
		return v.(T), true
	}
	var zero T
	return zero, false
}

func (c *LRUCache[T]) SetAt(index int, value T) {
	if index < 0 {
		return
	}
	c.cache.Add(index, value)
}

func (c *LRUCache[T]) SetRange(values []T, start int) {
	if start < 0 {
		return
	}
	for i, v := range values {
		c.cache.Add(start+i, v)
	}
}

func (c *LRUCache[T]) RemoveAt(index int) {
	c.cache.Remove(index)
}

func (c *LRUCache[T]) RemoveRange(start, count int) {
	if count > c.cache.Len() {
		for _, k := range c.cache.Keys() {
			if i := k.(int); i >= start && i-start < count {
				c.cache.Remove(k)
			}
		}
		return
	}
	for i := start; i < start+count; i++ {
		c.cache.Remove(i)
	}
}

func (c *LRUCache[T]) RemoveFrom(start int) {
	for _, k := range c.cache.Keys() {
		if k.(int) >= start {
			c.cache.Remove(k)
		}
	}
}
