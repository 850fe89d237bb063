// Package cache provides the read caches used in front of ArrayDB storage.
//
// A Cache distinguishes a miss ("not loaded") from a cached value. The
// orchestrator in pkg/store only ever talks to the Cache interface, so the
// slot cache, the LRU cache and the no-op cache are interchangeable.
package cache

// Cache holds recently read or written values by record index
type Cache[T any] interface {
	// TryGet returns the cached value at index and whether it was present
	TryGet(index int) (T, bool)

	// SetAt caches value at index
	SetAt(index int, value T)

	// SetRange caches values at start, start+1, ...
	SetRange(values []T, start int)

	// RemoveAt forgets the value at index
	RemoveAt(index int)

	// RemoveRange forgets count values starting at start
	RemoveRange(start, count int)

	// RemoveFrom forgets every value at or above start
	RemoveFrom(start int)
}

type nopCache[T any] struct{}

// Nop returns a cache that never holds anything. The value is zero-sized, so
// handing it to many stores costs nothing.
func Nop[T any]() Cache[T] {
	return nopCache[T]{}
}

func (nopCache[T]) TryGet(int) (T, bool) {
	var zero T
	return zero, false
}

func (nopCache[T]) SetAt(int, T) {}
func (nopCache[T]) SetRange([]T, int) {}
func (nopCache[T]) RemoveAt(int) {}
func (nopCache[T]) RemoveRange(int, int) {}
func (nopCache[T]) RemoveFrom(int) {}
