package cache

// slot is a cache cell; an empty slot means "not cached"
type slot[T any] struct {
	value T
	full  bool
}

// DefaultSlotLimit is the number of slots a SlotCache may grow to unless it
// was preallocated larger
const DefaultSlotLimit = 1 << 20

// SlotCache mirrors the store in a growable list of slots. The list grows on
// demand and never shrinks, so a slot keeps its position once created.
// Indexes at or above the limit are never cached.
type SlotCache[T any] struct {
	slots []slot[T]
	limit int
}

// NewSlotCache creates a slot cache with size empty slots preallocated
func NewSlotCache[T any](size int) *SlotCache[T] {
	if size < 0 {
		size = 0
	}
	return &SlotCache[T]{
		slots: make([]slot[T], size),
		limit: max(size, DefaultSlotLimit),
	}
}

// Limit returns the first index the cache will not hold
func (c *SlotCache[T]) Limit() int {
	return c.limit
}

// Len returns the number of slots, cached or empty
func (c *SlotCache[T]) Len() int {
	return len(c.slots)
}

// TryGet returns the value at index if the slot exists and is not empty
func (c *SlotCache[T]) TryGet(index int) (T, bool) {
	if index < 0 || index >= len(c.slots) || !c.slots[index].full {
		var zero T
		return zero, false
	}
	return c.slots[index].value, true
}

// SetAt grows the slot list up to index and stores value there
func (c *SlotCache[T]) SetAt(index int, value T) {
	if index < 0 || index >= c.limit {
		return
	}
	c.ensure(index + 1)
	c.slots[index] = slot[T]{value: value, full: true}
}

// SetRange grows the slot list and stores values starting at start
func (c *SlotCache[T]) SetRange(values []T, start int) {
	if start < 0 || start >= c.limit || len(values) == 0 {
		return
	}
	if len(values) > c.limit-start {
		values = values[:c.limit-start]
	}
	c.ensure(start + len(values))
	for i, v := range values {
		c.slots[start+i] = slot[T]{value: v, full: true}
	}
}

// RemoveAt empties the slot at index without shrinking the list
func (c *SlotCache[T]) RemoveAt(index int) {
	if index < 0 || index >= len(c.slots) {
		return
	}
	c.slots[index] = slot[T]{}
}

// RemoveRange empties count slots starting at start
func (c *SlotCache[T]) RemoveRange(start, count int) {
	if start < 0 {
		count += start
		start = 0
	}
	end := min(start+count, len(c.slots))
	for i := start; i < end; i++ {
		c.slots[i] = slot[T]{}
	}
}

// RemoveFrom empties every slot at or above start
func (c *SlotCache[T]) RemoveFrom(start int) {
	start = max(start, 0)
	c.RemoveRange(start, len(c.slots)-start)
}

func (c *SlotCache[T]) ensure(size int) {
	if size <= len(c.slots) {
		return
	}
	c.slots = append(c.slots, make([]slot[T], size-len(c.slots))...)
}
