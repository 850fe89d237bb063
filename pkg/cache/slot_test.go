package cache

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlotCache_SetAndGet(t *testing.T) {
	c := NewSlotCache[string](0)

	c.SetAt(3, "a")

	v, ok := c.TryGet(3)
	assert.True(t, ok)
	assert.Equal(t, "a", v)

	_, ok = c.TryGet(4)
	assert.False(t, ok, "index beyond the slots is a miss")

	_, ok = c.TryGet(1)
	assert.False(t, ok, "slots created by growth start empty")

	assert.Equal(t, 4, c.Len())
}

func TestSlotCache_Preallocated(t *testing.T) {
	c := NewSlotCache[int](1024)
	assert.Equal(t, 1024, c.Len())

	_, ok := c.TryGet(0)
	assert.False(t, ok)
}

func TestSlotCache_SetRange(t *testing.T) {
	c := NewSlotCache[int](2)

	c.SetRange([]int{10, 20, 30}, 1)

	for i, want := range map[int]int{1: 10, 2: 20, 3: 30} {
		v, ok := c.TryGet(i)
		assert.True(t, ok, "index %d", i)
		assert.Equal(t, want, v, "index %d", i)
	}
	_, ok := c.TryGet(0)
	assert.False(t, ok)
	assert.Equal(t, 4, c.Len())
}

func TestSlotCache_RemoveKeepsPositions(t *testing.T) {
	c := NewSlotCache[int](0)
	c.SetRange([]int{1, 2, 3, 4, 5}, 0)

	c.RemoveAt(1)
	c.RemoveRange(3, 10)

	assert.Equal(t, 5, c.Len(), "removal never shrinks the slot list")

	got := make([]bool, 5)
	for i := range got {
		_, got[i] = c.TryGet(i)
	}
	assert.Equal(t, []bool{true, false, true, false, false}, got)

	// A cached zero value is a hit, not a miss
	c.SetAt(1, 0)
	v, ok := c.TryGet(1)
	assert.True(t, ok)
	assert.Equal(t, 0, v)
}

func TestSlotCache_NegativeIndexes(t *testing.T) {
	c := NewSlotCache[int](0)

	c.SetAt(-1, 7)
	c.SetRange([]int{1}, -2)
	c.RemoveAt(-1)

	_, ok := c.TryGet(-1)
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())

	c.SetRange([]int{1, 2}, 0)
	c.RemoveRange(-1, 2)
	_, ok = c.TryGet(0)
	assert.False(t, ok)
	_, ok = c.TryGet(1)
	assert.True(t, ok)
}

func TestSlotCache_RemoveFrom(t *testing.T) {
	c := NewSlotCache[int](8)
	c.SetRange([]int{1, 2, 3}, 0)

	c.RemoveFrom(1)
	assert.Equal(t, 8, c.Len())

	_, ok := c.TryGet(0)
	assert.True(t, ok)
	_, ok = c.TryGet(2)
	assert.False(t, ok)

	c.RemoveFrom(-5)
	_, ok = c.TryGet(0)
	assert.False(t, ok)

	c.RemoveFrom(100)
	assert.Equal(t, 8, c.Len())
}

func TestSlotCache_Limit(t *testing.T) {
	c := NewSlotCache[int](0)
	assert.Equal(t, DefaultSlotLimit, c.Limit())

	c.SetAt(math.MaxInt, 1)
	c.SetAt(1<<40, 1)
	c.SetRange([]int{1, 2}, math.MaxInt-1)
	assert.Equal(t, 0, c.Len(), "indexes past the limit are not cached")

	_, ok := c.TryGet(math.MaxInt)
	assert.False(t, ok)

	c.SetRange([]int{1, 2, 3}, DefaultSlotLimit-1)
	assert.Equal(t, DefaultSlotLimit, c.Len())
	v, ok := c.TryGet(DefaultSlotLimit - 1)
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	big := NewSlotCache[int](DefaultSlotLimit + 4)
	assert.Equal(t, DefaultSlotLimit+4, big.Limit(), "preallocated slots stay usable")
	big.SetAt(DefaultSlotLimit+3, 9)
	_, ok = big.TryGet(DefaultSlotLimit + 3)
	assert.True(t, ok)
}
