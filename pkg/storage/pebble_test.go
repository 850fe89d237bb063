package storage

import (
	"testing"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/arraydb/pkg/codec"
)

func newMemPebble(t *testing.T) *PebbleBackend[int64] {
	t.Helper()
	b, err := NewPebbleBackend[int64](PebbleBackendConfig{
		Dir:     "db",
		Options: &pebble.Options{FS: vfs.NewMem()},
	}, codec.MustFixedCodec[int64]())
	require.NoError(t, err)
	t.Cleanup(func() { b.Close() })
	return b
}

func TestPebbleBackend_ReadWrite(t *testing.T) {
	b := newMemPebble(t)

	writeAll[int64](t, b, "numbers", 0, 10, 20)
	writeAll[int64](t, b, "numbers", 4, 50)

	assert.Equal(t, []int64{10, 20, 0, 0, 50}, readAll[int64](t, b, "numbers", 0, 1, 2, 3, 4))

	s, err := b.BeginRead("numbers")
	require.NoError(t, err)
	require.NoError(t, s.Read(5))
	_, err = s.End()
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestPebbleBackend_PathsAreIsolated(t *testing.T) {
	b := newMemPebble(t)

	writeAll[int64](t, b, "a", 0, 1, 2, 3)
	writeAll[int64](t, b, "ab", 0, 9)

	deleteAll[int64](t, b, "a", 0)

	assert.Equal(t, []int64{2, 3}, readAll[int64](t, b, "a", 0, 1))
	assert.Equal(t, []int64{9}, readAll[int64](t, b, "ab", 0))
}

func TestPebbleBackend_Delete(t *testing.T) {
	b := newMemPebble(t)

	// index 3 is a hole
	writeAll[int64](t, b, "n", 0, 10, 11, 12)
	writeAll[int64](t, b, "n", 4, 14, 15)

	deleteAll[int64](t, b, "n", 1, 5)
	assert.Equal(t, []int64{10, 12, 0, 14}, readAll[int64](t, b, "n", 0, 1, 2, 3))

	d, err := b.BeginDelete("n")
	require.NoError(t, err)
	require.NoError(t, d.Delete(4))
	assert.ErrorIs(t, d.End(), ErrIndexOutOfRange)

	s, err := b.BeginRead("n")
	require.NoError(t, err)
	require.NoError(t, s.Read(4))
	_, err = s.End()
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestPebbleBackend_OneSessionAtATime(t *testing.T) {
	b := newMemPebble(t)

	w, err := b.BeginWrite("n")
	require.NoError(t, err)

	_, err = b.BeginRead("n")
	assert.ErrorIs(t, err, ErrConcurrency)

	require.NoError(t, w.End())
	_, err = b.BeginRead("n")
	assert.NoError(t, err)
}

func TestPebbleBackend_MaxExtent(t *testing.T) {
	b, err := NewPebbleBackend[int64](PebbleBackendConfig{
		Dir:       "db",
		Options:   &pebble.Options{FS: vfs.NewMem()},
		Sync:      true,
		MaxExtent: 2,
	}, codec.MustFixedCodec[int64]())
	require.NoError(t, err)
	defer b.Close()

	s, err := b.BeginWrite("n")
	require.NoError(t, err)
	require.NoError(t, s.Write(2, 1))
	assert.ErrorIs(t, s.End(), ErrExtentExceeded)
}

func TestPebbleBackend_Reopen(t *testing.T) {
	fs := vfs.NewMem()
	open := func() *PebbleBackend[int64] {
		b, err := NewPebbleBackend[int64](PebbleBackendConfig{Dir: "db", Options: &pebble.Options{FS: fs}, Sync: true}, codec.MustFixedCodec[int64]())
		require.NoError(t, err)
		return b
	}

	b := open()
	writeAll[int64](t, b, "n", 0, 7, 8)
	require.NoError(t, b.Close())

	b = open()
	defer b.Close()
	assert.Equal(t, []int64{7, 8}, readAll[int64](t, b, "n", 0, 1))
}
