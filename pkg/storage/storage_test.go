package storage

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/arraydb/pkg/codec"
)

func newMemBinary(t *testing.T) (*FileBackend[int32], afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	b := NewBinaryBackend[int32](FileBackendConfig{Fs: fs, Root: "data"}, codec.MustFixedCodec[int32](), BinaryCodecConfig{})
	return b, fs
}

func writeAll[T any](t *testing.T, b Backend[T], path string, start int, values ...T) {
	t.Helper()
	s, err := b.BeginWrite(path)
	require.NoError(t, err)
	for i, v := range values {
		require.NoError(t, s.Write(start+i, v))
	}
	require.NoError(t, s.End())
}

func readAll[T any](t *testing.T, b Backend[T], path string, indexes ...int) []T {
	t.Helper()
	s, err := b.BeginRead(path)
	require.NoError(t, err)
	for _, i := range indexes {
		require.NoError(t, s.Read(i))
	}
	values, err := s.End()
	require.NoError(t, err)
	return values
}

func deleteAll[T any](t *testing.T, b Backend[T], path string, indexes ...int) {
	t.Helper()
	s, err := b.BeginDelete(path)
	require.NoError(t, err)
	for _, i := range indexes {
		require.NoError(t, s.Delete(i))
	}
	require.NoError(t, s.End())
}
