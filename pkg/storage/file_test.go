package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/arraydb/pkg/codec"
)

func TestFileBackend_HandleAccess(t *testing.T) {
	tests := []struct {
		name  string
		modes FileModes
		begin func(b *FileBackend[int32]) error
	}{
		{
			name:  "read from write-only handle",
			modes: FileModes{Read: os.O_WRONLY | os.O_CREATE, Write: os.O_RDWR | os.O_CREATE, Delete: os.O_RDWR | os.O_CREATE},
			begin: func(b *FileBackend[int32]) error {
				s, err := b.BeginRead("f.bin")
				if err != nil {
					return err
				}
				_, err = s.End()
				return err
			},
		},
		{
			name:  "write through read-only handle",
			modes: FileModes{Read: os.O_RDONLY | os.O_CREATE, Write: os.O_RDONLY | os.O_CREATE, Delete: os.O_RDWR | os.O_CREATE},
			begin: func(b *FileBackend[int32]) error {
				s, err := b.BeginWrite("f.bin")
				if err != nil {
					return err
				}
				return s.End()
			},
		},
		{
			name:  "delete through write-only handle",
			modes: FileModes{Read: os.O_RDONLY | os.O_CREATE, Write: os.O_RDWR | os.O_CREATE, Delete: os.O_WRONLY | os.O_CREATE},
			begin: func(b *FileBackend[int32]) error {
				s, err := b.BeginDelete("f.bin")
				if err != nil {
					return err
				}
				return s.End()
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			modes := tt.modes
			b := NewBinaryBackend[int32](FileBackendConfig{Fs: afero.NewMemMapFs(), Modes: &modes}, codec.MustFixedCodec[int32](), BinaryCodecConfig{})

			err := tt.begin(b)
			assert.ErrorIs(t, err, ErrHandleAccess)
			assert.ErrorIs(t, err, ErrConcurrency)

			// the backend is free again
			s, err := b.BeginRead("f.bin")
			require.NoError(t, err)
			require.NoError(t, s.Discard())
		})
	}
}

func TestFileBackend_OpenFailureReleases(t *testing.T) {
	modes := FileModes{Read: os.O_RDONLY, Write: os.O_RDWR | os.O_CREATE, Delete: os.O_RDWR}
	b := NewBinaryBackend[int32](FileBackendConfig{Fs: afero.NewMemMapFs(), Modes: &modes}, codec.MustFixedCodec[int32](), BinaryCodecConfig{})

	_, err := b.BeginRead("missing.bin")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrConcurrency)

	writeAll[int32](t, b, "missing.bin", 0, 1)
	assert.Equal(t, []int32{1}, readAll[int32](t, b, "missing.bin", 0))
}

func TestFileBackend_OsFs(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "store")
	b := NewBinaryBackend[int64](FileBackendConfig{Root: dir}, codec.MustFixedCodec[int64](), BinaryCodecConfig{})

	writeAll[int64](t, b, "numbers.bin", 0, 10, 20, 30)
	assert.Equal(t, []int64{10, 30}, readAll[int64](t, b, "numbers.bin", 0, 2))

	info, err := os.Stat(b.FullPath("numbers.bin"))
	require.NoError(t, err)
	assert.EqualValues(t, 8+3*4+3*8, info.Size())
}
