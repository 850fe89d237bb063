package storage

import (
	"bytes"
	"encoding/binary"
	"os"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ssargent/arraydb/pkg/codec"
)

func TestBinaryCodec_FileLayout(t *testing.T) {
	b, fs := newMemBinary(t)

	writeAll[int32](t, b, "numbers.bin", 0, 10, 20)

	data, err := afero.ReadFile(fs, "data/numbers.bin")
	require.NoError(t, err)

	var want bytes.Buffer
	want.Write(Magic[:])
	for _, v := range []int32{16, 20, 10, 20} {
		require.NoError(t, binary.Write(&want, binary.LittleEndian, v))
	}
	assert.Equal(t, want.Bytes(), data)

	assert.Equal(t, []int32{20}, readAll[int32](t, b, "numbers.bin", 1))
}

func TestBinaryCodec_SparseWrite(t *testing.T) {
	b, _ := newMemBinary(t)

	writeAll[int32](t, b, "sparse.bin", 5, 42)

	assert.Equal(t, []int32{0, 0, 0, 0, 0, 42}, readAll[int32](t, b, "sparse.bin", 0, 1, 2, 3, 4, 5))
}

func TestBinaryCodec_Overwrite(t *testing.T) {
	b, _ := newMemBinary(t)

	writeAll[int32](t, b, "f.bin", 0, 1, 2, 3)
	writeAll[int32](t, b, "f.bin", 1, 20, 30, 40)

	assert.Equal(t, []int32{1, 20, 30, 40}, readAll[int32](t, b, "f.bin", 0, 1, 2, 3))
}

func TestBinaryCodec_ReadOrderIsAscending(t *testing.T) {
	b, _ := newMemBinary(t)
	writeAll[int32](t, b, "f.bin", 0, 100, 101, 102, 103)

	s, err := b.BeginRead("f.bin")
	require.NoError(t, err)
	for _, i := range []int{3, 0, 2, 0} {
		require.NoError(t, s.Read(i))
	}
	assert.Equal(t, []int{0, 2, 3}, s.Indexes())

	values, err := s.End()
	require.NoError(t, err)
	assert.Equal(t, []int32{100, 102, 103}, values)
}

func TestBinaryCodec_EmptyFile(t *testing.T) {
	b, _ := newMemBinary(t)

	s, err := b.BeginRead("empty.bin")
	require.NoError(t, err)
	require.NoError(t, s.Read(0))
	_, err = s.End()
	assert.ErrorIs(t, err, ErrIndexOutOfRange)

	d, err := b.BeginDelete("empty.bin")
	require.NoError(t, err)
	require.NoError(t, d.Delete(0))
	assert.ErrorIs(t, d.End(), ErrIndexOutOfRange)
}

func TestBinaryCodec_ReadPastEnd(t *testing.T) {
	b, _ := newMemBinary(t)
	writeAll[int32](t, b, "f.bin", 0, 1, 2)

	s, err := b.BeginRead("f.bin")
	require.NoError(t, err)
	require.NoError(t, s.Read(0))
	require.NoError(t, s.Read(2))
	_, err = s.End()
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestBinaryCodec_Delete(t *testing.T) {
	b, fs := newMemBinary(t)
	writeAll[int32](t, b, "f.bin", 0, 10, 11, 12, 13, 14)

	deleteAll[int32](t, b, "f.bin", 3, 1)
	assert.Equal(t, []int32{10, 12, 14}, readAll[int32](t, b, "f.bin", 0, 1, 2))

	// Out of range deletes leave the file untouched
	before, err := afero.ReadFile(fs, "data/f.bin")
	require.NoError(t, err)

	d, err := b.BeginDelete("f.bin")
	require.NoError(t, err)
	require.NoError(t, d.Delete(0))
	require.NoError(t, d.Delete(3))
	assert.ErrorIs(t, d.End(), ErrIndexOutOfRange)

	after, err := afero.ReadFile(fs, "data/f.bin")
	require.NoError(t, err)
	assert.Equal(t, before, after)

	// Removing everything leaves the magic alone
	deleteAll[int32](t, b, "f.bin", 0, 1, 2)
	after, err = afero.ReadFile(fs, "data/f.bin")
	require.NoError(t, err)
	assert.Equal(t, Magic[:], after)

	s, err := b.BeginRead("f.bin")
	require.NoError(t, err)
	require.NoError(t, s.Read(0))
	_, err = s.End()
	assert.ErrorIs(t, err, ErrIndexOutOfRange)

	writeAll[int32](t, b, "f.bin", 0, 7)
	assert.Equal(t, []int32{7}, readAll[int32](t, b, "f.bin", 0))
}

func TestBinaryCodec_CorruptMagic(t *testing.T) {
	b, fs := newMemBinary(t)
	writeAll[int32](t, b, "f.bin", 0, 1, 2, 3)

	f, err := fs.OpenFile("data/f.bin", os.O_RDWR, 0600)
	require.NoError(t, err)
	_, err = f.WriteAt([]byte("garbage!"), 0)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	r, err := b.BeginRead("f.bin")
	require.NoError(t, err)
	require.NoError(t, r.Read(0))
	_, err = r.End()
	assert.ErrorIs(t, err, ErrFormat)

	w, err := b.BeginWrite("f.bin")
	require.NoError(t, err)
	require.NoError(t, w.Write(0, 9))
	assert.ErrorIs(t, w.End(), ErrFormat)

	d, err := b.BeginDelete("f.bin")
	require.NoError(t, err)
	require.NoError(t, d.Delete(0))
	assert.ErrorIs(t, d.End(), ErrFormat)
}

func TestBinaryCodec_CorruptTable(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"short magic", []byte{0x00, 0x11, 0x22}},
		{"short table", append(Magic[:], 0x0c, 0x00)},
		{"misaligned first position", append(Magic[:], 0x0d, 0x00, 0x00, 0x00, 0x00)},
		{"position past end", append(Magic[:], 0x40, 0x00, 0x00, 0x00)},
		{"decreasing positions", append(Magic[:],
			0x10, 0x00, 0x00, 0x00,
			0x0c, 0x00, 0x00, 0x00)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, fs := newMemBinary(t)
			require.NoError(t, fs.MkdirAll("data", 0750))
			require.NoError(t, afero.WriteFile(fs, "data/f.bin", tt.data, 0600))

			s, err := b.BeginRead("f.bin")
			require.NoError(t, err)
			require.NoError(t, s.Read(0))
			_, err = s.End()
			assert.ErrorIs(t, err, ErrFormat)
		})
	}
}

func TestBinaryCodec_BadBlob(t *testing.T) {
	b, fs := newMemBinary(t)
	require.NoError(t, fs.MkdirAll("data", 0750))

	// one record whose blob is 3 bytes long
	data := append(Magic[:], 0x0c, 0x00, 0x00, 0x00, 0x01, 0x02, 0x03)
	require.NoError(t, afero.WriteFile(fs, "data/f.bin", data, 0600))

	s, err := b.BeginRead("f.bin")
	require.NoError(t, err)
	require.NoError(t, s.Read(0))
	_, err = s.End()
	assert.ErrorIs(t, err, ErrFormat)
	assert.ErrorIs(t, err, codec.ErrSizeMismatch)
}

func TestBinaryCodec_MaxExtent(t *testing.T) {
	fs := afero.NewMemMapFs()
	b := NewBinaryBackend[int32](FileBackendConfig{Fs: fs}, codec.MustFixedCodec[int32](), BinaryCodecConfig{MaxExtent: 4})

	writeAll[int32](t, b, "f.bin", 3, 1)

	s, err := b.BeginWrite("f.bin")
	require.NoError(t, err)
	require.NoError(t, s.Write(4, 1))
	assert.ErrorIs(t, s.End(), ErrExtentExceeded)

	assert.Equal(t, []int32{0, 0, 0, 1}, readAll[int32](t, b, "f.bin", 0, 1, 2, 3))
}

func TestBinaryCodec_UnlimitedExtentStillBounded(t *testing.T) {
	fs := afero.NewMemMapFs()
	b := NewBinaryBackend[int32](FileBackendConfig{Fs: fs}, codec.MustFixedCodec[int32](), BinaryCodecConfig{})
	writeAll[int32](t, b, "f.bin", 0, 5)

	s, err := b.BeginWrite("f.bin")
	require.NoError(t, err)
	require.NoError(t, s.Write(1<<40, 1))
	assert.ErrorIs(t, s.End(), ErrExtentExceeded)

	assert.Equal(t, []int32{5}, readAll[int32](t, b, "f.bin", 0))
}

func TestBinaryCodec_GrowthWarning(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	fs := afero.NewMemMapFs()
	b := NewBinaryBackend[int32](FileBackendConfig{Fs: fs, Logger: zap.New(core)}, codec.MustFixedCodec[int32](), BinaryCodecConfig{GrowthWarnThreshold: 10})

	writeAll[int32](t, b, "f.bin", 5, 1)
	assert.Equal(t, 0, logs.Len())

	writeAll[int32](t, b, "f.bin", 100, 1)
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "sparse write creates placeholder records", entry.Message)
	assert.EqualValues(t, 94, entry.ContextMap()["placeholders"])
}

func TestBinaryCodec_Checksum(t *testing.T) {
	fs := afero.NewMemMapFs()
	element := codec.NewChecksumCodec[int64](codec.MustFixedCodec[int64]())
	b := NewBinaryBackend[int64](FileBackendConfig{Fs: fs}, element, BinaryCodecConfig{})

	writeAll[int64](t, b, "c.bin", 0, 1, 2)
	assert.Equal(t, []int64{1, 2}, readAll[int64](t, b, "c.bin", 0, 1))

	// flip a payload byte of the second record
	data, err := afero.ReadFile(fs, "c.bin")
	require.NoError(t, err)
	data[len(data)-1] ^= 0xff
	require.NoError(t, afero.WriteFile(fs, "c.bin", data, 0600))

	s, err := b.BeginRead("c.bin")
	require.NoError(t, err)
	require.NoError(t, s.Read(1))
	_, err = s.End()
	assert.ErrorIs(t, err, ErrFormat)
	assert.ErrorIs(t, err, codec.ErrChecksum)
}

func TestBinaryCodec_Busy(t *testing.T) {
	c := NewBinaryCodec[int32](codec.MustFixedCodec[int32](), BinaryCodecConfig{})
	require.NoError(t, c.enter())

	fs := afero.NewMemMapFs()
	f, err := fs.Create("f.bin")
	require.NoError(t, err)
	defer f.Close()

	_, err = c.ReadValues(f, []int{0})
	assert.ErrorIs(t, err, ErrConcurrentSession)

	c.leave()
	_, err = c.ReadValues(f, []int{0})
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}
