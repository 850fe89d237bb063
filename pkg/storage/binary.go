package storage

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"slices"
	"sync/atomic"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/ssargent/arraydb/pkg/codec"
)

// Magic starts every non-empty binary record file
var Magic = [8]byte{0x00, 0x11, 0x22, 0x33, 0x33, 0x22, 0x11, 0x00}

const (
	magicSize    = len(Magic)
	positionSize = 4

	// most records whose position table still fits int32 offsets
	maxBinaryExtent = (math.MaxInt32 - magicSize) / positionSize
)

// BinaryCodecConfig holds configuration for the binary file layout
type BinaryCodecConfig struct {
	MaxExtent           int         // Largest record count a write may produce; 0 means unlimited
	GrowthWarnThreshold int         // Placeholders created by one write above this are logged
	Logger              *zap.Logger // nil means no logging
}

// BinaryCodec stores records as
//
//	magic(8) | position table (int32 LE, one per record) | blobs
//
// where each position is the file offset of its blob and a blob runs to the
// next position (or the end of the file). A zero-length blob holds the zero
// value. Every write or delete rewrites the file from offset 0.
type BinaryCodec[T any] struct {
	element codec.ElementCodec[T]
	config  BinaryCodecConfig
	logger  *zap.Logger
	busy    atomic.Bool
}

// NewBinaryCodec creates a binary layout storing elements with element
func NewBinaryCodec[T any](element codec.ElementCodec[T], config BinaryCodecConfig) *BinaryCodec[T] {
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BinaryCodec[T]{element: element, config: config, logger: logger}
}

// NewBinaryBackend creates a file backend using the binary layout
func NewBinaryBackend[T any](fileConfig FileBackendConfig, element codec.ElementCodec[T], config BinaryCodecConfig) *FileBackend[T] {
	if config.Logger == nil {
		config.Logger = fileConfig.Logger
	}
	return NewFileBackend[T](fileConfig, NewBinaryCodec(element, config))
}

func (c *BinaryCodec[T]) enter() error {
	if !c.busy.CompareAndSwap(false, true) {
		return fmt.Errorf("%w: binary codec in use", ErrConcurrentSession)
	}
	return nil
}

func (c *BinaryCodec[T]) leave() {
	c.busy.Store(false)
}

// table holds the validated position table of a file
type table struct {
	positions []int64
	size      int64
}

func (t table) len() int { return len(t.positions) }

func (t table) span(i int) (int64, int64) {
	start := t.positions[i]
	end := t.size
	if i+1 < len(t.positions) {
		end = t.positions[i+1]
	}
	return start, end - start
}

// readTable validates the header of f. An empty file has no records.
func readTable(f afero.File) (table, error) {
	size, err := fileSize(f)
	if err != nil {
		return table{}, err
	}
	t := table{size: size}
	if size == 0 {
		return t, nil
	}
	if size < int64(magicSize) {
		return t, formatError("file too short for the magic (%d bytes)", size)
	}

	var magic [magicSize]byte
	if _, err := f.ReadAt(magic[:], 0); err != nil {
		return t, readError(err)
	}
	if magic != Magic {
		return t, formatError("bad magic % x", magic[:])
	}
	if size == int64(magicSize) {
		return t, nil
	}
	if size < int64(magicSize+positionSize) {
		return t, formatError("file too short for a position table (%d bytes)", size)
	}

	var first [positionSize]byte
	if _, err := f.ReadAt(first[:], int64(magicSize)); err != nil {
		return t, readError(err)
	}
	p0 := int64(int32(binary.LittleEndian.Uint32(first[:])))
	if p0 < int64(magicSize+positionSize) || (p0-int64(magicSize))%positionSize != 0 || p0 > size {
		return t, formatError("first position %d invalid for a %d byte file", p0, size)
	}

	n := int((p0 - int64(magicSize)) / positionSize)
	raw := make([]byte, n*positionSize)
	if _, err := f.ReadAt(raw, int64(magicSize)); err != nil {
		return t, readError(err)
	}

	t.positions = make([]int64, n)
	for i := range t.positions {
		p := int64(int32(binary.LittleEndian.Uint32(raw[i*positionSize:])))
		if p > size || (i > 0 && p < t.positions[i-1]) || p < p0 {
			return t, formatError("position %d of record %d out of order", p, i)
		}
		t.positions[i] = p
	}
	return t, nil
}

func readError(err error) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return formatError("unexpected end of file")
	}
	return err
}

func (t table) blob(f afero.File, i int) ([]byte, error) {
	start, length := t.span(i)
	if length == 0 {
		return nil, nil
	}
	buf := make([]byte, length)
	n, err := f.ReadAt(buf, start)
	if n == len(buf) {
		return buf, nil
	}
	if err == nil {
		err = io.ErrUnexpectedEOF
	}
	return nil, readError(err)
}

func (c *BinaryCodec[T]) decode(index int, blob []byte) (T, error) {
	if len(blob) == 0 {
		var zero T
		return zero, nil
	}
	v, err := c.element.Decode(blob)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("%w: index %d: %w", ErrFormat, index, err)
	}
	return v, nil
}

func (c *BinaryCodec[T]) ReadValues(f afero.File, indexes []int) ([]T, error) {
	if err := c.enter(); err != nil {
		return nil, err
	}
	defer c.leave()

	t, err := readTable(f)
	if err != nil {
		return nil, err
	}

	values := make([]T, len(indexes))
	for i, idx := range indexes {
		if idx >= t.len() {
			return nil, outOfRange(idx, t.len())
		}
		blob, err := t.blob(f, idx)
		if err != nil {
			return nil, err
		}
		if values[i], err = c.decode(idx, blob); err != nil {
			return nil, err
		}
	}
	return values, nil
}

// load returns every blob of f
func (c *BinaryCodec[T]) load(f afero.File) ([][]byte, error) {
	t, err := readTable(f)
	if err != nil {
		return nil, err
	}
	blobs := make([][]byte, t.len())
	for i := range blobs {
		if blobs[i], err = t.blob(f, i); err != nil {
			return nil, err
		}
	}
	return blobs, nil
}

func (c *BinaryCodec[T]) WriteValues(f afero.File, indexes []int, values []T) error {
	if err := c.enter(); err != nil {
		return err
	}
	defer c.leave()

	blobs, err := c.load(f)
	if err != nil {
		return err
	}

	last := indexes[len(indexes)-1]
	if c.config.MaxExtent > 0 && last >= c.config.MaxExtent {
		return fmt.Errorf("%w: index %d, max extent %d", ErrExtentExceeded, last, c.config.MaxExtent)
	}
	if last >= maxBinaryExtent {
		return fmt.Errorf("%w: index %d, binary files hold at most %d records", ErrExtentExceeded, last, maxBinaryExtent)
	}

	if holes := last + 1 - len(blobs) - countFrom(indexes, len(blobs)); holes > c.config.GrowthWarnThreshold && c.config.GrowthWarnThreshold > 0 {
		c.logger.Warn("sparse write creates placeholder records",
			zap.String("file", f.Name()),
			zap.Int("extent", len(blobs)),
			zap.Int("index", last),
			zap.Int("placeholders", holes))
	}

	encoded := make([][]byte, len(values))
	for i, v := range values {
		if encoded[i], err = c.element.Encode(v); err != nil {
			return err
		}
	}

	for i, idx := range indexes {
		if idx < len(blobs) {
			blobs[idx] = encoded[i]
		}
	}
	for i, idx := range indexes {
		if idx < len(blobs) {
			continue
		}
		for len(blobs) < idx {
			blobs = append(blobs, nil)
		}
		blobs = append(blobs, encoded[i])
	}

	return rewrite(f, blobs)
}

// countFrom counts the sorted indexes at or above from
func countFrom(indexes []int, from int) int {
	pos, _ := slices.BinarySearch(indexes, from)
	return len(indexes) - pos
}

func (c *BinaryCodec[T]) DeleteValues(f afero.File, indexes []int) error {
	if err := c.enter(); err != nil {
		return err
	}
	defer c.leave()

	blobs, err := c.load(f)
	if err != nil {
		return err
	}
	if last := indexes[len(indexes)-1]; last >= len(blobs) {
		return outOfRange(last, len(blobs))
	}

	for i := len(indexes) - 1; i >= 0; i-- {
		blobs = slices.Delete(blobs, indexes[i], indexes[i]+1)
	}
	return rewrite(f, blobs)
}

// rewrite writes the whole file from offset 0 and truncates what is left
func rewrite(f afero.File, blobs [][]byte) error {
	header := int64(magicSize + positionSize*len(blobs))
	total := header
	for _, b := range blobs {
		total += int64(len(b))
	}
	if total > math.MaxInt32 {
		return formatError("file of %d bytes does not fit int32 positions", total)
	}

	var buf bytes.Buffer
	buf.Grow(int(header))
	buf.Write(Magic[:])
	pos := header
	for _, b := range blobs {
		if err := binary.Write(&buf, binary.LittleEndian, int32(pos)); err != nil {
			return err
		}
		pos += int64(len(b))
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	if _, err := w.Write(buf.Bytes()); err != nil {
		return err
	}
	for _, b := range blobs {
		if _, err := w.Write(b); err != nil {
			return err
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return f.Truncate(total)
}
