package codec

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

// Errors returned by element codecs
var (
	ErrNotFixedSize = errors.New("type has no fixed binary size")
	ErrSizeMismatch = errors.New("blob size does not match the value size")
)

// ElementCodec converts a single record value to and from its blob bytes
type ElementCodec[T any] interface {
	Encode(value T) ([]byte, error)
	Decode(data []byte) (T, error)
}

// FixedCodec serializes fixed-size values using their little-endian binary layout
type FixedCodec[T any] struct {
	size int
}

// NewFixedCodec creates a codec for T, failing if T has no fixed binary size
func NewFixedCodec[T any]() (*FixedCodec[T], error) {
	var zero T
	size := binary.Size(zero)
	if size < 0 {
		return nil, fmt.Errorf("%w: %T", ErrNotFixedSize, zero)
	}
	return &FixedCodec[T]{size: size}, nil
}

// MustFixedCodec is like NewFixedCodec but panics on error
func MustFixedCodec[T any]() *FixedCodec[T] {
	c, err := NewFixedCodec[T]()
	if err != nil {
		panic(err)
	}
	return c
}

// Size returns the encoded size of one value in bytes
func (c *FixedCodec[T]) Size() int {
	return c.size
}

// Encode writes value into a buffer sized exactly to its binary layout
func (c *FixedCodec[T]) Encode(value T) ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, c.size))
	if err := binary.Write(buf, binary.LittleEndian, value); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode reads a value back from data. An empty blob decodes to the zero value.
func (c *FixedCodec[T]) Decode(data []byte) (T, error) {
	var value T
	if len(data) == 0 {
		return value, nil
	}
	if len(data) != c.size {
		return value, fmt.Errorf("%w: got %d bytes, want %d", ErrSizeMismatch, len(data), c.size)
	}
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, &value); err != nil {
		return value, err
	}
	return value, nil
}
