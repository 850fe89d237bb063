package storage

import (
	"fmt"
	"io"
	"slices"
	"sync/atomic"

	"github.com/pkg/errors"
	"github.com/spf13/afero"

	"github.com/ssargent/arraydb/pkg/codec"
)

// TextCodec keeps the whole record list in one human-readable document
type TextCodec[T any] struct {
	serializer codec.TextSerializer[T]
	busy       atomic.Bool
}

// NewTextCodec creates a text layout using serializer for the document
func NewTextCodec[T any](serializer codec.TextSerializer[T]) *TextCodec[T] {
	return &TextCodec[T]{serializer: serializer}
}

// NewJSONBackend creates a file backend storing a JSON array
func NewJSONBackend[T any](config FileBackendConfig) *FileBackend[T] {
	return NewFileBackend[T](config, NewTextCodec[T](codec.JSONSerializer[T]{}))
}

// NewYAMLBackend creates a file backend storing a YAML sequence
func NewYAMLBackend[T any](config FileBackendConfig) *FileBackend[T] {
	return NewFileBackend[T](config, NewTextCodec[T](codec.YAMLSerializer[T]{}))
}

func (c *TextCodec[T]) enter() error {
	if !c.busy.CompareAndSwap(false, true) {
		return fmt.Errorf("%w: text codec in use", ErrConcurrentSession)
	}
	return nil
}

func (c *TextCodec[T]) leave() {
	c.busy.Store(false)
}

func (c *TextCodec[T]) load(f afero.File) ([]T, error) {
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	list, err := c.serializer.Deserialize(data)
	if err != nil {
		return nil, errors.WithMessage(fmt.Errorf("%w: %w", ErrFormat, err), f.Name())
	}
	return list, nil
}

func (c *TextCodec[T]) store(f afero.File, list []T) error {
	data, err := c.serializer.Serialize(list)
	if err != nil {
		return errors.WithMessage(err, "serialize records")
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		return err
	}
	return f.Truncate(int64(len(data)))
}

func (c *TextCodec[T]) ReadValues(f afero.File, indexes []int) ([]T, error) {
	if err := c.enter(); err != nil {
		return nil, err
	}
	defer c.leave()

	list, err := c.load(f)
	if err != nil {
		return nil, err
	}
	values := make([]T, len(indexes))
	for i, idx := range indexes {
		if idx >= len(list) {
			return nil, outOfRange(idx, len(list))
		}
		values[i] = list[idx]
	}
	return values, nil
}

func (c *TextCodec[T]) WriteValues(f afero.File, indexes []int, values []T) error {
	if err := c.enter(); err != nil {
		return err
	}
	defer c.leave()

	list, err := c.load(f)
	if err != nil {
		return err
	}
	if last := indexes[len(indexes)-1]; last >= len(list) {
		list = append(list, make([]T, last+1-len(list))...)
	}
	for i, idx := range indexes {
		list[idx] = values[i]
	}
	return c.store(f, list)
}

func (c *TextCodec[T]) DeleteValues(f afero.File, indexes []int) error {
	if err := c.enter(); err != nil {
		return err
	}
	defer c.leave()

	list, err := c.load(f)
	if err != nil {
		return err
	}
	if last := indexes[len(indexes)-1]; last >= len(list) {
		return outOfRange(last, len(list))
	}
	for i := len(indexes) - 1; i >= 0; i-- {
		list = slices.Delete(list, indexes[i], indexes[i]+1)
	}
	return c.store(f, list)
}
