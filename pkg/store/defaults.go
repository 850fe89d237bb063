package store

import (
	"reflect"

	"github.com/ssargent/arraydb/pkg/cache"
	"github.com/ssargent/arraydb/pkg/codec"
	"github.com/ssargent/arraydb/pkg/storage"
)

// DefaultCacheSize is the number of slots preallocated by the default cache
const DefaultCacheSize = 1024

// DefaultFileName returns the file name the default stores use for T: the
// type name followed by ext.
func DefaultFileName[T any](ext string) string {
	name := reflect.TypeOf((*T)(nil)).Elem().Name()
	if name == "" {
		name = "records"
	}
	return name + ext
}

// NewBinary creates a slot-cached store of fixed-size records in a binary
// file under root
func NewBinary[T any](root string, opts ...Option) (*RecordStore[T], error) {
	return newBinary[T](root, cache.NewSlotCache[T](DefaultCacheSize), opts)
}

// NewBinaryNoCache is NewBinary without a cache
func NewBinaryNoCache[T any](root string, opts ...Option) (*RecordStore[T], error) {
	return newBinary[T](root, cache.Nop[T](), opts)
}

func newBinary[T any](root string, c cache.Cache[T], opts []Option) (*RecordStore[T], error) {
	element, err := codec.NewFixedCodec[T]()
	if err != nil {
		return nil, err
	}
	o := buildOptions(opts)
	backend := storage.NewBinaryBackend[T](
		storage.FileBackendConfig{Root: root, Logger: o.logger},
		element,
		storage.BinaryCodecConfig{},
	)
	return New[T](backend, c, DefaultFileName[T](".bin"), opts...), nil
}

// NewJSON creates a slot-cached store keeping its records in a JSON file
// under root
func NewJSON[T any](root string, opts ...Option) *RecordStore[T] {
	return newJSON[T](root, cache.NewSlotCache[T](DefaultCacheSize), opts)
}

// NewJSONNoCache is NewJSON without a cache
func NewJSONNoCache[T any](root string, opts ...Option) *RecordStore[T] {
	return newJSON[T](root, cache.Nop[T](), opts)
}

func newJSON[T any](root string, c cache.Cache[T], opts []Option) *RecordStore[T] {
	o := buildOptions(opts)
	backend := storage.NewJSONBackend[T](storage.FileBackendConfig{Root: root, Logger: o.logger})
	return New[T](backend, c, DefaultFileName[T](".json"), opts...)
}
