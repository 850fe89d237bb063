package storage

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"
	"go.uber.org/zap"

	"github.com/ssargent/arraydb/pkg/codec"
)

const (
	keySep       = 0x00
	elementTag   = 'e'
	extentTag    = 'n'
	indexKeySize = 8
)

// PebbleBackendConfig holds configuration for a pebble backend
type PebbleBackendConfig struct {
	Dir       string          // Database directory
	Options   *pebble.Options // nil means pebble defaults
	Sync      bool            // Sync every committed batch
	MaxExtent int             // Largest record count a write may produce; 0 means unlimited
	Logger    *zap.Logger     // nil means no logging
}

// PebbleBackend keeps every path as its own key space in a pebble database.
// Each record lives under path 0x00 'e' followed by its big-endian index, and
// the record count under path 0x00 'n'. Records that were never written read
// as the zero value.
type PebbleBackend[T any] struct {
	db        *pebble.DB
	element   codec.ElementCodec[T]
	writeOpts *pebble.WriteOptions
	maxExtent int
	logger    *zap.Logger
	guard     guard
}

// NewPebbleBackend opens the database in config.Dir
func NewPebbleBackend[T any](config PebbleBackendConfig, element codec.ElementCodec[T]) (*PebbleBackend[T], error) {
	opts := config.Options
	if opts == nil {
		opts = &pebble.Options{}
	}
	db, err := pebble.Open(config.Dir, opts)
	if err != nil {
		return nil, err
	}

	b := &PebbleBackend[T]{
		db:        db,
		element:   element,
		writeOpts: pebble.NoSync,
		maxExtent: config.MaxExtent,
		logger:    config.Logger,
	}
	if config.Sync {
		b.writeOpts = pebble.Sync
	}
	if b.logger == nil {
		b.logger = zap.NewNop()
	}
	return b, nil
}

// Close closes the underlying database
func (b *PebbleBackend[T]) Close() error {
	return b.db.Close()
}

func (b *PebbleBackend[T]) BeginRead(path string) (*ReadSession[T], error) {
	s, err := b.begin(PhaseRead, path)
	if err != nil {
		return nil, err
	}
	return &ReadSession[T]{s: s}, nil
}

func (b *PebbleBackend[T]) BeginWrite(path string) (*WriteSession[T], error) {
	s, err := b.begin(PhaseWrite, path)
	if err != nil {
		return nil, err
	}
	return &WriteSession[T]{s: s}, nil
}

func (b *PebbleBackend[T]) BeginDelete(path string) (*DeleteSession[T], error) {
	s, err := b.begin(PhaseDelete, path)
	if err != nil {
		return nil, err
	}
	return &DeleteSession[T]{s: s}, nil
}

func (b *PebbleBackend[T]) begin(phase Phase, path string) (*session[T], error) {
	if err := b.guard.acquire(phase, path); err != nil {
		return nil, err
	}
	exec := &pebbleExecutor[T]{backend: b, prefix: keyPrefix(path)}
	return newSession[T](phase, path, exec, &b.guard, b.logger), nil
}

func keyPrefix(path string) []byte {
	prefix := make([]byte, 0, len(path)+1)
	prefix = append(prefix, path...)
	return append(prefix, keySep)
}

// pebbleExecutor runs one session against the key space of a path
type pebbleExecutor[T any] struct {
	backend *PebbleBackend[T]
	prefix  []byte
}

func (e *pebbleExecutor[T]) elementKey(index int) []byte {
	key := make([]byte, len(e.prefix)+1+indexKeySize)
	n := copy(key, e.prefix)
	key[n] = elementTag
	binary.BigEndian.PutUint64(key[n+1:], uint64(index))
	return key
}

func (e *pebbleExecutor[T]) extentKey() []byte {
	key := make([]byte, len(e.prefix)+1)
	n := copy(key, e.prefix)
	key[n] = extentTag
	return key
}

func (e *pebbleExecutor[T]) get(key []byte) ([]byte, error) {
	value, closer, err := e.backend.db.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer closer.Close()
	return bytes.Clone(value), nil
}

func (e *pebbleExecutor[T]) extent() (int, error) {
	raw, err := e.get(e.extentKey())
	if err != nil || raw == nil {
		return 0, err
	}
	if len(raw) != indexKeySize {
		return 0, formatError("extent of %d bytes", len(raw))
	}
	return int(binary.BigEndian.Uint64(raw)), nil
}

func extentValue(n int) []byte {
	var raw [indexKeySize]byte
	binary.BigEndian.PutUint64(raw[:], uint64(n))
	return raw[:]
}

func (e *pebbleExecutor[T]) check(Phase) error {
	return nil
}

func (e *pebbleExecutor[T]) release() error {
	return nil
}

func (e *pebbleExecutor[T]) read(indexes []int) ([]T, error) {
	n, err := e.extent()
	if err != nil {
		return nil, err
	}

	values := make([]T, len(indexes))
	for i, idx := range indexes {
		if idx >= n {
			return nil, outOfRange(idx, n)
		}
		blob, err := e.get(e.elementKey(idx))
		if err != nil {
			return nil, err
		}
		if len(blob) == 0 {
			continue
		}
		if values[i], err = e.backend.element.Decode(blob); err != nil {
			return nil, fmt.Errorf("%w: index %d: %w", ErrFormat, idx, err)
		}
	}
	return values, nil
}

func (e *pebbleExecutor[T]) write(indexes []int, values []T) error {
	n, err := e.extent()
	if err != nil {
		return err
	}
	last := indexes[len(indexes)-1]
	if limit := e.backend.maxExtent; limit > 0 && last >= limit {
		return fmt.Errorf("%w: index %d, max extent %d", ErrExtentExceeded, last, limit)
	}

	batch := e.backend.db.NewBatch()
	defer batch.Close()

	for i, idx := range indexes {
		blob, err := e.backend.element.Encode(values[i])
		if err != nil {
			return err
		}
		if err := batch.Set(e.elementKey(idx), blob, nil); err != nil {
			return err
		}
	}
	if last >= n {
		if err := batch.Set(e.extentKey(), extentValue(last+1), nil); err != nil {
			return err
		}
	}
	return batch.Commit(e.backend.writeOpts)
}

// remove deletes indexes and moves every later record down to close the gaps
func (e *pebbleExecutor[T]) remove(indexes []int) error {
	n, err := e.extent()
	if err != nil {
		return err
	}
	if last := indexes[len(indexes)-1]; last >= n {
		return outOfRange(last, n)
	}

	lo, hi := e.elementKey(indexes[0]), e.elementKey(n)
	tail, err := e.scan(lo, hi)
	if err != nil {
		return err
	}

	batch := e.backend.db.NewBatch()
	defer batch.Close()

	if err := batch.DeleteRange(lo, hi, nil); err != nil {
		return err
	}

	shift := 0
	for idx := indexes[0]; idx < n; idx++ {
		if shift < len(indexes) && indexes[shift] == idx {
			shift++
			continue
		}
		blob, ok := tail[idx]
		if !ok {
			continue
		}
		if err := batch.Set(e.elementKey(idx-shift), blob, nil); err != nil {
			return err
		}
	}
	if err := batch.Set(e.extentKey(), extentValue(n-len(indexes)), nil); err != nil {
		return err
	}
	return batch.Commit(e.backend.writeOpts)
}

// scan loads the stored records with keys in [lo, hi)
func (e *pebbleExecutor[T]) scan(lo, hi []byte) (map[int][]byte, error) {
	iter, err := e.backend.db.NewIter(&pebble.IterOptions{LowerBound: lo, UpperBound: hi})
	if err != nil {
		return nil, err
	}

	records := make(map[int][]byte)
	for iter.First(); iter.Valid(); iter.Next() {
		key := iter.Key()
		if len(key) != len(e.prefix)+1+indexKeySize {
			continue
		}
		idx := int(binary.BigEndian.Uint64(key[len(e.prefix)+1:]))
		records[idx] = bytes.Clone(iter.Value())
	}
	if err := iter.Error(); err != nil {
		iter.Close()
		return nil, err
	}
	return records, iter.Close()
}
