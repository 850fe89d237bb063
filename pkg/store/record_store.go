package store

import (
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/ssargent/arraydb/pkg/cache"
	"github.com/ssargent/arraydb/pkg/storage"
)

// RecordStore is a persisted array of T. Reads go through the cache first and
// fall back to one batched storage session; writes and deletes always reach
// storage. A RecordStore is not safe for concurrent use.
type RecordStore[T any] struct {
	path    string
	backend storage.Backend[T]
	cache   cache.Cache[T]
	logger  *zap.Logger
	metrics *Metrics
}

// New creates a store over path in backend. A nil cache means cache.Nop.
func New[T any](backend storage.Backend[T], c cache.Cache[T], path string, opts ...Option) *RecordStore[T] {
	o := buildOptions(opts)
	if c == nil {
		c = cache.Nop[T]()
	}
	return &RecordStore[T]{
		path:    path,
		backend: backend,
		cache:   c,
		logger:  o.logger,
		metrics: o.metrics,
	}
}

// Path returns the path the store keeps its records under
func (s *RecordStore[T]) Path() string { return s.path }

// Backend returns the storage backend
func (s *RecordStore[T]) Backend() storage.Backend[T] { return s.backend }

// Cache returns the read cache
func (s *RecordStore[T]) Cache() cache.Cache[T] { return s.cache }

// TryGetCached returns the cached value at index without touching storage
func (s *RecordStore[T]) TryGetCached(index int) (T, bool) {
	return s.cache.TryGet(index)
}

func (s *RecordStore[T]) observe(operation string, started time.Time, err error) {
	s.metrics.RecordOperation(operation, err == nil, time.Since(started))
	if err != nil {
		s.logger.Debug("record store operation failed",
			zap.String("operation", operation),
			zap.String("path", s.path),
			zap.Error(err))
	}
}

func checkRange(start, count int) error {
	if start < 0 || count < 0 {
		return fmt.Errorf("%w: start %d, count %d", storage.ErrInvalidIndex, start, count)
	}
	// start+count is the extent a write would produce
	if start > math.MaxInt-max(count, 1) {
		return fmt.Errorf("%w: start %d, count %d overflows", storage.ErrInvalidIndex, start, count)
	}
	return nil
}

// GetAt returns the record at index
func (s *RecordStore[T]) GetAt(index int) (value T, err error) {
	defer func(started time.Time) { s.observe("get", started, err) }(time.Now())

	if err = checkRange(index, 1); err != nil {
		return value, err
	}
	if v, ok := s.cache.TryGet(index); ok {
		s.metrics.RecordCacheLookup(true)
		return v, nil
	}
	s.metrics.RecordCacheLookup(false)

	session, err := s.backend.BeginRead(s.path)
	if err != nil {
		return value, err
	}
	if err = session.Read(index); err != nil {
		return value, errors.Join(err, session.Discard())
	}
	values, err := session.End()
	if err != nil {
		return value, err
	}
	s.metrics.RecordSession(storage.PhaseRead.String(), 1)

	s.cache.SetAt(index, values[0])
	return values[0], nil
}

// GetRange returns count records starting at start. Cached records are
// served from the cache; the rest are read in one storage session.
func (s *RecordStore[T]) GetRange(start, count int) (values []T, err error) {
	defer func(started time.Time) { s.observe("get_range", started, err) }(time.Now())

	if err = checkRange(start, count); err != nil {
		return nil, err
	}

	result := make([]T, count)
	var (
		session *storage.ReadSession[T]
		missing []int
	)
	for i := range result {
		if v, ok := s.cache.TryGet(start + i); ok {
			s.metrics.RecordCacheLookup(true)
			result[i] = v
			continue
		}
		s.metrics.RecordCacheLookup(false)

		if session == nil {
			if session, err = s.backend.BeginRead(s.path); err != nil {
				return nil, err
			}
		}
		if err = session.Read(start + i); err != nil {
			return nil, errors.Join(err, session.Discard())
		}
		missing = append(missing, i)
	}

	if session == nil {
		return result, nil
	}

	loaded, err := session.End()
	if err != nil {
		return nil, err
	}
	s.metrics.RecordSession(storage.PhaseRead.String(), len(loaded))

	for j, i := range missing {
		result[i] = loaded[j]
		s.cache.SetAt(start+i, loaded[j])
	}
	return result, nil
}

// SetAt stores value at index, growing the store if needed
func (s *RecordStore[T]) SetAt(index int, value T) (err error) {
	defer func(started time.Time) { s.observe("set", started, err) }(time.Now())

	if err = checkRange(index, 1); err != nil {
		return err
	}

	session, err := s.backend.BeginWrite(s.path)
	if err != nil {
		return err
	}
	if err = session.Write(index, value); err != nil {
		return errors.Join(err, session.Discard())
	}
	if err = session.End(); err != nil {
		return err
	}
	s.metrics.RecordSession(storage.PhaseWrite.String(), 1)

	s.cache.SetAt(index, value)
	return nil
}

// SetRange stores values at start, start+1, ... in one storage session
func (s *RecordStore[T]) SetRange(values []T, start int) (err error) {
	defer func(started time.Time) { s.observe("set_range", started, err) }(time.Now())

	if err = checkRange(start, len(values)); err != nil {
		return err
	}
	if len(values) == 0 {
		return nil
	}

	session, err := s.backend.BeginWrite(s.path)
	if err != nil {
		return err
	}
	for i, v := range values {
		if err = session.Write(start+i, v); err != nil {
			return errors.Join(err, session.Discard())
		}
	}
	if err = session.End(); err != nil {
		return err
	}
	s.metrics.RecordSession(storage.PhaseWrite.String(), len(values))

	s.cache.SetRange(values, start)
	return nil
}

// DeleteAt removes the record at index. Every later record moves down one.
func (s *RecordStore[T]) DeleteAt(index int) error {
	return s.deleteRange("delete", index, 1)
}

// DeleteRange removes count records starting at start. Every later record
// moves down by count.
func (s *RecordStore[T]) DeleteRange(start, count int) error {
	return s.deleteRange("delete_range", start, count)
}

func (s *RecordStore[T]) deleteRange(operation string, start, count int) (err error) {
	defer func(started time.Time) { s.observe(operation, started, err) }(time.Now())

	if err = checkRange(start, count); err != nil {
		return err
	}
	if count == 0 {
		return nil
	}

	s.cache.RemoveRange(start, count)

	session, err := s.backend.BeginDelete(s.path)
	if err != nil {
		return err
	}
	for i := start; i < start+count; i++ {
		if err = session.Delete(i); err != nil {
			return errors.Join(err, session.Discard())
		}
	}
	if err = session.End(); err != nil {
		return err
	}
	s.metrics.RecordSession(storage.PhaseDelete.String(), count)

	// cached records above the gap now sit at the wrong index
	s.cache.RemoveFrom(start + count)
	return nil
}
