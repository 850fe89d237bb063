package storage

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"sync/atomic"
	"time"

	"github.com/segmentio/ksuid"
	"go.uber.org/zap"
)

// Phase is the kind of work a session batches
type Phase int

const (
	PhaseRead Phase = iota
	PhaseWrite
	PhaseDelete
)

func (p Phase) String() string {
	switch p {
	case PhaseRead:
		return "read"
	case PhaseWrite:
		return "write"
	case PhaseDelete:
		return "delete"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// Backend is a storage back-end speaking the batched session protocol.
// Only one session may be open on a backend at a time.
type Backend[T any] interface {
	BeginRead(path string) (*ReadSession[T], error)
	BeginWrite(path string) (*WriteSession[T], error)
	BeginDelete(path string) (*DeleteSession[T], error)
}

// executor performs the I/O of one session against its open handle.
// indexes are sorted ascending and unique; values follow the same order.
type executor[T any] interface {
	check(phase Phase) error
	read(indexes []int) ([]T, error)
	write(indexes []int, values []T) error
	remove(indexes []int) error
	release() error
}

// guard lets a backend hand out one session at a time
type guard struct {
	busy atomic.Bool
}

func (g *guard) acquire(phase Phase, path string) error {
	if !g.busy.CompareAndSwap(false, true) {
		return fmt.Errorf("%w (begin %s %q)", ErrConcurrentSession, phase, path)
	}
	return nil
}

func (g *guard) release() {
	g.busy.Store(false)
}

// session holds the pending index bookkeeping shared by all phases
type session[T any] struct {
	id      ksuid.KSUID
	phase   Phase
	path    string
	exec    executor[T]
	guard   *guard
	logger  *zap.Logger
	started time.Time

	indexes []int
	values  []T
	invalid []int
	ended   bool
}

func newSession[T any](phase Phase, path string, exec executor[T], g *guard, logger *zap.Logger) *session[T] {
	s := &session[T]{
		id:      ksuid.New(),
		phase:   phase,
		path:    path,
		exec:    exec,
		guard:   g,
		logger:  logger,
		started: time.Now(),
	}
	s.logger.Debug("session started",
		zap.Stringer("session", s.id),
		zap.Stringer("phase", phase),
		zap.String("path", path))
	return s
}

// mark inserts index into the sorted pending list. A repeated index is a
// no-op and keeps the value of the first mark.
func (s *session[T]) mark(index int, value T) error {
	if s.ended {
		return ErrSessionEnded
	}
	// the record count after writing index must still fit in an int
	if index < 0 || index == math.MaxInt {
		s.invalid = append(s.invalid, index)
		return fmt.Errorf("%w: %d", ErrInvalidIndex, index)
	}

	pos, found := slices.BinarySearch(s.indexes, index)
	if found {
		return nil
	}
	s.indexes = slices.Insert(s.indexes, pos, index)
	if s.phase == PhaseWrite {
		s.values = slices.Insert(s.values, pos, value)
	}
	return nil
}

// finish runs the phase I/O if anything is pending, then releases the handle
// and the backend no matter what happened.
func (s *session[T]) finish(run func() error) error {
	if s.ended {
		return ErrSessionEnded
	}
	s.ended = true
	defer s.guard.release()

	err := s.exec.check(s.phase)
	if err == nil && len(s.invalid) > 0 {
		err = fmt.Errorf("%w: %v", ErrInvalidIndex, s.invalid)
	}
	if err == nil && len(s.indexes) > 0 {
		err = run()
	}
	if closeErr := s.exec.release(); closeErr != nil {
		err = errors.Join(err, closeErr)
	}

	s.logger.Debug("session ended",
		zap.Stringer("session", s.id),
		zap.Stringer("phase", s.phase),
		zap.String("path", s.path),
		zap.Int("indexes", len(s.indexes)),
		zap.Duration("elapsed", time.Since(s.started)),
		zap.Error(err))

	return err
}

func (s *session[T]) discard() error {
	if s.ended {
		return nil
	}
	s.ended = true
	defer s.guard.release()
	return s.exec.release()
}

// ReadSession batches reads of one path
type ReadSession[T any] struct {
	s *session[T]
}

// ID identifies the session in logs
func (r *ReadSession[T]) ID() ksuid.KSUID { return r.s.id }

// Read queues index to be read at End
func (r *ReadSession[T]) Read(index int) error {
	var zero T
	return r.s.mark(index, zero)
}

// Indexes returns the pending indexes in the order End returns their values
func (r *ReadSession[T]) Indexes() []int {
	return slices.Clone(r.s.indexes)
}

// End reads every pending index and returns the values in ascending index order
func (r *ReadSession[T]) End() ([]T, error) {
	result := make([]T, 0)
	err := r.s.finish(func() error {
		values, err := r.s.exec.read(r.s.indexes)
		if err != nil {
			return err
		}
		result = values
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Discard releases the session without reading
func (r *ReadSession[T]) Discard() error { return r.s.discard() }

// WriteSession batches writes to one path
type WriteSession[T any] struct {
	s *session[T]
}

// ID identifies the session in logs
func (w *WriteSession[T]) ID() ksuid.KSUID { return w.s.id }

// Write queues value for index. A second Write of the same index is ignored.
func (w *WriteSession[T]) Write(index int, value T) error {
	return w.s.mark(index, value)
}

// End writes every pending value
func (w *WriteSession[T]) End() error {
	return w.s.finish(func() error {
		return w.s.exec.write(w.s.indexes, w.s.values)
	})
}

// Discard releases the session without writing
func (w *WriteSession[T]) Discard() error { return w.s.discard() }

// DeleteSession batches deletes from one path
type DeleteSession[T any] struct {
	s *session[T]
}

// ID identifies the session in logs
func (d *DeleteSession[T]) ID() ksuid.KSUID { return d.s.id }

// Delete queues index for removal at End
func (d *DeleteSession[T]) Delete(index int) error {
	var zero T
	return d.s.mark(index, zero)
}

// End removes every pending index. Later records shift down to fill the gaps.
func (d *DeleteSession[T]) End() error {
	return d.s.finish(func() error {
		return d.s.exec.remove(d.s.indexes)
	})
}

// Discard releases the session without deleting
func (d *DeleteSession[T]) Discard() error { return d.s.discard() }
