package storage

import (
	"errors"
	"fmt"
)

// Errors
var (
	// ErrFormat means the stored bytes do not follow the expected layout
	ErrFormat = errors.New("file format is not correct")

	// ErrConcurrency is the parent of every session misuse error
	ErrConcurrency = errors.New("session misuse")

	ErrConcurrentSession = fmt.Errorf("%w: another session is already open", ErrConcurrency)
	ErrSessionEnded      = fmt.Errorf("%w: session already ended", ErrConcurrency)
	ErrHandleAccess      = fmt.Errorf("%w: file not opened properly", ErrConcurrency)

	ErrIndexOutOfRange = errors.New("index out of range")
	ErrInvalidIndex    = errors.New("invalid index")
	ErrExtentExceeded  = errors.New("write exceeds the maximum extent")
)

func formatError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrFormat, fmt.Sprintf(format, args...))
}

func outOfRange(index, length int) error {
	return fmt.Errorf("%w: index %d, length %d", ErrIndexOutOfRange, index, length)
}
