package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// FileCodec lays records out in a single file. indexes are sorted ascending
// and unique, values are in the same order, and the file is positioned at
// offset zero on every call.
type FileCodec[T any] interface {
	ReadValues(f afero.File, indexes []int) ([]T, error)
	WriteValues(f afero.File, indexes []int, values []T) error
	DeleteValues(f afero.File, indexes []int) error
}

// FileModes holds the os.OpenFile flags used for each phase
type FileModes struct {
	Read   int
	Write  int
	Delete int
}

// DefaultFileModes opens or creates the file, read-only for reads
var DefaultFileModes = FileModes{
	Read:   os.O_RDONLY | os.O_CREATE,
	Write:  os.O_RDWR | os.O_CREATE,
	Delete: os.O_RDWR | os.O_CREATE,
}

// FileBackendConfig holds configuration for a file backend
type FileBackendConfig struct {
	Fs     afero.Fs    // Filesystem; nil means the OS filesystem
	Root   string      // Directory the session paths are relative to
	Modes  *FileModes  // Open flags per phase; nil means DefaultFileModes
	Logger *zap.Logger // nil means no logging
}

// FileBackend runs sessions against files under a root directory, opening
// the file afresh for every session and delegating the layout to a FileCodec.
type FileBackend[T any] struct {
	fs     afero.Fs
	root   string
	modes  FileModes
	codec  FileCodec[T]
	logger *zap.Logger
	guard  guard
}

// NewFileBackend creates a file backend using codec for the file layout
func NewFileBackend[T any](config FileBackendConfig, codec FileCodec[T]) *FileBackend[T] {
	b := &FileBackend[T]{
		fs:     config.Fs,
		root:   config.Root,
		modes:  DefaultFileModes,
		codec:  codec,
		logger: config.Logger,
	}
	if b.fs == nil {
		b.fs = afero.NewOsFs()
	}
	if config.Modes != nil {
		b.modes = *config.Modes
	}
	if b.logger == nil {
		b.logger = zap.NewNop()
	}
	return b
}

// Fs returns the filesystem the backend works on
func (b *FileBackend[T]) Fs() afero.Fs {
	return b.fs
}

// FullPath returns the location of path on the backend filesystem
func (b *FileBackend[T]) FullPath(path string) string {
	return filepath.Join(b.root, path)
}

func (b *FileBackend[T]) BeginRead(path string) (*ReadSession[T], error) {
	s, err := b.begin(PhaseRead, path, b.modes.Read)
	if err != nil {
		return nil, err
	}
	return &ReadSession[T]{s: s}, nil
}

func (b *FileBackend[T]) BeginWrite(path string) (*WriteSession[T], error) {
	s, err := b.begin(PhaseWrite, path, b.modes.Write)
	if err != nil {
		return nil, err
	}
	return &WriteSession[T]{s: s}, nil
}

func (b *FileBackend[T]) BeginDelete(path string) (*DeleteSession[T], error) {
	s, err := b.begin(PhaseDelete, path, b.modes.Delete)
	if err != nil {
		return nil, err
	}
	return &DeleteSession[T]{s: s}, nil
}

func (b *FileBackend[T]) begin(phase Phase, path string, flag int) (*session[T], error) {
	if err := b.guard.acquire(phase, path); err != nil {
		return nil, err
	}

	if b.root != "" {
		if err := b.fs.MkdirAll(b.root, 0750); err != nil {
			b.guard.release()
			return nil, err
		}
	}

	file, err := b.fs.OpenFile(b.FullPath(path), flag, 0600)
	if err != nil {
		b.guard.release()
		return nil, err
	}

	exec := &fileExecutor[T]{file: file, flag: flag, codec: b.codec}
	return newSession[T](phase, path, exec, &b.guard, b.logger), nil
}

// fileExecutor owns the handle of one file session
type fileExecutor[T any] struct {
	file  afero.File
	flag  int
	codec FileCodec[T]
}

func (e *fileExecutor[T]) check(phase Phase) error {
	var readable, writable bool
	switch e.flag & (os.O_RDONLY | os.O_WRONLY | os.O_RDWR) {
	case os.O_RDONLY:
		readable = true
	case os.O_WRONLY:
		writable = true
	case os.O_RDWR:
		readable, writable = true, true
	}

	if !readable || (phase != PhaseRead && !writable) {
		return fmt.Errorf("%w: %s session on %s opened with flags %#x", ErrHandleAccess, phase, e.file.Name(), e.flag)
	}
	return nil
}

func (e *fileExecutor[T]) rewind() error {
	_, err := e.file.Seek(0, io.SeekStart)
	return err
}

func (e *fileExecutor[T]) read(indexes []int) ([]T, error) {
	if err := e.rewind(); err != nil {
		return nil, err
	}
	return e.codec.ReadValues(e.file, indexes)
}

func (e *fileExecutor[T]) write(indexes []int, values []T) error {
	if err := e.rewind(); err != nil {
		return err
	}
	return e.codec.WriteValues(e.file, indexes, values)
}

func (e *fileExecutor[T]) remove(indexes []int) error {
	if err := e.rewind(); err != nil {
		return err
	}
	return e.codec.DeleteValues(e.file, indexes)
}

func (e *fileExecutor[T]) release() error {
	return e.file.Close()
}

func fileSize(f afero.File) (int64, error) {
	info, err := f.Stat()
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}
