package api

// Store is the record store the API serves
type Store[T any] interface {
	GetAt(index int) (T, error)
	GetRange(start, count int) ([]T, error)
	SetAt(index int, value T) error
	SetRange(values []T, start int) error
	DeleteRange(start, count int) error
	Path() string
}
