package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ssargent/arraydb/pkg/storage"
)

const (
	maxBodyBytes = 4 << 20

	// maxRangeCount bounds the count of a single range read or delete
	maxRangeCount = 10000
)

// statusFor maps store errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, storage.ErrIndexOutOfRange):
		return http.StatusNotFound
	case errors.Is(err, storage.ErrInvalidIndex):
		return http.StatusBadRequest
	case errors.Is(err, storage.ErrExtentExceeded):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, storage.ErrConcurrency):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func (s *Server[T]) fail(w http.ResponseWriter, operation string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("record operation failed", zap.String("operation", operation), zap.Error(err))
	}
	sendError(w, fmt.Sprintf("Failed to %s: %v", operation, err), status)
}

func intParam(raw string, fallback int) (int, error) {
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}

// countParam parses the count query parameter and writes a 400 when it is
// not usable
func countParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	count, err := intParam(r.URL.Query().Get("count"), 1)
	if err != nil {
		sendError(w, "count must be an integer", http.StatusBadRequest)
		return 0, false
	}
	if count > maxRangeCount {
		sendError(w, fmt.Sprintf("count must not exceed %d", maxRangeCount), http.StatusBadRequest)
		return 0, false
	}
	return count, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func (s *Server[T]) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.metrics.RecordHealthCheck(true)
	sendSuccess(w, map[string]string{"status": "healthy", "records": s.store.Path()})
}

func (s *Server[T]) handleGet(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		sendError(w, "Index must be an integer", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	value, err := s.store.GetAt(index)
	s.mu.Unlock()
	if err != nil {
		s.fail(w, "get record", err)
		return
	}

	sendSuccess(w, Record[T]{Index: index, Value: value})
}

func (s *Server[T]) handleGetRange(w http.ResponseWriter, r *http.Request) {
	start, err := intParam(r.URL.Query().Get("start"), 0)
	if err != nil {
		sendError(w, "start must be an integer", http.StatusBadRequest)
		return
	}
	count, ok := countParam(w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	values, err := s.store.GetRange(start, count)
	s.mu.Unlock()
	if err != nil {
		s.fail(w, "get records", err)
		return
	}

	sendSuccess(w, RangeResponse[T]{Start: start, Values: values})
}

func (s *Server[T]) handleSet(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		sendError(w, "Index must be an integer", http.StatusBadRequest)
		return
	}

	var req ValueRequest[T]
	if err := decodeBody(w, r, &req); err != nil {
		sendError(w, "Invalid JSON in request body", http.StatusBadRequest)
		return
	}

	started := time.Now()
	s.mu.Lock()
	err = s.store.SetAt(index, req.Value)
	s.mu.Unlock()
	if err != nil {
		s.fail(w, "set record", err)
		return
	}

	s.logger.Debug("record stored", zap.Int("index", index), zap.Duration("elapsed", time.Since(started)))
	sendSuccess(w, Record[T]{Index: index, Value: req.Value})
}

func (s *Server[T]) handleSetRange(w http.ResponseWriter, r *http.Request) {
	var req RangeRequest[T]
	if err := decodeBody(w, r, &req); err != nil {
		sendError(w, "Invalid JSON in request body", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	err := s.store.SetRange(req.Values, req.Start)
	s.mu.Unlock()
	if err != nil {
		s.fail(w, "set records", err)
		return
	}

	sendSuccess(w, map[string]int{"start": req.Start, "count": len(req.Values)})
}

func (s *Server[T]) handleDelete(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		sendError(w, "Index must be an integer", http.StatusBadRequest)
		return
	}
	count, ok := countParam(w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	err = s.store.DeleteRange(index, count)
	s.mu.Unlock()
	if err != nil {
		s.fail(w, "delete records", err)
		return
	}

	sendSuccess(w, map[string]int{"start": index, "count": count})
}
