package store

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/i474232898/commodity-weather-forecast/internal/series"
)

var (
	// ErrNotFound is returned when no series has been written under a name.
	ErrNotFound = errors.New("series not found")
)

// MemoryStore is a concurrency-safe in-memory tabular store.
type MemoryStore struct {
	mu sync.RWMutex

	// key: series name
	data map[string]series.Frame
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string]series.Frame),
	}
}

// Write replaces whatever was stored under name.
func (s *MemoryStore) Write(ctx context.Context, name string, frame series.Frame) error {
	if err := checkWrite(name, frame); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[name] = frame.Clone()
	return nil
}

// Read returns a copy of the series stored under name.
func (s *MemoryStore) Read(ctx context.Context, name string) (series.Frame, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	frame, ok := s.data[name]
	if !ok {
		return series.Frame{}, ErrNotFound
	}
	return frame.Clone(), nil
}

// Names lists stored series in lexical order.
func (s *MemoryStore) Names(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.data))
	for name := range s.data {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error {
	return nil
}
