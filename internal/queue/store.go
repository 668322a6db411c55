package queue

import (
	"context"
	"encoding/json"
	"io"
	"sync"

	"github.com/pkg/errors"
)

// Store persists the final queue order of a session under its canonical
// selection key. It is read once when a queue is built and written once when
// the session ends.
type Store interface {
	// LoadQueue returns the saved item ids for key; ok is false if none exist
	LoadQueue(ctx context.Context, key string) (ids []string, ok bool, err error)
	// SaveQueue replaces the saved order for key
	SaveQueue(ctx context.Context, key string, ids []string) error
}

// SavedQueueMap maps a canonical selection key to an ordered list of item ids
type SavedQueueMap map[string][]string

// Lookup returns a copy of the saved order for key
func (m SavedQueueMap) Lookup(key string) ([]string, bool) {
	ids, ok := m[key]
	if !ok {
		return nil, false
	}
	return append([]string(nil), ids...), true
}

// ReadSavedQueueMap decodes a JSON object of key -> [ids]
func ReadSavedQueueMap(r io.Reader) (SavedQueueMap, error) {
	m := SavedQueueMap{}
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return nil, errors.Wrap(err, "failed to decode saved queues")
	}
	return m, nil
}

// WriteTo encodes the map as JSON
func (m SavedQueueMap) WriteTo(w io.Writer) (int64, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return 0, errors.Wrap(err, "failed to encode saved queues")
	}
	n, err := w.Write(data)
	return int64(n), err
}

// MemoryStore is an in-process Store backed by a SavedQueueMap
type MemoryStore struct {
	mu     sync.Mutex
	queues SavedQueueMap
}

// NewMemoryStore creates a store seeded with saved (which may be nil)
func NewMemoryStore(saved SavedQueueMap) *MemoryStore {
	queues := SavedQueueMap{}
	for k, v := range saved {
		queues[k] = append([]string(nil), v...)
	}
	return &MemoryStore{queues: queues}
}

func (s *MemoryStore) LoadQueue(_ context.Context, key string) ([]string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids, ok := s.queues.Lookup(key)
	return ids, ok, nil
}

func (s *MemoryStore) SaveQueue(_ context.Context, key string, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queues[key] = append([]string(nil), ids...)
	return nil
}

// Snapshot returns a copy of every saved queue
func (s *MemoryStore) Snapshot() SavedQueueMap {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(SavedQueueMap, len(s.queues))
	for k, v := range s.queues {
		out[k] = append([]string(nil), v...)
	}
	return out
}
