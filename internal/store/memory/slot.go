package memory

import (
	"context"
	"sync"
)

// Slot keeps the serialized collection in process memory.
// It is lost on restart; use it for tests and throwaway instances.
type Slot struct {
	mu    sync.Mutex
	value []byte
}

// NewSlot creates an empty slot.
func NewSlot() *Slot {
	return &Slot{}
}

// Get returns a copy of the stored value, nil when empty.
func (s *Slot) Get(_ context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return clone(s.value), nil
}

// Update runs fn and stores its result while holding the slot lock.
func (s *Slot) Update(_ context.Context, fn func(current []byte) ([]byte, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := fn(clone(s.value))
	if err != nil {
		return err
	}
	s.value = clone(next)
	return nil
}

// Set overwrites the stored value without reading it.
func (s *Slot) Set(value []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.value = clone(value)
}

func (s *Slot) Ping(context.Context) error { return nil }
func (s *Slot) Close() error               { return nil }

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
