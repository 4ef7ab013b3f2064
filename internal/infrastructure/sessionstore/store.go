package sessionstore

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

type entry[T any] struct {
	value   T
	touched time.Time
}

// Store is an in-memory registry whose entries expire after an idle TTL.
// Expired values are handed to onExpire outside the lock.
type Store[T any] struct {
	ttl      time.Duration
	onExpire func(id string, value T)
	now      func() time.Time

	mu    sync.Mutex
	items map[string]*entry[T]
}

func New[T any](ttl time.Duration, onExpire func(id string, value T)) *Store[T] {
	return &Store[T]{
		ttl:      ttl,
		onExpire: onExpire,
		now:      time.Now,
		items:    make(map[string]*entry[T]),
	}
}

func (s *Store[T]) Put(id string, value T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[id] = &entry[T]{value: value, touched: s.now()}
}

// Get returns the value and refreshes its idle timer.
func (s *Store[T]) Get(id string) (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.items[id]
	if !ok {
		var zero T
		return zero, false
	}
	e.touched = s.now()
	return e.value, true
}

func (s *Store[T]) Delete(id string) (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.items[id]
	if !ok {
		var zero T
		return zero, false
	}
	delete(s.items, id)
	return e.value, true
}

func (s *Store[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Sweep removes idle entries and returns how many expired.
func (s *Store[T]) Sweep() int {
	if s.ttl <= 0 {
		return 0
	}
	cutoff := s.now().Add(-s.ttl)

	s.mu.Lock()
	expired := make(map[string]T)
	for id, e := range s.items {
		if e.touched.Before(cutoff) {
			expired[id] = e.value
			delete(s.items, id)
		}
	}
	s.mu.Unlock()

	for id, value := range expired {
		if s.onExpire != nil {
			s.onExpire(id, value)
		}
	}
	return len(expired)
}

// Run sweeps on every tick until ctx is done.
func (s *Store[T]) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 || s.ttl <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				slog.Info("sessions_expired", "count", n, "remaining", s.Len())
			}
		}
	}
}
