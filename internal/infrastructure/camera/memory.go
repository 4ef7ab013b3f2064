package camera

import (
	"context"
	"errors"
	"sync"
)

// MemorySource hands out frames pushed into it, newest first.
type MemorySource struct {
	mu     sync.Mutex
	frame  []byte
	closed bool
}

func NewMemorySource(frame []byte) *MemorySource {
	s := &MemorySource{}
	s.Push(frame)
	return s
}

func (s *MemorySource) Push(frame []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frame = append([]byte(nil), frame...)
}

func (s *MemorySource) Open(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = false
	return nil
}

func (s *MemorySource) Frame(context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, errors.New("memory source is closed")
	}
	if len(s.frame) == 0 {
		return nil, errors.New("no frame available")
	}
	return append([]byte(nil), s.frame...), nil
}

func (s *MemorySource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
