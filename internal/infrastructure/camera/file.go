package camera

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
)

// FileSource serves a still image from disk as if it were a camera frame.
type FileSource struct {
	path string

	mu     sync.Mutex
	opened bool
}

func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

func (s *FileSource) Open(context.Context) error {
	info, err := os.Stat(s.path)
	if err != nil {
		return fmt.Errorf("open file source: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("open file source: %s is a directory", s.path)
	}
	s.mu.Lock()
	s.opened = true
	s.mu.Unlock()
	return nil
}

func (s *FileSource) Frame(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	opened := s.opened
	s.mu.Unlock()
	if !opened {
		return nil, errors.New("file source is not open")
	}
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read frame: %w", err)
	}
	return raw, nil
}

func (s *FileSource) Close() error {
	s.mu.Lock()
	s.opened = false
	s.mu.Unlock()
	return nil
}
