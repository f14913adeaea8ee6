package browser

import (
	"context"
	"sync"

	"github.com/example/tablebook/internal/workflow"
)

// NullSession stands in for a browser when nothing should touch the
// network. Navigation only records the location.
type NullSession struct {
	mu     sync.Mutex
	loc    string
	closed int
}

func (s *NullSession) Navigate(ctx context.Context, target string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loc = target
	return nil
}

func (s *NullSession) CurrentLocation() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loc
}

func (s *NullSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed++
	return nil
}

// Closed reports how many times Close was called.
func (s *NullSession) Closed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// NullOpener hands out NullSessions.
type NullOpener struct{}

func (NullOpener) Open(ctx context.Context) (workflow.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &NullSession{}, nil
}
