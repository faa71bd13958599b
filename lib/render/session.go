package render

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

type SessionState int

const (
	Unopened SessionState = iota
	Open
	Closed
)

func (s SessionState) String() string {
	switch s {
	case Unopened:
		return "unopened"
	case Open:
		return "open"
	case Closed:
		return "closed"
	}
	return "unknown"
}

var ErrSessionClosed = errors.New("render: session is closed")

// Opener creates the page a session owns.
type Opener func(ctx context.Context) (Page, error)

// Session owns one Page over its lifetime: Unopened -> Open -> Closed.
// The page is created by Acquire and released by Close, which callers defer
// right after creating the session.
type Session struct {
	mu    sync.Mutex
	open  Opener
	page  Page
	state SessionState
}

func NewSession(open Opener) *Session {
	return &Session{open: open}
}

func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Acquire opens the session on first use and returns its page.
func (s *Session) Acquire(ctx context.Context) (Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case Open:
		return s.page, nil
	case Closed:
		return nil, ErrSessionClosed
	}

	page, err := s.open(ctx)
	if err != nil {
		return nil, fmt.Errorf("open session: %w", err)
	}
	s.page = page
	s.state = Open
	return page, nil
}

// Close releases the page, it is safe to call more than once and on a
// session that was never opened.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.state
	s.state = Closed
	if prev != Open {
		return nil
	}
	page := s.page
	s.page = nil
	return page.Close()
}
