package browser

import (
	"errors"
	"fmt"
	"sync"
)

// Session owns the driver, browser, context and page of one run. Closing
// the Session releases everything beneath it.
type Session struct {
	browser Browser
	page    Page
	stop    func() error

	closeOnce sync.Once
	closeErr  error
	mu        sync.RWMutex
	closed    bool
}

// NewSession assembles a Session. stop shuts the driver down after the
// browser closed and may be nil.
func NewSession(b Browser, page Page, stop func() error) *Session {
	return &Session{browser: b, page: page, stop: stop}
}

// Page returns the page created at bootstrap.
func (s *Session) Page() Page {
	return s.page
}

// FirstPage looks up the first page of the first browsing context. It does
// not use the page reference held since bootstrap.
func (s *Session) FirstPage() (Page, error) {
	if s == nil || s.browser == nil {
		return nil, ErrNoPage
	}
	s.mu.RLock()
	closed := s.closed
	s.mu.RUnlock()
	if closed {
		return nil, ErrSessionClosed
	}

	contexts := s.browser.Contexts()
	if len(contexts) == 0 {
		return nil, ErrNoPage
	}
	pages := contexts[0].Pages()
	if len(pages) == 0 {
		return nil, ErrNoPage
	}
	return pages[0], nil
}

// Close closes the browser and stops the driver. Only the first call does
// any work; later calls return the first result.
func (s *Session) Close() error {
	if s == nil {
		return nil
	}
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()

		var errs []error
		if s.browser != nil {
			if err := s.browser.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close browser: %w", err))
			}
		}
		if s.stop != nil {
			if err := s.stop(); err != nil {
				errs = append(errs, fmt.Errorf("stop driver: %w", err))
			}
		}
		s.closeErr = errors.Join(errs...)
	})
	return s.closeErr
}

// Closed reports whether Close has been called.
func (s *Session) Closed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}
