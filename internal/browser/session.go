// internal/browser/session.go
package browser

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"
)

// Session is one scenario's isolated browser context and its single page.
type Session struct {
	ID        string
	Scenario  string
	CreatedAt time.Time

	context  playwright.BrowserContext
	page     playwright.Page
	harPath  string
	videoDir string
	manager  *Manager

	closeOnce sync.Once
	closeErr  error
	mu        sync.Mutex
	closedAt  time.Time
}

// Page returns the scenario's page.
func (s *Session) Page() playwright.Page { return s.page }

// Context returns the scenario's browser context.
func (s *Session) Context() playwright.BrowserContext { return s.context }

// HARPath is the HAR file being recorded, or "" when recording is off.
func (s *Session) HARPath() string { return s.harPath }

// VideoDir is the video output directory, or "" when recording is off.
func (s *Session) VideoDir() string { return s.videoDir }

// ClosedAt returns when Close finished, or the zero time while open.
func (s *Session) ClosedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closedAt
}

// Close closes the page and then the context. Both are attempted even if
// the first fails; failures are logged and returned joined. The manager is
// free for the next scenario once Close returns. Later calls return the first
// call's result.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		m := s.manager
		m.beginTeardown(s)

		var errs []error
		if err := s.page.Close(); err != nil {
			m.logger.Warn("Failed to close page.", zap.String("session_id", s.ID), zap.Error(err))
			errs = append(errs, fmt.Errorf("failed to close page: %w", err))
		}
		if err := s.context.Close(); err != nil {
			m.logger.Warn("Failed to close browser context.", zap.String("session_id", s.ID), zap.Error(err))
			errs = append(errs, fmt.Errorf("failed to close browser context: %w", err))
		}
		s.closeErr = errors.Join(errs...)

		s.mu.Lock()
		s.closedAt = m.now()
		s.mu.Unlock()

		m.release(s)
		m.logger.Debug("Scenario session closed.", zap.String("session_id", s.ID), zap.Duration("lifetime", s.closedAt.Sub(s.CreatedAt)))
	})
	return s.closeErr
}
