// File: internal/apiclient/mock.go
package apiclient

import (
	"fmt"
	"sync"

	json "github.com/json-iterator/go"
	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"
)

// Router registers and removes request interceptors for a URL glob.
type Router interface {
	Route(pattern string, handler func(playwright.Route)) error
	Unroute(pattern string) error
}

type pageRouter struct{ page playwright.Page }

// PageRouter intercepts the page's network traffic.
func PageRouter(page playwright.Page) Router { return pageRouter{page: page} }

func (r pageRouter) Route(pattern string, handler func(playwright.Route)) error {
	return r.page.Route(pattern, handler)
}

func (r pageRouter) Unroute(pattern string) error {
	return r.page.Unroute(pattern)
}

// Mocker answers matching page requests with canned responses.
type Mocker struct {
	router Router
	logger *zap.Logger

	mu       sync.Mutex
	patterns map[string]struct{}
}

// NewMocker wraps router.
func NewMocker(router Router, logger *zap.Logger) *Mocker {
	return &Mocker{router: router, logger: logger.Named("api_mock"), patterns: make(map[string]struct{})}
}

// MockJSON fulfils requests matching pattern with data encoded as JSON.
func (m *Mocker) MockJSON(pattern string, data interface{}, status int) error {
	body, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode mock for %s: %w", pattern, err)
	}
	if status == 0 {
		status = 200
	}
	return m.install(pattern, func(route playwright.Route) {
		err := route.Fulfill(playwright.RouteFulfillOptions{
			Status:      playwright.Int(status),
			ContentType: playwright.String("application/json"),
			Body:        body,
		})
		if err != nil {
			m.logger.Warn("Failed to fulfil mocked request.", zap.String("pattern", pattern), zap.Error(err))
		}
	})
}

// MockError aborts requests matching pattern with a network error code
// such as "failed" or "timedout".
func (m *Mocker) MockError(pattern, code string) error {
	if code == "" {
		code = "failed"
	}
	return m.install(pattern, func(route playwright.Route) {
		if err := route.Abort(code); err != nil {
			m.logger.Warn("Failed to abort mocked request.", zap.String("pattern", pattern), zap.Error(err))
		}
	})
}

func (m *Mocker) install(pattern string, handler func(playwright.Route)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.patterns[pattern]; ok {
		if err := m.router.Unroute(pattern); err != nil {
			return fmt.Errorf("replace mock for %s: %w", pattern, err)
		}
	}
	if err := m.router.Route(pattern, handler); err != nil {
		return fmt.Errorf("mock %s: %w", pattern, err)
	}
	m.patterns[pattern] = struct{}{}
	m.logger.Debug("Mock installed.", zap.String("pattern", pattern))
	return nil
}

// Unmock removes the mock for pattern. Unknown patterns are ignored.
func (m *Mocker) Unmock(pattern string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.patterns[pattern]; !ok {
		return nil
	}
	delete(m.patterns, pattern)
	if err := m.router.Unroute(pattern); err != nil {
		return fmt.Errorf("unmock %s: %w", pattern, err)
	}
	return nil
}

// Patterns returns the number of active mocks.
func (m *Mocker) Patterns() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.patterns)
}
