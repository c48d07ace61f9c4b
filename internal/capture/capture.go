// File: internal/capture/capture.go
package capture

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/lancet/internal/artifacts"
	"github.com/xkilldash9x/lancet/internal/results"
)

// Capturer writes a full-page screenshot when a scenario fails. Errors are
// logged and returned for information only; they never change the outcome.
type Capturer struct {
	dir    string
	logger *zap.Logger
	now    func() time.Time
}

// Option configures a Capturer.
type Option func(*Capturer)

// WithClock replaces time.Now for file timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Capturer) { c.now = now }
}

// New creates a Capturer writing into dir.
func New(dir string, logger *zap.Logger, opts ...Option) *Capturer {
	c := &Capturer{dir: dir, logger: logger.Named("capture"), now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Dir is the screenshot directory.
func (c *Capturer) Dir() string { return c.dir }

// Path returns <dir>/<scenario>-<timestamp>.png.
func (c *Capturer) Path(scenario string, at time.Time) string {
	return filepath.Join(c.dir, fmt.Sprintf("%s-%s.png", artifacts.Name(scenario), artifacts.Timestamp(at)))
}

// Capture takes a screenshot when status is Failed and page is non-nil. It
// returns the written path, or "" when nothing was captured.
func (c *Capturer) Capture(ctx context.Context, scenario string, status results.Status, page playwright.Page) (string, error) {
	if status != results.Failed || page == nil {
		return "", nil
	}
	if err := ctx.Err(); err != nil {
		c.logger.Warn("Skipping failure screenshot; context is done.", zap.String("scenario", scenario), zap.Error(err))
		return "", err
	}

	if err := artifacts.EnsureDir(c.dir); err != nil {
		c.logger.Warn("Failed to create screenshot directory.", zap.String("dir", c.dir), zap.Error(err))
		return "", err
	}

	path := c.Path(scenario, c.now())
	if _, err := page.Screenshot(playwright.PageScreenshotOptions{
		Path:     playwright.String(path),
		FullPage: playwright.Bool(true),
	}); err != nil {
		c.logger.Warn("Failed to capture failure screenshot.", zap.String("scenario", scenario), zap.Error(err))
		return "", fmt.Errorf("screenshot for %q: %w", scenario, err)
	}

	c.logger.Info("Failure screenshot saved.", zap.String("scenario", scenario), zap.String("path", path))
	return path, nil
}
