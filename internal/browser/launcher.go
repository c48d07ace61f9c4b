// File: internal/browser/launcher.go
package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

const (
	playwrightInstallTimeout = 5 * time.Minute
	browserLaunchTimeoutMs   = 60000
	// automationFlag hides navigator.webdriver from the page under test.
	automationFlag = "--disable-blink-features=AutomationControlled"
)

// Kind is a browser engine understood by the driver.
type Kind string

const (
	KindChromium Kind = "chromium"
	KindFirefox  Kind = "firefox"
	KindWebKit   Kind = "webkit"
)

// ResolveKind maps a BROWSER value to an engine. "safari" is an alias for
// webkit. The second result is false when name was not recognized and the
// chromium fallback was applied.
func ResolveKind(name string) (Kind, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "chromium", "chrome":
		return KindChromium, true
	case "firefox":
		return KindFirefox, true
	case "webkit", "safari":
		return KindWebKit, true
	default:
		return KindChromium, false
	}
}

// LaunchOptions describes the browser process a manager needs.
type LaunchOptions struct {
	Browser  string
	Headless bool
	SlowMo   time.Duration
	Args     []string
	// Install runs the driver's browser installer before the first launch.
	Install bool
}

// Launcher starts a browser process. Implementations must be safe for use
// by several managers at once.
type Launcher interface {
	Launch(ctx context.Context, opts LaunchOptions) (*ProcessSession, error)
}

// ProcessSession is the handle to one running browser process. It is owned
// by a single Manager and closed exactly once.
type ProcessSession struct {
	browser playwright.Browser
	stop    func() error

	closeOnce sync.Once
	closeErr  error
}

// NewProcessSession wraps a launched browser. stop, if non-nil, runs after
// the browser closes and typically stops the driver.
func NewProcessSession(b playwright.Browser, stop func() error) *ProcessSession {
	return &ProcessSession{browser: b, stop: stop}
}

// Browser returns the underlying driver handle.
func (p *ProcessSession) Browser() playwright.Browser { return p.browser }

// Close closes the browser and then stops the driver. Later calls return the
// first call's result.
func (p *ProcessSession) Close() error {
	p.closeOnce.Do(func() {
		var errs []error
		if err := p.browser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close browser: %w", err))
		}
		if p.stop != nil {
			if err := p.stop(); err != nil {
				errs = append(errs, fmt.Errorf("failed to stop playwright driver: %w", err))
			}
		}
		p.closeErr = errors.Join(errs...)
	})
	return p.closeErr
}

// PlaywrightLauncher launches real browsers through playwright-go. Each
// Launch starts its own driver, so workers share no process state.
type PlaywrightLauncher struct {
	logger *zap.Logger

	installOnce sync.Once
	installErr  error
}

// NewPlaywrightLauncher creates a launcher.
func NewPlaywrightLauncher(logger *zap.Logger) *PlaywrightLauncher {
	return &PlaywrightLauncher{logger: logger.Named("launcher")}
}

// Launch starts the driver and a browser of the requested kind.
func (l *PlaywrightLauncher) Launch(ctx context.Context, opts LaunchOptions) (*ProcessSession, error) {
	kind, known := ResolveKind(opts.Browser)
	if !known {
		l.logger.Warn("Unknown browser requested; falling back to chromium.", zap.String("requested", opts.Browser))
	}

	if opts.Install {
		if err := l.ensureInstallation(ctx, kind); err != nil {
			return nil, err
		}
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright driver: %w", err)
	}

	var browserType playwright.BrowserType
	switch kind {
	case KindFirefox:
		browserType = pw.Firefox
	case KindWebKit:
		browserType = pw.WebKit
	default:
		browserType = pw.Chromium
	}

	b, err := browserType.Launch(launchOptions(kind, opts))
	if err != nil {
		if stopErr := pw.Stop(); stopErr != nil {
			l.logger.Warn("Failed to stop playwright driver after launch failure.", zap.Error(stopErr))
		}
		return nil, fmt.Errorf("failed to launch %s: %w", kind, err)
	}

	l.logger.Info("Browser launched.",
		zap.String("browser", string(kind)),
		zap.String("version", b.Version()),
		zap.Bool("headless", opts.Headless))
	return NewProcessSession(b, pw.Stop), nil
}

// ensureInstallation runs the installer once per launcher.
func (l *PlaywrightLauncher) ensureInstallation(ctx context.Context, kind Kind) error {
	l.installOnce.Do(func() {
		l.logger.Info("Verifying Playwright browser installation...", zap.String("browser", string(kind)))
		installCtx, cancel := context.WithTimeout(ctx, playwrightInstallTimeout)
		defer cancel()

		// Install blocks without a context, so it runs in a goroutine.
		errCh := make(chan error, 1)
		go func() {
			errCh <- playwright.Install(&playwright.RunOptions{Browsers: []string{string(kind)}})
		}()

		select {
		case err := <-errCh:
			if err != nil {
				l.installErr = fmt.Errorf("failed to install playwright browsers: %w", err)
			}
		case <-installCtx.Done():
			l.installErr = fmt.Errorf("timeout waiting for Playwright installation: %w", installCtx.Err())
		}
	})
	return l.installErr
}

// launchOptions builds driver launch options. Chromium always receives the
// automation flag.
func launchOptions(kind Kind, opts LaunchOptions) playwright.BrowserTypeLaunchOptions {
	args := append([]string(nil), opts.Args...)
	if kind == KindChromium && !lo.Contains(args, automationFlag) {
		args = append(args, automationFlag)
	}

	launch := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
		Args:     args,
		Timeout:  playwright.Float(browserLaunchTimeoutMs),
	}
	if opts.SlowMo > 0 {
		launch.SlowMo = playwright.Float(float64(opts.SlowMo.Milliseconds()))
	}
	return launch
}
