// internal/browser/manager.go
package browser

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/lancet/internal/artifacts"
	"github.com/xkilldash9x/lancet/internal/config"
)

const shutdownGracePeriod = 10 * time.Second

// Viewport is a page size in CSS pixels.
type Viewport struct {
	Width  int
	Height int
}

// DefaultViewport is applied to every scenario page.
var DefaultViewport = Viewport{Width: 1280, Height: 720}

// Settings is everything a Manager needs to launch a browser and open
// scenario sessions.
type Settings struct {
	Launch            LaunchOptions
	Viewport          Viewport
	DefaultTimeout    time.Duration
	NavigationTimeout time.Duration
	// ResultsDir receives one HAR file per scenario when RecordHAR is set.
	ResultsDir string
	RecordHAR  bool
	// VideoDir enables video recording when non-empty.
	VideoDir     string
	ExtraHeaders map[string]string
}

// SettingsFromConfig derives manager settings from the run configuration and
// the resolved environment.
func SettingsFromConfig(cfg *config.Config, env config.EnvironmentConfig) Settings {
	s := Settings{
		Launch: LaunchOptions{
			Browser:  cfg.Browser.Name,
			Headless: cfg.Browser.Headless(),
			SlowMo:   time.Duration(cfg.Browser.SlowMoMs) * time.Millisecond,
			Args:     cfg.Browser.Args,
			Install:  cfg.Browser.Install,
		},
		Viewport:          DefaultViewport,
		DefaultTimeout:    time.Duration(cfg.Timeouts.DefaultMs) * time.Millisecond,
		NavigationTimeout: time.Duration(cfg.Timeouts.NavigationMs) * time.Millisecond,
		ResultsDir:        cfg.Artifacts.ResultsDir,
		RecordHAR:         cfg.Artifacts.RecordHAR,
		ExtraHeaders:      maps.Clone(env.ExtraHeaders),
	}
	if cfg.Artifacts.VideoOnFailure {
		s.VideoDir = cfg.Artifacts.VideoDir
	}
	return s
}

// Manager owns one ProcessSession for a worker and hands out one isolated
// Session per scenario. The browser is launched lazily on the first
// NewSession call and closed by Shutdown.
type Manager struct {
	id       string
	logger   *zap.Logger
	launcher Launcher
	settings Settings
	now      func() time.Time

	mu        sync.Mutex
	state     State
	process   *ProcessSession
	launchErr error
	active    *Session
	opened    int
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithClock replaces time.Now for session timestamps.
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) { m.now = now }
}

// WithID sets the manager's identifier, used in logs.
func WithID(id string) ManagerOption {
	return func(m *Manager) { m.id = id }
}

// NewManager creates an idle manager. No browser is started until the first
// session is requested.
func NewManager(logger *zap.Logger, launcher Launcher, settings Settings, opts ...ManagerOption) *Manager {
	m := &Manager{
		id:       uuid.NewString(),
		launcher: launcher,
		settings: settings,
		now:      time.Now,
		state:    StateIdle,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = logger.Named("session_manager").With(zap.String("worker", m.id))
	return m
}

// ID returns the manager's identifier.
func (m *Manager) ID() string { return m.id }

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// SessionsOpened is the number of sessions successfully created.
func (m *Manager) SessionsOpened() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.opened
}

// NewSession creates an isolated browser context and page for scenario.
// The caller must Close the session before requesting another one.
func (m *Manager) NewSession(ctx context.Context, scenario string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch {
	case m.state == StateClosed:
		return nil, ErrManagerClosed
	case m.launchErr != nil:
		return nil, m.launchErr
	case m.active != nil:
		return nil, ErrSessionInUse
	}

	if err := m.ensureProcess(ctx); err != nil {
		return nil, err
	}

	s, err := m.openSession(scenario)
	if err != nil {
		m.state = StateReady
		return nil, err
	}
	m.active = s
	m.opened++
	m.state = StateInUse
	m.logger.Debug("Scenario session opened.", zap.String("session_id", s.ID), zap.String("scenario", scenario))
	return s, nil
}

// ensureProcess launches the browser if it is not yet running. Must be
// called with mu held.
func (m *Manager) ensureProcess(ctx context.Context) error {
	if m.process != nil {
		return nil
	}
	m.state = StateLaunching
	m.logger.Info("Launching browser for worker.", zap.String("browser", m.settings.Launch.Browser))

	process, err := m.launcher.Launch(ctx, m.settings.Launch)
	if err != nil {
		m.state = StateIdle
		m.launchErr = fmt.Errorf("%w: %w", ErrLaunchFailed, err)
		m.logger.Error("Browser launch failed.", zap.Error(err))
		return m.launchErr
	}
	m.process = process
	m.state = StateReady
	return nil
}

// openSession creates the context and page. On partial failure everything
// already created is closed before returning. Must be called with mu held.
func (m *Manager) openSession(scenario string) (*Session, error) {
	s := &Session{
		ID:        uuid.NewString(),
		Scenario:  scenario,
		CreatedAt: m.now(),
		manager:   m,
	}

	opts := playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{Width: m.settings.Viewport.Width, Height: m.settings.Viewport.Height},
	}
	if len(m.settings.ExtraHeaders) > 0 {
		opts.ExtraHttpHeaders = maps.Clone(m.settings.ExtraHeaders)
	}
	if m.settings.RecordHAR && m.settings.ResultsDir != "" {
		if err := artifacts.EnsureDir(m.settings.ResultsDir); err != nil {
			return nil, err
		}
		s.harPath = filepath.Join(m.settings.ResultsDir, artifacts.Name(scenario)+".har")
		opts.RecordHarPath = playwright.String(s.harPath)
	}
	if m.settings.VideoDir != "" {
		if err := artifacts.EnsureDir(m.settings.VideoDir); err != nil {
			return nil, err
		}
		s.videoDir = m.settings.VideoDir
		opts.RecordVideo = &playwright.RecordVideo{
			Dir:  m.settings.VideoDir,
			Size: &playwright.Size{Width: m.settings.Viewport.Width, Height: m.settings.Viewport.Height},
		}
	}

	bctx, err := m.process.Browser().NewContext(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create browser context: %w", err)
	}

	page, err := bctx.NewPage()
	if err != nil {
		if closeErr := bctx.Close(); closeErr != nil {
			m.logger.Warn("Failed to close context after page creation failure.", zap.Error(closeErr))
		}
		return nil, fmt.Errorf("failed to create page: %w", err)
	}

	if err := page.SetViewportSize(m.settings.Viewport.Width, m.settings.Viewport.Height); err != nil {
		closeErr := errors.Join(page.Close(), bctx.Close())
		if closeErr != nil {
			m.logger.Warn("Failed to close session after viewport failure.", zap.Error(closeErr))
		}
		return nil, fmt.Errorf("failed to set viewport: %w", err)
	}
	if m.settings.DefaultTimeout > 0 {
		page.SetDefaultTimeout(config.Millis(m.settings.DefaultTimeout))
	}
	if m.settings.NavigationTimeout > 0 {
		page.SetDefaultNavigationTimeout(config.Millis(m.settings.NavigationTimeout))
	}

	s.context = bctx
	s.page = page
	return s, nil
}

// beginTeardown moves the manager out of InUse for s.
func (m *Manager) beginTeardown(s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active == s && m.state == StateInUse {
		m.state = StateTearingDown
	}
}

// release detaches s once its context is closed.
func (m *Manager) release(s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active != s {
		return
	}
	m.active = nil
	if m.state != StateClosed {
		m.state = StateReady
	}
}

// Shutdown closes any session left open and then the browser process. It is
// a no-op when the browser was never launched and on every call after the
// first.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	if m.state == StateClosed {
		m.mu.Unlock()
		return nil
	}
	m.state = StateClosed
	process, active := m.process, m.active
	m.mu.Unlock()

	if active != nil {
		m.logger.Warn("Closing session left open at shutdown.", zap.String("session_id", active.ID))
		if err := active.Close(); err != nil {
			m.logger.Warn("Error during session close in shutdown.", zap.Error(err))
		}
	}

	if process == nil {
		m.logger.Debug("Browser was never launched; nothing to shut down.")
		return nil
	}

	m.logger.Info("Shutting down browser.")
	done := make(chan error, 1)
	go func() { done <- process.Close() }()

	grace := time.NewTimer(shutdownGracePeriod)
	defer grace.Stop()

	select {
	case err := <-done:
		if err != nil {
			m.logger.Error("Failed to shut down browser cleanly.", zap.Error(err))
			return err
		}
		m.logger.Info("Browser shut down.")
		return nil
	case <-ctx.Done():
		m.logger.Warn("Context cancelled while waiting for browser shutdown.", zap.Error(ctx.Err()))
		return ctx.Err()
	case <-grace.C:
		return fmt.Errorf("browser did not shut down within %s", shutdownGracePeriod)
	}
}
