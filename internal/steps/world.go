// File: internal/steps/world.go
package steps

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cucumber/godog"
	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/lancet/internal/apiclient"
	"github.com/xkilldash9x/lancet/internal/browser"
	"github.com/xkilldash9x/lancet/internal/config"
	"github.com/xkilldash9x/lancet/internal/fixtures"
	"github.com/xkilldash9x/lancet/internal/pages"
	"github.com/xkilldash9x/lancet/internal/results"
)

// ErrPageNotInitialized is returned by steps that run without a browser
// session, which means the Before hook did not complete.
var ErrPageNotInitialized = errors.New("browser page not initialized")

// ErrStepTimeout fails a step that ran past timeouts.step_ms.
var ErrStepTimeout = errors.New("step timed out")

type worldKey struct{}

// World is the per-scenario state threaded through step contexts. Page
// objects and API helpers are built on first use.
type World struct {
	Scenario string
	Env      config.EnvironmentConfig
	Site     config.SiteConfig
	Started  time.Time

	api         config.APIConfig
	fixturesDir string
	lookup      config.LookupFunc
	logger      *zap.Logger

	session *browser.Session
	lease   *browser.Lease

	mu          sync.Mutex
	interrupted bool
	worst       results.Status
	steps       int
	stepParent  context.Context
	stepCancel  context.CancelFunc
	stepStarted time.Time
	stepLimit   time.Duration

	base      *pages.BasePage
	login     *pages.LoginPage
	dashboard *pages.DashboardPage
	profile   *pages.ProfilePage

	client   *apiclient.Client
	mocks    *apiclient.Mocker
	tracker  *apiclient.Tracker
	tokens   *fixtures.TokenIssuer
	response *apiclient.Response
	data     *fixtures.Generator
}

// WithWorld stores w in ctx.
func WithWorld(ctx context.Context, w *World) context.Context {
	return context.WithValue(ctx, worldKey{}, w)
}

// WorldFrom returns the scenario's World, if any.
func WorldFrom(ctx context.Context) (*World, bool) {
	w, ok := ctx.Value(worldKey{}).(*World)
	return w, ok && w != nil
}

func worldFor(ctx context.Context) (*World, error) {
	w, ok := WorldFrom(ctx)
	if !ok {
		return nil, ErrPageNotInitialized
	}
	return w, nil
}

// Session is the scenario's browser session, nil before setup completes.
func (w *World) Session() *browser.Session { return w.session }

func (w *World) attach(s *browser.Session) {
	w.session = s
}

// interrupt marks a scenario that never started because the run was
// cancelled. Such scenarios are reported as skipped, not failed.
func (w *World) interrupt() error {
	w.mu.Lock()
	w.interrupted = true
	w.mu.Unlock()
	return fmt.Errorf("%w: run cancelled before the scenario started", godog.ErrSkip)
}

// Interrupted reports whether the run was cancelled before setup finished.
func (w *World) Interrupted() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.interrupted
}

// Page returns the scenario's page or ErrPageNotInitialized.
func (w *World) Page() (playwright.Page, error) {
	if w.session == nil || w.session.Page() == nil {
		return nil, ErrPageNotInitialized
	}
	return w.session.Page(), nil
}

// Base returns the generic page wrapper.
func (w *World) Base() (*pages.BasePage, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.base != nil {
		return w.base, nil
	}
	page, err := w.Page()
	if err != nil {
		return nil, err
	}
	w.base = pages.NewBasePage(page, w.logger)
	return w.base, nil
}

// Login returns the login page object.
func (w *World) Login() (*pages.LoginPage, error) {
	base, err := w.Base()
	if err != nil {
		return nil, err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.login == nil {
		w.login = pages.NewLoginPage(base, w.Site)
	}
	return w.login, nil
}

// Dashboard returns the dashboard page object.
func (w *World) Dashboard() (*pages.DashboardPage, error) {
	base, err := w.Base()
	if err != nil {
		return nil, err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.dashboard == nil {
		w.dashboard = pages.NewDashboardPage(base, w.Site)
	}
	return w.dashboard, nil
}

// Profile returns the profile page object.
func (w *World) Profile() (*pages.ProfilePage, error) {
	base, err := w.Base()
	if err != nil {
		return nil, err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.profile == nil {
		w.profile = pages.NewProfilePage(base, w.Site)
	}
	return w.profile, nil
}

// API returns the scenario's API client, sharing the page's cookies.
func (w *World) API() (*apiclient.Client, error) {
	page, err := w.Page()
	if err != nil {
		return nil, err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.client == nil {
		cfg := w.api
		if cfg.BaseURL == "" {
			cfg.BaseURL = w.Env.APIURL
		}
		w.client = apiclient.New(page.Request(), cfg, w.logger)
	}
	return w.client, nil
}

func (w *World) setAPI(c *apiclient.Client) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.client = c
}

// Mocks returns the scenario's route mocker.
func (w *World) Mocks() (*apiclient.Mocker, error) {
	page, err := w.Page()
	if err != nil {
		return nil, err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.mocks == nil {
		w.mocks = apiclient.NewMocker(apiclient.PageRouter(page), w.logger)
	}
	return w.mocks, nil
}

// Tracker returns the scenario's network tracker.
func (w *World) Tracker() (*apiclient.Tracker, error) {
	page, err := w.Page()
	if err != nil {
		return nil, err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.tracker == nil {
		w.tracker = apiclient.NewTracker(page)
	}
	return w.tracker, nil
}

// Tokens returns the test token issuer.
func (w *World) Tokens() *fixtures.TokenIssuer {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.tokens == nil {
		w.tokens = fixtures.NewTokenIssuer(w.lookup)
	}
	return w.tokens
}

// Data returns the scenario's test-data generator.
func (w *World) Data() *fixtures.Generator {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.data == nil {
		w.data = fixtures.NewGenerator()
	}
	return w.data
}

// Expand replaces a whole-cell placeholder with generated data. Known
// placeholders are {random_email}, {random_string} and {today}.
func (w *World) Expand(value string) string {
	switch strings.TrimSpace(value) {
	case "{random_email}":
		return w.Data().Email()
	case "{random_string}":
		return w.Data().String(0)
	case "{today}":
		return w.Data().Today()
	}
	return value
}

// LastResponse is the response to the most recent API step.
func (w *World) LastResponse() (*apiclient.Response, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.response == nil {
		return nil, errors.New("no API request has been sent in this scenario")
	}
	return w.response, nil
}

func (w *World) setResponse(r *apiclient.Response) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.response = r
}

func (w *World) recordStep(st results.Status) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.steps++
	w.worst = results.Worse(w.worst, st)
}

// WorstStep is the most severe status any step reported so far.
func (w *World) WorstStep() results.Status {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.worst
}

func (w *World) beginStep(ctx context.Context, timeout time.Duration, started time.Time) context.Context {
	if timeout <= 0 {
		return ctx
	}
	stepCtx, cancel := context.WithTimeout(ctx, timeout)
	w.mu.Lock()
	w.stepParent = ctx
	w.stepCancel = cancel
	w.stepStarted = started
	w.stepLimit = timeout
	w.mu.Unlock()
	return stepCtx
}

func (w *World) stepClock() (time.Time, time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stepStarted, w.stepLimit
}

// endStep cancels the step timeout and returns the context the next step
// builds on.
func (w *World) endStep(ctx context.Context) context.Context {
	w.mu.Lock()
	parent, cancel := w.stepParent, w.stepCancel
	w.stepParent, w.stepCancel = nil, nil
	w.stepLimit = 0
	w.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	if parent != nil {
		return parent
	}
	return ctx
}
