// File: internal/steps/suite.go
package steps

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cucumber/godog"
	"go.uber.org/zap"

	"github.com/xkilldash9x/lancet/internal/artifacts"
	"github.com/xkilldash9x/lancet/internal/browser"
	"github.com/xkilldash9x/lancet/internal/capture"
	"github.com/xkilldash9x/lancet/internal/config"
	"github.com/xkilldash9x/lancet/internal/results"
)

const suiteShutdownTimeout = 30 * time.Second

// Dependencies is everything the hooks need. Nothing is read from package
// globals so that several suites can run in one process.
type Dependencies struct {
	Config   *config.Config
	Env      config.EnvironmentConfig
	Site     config.SiteConfig
	Pool     *browser.Pool
	Capturer *capture.Capturer
	Summary  *results.Summary
	Logger   *zap.Logger
	Lookup   config.LookupFunc
	Now      func() time.Time
}

// Suite wires hooks and step definitions into godog.
type Suite struct {
	deps     Dependencies
	logger   *zap.Logger
	setupErr error
}

// NewSuite validates deps and fills in defaults.
func NewSuite(deps Dependencies) (*Suite, error) {
	if deps.Config == nil {
		return nil, errors.New("steps: config is required")
	}
	if deps.Pool == nil {
		return nil, errors.New("steps: browser pool is required")
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Summary == nil {
		deps.Summary = results.NewSummary(time.Now())
	}
	if deps.Capturer == nil {
		deps.Capturer = capture.New(deps.Config.Artifacts.ScreenshotDir, deps.Logger)
	}
	if deps.Lookup == nil {
		deps.Lookup = func(string) (string, bool) { return "", false }
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Suite{deps: deps, logger: deps.Logger.Named("suite")}, nil
}

// Summary is the run's scenario summary.
func (s *Suite) Summary() *results.Summary { return s.deps.Summary }

// InitializeTestSuite registers the suite level hooks.
func (s *Suite) InitializeTestSuite(ctx *godog.TestSuiteContext) {
	ctx.BeforeSuite(s.beforeSuite)
	ctx.AfterSuite(s.afterSuite)
}

func (s *Suite) beforeSuite() {
	a := s.deps.Config.Artifacts
	for _, dir := range []string{a.ResultsDir, a.ScreenshotDir} {
		if err := artifacts.EnsureDir(dir); err != nil {
			s.setupErr = fmt.Errorf("prepare results directory: %w", err)
			s.logger.Error("Failed to prepare results directory.", zap.String("dir", dir), zap.Error(err))
			return
		}
	}
	s.logger.Info("Test run starting.",
		zap.String("environment", string(s.deps.Env.Name)),
		zap.String("site", string(s.deps.Site.Name)),
		zap.String("base_url", s.deps.Site.BaseURL),
		zap.Int("workers", s.deps.Pool.Size()),
	)
}

func (s *Suite) afterSuite() {
	ctx, cancel := context.WithTimeout(context.Background(), suiteShutdownTimeout)
	defer cancel()
	if err := s.deps.Pool.Shutdown(ctx); err != nil {
		s.logger.Warn("Browser shutdown reported errors.", zap.Error(err))
	}
	s.deps.Summary.Finish(s.deps.Now())
	s.logger.Info("Test run finished.", zap.String("summary", s.deps.Summary.String()))
}

// InitializeScenario registers the scenario hooks and every step definition.
func (s *Suite) InitializeScenario(sc *godog.ScenarioContext) {
	sc.Before(s.before)
	sc.StepContext().Before(s.beforeStep)
	sc.StepContext().After(s.afterStep)
	sc.After(s.after)

	registerLoginSteps(sc)
	registerDashboardSteps(sc)
	registerProfileSteps(sc)
	registerAPISteps(sc)
}

// before stores the World first so that after can always release whatever
// was acquired, even when setup fails halfway.
func (s *Suite) before(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
	w := &World{
		Scenario:    sc.Name,
		Env:         s.deps.Env,
		Site:        s.deps.Site,
		Started:     s.deps.Now(),
		api:         s.deps.Config.API,
		fixturesDir: s.deps.Config.Run.FixturesDir,
		lookup:      s.deps.Lookup,
		logger:      s.deps.Logger.With(zap.String("scenario", sc.Name)),
	}
	ctx = WithWorld(ctx, w)

	if s.setupErr != nil {
		return ctx, s.setupErr
	}

	lease, err := s.deps.Pool.Acquire(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return ctx, w.interrupt()
		}
		return ctx, fmt.Errorf("acquire browser worker: %w", err)
	}
	w.lease = lease

	m := lease.Manager()
	session, err := m.NewSession(ctx, sc.Name)
	if err != nil {
		if ctx.Err() != nil {
			return ctx, w.interrupt()
		}
		return ctx, fmt.Errorf("open browser session: %w", err)
	}
	w.attach(session)
	s.logger.Debug("Scenario starting.", zap.String("scenario", sc.Name), zap.String("worker", m.ID()))
	return ctx, nil
}

func (s *Suite) beforeStep(ctx context.Context, st *godog.Step) (context.Context, error) {
	w, ok := WorldFrom(ctx)
	if !ok {
		return ctx, nil
	}
	if w.Interrupted() {
		return ctx, godog.ErrSkip
	}
	timeout := time.Duration(s.deps.Config.Timeouts.StepMs) * time.Millisecond
	if timeout <= 0 {
		timeout = config.Timeouts.Global
	}
	return w.beginStep(ctx, timeout, s.deps.Now()), nil
}

func (s *Suite) afterStep(ctx context.Context, st *godog.Step, status godog.StepResultStatus, err error) (context.Context, error) {
	w, ok := WorldFrom(ctx)
	if !ok {
		return ctx, nil
	}
	started, limit := w.stepClock()
	ctx = w.endStep(ctx)

	// playwright calls take no context, so a step that chains several waits
	// can outlive its deadline. It fails here instead.
	var overrun error
	if err == nil && limit > 0 {
		if elapsed := s.deps.Now().Sub(started); elapsed > limit {
			overrun = fmt.Errorf("%w: %q ran for %s, limit is %s",
				ErrStepTimeout, st.Text, elapsed.Round(time.Millisecond), limit)
			status = godog.StepFailed
		}
	}
	w.recordStep(results.FromStepStatus(status))
	return ctx, overrun
}

// after never returns an error: teardown problems are logged and must not
// change the scenario's outcome.
func (s *Suite) after(ctx context.Context, sc *godog.Scenario, err error) (context.Context, error) {
	w, ok := WorldFrom(ctx)
	if !ok {
		s.logger.Warn("Scenario finished without state.", zap.String("scenario", sc.Name))
		return ctx, nil
	}

	status := results.Worse(results.FromError(err), w.WorstStep())
	if w.Interrupted() {
		status = results.Skipped
	}
	record := results.Record{
		Scenario: sc.Name,
		Status:   status,
		Duration: s.deps.Now().Sub(w.Started),
		Err:      err,
	}

	// Capture runs on a fresh context; the scenario's may already be done.
	captureCtx, cancel := context.WithTimeout(context.Background(), config.Timeouts.Long)
	defer cancel()
	if w.session != nil {
		if path, cerr := s.deps.Capturer.Capture(captureCtx, sc.Name, status, w.session.Page()); cerr == nil {
			record.Screenshot = path
		}
		if cerr := w.session.Close(); cerr != nil {
			s.logger.Warn("Scenario teardown failed.", zap.String("scenario", sc.Name), zap.Error(cerr))
		}
	}
	w.lease.Release()

	s.deps.Summary.Add(record)
	fields := []zap.Field{
		zap.String("scenario", sc.Name),
		zap.String("status", status.String()),
		zap.Duration("duration", record.Duration),
	}
	if record.Screenshot != "" {
		fields = append(fields, zap.String("screenshot", record.Screenshot))
	}
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	s.logger.Info("Scenario finished.", fields...)
	return ctx, nil
}
