// File: internal/runner/runner.go
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/cucumber/godog"
	"github.com/cucumber/godog/colors"
	"go.uber.org/zap"

	"github.com/xkilldash9x/lancet/features"
	"github.com/xkilldash9x/lancet/internal/browser"
	"github.com/xkilldash9x/lancet/internal/capture"
	"github.com/xkilldash9x/lancet/internal/config"
	"github.com/xkilldash9x/lancet/internal/results"
	"github.com/xkilldash9x/lancet/internal/steps"
)

const suiteName = "lancet"

// ErrNoScenarios is returned when a tag filter selects nothing.
var ErrNoScenarios = errors.New("no scenarios matched the tag filter")

// Options selects which scenarios run and how they are reported.
type Options struct {
	// Paths are feature files or directories. Empty runs the embedded features.
	Paths       []string
	Tags        string
	Format      string
	Concurrency int
	FailFast    bool
	Strict      bool
	Randomize   int64
	Output      io.Writer
}

// OptionsFromConfig copies the run section of cfg.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Paths:       cfg.Run.Paths,
		Tags:        cfg.Run.Tags,
		Format:      cfg.Run.Format,
		Concurrency: cfg.Run.Concurrency,
		FailFast:    cfg.Run.FailFast,
		Strict:      cfg.Run.Strict,
		Randomize:   cfg.Run.Randomize,
	}
}

// Runner executes a feature suite against one environment and site.
type Runner struct {
	cfg      *config.Config
	env      config.EnvironmentConfig
	site     config.SiteConfig
	opts     Options
	filter   string
	logger   *zap.Logger
	launcher browser.Launcher
	lookup   config.LookupFunc
	features fs.FS
	now      func() time.Time
}

// Option configures a Runner.
type Option func(*Runner)

// WithLauncher replaces the playwright launcher.
func WithLauncher(l browser.Launcher) Option {
	return func(r *Runner) { r.launcher = l }
}

// WithLookup replaces os.LookupEnv for fixture and token lookups.
func WithLookup(lookup config.LookupFunc) Option {
	return func(r *Runner) { r.lookup = lookup }
}

// WithFeatures replaces the embedded feature set. Ignored when Paths is set.
func WithFeatures(fsys fs.FS) Option {
	return func(r *Runner) { r.features = fsys }
}

// New resolves the environment and site named in cfg and prepares a run.
func New(cfg *config.Config, resolver *config.Resolver, opts Options, logger *zap.Logger, options ...Option) (*Runner, error) {
	if cfg == nil || resolver == nil {
		return nil, fmt.Errorf("runner: config and resolver are required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if opts.Format == "" {
		opts.Format = "pretty"
	}
	if opts.Output == nil {
		opts.Output = colors.Colored(os.Stdout)
	}
	filter, err := TranslateTags(opts.Tags)
	if err != nil {
		return nil, err
	}
	env, err := resolver.ResolveEnvironment(cfg.Run.Environment)
	if err != nil {
		return nil, fmt.Errorf("resolve environment: %w", err)
	}
	site, err := resolver.ResolveSite(cfg.Run.Site)
	if err != nil {
		return nil, fmt.Errorf("resolve site: %w", err)
	}
	r := &Runner{
		cfg:      cfg,
		env:      env,
		site:     site,
		opts:     opts,
		filter:   filter,
		logger:   logger.Named("runner"),
		lookup:   os.LookupEnv,
		features: features.FS,
		now:      time.Now,
	}
	for _, o := range options {
		o(r)
	}
	if r.launcher == nil {
		r.launcher = browser.NewPlaywrightLauncher(logger)
	}
	return r, nil
}

// Environment is the resolved environment.
func (r *Runner) Environment() config.EnvironmentConfig { return r.env }

// Site is the resolved site.
func (r *Runner) Site() config.SiteConfig { return r.site }

// Run executes the suite and returns godog's status with the scenario
// summary. The returned exit code is non-zero when godog failed or any
// scenario did. When ctx is cancelled mid-run the remaining scenarios are
// skipped and the error wraps ctx.Err().
func (r *Runner) Run(ctx context.Context) (int, *results.Summary, error) {
	settings := browser.SettingsFromConfig(r.cfg, r.env)
	pool, err := browser.NewPool(r.opts.Concurrency, func(worker int) *browser.Manager {
		return browser.NewManager(r.logger, r.launcher, settings, browser.WithID(fmt.Sprintf("worker-%d", worker)))
	})
	if err != nil {
		return 1, nil, err
	}

	summary := results.NewSummary(r.now())
	suite, err := steps.NewSuite(steps.Dependencies{
		Config:   r.cfg,
		Env:      r.env,
		Site:     r.site,
		Pool:     pool,
		Capturer: capture.New(r.cfg.Artifacts.ScreenshotDir, r.logger),
		Summary:  summary,
		Logger:   r.logger,
		Lookup:   r.lookup,
		Now:      r.now,
	})
	if err != nil {
		return 1, nil, err
	}

	godogOpts := &godog.Options{
		Format:         r.opts.Format,
		Tags:           r.filter,
		Concurrency:    r.opts.Concurrency,
		StopOnFailure:  r.opts.FailFast,
		Strict:         r.opts.Strict,
		Randomize:      r.opts.Randomize,
		Output:         r.opts.Output,
		DefaultContext: ctx,
		Paths:          r.opts.Paths,
	}
	if len(r.opts.Paths) == 0 {
		godogOpts.FS = r.features
		godogOpts.Paths = []string{"."}
	}

	r.logger.Info("Starting feature run.",
		zap.String("environment", string(r.env.Name)),
		zap.String("site", string(r.site.Name)),
		zap.Strings("paths", godogOpts.Paths),
		zap.String("tags", r.opts.Tags),
		zap.String("tag_filter", r.filter),
		zap.Int("concurrency", r.opts.Concurrency),
	)

	status := godog.TestSuite{
		Name:                 suiteName,
		TestSuiteInitializer: suite.InitializeTestSuite,
		ScenarioInitializer:  suite.InitializeScenario,
		Options:              godogOpts,
	}.Run()

	code := summary.ExitCode(status)
	if err := ctx.Err(); err != nil {
		r.logger.Warn("Feature run interrupted.", zap.String("summary", summary.String()))
		return code, summary, fmt.Errorf("run interrupted: %w", err)
	}
	if r.filter != "" && summary.Total() == 0 {
		r.logger.Warn("Tag filter selected no scenarios.", zap.String("tags", r.opts.Tags))
		return 1, summary, fmt.Errorf("%w: %q", ErrNoScenarios, r.opts.Tags)
	}
	return code, summary, nil
}
