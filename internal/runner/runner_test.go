package runner_test

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/lancet/features"
	"github.com/xkilldash9x/lancet/internal/browser"
	"github.com/xkilldash9x/lancet/internal/config"
	"github.com/xkilldash9x/lancet/internal/results"
	"github.com/xkilldash9x/lancet/internal/runner"
	"github.com/xkilldash9x/lancet/internal/testing/pwfake"
)

const loginFeature = `Feature: Login
  Scenario: Valid login
    Given the user navigates to the login page
    When the user enters valid credentials
    And clicks the login button
    Then the dashboard should be displayed

  Scenario: Invalid login
    Given the user navigates to the login page
    When the user enters invalid credentials
    And clicks the login button
    Then the dashboard should be displayed
`

func noEnv(string) (string, bool) { return "", false }

type fakeLauncher struct {
	browser *pwfake.Browser
}

func (f *fakeLauncher) Launch(ctx context.Context, opts browser.LaunchOptions) (*browser.ProcessSession, error) {
	return browser.NewProcessSession(f.browser, func() error { return nil }), nil
}

func storefront(site config.SiteConfig) func() *pwfake.Page {
	return func() *pwfake.Page {
		page := pwfake.NewPage("about:blank")
		page.Set("#user-name", pwfake.Element{})
		page.Set("#password", pwfake.Element{})
		page.Set("#login-button", pwfake.Element{})
		page.OnClick("#login-button", func(p *pwfake.Page) {
			user, _ := p.Element("#user-name")
			pass, _ := p.Element("#password")
			if user.Value == site.Credentials.Username && pass.Value == site.Credentials.Password {
				p.SetURL(site.URL(config.PageDashboard))
				p.Set("#inventory_container", pwfake.Element{})
				return
			}
			p.Set("[data-test='error']", pwfake.Element{Text: "Epic sadface"})
		})
		return page
	}
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	v := viper.New()
	config.SetDefaults(v)
	v.Set("artifacts.results_dir", t.TempDir())
	v.Set("artifacts.record_har", false)
	v.Set("run.format", "progress")
	cfg, err := config.NewConfigFromViper(v)
	require.NoError(t, err)
	return cfg
}

func newRunner(t *testing.T, cfg *config.Config, opts runner.Options, extra ...runner.Option) (*runner.Runner, *pwfake.Browser) {
	t.Helper()
	resolver := config.NewResolver(zap.NewNop(), config.WithLookup(noEnv))
	fake := pwfake.NewBrowser()
	fake.NewPageFunc = storefront(resolver.Site(cfg.Run.Site))
	options := append([]runner.Option{
		runner.WithLauncher(&fakeLauncher{browser: fake}),
		runner.WithLookup(noEnv),
	}, extra...)
	r, err := runner.New(cfg, resolver, opts, zap.NewNop(), options...)
	require.NoError(t, err)
	return r, fake
}

func TestRun_ClassifiesScenarios(t *testing.T) {
	cfg := testConfig(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "login.feature"), []byte(loginFeature), 0o644))

	opts := runner.OptionsFromConfig(cfg)
	opts.Paths = []string{dir}
	opts.Output = io.Discard
	r, fake := newRunner(t, cfg, opts)

	code, summary, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, code, "a failed scenario fails the run")

	counts := summary.Counts()
	assert.Equal(t, 1, counts[results.Passed])
	assert.Equal(t, 1, counts[results.Failed])
	assert.Zero(t, fake.OpenContexts(), "every scenario context is closed")
	assert.Equal(t, 1, fake.CloseCount(), "the browser is shut down once")

	var shot string
	for _, rec := range summary.Records() {
		if rec.Status == results.Failed {
			shot = rec.Screenshot
		}
	}
	require.NotEmpty(t, shot)
	assert.FileExists(t, shot)
	assert.Equal(t, cfg.Artifacts.ScreenshotDir, filepath.Dir(shot))
}

func TestRun_TagsSelectScenarios(t *testing.T) {
	cfg := testConfig(t)
	fsys := fstest.MapFS{
		"login.feature": {Data: []byte(`Feature: Login
  @smoke
  Scenario: Valid login
    Given the user navigates to the login page
    When the user enters valid credentials
    And clicks the login button
    Then the dashboard should be displayed

  Scenario: Not selected
    Given the user navigates to the login page
    Then the dashboard should be displayed
`)},
	}
	opts := runner.OptionsFromConfig(cfg)
	opts.Tags = "@smoke"
	opts.Output = io.Discard
	r, _ := newRunner(t, cfg, opts, runner.WithFeatures(fsys))

	code, summary, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, code)
	assert.Equal(t, 1, summary.Total())
	assert.False(t, summary.Failed())
}

const taggedFeature = `Feature: Tagged
  @smoke
  Scenario: Smoke only
    Given the user navigates to the login page
    Then the user should remain on the login page

  @smoke @wip
  Scenario: Smoke in progress
    Given the moon is made of cheese

  @wip
  Scenario: In progress
    Given the user navigates to the login page
    Then the user should remain on the login page
`

func TestRun_CucumberTagExpressions(t *testing.T) {
	tests := []struct {
		tags  string
		total int
	}{
		{tags: "@smoke and not @wip", total: 1},
		{tags: "not @wip", total: 1},
		{tags: "@smoke && ~@wip", total: 1},
		{tags: "(@smoke or @wip) and not (@smoke and @wip)", total: 2},
		{tags: "@nightly", total: 0},
	}
	for _, tt := range tests {
		t.Run(tt.tags, func(t *testing.T) {
			cfg := testConfig(t)
			opts := runner.OptionsFromConfig(cfg)
			opts.Tags = tt.tags
			opts.Output = io.Discard
			r, _ := newRunner(t, cfg, opts, runner.WithFeatures(fstest.MapFS{
				"tagged.feature": {Data: []byte(taggedFeature)},
			}))

			code, summary, err := r.Run(context.Background())
			if tt.total == 0 {
				assert.ErrorIs(t, err, runner.ErrNoScenarios)
				assert.Equal(t, 1, code, "an empty selection never passes")
				return
			}
			require.NoError(t, err)
			assert.Zero(t, code)
			assert.Equal(t, tt.total, summary.Total())
			assert.Zero(t, summary.Counts()[results.Undefined], "the @smoke @wip scenario stays filtered out")
		})
	}
}

func TestNew_RejectsBadTagExpression(t *testing.T) {
	cfg := testConfig(t)
	opts := runner.OptionsFromConfig(cfg)
	opts.Tags = "@smoke and (not @wip"
	_, err := runner.New(cfg, config.NewResolver(zap.NewNop()), opts, zap.NewNop())
	assert.ErrorIs(t, err, runner.ErrInvalidTags)
}

func TestRun_CancelledContextSkipsScenarios(t *testing.T) {
	cfg := testConfig(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "login.feature"), []byte(loginFeature), 0o644))

	opts := runner.OptionsFromConfig(cfg)
	opts.Paths = []string{dir}
	opts.Output = io.Discard
	r, fake := newRunner(t, cfg, opts)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, summary, err := r.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, summary)

	counts := summary.Counts()
	assert.Zero(t, counts[results.Failed], "interrupted scenarios are not failures")
	assert.Equal(t, 2, counts[results.Skipped])
	assert.Empty(t, fake.FakeContexts(), "no browser work starts after cancellation")
}

func TestRun_UndefinedStepsFailStrictRuns(t *testing.T) {
	cfg := testConfig(t)
	fsys := fstest.MapFS{
		"odd.feature": {Data: []byte(`Feature: Odd
  Scenario: Unknown step
    Given the moon is made of cheese
`)},
	}
	opts := runner.OptionsFromConfig(cfg)
	opts.Output = io.Discard
	r, _ := newRunner(t, cfg, opts, runner.WithFeatures(fsys))

	code, summary, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, code)
	assert.Equal(t, 1, summary.Counts()[results.Undefined])
}

func TestEmbeddedFeatures(t *testing.T) {
	names, err := fs.Glob(features.FS, "*.feature")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"api.feature", "dashboard.feature", "login.feature", "profile.feature"}, names)
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Run.Tags = "@smoke and not @wip"
	cfg.Run.Concurrency = 4
	cfg.Run.FailFast = true

	opts := runner.OptionsFromConfig(cfg)
	assert.Equal(t, "@smoke and not @wip", opts.Tags)
	assert.Equal(t, 4, opts.Concurrency)
	assert.True(t, opts.FailFast)
	assert.True(t, opts.Strict)
	assert.Equal(t, "progress", opts.Format)
}
