//go:build integration
// +build integration

package runner_test

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/lancet/internal/config"
	"github.com/xkilldash9x/lancet/internal/results"
	"github.com/xkilldash9x/lancet/internal/runner"
)

// TestRun_RealBrowser drives headless chromium against the public demo
// storefront. It needs network access and installs the browser on first use.
func TestRun_RealBrowser(t *testing.T) {
	cfg := testConfig(t)
	cfg.Browser.Install = true
	cfg.Run.Tags = "@login && @smoke"

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	opts := runner.OptionsFromConfig(cfg)
	opts.Output = io.Discard
	r, err := runner.New(cfg, config.NewResolver(zap.NewNop()), opts, zap.NewNop())
	require.NoError(t, err)

	code, summary, err := r.Run(ctx)
	require.NoError(t, err)
	assert.Zero(t, code, summary.String())
	assert.Equal(t, 1, summary.Counts()[results.Passed])
}
