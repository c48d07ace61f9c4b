package capture

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/xkilldash9x/lancet/internal/results"
	"github.com/xkilldash9x/lancet/internal/testing/pwfake"
)

var fixedTime = time.Date(2024, 1, 2, 3, 4, 5, 678_000_000, time.UTC)

func newTestCapturer(t *testing.T) (*Capturer, *observer.ObservedLogs, string) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	dir := filepath.Join(t.TempDir(), "screenshots")
	return New(dir, zap.New(core), WithClock(func() time.Time { return fixedTime })), logs, dir
}

func TestCapture_FailedScenario(t *testing.T) {
	c, _, dir := newTestCapturer(t)
	page := pwfake.NewPage("https://www.saucedemo.com/")

	path, err := c.Capture(context.Background(), "Login succeeds", results.Failed, page)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "Login_succeeds-2024-01-02T03-04-05-678Z.png"), path)
	_, err = os.Stat(path)
	assert.NoError(t, err, "screenshot file is written")

	shots := page.Screenshots()
	require.Len(t, shots, 1)
	require.NotNil(t, shots[0].FullPage)
	assert.True(t, *shots[0].FullPage)
	assert.Equal(t, path, *shots[0].Path)
}

func TestCapture_OnlyOnFailure(t *testing.T) {
	c, _, dir := newTestCapturer(t)
	page := pwfake.NewPage("about:blank")

	for _, st := range []results.Status{results.Passed, results.Skipped, results.Pending, results.Undefined, results.Ambiguous} {
		path, err := c.Capture(context.Background(), "scenario", st, page)
		assert.NoError(t, err)
		assert.Empty(t, path, "status %s", st)
	}
	assert.Empty(t, page.Screenshots())

	_, err := os.Stat(dir)
	assert.True(t, os.IsNotExist(err), "nothing is created for passing scenarios")
}

func TestCapture_NilPage(t *testing.T) {
	c, _, _ := newTestCapturer(t)
	path, err := c.Capture(context.Background(), "no page", results.Failed, nil)
	assert.NoError(t, err)
	assert.Empty(t, path)
}

func TestCapture_ScreenshotErrorIsLogged(t *testing.T) {
	c, logs, _ := newTestCapturer(t)
	page := pwfake.NewPage("about:blank")
	page.ScreenshotErr = errors.New("target closed")

	path, err := c.Capture(context.Background(), "Broken page", results.Failed, page)
	assert.Error(t, err)
	assert.Empty(t, path)
	assert.Equal(t, 1, logs.FilterLevelExact(zapcore.WarnLevel).Len())
}

func TestCapture_CancelledContext(t *testing.T) {
	c, _, _ := newTestCapturer(t)
	page := pwfake.NewPage("about:blank")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Capture(ctx, "cancelled", results.Failed, page)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, page.Screenshots())
}
