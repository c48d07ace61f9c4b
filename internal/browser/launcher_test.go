package browser

import (
	"errors"
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/lancet/internal/testing/pwfake"
)

func TestResolveKind(t *testing.T) {
	tests := []struct {
		in    string
		want  Kind
		known bool
	}{
		{"", KindChromium, true},
		{"chromium", KindChromium, true},
		{"Firefox", KindFirefox, true},
		{"webkit", KindWebKit, true},
		{" safari ", KindWebKit, true},
		{"netscape", KindChromium, false},
	}
	for _, tt := range tests {
		got, known := ResolveKind(tt.in)
		assert.Equal(t, tt.want, got, "input %q", tt.in)
		assert.Equal(t, tt.known, known, "input %q", tt.in)
	}
}

func TestLaunchOptions(t *testing.T) {
	t.Run("chromium gets the automation flag once", func(t *testing.T) {
		opts := launchOptions(KindChromium, LaunchOptions{Headless: true, Args: []string{"--no-sandbox", automationFlag}})
		assert.Equal(t, []string{"--no-sandbox", automationFlag}, opts.Args)
		require.NotNil(t, opts.Headless)
		assert.True(t, *opts.Headless)
		assert.Nil(t, opts.SlowMo)
	})

	t.Run("slow motion and headed", func(t *testing.T) {
		opts := launchOptions(KindChromium, LaunchOptions{Headless: false, SlowMo: 100 * time.Millisecond})
		assert.False(t, *opts.Headless)
		require.NotNil(t, opts.SlowMo)
		assert.Equal(t, 100.0, *opts.SlowMo)
		assert.Equal(t, []string{automationFlag}, opts.Args)
	})

	t.Run("other engines keep args untouched", func(t *testing.T) {
		in := []string{"--foo"}
		opts := launchOptions(KindFirefox, LaunchOptions{Args: in})
		assert.Equal(t, []string{"--foo"}, opts.Args)
		opts.Args[0] = "--bar"
		assert.Equal(t, "--foo", in[0], "caller's slice is not aliased")
	})

	assert.Equal(t, playwright.Float(browserLaunchTimeoutMs), launchOptions(KindWebKit, LaunchOptions{}).Timeout)
}

func TestProcessSession_CloseOnce(t *testing.T) {
	b := pwfake.NewBrowser()
	stops := 0
	stopErr := errors.New("driver gone")
	p := NewProcessSession(b, func() error {
		stops++
		return stopErr
	})

	err := p.Close()
	assert.ErrorIs(t, err, stopErr)
	assert.Equal(t, err, p.Close())
	assert.Equal(t, 1, b.CloseCount())
	assert.Equal(t, 1, stops)
	assert.Same(t, b, p.Browser())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "in_use", StateInUse.String())
	assert.Equal(t, "tearing_down", StateTearingDown.String())
	assert.Equal(t, "unknown", State(42).String())
}
