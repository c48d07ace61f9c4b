package artifacts

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestName(t *testing.T) {
	tests := map[string]string{
		"Login succeeds":          "Login_succeeds",
		"  padded   name  ":       "_padded_name_",
		"tabs\tand\nnewlines":     "tabs_and_newlines",
		"already_snake":           "already_snake",
		"Search for \"backpack\"": "Search_for_\"backpack\"",
	}
	for in, want := range tests {
		assert.Equal(t, want, Name(in), "input %q", in)
	}
}

func TestTimestamp(t *testing.T) {
	ts := time.Date(2024, 1, 2, 3, 4, 5, 678_000_000, time.UTC)
	assert.Equal(t, "2024-01-02T03-04-05-678Z", Timestamp(ts))

	// Non-UTC inputs are normalized.
	loc := time.FixedZone("UTC+2", 2*60*60)
	assert.Equal(t, "2024-01-02T03-04-05-678Z", Timestamp(ts.In(loc)))

	// Whole seconds still carry millisecond digits.
	assert.Equal(t, "2024-01-02T03-04-05-000Z", Timestamp(ts.Truncate(time.Second)))
}

func TestEnsureDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b", "screenshots")
	require.NoError(t, EnsureDir(dir))
	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	// Idempotent.
	require.NoError(t, EnsureDir(dir))
}
