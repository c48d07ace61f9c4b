// Package artifacts names and places the files a run leaves behind.
package artifacts

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// timestampLayout is RFC 3339 with millisecond precision in UTC.
const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Name converts a scenario name into a file-name stem by replacing every run
// of whitespace with a single underscore. Leading and trailing runs are kept
// as underscores too.
func Name(scenario string) string {
	return whitespaceRun.ReplaceAllString(scenario, "_")
}

// Timestamp formats t in UTC with ':' and '.' replaced by '-', so
// 2024-01-02T03:04:05.678Z becomes 2024-01-02T03-04-05-678Z.
func Timestamp(t time.Time) string {
	return strings.NewReplacer(":", "-", ".", "-").Replace(t.UTC().Format(timestampLayout))
}

// EnsureDir creates dir and any missing parents.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create artifact directory %s: %w", dir, err)
	}
	return nil
}
