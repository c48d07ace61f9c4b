// File: internal/steps/assertions.go
package steps

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/cucumber/godog"
)

// AssertionError reports an expectation a step checked and found false.
type AssertionError struct {
	What     string
	Expected interface{}
	Actual   interface{}
}

func (e *AssertionError) Error() string {
	return fmt.Sprintf("%s: expected %v, got %v", e.What, e.Expected, e.Actual)
}

func expect(ok bool, what string, expected, actual interface{}) error {
	if ok {
		return nil
	}
	return &AssertionError{What: what, Expected: expected, Actual: actual}
}

func expectVisible(visible bool, what string) error {
	return expect(visible, what, "visible", "not visible")
}

func expectGreater(n, than int, what string) error {
	return expect(n > than, what, fmt.Sprintf("more than %d", than), n)
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

// samePath reports whether two URLs point at the same path, ignoring query,
// fragment and a trailing slash.
func samePath(current, want string) bool {
	c, err := url.Parse(current)
	if err != nil {
		return false
	}
	w, err := url.Parse(want)
	if err != nil {
		return false
	}
	return c.Host == w.Host && strings.TrimRight(c.Path, "/") == strings.TrimRight(w.Path, "/")
}

// tableRows maps each data row to its header cells. A table without a
// header row yields nothing.
func tableRows(t *godog.Table) []map[string]string {
	if t == nil || len(t.Rows) < 2 {
		return nil
	}
	header := t.Rows[0].Cells
	rows := make([]map[string]string, 0, len(t.Rows)-1)
	for _, r := range t.Rows[1:] {
		row := make(map[string]string, len(header))
		for i, c := range r.Cells {
			if i < len(header) {
				row[header[i].Value] = c.Value
			}
		}
		rows = append(rows, row)
	}
	return rows
}
