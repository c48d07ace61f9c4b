// File: internal/pages/errors.go
package pages

import (
	"errors"
	"fmt"
	"strings"
)

// ErrElementNotFound matches every *ElementNotFoundError via errors.Is.
var ErrElementNotFound = errors.New("element not found")

// ElementNotFoundError reports a selector, or a semantic field whose
// candidates all failed, that matched nothing on the page.
type ElementNotFoundError struct {
	Selector   string
	Candidates []string
}

func (e *ElementNotFoundError) Error() string {
	if len(e.Candidates) == 0 {
		return fmt.Sprintf("element not found: %s", e.Selector)
	}
	return fmt.Sprintf("element not found: %s (tried %s)", e.Selector, strings.Join(e.Candidates, ", "))
}

// Is makes errors.Is(err, ErrElementNotFound) hold.
func (e *ElementNotFoundError) Is(target error) bool {
	return target == ErrElementNotFound
}
