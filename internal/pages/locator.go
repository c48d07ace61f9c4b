// File: internal/pages/locator.go
package pages

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/playwright-community/playwright-go"
)

// LocatorTable maps a semantic field name to ordered candidate selectors.
type LocatorTable map[string][]string

// ElementLocatable is implemented by page objects that expose their table.
type ElementLocatable interface {
	Locators() LocatorTable
}

// TableFromSite extracts the fields under prefix ("login", "dashboard", ...)
// from a site selector map, stripping the prefix.
func TableFromSite(selectors map[string][]string, prefix string) LocatorTable {
	table := make(LocatorTable)
	p := prefix + "."
	for key, candidates := range selectors {
		if field, ok := strings.CutPrefix(key, p); ok {
			table[field] = slices.Clone(candidates)
		}
	}
	return table
}

// Fields lists the table's fields in sorted order.
func (t LocatorTable) Fields() []string {
	return slices.Sorted(maps.Keys(t))
}

// Resolve returns the first candidate for field that matches at least one
// element on page.
func (t LocatorTable) Resolve(page playwright.Page, field string) (string, error) {
	candidates, ok := t[field]
	if !ok || len(candidates) == 0 {
		return "", &ElementNotFoundError{Selector: field}
	}
	for _, sel := range candidates {
		n, err := page.Locator(sel).Count()
		if err != nil {
			return "", fmt.Errorf("counting %q for %s: %w", sel, field, err)
		}
		if n > 0 {
			return sel, nil
		}
	}
	return "", &ElementNotFoundError{Selector: field, Candidates: slices.Clone(candidates)}
}

// Union returns a single comma-joined selector of every candidate, suitable
// for waiting on an element that may not exist yet.
func (t LocatorTable) Union(field string) string {
	return strings.Join(t[field], ", ")
}
