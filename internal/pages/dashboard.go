// File: internal/pages/dashboard.go
package pages

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xkilldash9x/lancet/internal/config"
)

// DashboardPage drives the landing page shown after login.
type DashboardPage struct {
	*BasePage
	site     config.SiteConfig
	locators LocatorTable
}

// NewDashboardPage builds the dashboard page object for site.
func NewDashboardPage(base *BasePage, site config.SiteConfig) *DashboardPage {
	return &DashboardPage{BasePage: base, site: site, locators: TableFromSite(site.Selectors, "dashboard")}
}

// Locators returns the page's locator table.
func (p *DashboardPage) Locators() LocatorTable { return p.locators }

// URL is the dashboard address.
func (p *DashboardPage) URL() string { return p.site.URL(config.PageDashboard) }

// Navigate opens the dashboard.
func (p *DashboardPage) Navigate() error { return p.Goto(p.URL()) }

// WaitForLoaded waits for the dashboard container and an idle network.
func (p *DashboardPage) WaitForLoaded() error {
	if err := p.WaitFor(p.locators.Union("container"), config.Timeouts.Long); err != nil {
		return err
	}
	return p.WaitForPageLoad()
}

// IsLoaded reports whether the dashboard container is visible.
func (p *DashboardPage) IsLoaded() bool {
	sel, err := p.locators.Resolve(p.page, "container")
	return err == nil && p.IsVisible(sel)
}

// Heading returns the dashboard heading text.
func (p *DashboardPage) Heading() (string, error) {
	sel, err := p.locators.Resolve(p.page, "title")
	if err != nil {
		return "", err
	}
	text, err := p.Text(sel)
	return strings.TrimSpace(text), err
}

// IsHeadingVisible reports whether the heading is shown.
func (p *DashboardPage) IsHeadingVisible() bool {
	sel, err := p.locators.Resolve(p.page, "title")
	return err == nil && p.IsVisible(sel)
}

func (p *DashboardPage) count(field string) (int, error) {
	sel, err := p.locators.Resolve(p.page, field)
	if err != nil {
		return 0, err
	}
	return p.Count(sel)
}

// WidgetCount is the number of dashboard widgets.
func (p *DashboardPage) WidgetCount() (int, error) { return p.count("widgets") }

// StatisticCount is the number of statistic cards.
func (p *DashboardPage) StatisticCount() (int, error) { return p.count("statistics") }

// ProductCount is the number of listed products.
func (p *DashboardPage) ProductCount() (int, error) { return p.count("products") }

// SearchResultCount is the number of results after a search.
func (p *DashboardPage) SearchResultCount() (int, error) {
	sel, err := p.locators.Resolve(p.page, "searchResults")
	if err != nil {
		// An empty result set renders no items at all.
		return 0, nil
	}
	return p.Count(sel)
}

// EnterSearch types query into the search box without submitting.
func (p *DashboardPage) EnterSearch(query string) error {
	sel, err := p.locators.Resolve(p.page, "search")
	if err != nil {
		return err
	}
	return p.Fill(sel, query)
}

// Search enters query in the search box and submits with Enter.
func (p *DashboardPage) Search(query string) error {
	if err := p.EnterSearch(query); err != nil {
		return err
	}
	if err := p.PressKey("Enter"); err != nil {
		return err
	}
	return p.WaitForPageLoad()
}

// OpenMenu opens the navigation menu when the site hides it behind a button.
func (p *DashboardPage) OpenMenu() error {
	sel, err := p.locators.Resolve(p.page, "menuButton")
	if errors.Is(err, ErrElementNotFound) {
		p.logger.Debug("No menu button on this site; skipping.")
		return nil
	}
	if err != nil {
		return err
	}
	if err := p.Click(sel); err != nil {
		return err
	}
	return p.WaitFor(p.locators.Union("menuItems"), config.Timeouts.Standard)
}

// MenuItemCount opens the menu and counts its entries.
func (p *DashboardPage) MenuItemCount() (int, error) {
	if err := p.OpenMenu(); err != nil {
		return 0, err
	}
	return p.count("menuItems")
}

// MenuItems opens the menu and returns each entry's trimmed text.
func (p *DashboardPage) MenuItems() ([]string, error) {
	if err := p.OpenMenu(); err != nil {
		return nil, err
	}
	sel, err := p.locators.Resolve(p.page, "menuItems")
	if err != nil {
		return nil, err
	}
	items, err := p.page.Locator(sel).All()
	if err != nil {
		return nil, fmt.Errorf("list menu items: %w", err)
	}
	texts := make([]string, 0, len(items))
	for _, item := range items {
		text, err := item.TextContent()
		if err != nil {
			return nil, fmt.Errorf("read menu item: %w", err)
		}
		texts = append(texts, strings.TrimSpace(text))
	}
	return texts, nil
}

// ClickMenuItem clicks the first menu entry whose text contains label.
func (p *DashboardPage) ClickMenuItem(label string) error {
	texts, err := p.MenuItems()
	if err != nil {
		return err
	}
	sel, _ := p.locators.Resolve(p.page, "menuItems")
	for i, text := range texts {
		if strings.Contains(text, label) {
			if err := p.page.Locator(sel).Nth(i).Click(); err != nil {
				return fmt.Errorf("click menu item %q: %w", label, err)
			}
			return p.WaitForPageLoad()
		}
	}
	return &ElementNotFoundError{Selector: fmt.Sprintf("menu item %q", label), Candidates: texts}
}

// Logout opens the menu and clicks the logout link.
func (p *DashboardPage) Logout() error {
	if err := p.OpenMenu(); err != nil {
		return err
	}
	sel, err := p.locators.Resolve(p.page, "logout")
	if err != nil {
		return err
	}
	if err := p.Click(sel); err != nil {
		return err
	}
	return p.WaitForPageLoad()
}

// ApplyFilter selects value in the filter control named filterType.
func (p *DashboardPage) ApplyFilter(filterType, value string) error {
	sel := fmt.Sprintf(`select[aria-label*="%s"], [data-filter="%s"]`, filterType, strings.ToLower(filterType))
	if !p.Exists(sel) {
		// Fall back to the site's generic filter control.
		resolved, err := p.locators.Resolve(p.page, "filters")
		if err != nil {
			return &ElementNotFoundError{Selector: sel}
		}
		sel = resolved
	}
	if err := p.SelectOption(sel, value); err != nil {
		return err
	}
	return p.WaitForPageLoad()
}

// SortBy selects option in the sort control.
func (p *DashboardPage) SortBy(option string) error {
	sel, err := p.locators.Resolve(p.page, "sort")
	if err != nil {
		return err
	}
	if err := p.SelectOption(sel, option); err != nil {
		return err
	}
	return p.WaitForPageLoad()
}
