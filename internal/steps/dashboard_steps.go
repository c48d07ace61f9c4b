// File: internal/steps/dashboard_steps.go
package steps

import (
	"context"
	"errors"
	"strings"

	"github.com/cucumber/godog"
	"github.com/samber/lo"

	"github.com/xkilldash9x/lancet/internal/config"
	"github.com/xkilldash9x/lancet/internal/fixtures"
	"github.com/xkilldash9x/lancet/internal/pages"
)

// sortOptions maps the wording used in features to the storefront's sort
// select values.
var sortOptions = map[string]string{
	"name ascending":   "az",
	"name descending":  "za",
	"price ascending":  "lohi",
	"price descending": "hilo",
}

func registerDashboardSteps(sc *godog.ScenarioContext) {
	sc.Step(`^the user navigates to the dashboard$`, navigateToDashboard)
	sc.Step(`^the user is on the dashboard$`, onDashboard)
	sc.Step(`^the dashboard title should be displayed$`, dashboardTitle)
	sc.Step(`^all dashboard widgets should be loaded$`, widgetsLoaded)
	sc.Step(`^the following statistics should be visible:$`, statisticsVisible)
	sc.Step(`^the main menu should contain the following items:$`, menuContains)
	sc.Step(`^the user enters "([^"]*)" in the search box$`, enterSearch)
	sc.Step(`^presses Enter$`, pressEnter)
	sc.Step(`^search results should be displayed$`, searchResultsDisplayed)
	sc.Step(`^the results count should be greater than (\d+)$`, resultsCountGreater)
	sc.Step(`^the user applies filters with the following values:$`, applyFilters)
	sc.Step(`^the user sorts by "([^"]*)" in (ascending|descending) order$`, sortBy)
	sc.Step(`^the results should be filtered and sorted correctly$`, filteredAndSorted)
	sc.Step(`^the product list should contain (\d+) items$`, productCount)
}

func dashboardPage(ctx context.Context) (*World, *pages.DashboardPage, error) {
	w, err := worldFor(ctx)
	if err != nil {
		return nil, nil, err
	}
	d, err := w.Dashboard()
	return w, d, err
}

func navigateToDashboard(ctx context.Context) error {
	_, d, err := dashboardPage(ctx)
	if err != nil {
		return err
	}
	if err := d.Navigate(); err != nil {
		return err
	}
	return d.WaitForLoaded()
}

func onDashboard(ctx context.Context) error {
	_, d, err := dashboardPage(ctx)
	if err != nil {
		return err
	}
	current := d.CurrentURL()
	return expect(samePath(current, d.URL()), "current page", d.URL(), current)
}

func dashboardTitle(ctx context.Context) error {
	_, d, err := dashboardPage(ctx)
	if err != nil {
		return err
	}
	heading, err := d.Heading()
	if err != nil {
		return err
	}
	return expect(heading != "" && d.IsHeadingVisible(), "dashboard title", "a visible heading", heading)
}

func widgetsLoaded(ctx context.Context) error {
	_, d, err := dashboardPage(ctx)
	if err != nil {
		return err
	}
	n, err := d.WidgetCount()
	if err != nil {
		return err
	}
	return expectGreater(n, 0, "dashboard widgets")
}

func statisticsVisible(ctx context.Context, table *godog.Table) error {
	_, d, err := dashboardPage(ctx)
	if err != nil {
		return err
	}
	text, err := d.PageText()
	if err != nil {
		return err
	}
	for _, row := range tableRows(table) {
		stat := row["Statistic"]
		if !containsFold(text, stat) {
			return &AssertionError{What: "statistic", Expected: stat, Actual: "not on page"}
		}
	}
	return nil
}

func menuContains(ctx context.Context, table *godog.Table) error {
	_, d, err := dashboardPage(ctx)
	if err != nil {
		return err
	}
	if err := d.OpenMenu(); err != nil {
		return err
	}
	items, err := d.MenuItems()
	if err != nil {
		return err
	}
	for _, row := range tableRows(table) {
		want := row["Menu Item"]
		if !lo.ContainsBy(items, func(item string) bool { return containsFold(item, want) }) {
			return &AssertionError{What: "menu item", Expected: want, Actual: items}
		}
	}
	return nil
}

func enterSearch(ctx context.Context, query string) error {
	_, d, err := dashboardPage(ctx)
	if err != nil {
		return err
	}
	return d.EnterSearch(query)
}

func pressEnter(ctx context.Context) error {
	w, err := worldFor(ctx)
	if err != nil {
		return err
	}
	base, err := w.Base()
	if err != nil {
		return err
	}
	if err := base.PressKey("Enter"); err != nil {
		return err
	}
	return base.WaitForPageLoad()
}

// searchResultsDisplayed polls because results render after the search
// request returns.
func searchResultsDisplayed(ctx context.Context) error {
	_, d, err := dashboardPage(ctx)
	if err != nil {
		return err
	}
	var n int
	err = fixtures.WaitFor(ctx, config.Timeouts.Standard, 0, func() (bool, error) {
		var cerr error
		n, cerr = d.SearchResultCount()
		return n > 0, cerr
	})
	if errors.Is(err, fixtures.ErrConditionTimeout) {
		return expectGreater(n, 0, "search results")
	}
	return err
}

func resultsCountGreater(ctx context.Context, than int) error {
	_, d, err := dashboardPage(ctx)
	if err != nil {
		return err
	}
	n, err := d.SearchResultCount()
	if err != nil {
		return err
	}
	return expectGreater(n, than, "search result count")
}

func applyFilters(ctx context.Context, table *godog.Table) error {
	_, d, err := dashboardPage(ctx)
	if err != nil {
		return err
	}
	for _, row := range tableRows(table) {
		if err := d.ApplyFilter(row["Filter Type"], row["Value"]); err != nil {
			return err
		}
	}
	return nil
}

func sortBy(ctx context.Context, field, order string) error {
	_, d, err := dashboardPage(ctx)
	if err != nil {
		return err
	}
	option, ok := sortOptions[strings.ToLower(field)+" "+order]
	if !ok {
		option = strings.ToLower(field)
	}
	return d.SortBy(option)
}

func filteredAndSorted(ctx context.Context) error {
	_, d, err := dashboardPage(ctx)
	if err != nil {
		return err
	}
	n, err := d.ProductCount()
	if err != nil {
		return err
	}
	return expectGreater(n, 0, "products after filtering")
}

func productCount(ctx context.Context, want int) error {
	_, d, err := dashboardPage(ctx)
	if err != nil {
		return err
	}
	n, err := d.ProductCount()
	if err != nil {
		return err
	}
	return expect(n == want, "product count", want, n)
}
