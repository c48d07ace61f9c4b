// File: internal/pages/base.go
package pages

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/lancet/internal/artifacts"
	"github.com/xkilldash9x/lancet/internal/config"
)

// BasePage wraps a driver page with element operations that fail fast with
// *ElementNotFoundError when a selector matches nothing.
type BasePage struct {
	page   playwright.Page
	logger *zap.Logger

	dialogMu        sync.Mutex
	dialogInstalled bool
	dialogQueue     []bool
}

// NewBasePage wraps page.
func NewBasePage(page playwright.Page, logger *zap.Logger) *BasePage {
	return &BasePage{page: page, logger: logger.Named("page")}
}

// Page returns the underlying driver page.
func (b *BasePage) Page() playwright.Page { return b.page }

// locate returns the first match for selector, or *ElementNotFoundError.
func (b *BasePage) locate(selector string) (playwright.Locator, error) {
	loc := b.page.Locator(selector)
	n, err := loc.Count()
	if err != nil {
		return nil, fmt.Errorf("counting %q: %w", selector, err)
	}
	if n == 0 {
		return nil, &ElementNotFoundError{Selector: selector}
	}
	return loc.First(), nil
}

// Goto navigates to url and waits for the network to go idle.
func (b *BasePage) Goto(url string) error {
	b.logger.Debug("Navigating.", zap.String("url", url))
	if _, err := b.page.Goto(url, playwright.PageGotoOptions{WaitUntil: playwright.WaitUntilStateNetworkidle}); err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	return nil
}

// CurrentURL is the page's current address.
func (b *BasePage) CurrentURL() string { return b.page.URL() }

// Title is the document title.
func (b *BasePage) Title() (string, error) {
	title, err := b.page.Title()
	if err != nil {
		return "", fmt.Errorf("read title: %w", err)
	}
	return title, nil
}

// Fill replaces the value of the first element matching selector.
func (b *BasePage) Fill(selector, value string) error {
	loc, err := b.locate(selector)
	if err != nil {
		return err
	}
	if err := loc.Fill(value); err != nil {
		return fmt.Errorf("fill %q: %w", selector, err)
	}
	return nil
}

// Click clicks the first element matching selector.
func (b *BasePage) Click(selector string) error {
	loc, err := b.locate(selector)
	if err != nil {
		return err
	}
	if err := loc.Click(); err != nil {
		return fmt.Errorf("click %q: %w", selector, err)
	}
	return nil
}

// Text returns the text content of the first element matching selector.
func (b *BasePage) Text(selector string) (string, error) {
	loc, err := b.locate(selector)
	if err != nil {
		return "", err
	}
	text, err := loc.TextContent()
	if err != nil {
		return "", fmt.Errorf("read text of %q: %w", selector, err)
	}
	return text, nil
}

// IsVisible reports whether selector matches a visible element. Any error
// counts as not visible.
func (b *BasePage) IsVisible(selector string) bool {
	visible, err := b.page.Locator(selector).First().IsVisible()
	return err == nil && visible
}

// WaitFor waits up to timeout for selector to become visible.
func (b *BasePage) WaitFor(selector string, timeout time.Duration) error {
	return b.waitState(selector, playwright.WaitForSelectorStateVisible, timeout)
}

// WaitForHidden waits up to timeout for selector to be hidden or detached.
func (b *BasePage) WaitForHidden(selector string, timeout time.Duration) error {
	return b.waitState(selector, playwright.WaitForSelectorStateHidden, timeout)
}

func (b *BasePage) waitState(selector string, state *playwright.WaitForSelectorState, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = config.Timeouts.Standard
	}
	err := b.page.Locator(selector).First().WaitFor(playwright.LocatorWaitForOptions{
		State:   state,
		Timeout: playwright.Float(config.Millis(timeout)),
	})
	if err != nil {
		return fmt.Errorf("wait for %q to be %s: %w", selector, *state, err)
	}
	return nil
}

// Attribute returns attribute name of the first element matching selector.
func (b *BasePage) Attribute(selector, name string) (string, error) {
	loc, err := b.locate(selector)
	if err != nil {
		return "", err
	}
	v, err := loc.GetAttribute(name)
	if err != nil {
		return "", fmt.Errorf("read attribute %s of %q: %w", name, selector, err)
	}
	return v, nil
}

// SelectOption selects value in the first <select> matching selector.
func (b *BasePage) SelectOption(selector, value string) error {
	loc, err := b.locate(selector)
	if err != nil {
		return err
	}
	if _, err := loc.SelectOption(playwright.SelectOptionValues{Values: playwright.StringSlice(value)}); err != nil {
		return fmt.Errorf("select %q in %q: %w", value, selector, err)
	}
	return nil
}

// Clear empties the first input matching selector.
func (b *BasePage) Clear(selector string) error {
	loc, err := b.locate(selector)
	if err != nil {
		return err
	}
	if err := loc.Clear(); err != nil {
		return fmt.Errorf("clear %q: %w", selector, err)
	}
	return nil
}

// Check ticks the first checkbox or radio matching selector.
func (b *BasePage) Check(selector string) error {
	loc, err := b.locate(selector)
	if err != nil {
		return err
	}
	if err := loc.Check(); err != nil {
		return fmt.Errorf("check %q: %w", selector, err)
	}
	return nil
}

// Count returns the number of elements matching selector.
func (b *BasePage) Count(selector string) (int, error) {
	n, err := b.page.Locator(selector).Count()
	if err != nil {
		return 0, fmt.Errorf("count %q: %w", selector, err)
	}
	return n, nil
}

// Exists reports whether selector matches at least one element.
func (b *BasePage) Exists(selector string) bool {
	n, err := b.Count(selector)
	return err == nil && n > 0
}

// PressKey presses key on the focused element.
func (b *BasePage) PressKey(key string) error {
	if err := b.page.Keyboard().Press(key); err != nil {
		return fmt.Errorf("press %s: %w", key, err)
	}
	return nil
}

// Type types text key by key into the first element matching selector.
func (b *BasePage) Type(selector, text string) error {
	loc, err := b.locate(selector)
	if err != nil {
		return err
	}
	if err := loc.PressSequentially(text); err != nil {
		return fmt.Errorf("type into %q: %w", selector, err)
	}
	return nil
}

// Hover moves the pointer over the first element matching selector.
func (b *BasePage) Hover(selector string) error {
	loc, err := b.locate(selector)
	if err != nil {
		return err
	}
	if err := loc.Hover(); err != nil {
		return fmt.Errorf("hover %q: %w", selector, err)
	}
	return nil
}

// DoubleClick double-clicks the first element matching selector.
func (b *BasePage) DoubleClick(selector string) error {
	loc, err := b.locate(selector)
	if err != nil {
		return err
	}
	if err := loc.Dblclick(); err != nil {
		return fmt.Errorf("double-click %q: %w", selector, err)
	}
	return nil
}

// RightClick right-clicks the first element matching selector.
func (b *BasePage) RightClick(selector string) error {
	loc, err := b.locate(selector)
	if err != nil {
		return err
	}
	if err := loc.Click(playwright.LocatorClickOptions{Button: playwright.MouseButtonRight}); err != nil {
		return fmt.Errorf("right-click %q: %w", selector, err)
	}
	return nil
}

// WaitForPageLoad waits until the network is idle.
func (b *BasePage) WaitForPageLoad() error {
	if err := b.page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{State: playwright.LoadStateNetworkidle}); err != nil {
		return fmt.Errorf("wait for page load: %w", err)
	}
	return nil
}

// Reload reloads the page and waits for the network to go idle.
func (b *BasePage) Reload() error {
	if _, err := b.page.Reload(playwright.PageReloadOptions{WaitUntil: playwright.WaitUntilStateNetworkidle}); err != nil {
		return fmt.Errorf("reload: %w", err)
	}
	return nil
}

// GoBack navigates back in history.
func (b *BasePage) GoBack() error {
	if _, err := b.page.GoBack(); err != nil {
		return fmt.Errorf("go back: %w", err)
	}
	return nil
}

// PageText returns the text content of <body>.
func (b *BasePage) PageText() (string, error) {
	return b.Text("body")
}

// Screenshot saves a full-page screenshot as <dir>/<name>-<timestamp>.png.
func (b *BasePage) Screenshot(dir, name string) (string, error) {
	if err := artifacts.EnsureDir(dir); err != nil {
		return "", err
	}
	path := filepath.Join(dir, fmt.Sprintf("%s-%s.png", artifacts.Name(name), artifacts.Timestamp(time.Now())))
	if _, err := b.page.Screenshot(playwright.PageScreenshotOptions{
		Path:     playwright.String(path),
		FullPage: playwright.Bool(true),
	}); err != nil {
		return "", fmt.Errorf("screenshot %s: %w", name, err)
	}
	return path, nil
}

// AcceptNextDialog accepts the next alert, confirm or prompt.
func (b *BasePage) AcceptNextDialog() { b.queueDialog(true) }

// DismissNextDialog dismisses the next alert, confirm or prompt.
func (b *BasePage) DismissNextDialog() { b.queueDialog(false) }

// queueDialog installs a single dialog listener on first use. Each dialog
// consumes one queued decision; with none queued it is dismissed, matching
// the driver's behavior without a listener.
func (b *BasePage) queueDialog(accept bool) {
	b.dialogMu.Lock()
	defer b.dialogMu.Unlock()
	b.dialogQueue = append(b.dialogQueue, accept)
	if b.dialogInstalled {
		return
	}
	b.dialogInstalled = true
	b.page.OnDialog(b.handleDialog)
}

func (b *BasePage) handleDialog(d playwright.Dialog) {
	b.dialogMu.Lock()
	accept := false
	if len(b.dialogQueue) > 0 {
		accept = b.dialogQueue[0]
		b.dialogQueue = b.dialogQueue[1:]
	}
	b.dialogMu.Unlock()

	var err error
	if accept {
		err = d.Accept()
	} else {
		err = d.Dismiss()
	}
	if err != nil {
		b.logger.Warn("Failed to handle dialog.", zap.Bool("accept", accept), zap.Error(err))
	}
}

// PendingDialogs is the number of queued dialog decisions.
func (b *BasePage) PendingDialogs() int {
	b.dialogMu.Lock()
	defer b.dialogMu.Unlock()
	return len(b.dialogQueue)
}
