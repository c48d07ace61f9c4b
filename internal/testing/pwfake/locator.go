package pwfake

import (
	"fmt"

	"github.com/playwright-community/playwright-go"
)

// pwLocator lets Locator embed the interface without the field name
// shadowing the interface's own Locator method.
type pwLocator = playwright.Locator

// Locator is a fake playwright.Locator resolving against its Page's DOM.
type Locator struct {
	pwLocator

	page     *Page
	selector string
	// nth is -1 for the whole match set.
	nth int
}

func (l *Locator) element() (*Element, bool) {
	el, ok := l.page.lookup(l.selector)
	if !ok || el.Count == 0 {
		return nil, false
	}
	if l.nth >= el.Count {
		return nil, false
	}
	return el, true
}

func (l *Locator) Count() (int, error) {
	l.page.mu.Lock()
	countErr := l.page.CountErr
	l.page.mu.Unlock()
	if countErr != nil {
		return 0, countErr
	}
	el, ok := l.element()
	if !ok {
		return 0, nil
	}
	if l.nth >= 0 {
		return 1, nil
	}
	return el.Count, nil
}

func (l *Locator) First() playwright.Locator {
	return &Locator{page: l.page, selector: l.selector, nth: 0}
}

func (l *Locator) Nth(index int) playwright.Locator {
	return &Locator{page: l.page, selector: l.selector, nth: index}
}

func (l *Locator) All() ([]playwright.Locator, error) {
	n, _ := l.Count()
	all := make([]playwright.Locator, 0, n)
	for i := 0; i < n; i++ {
		all = append(all, l.Nth(i))
	}
	return all, nil
}

func (l *Locator) act(verb string) (*Element, error) {
	el, ok := l.element()
	if !ok {
		return nil, errMissing(l.selector)
	}
	l.page.record(verb + ":" + l.selector)
	return el, nil
}

func (l *Locator) Fill(value string, options ...playwright.LocatorFillOptions) error {
	el, err := l.act("fill")
	if err != nil {
		return err
	}
	l.page.mu.Lock()
	el.Value = value
	l.page.mu.Unlock()
	return nil
}

func (l *Locator) Clear(options ...playwright.LocatorClearOptions) error {
	el, err := l.act("clear")
	if err != nil {
		return err
	}
	l.page.mu.Lock()
	el.Value = ""
	l.page.mu.Unlock()
	return nil
}

func (l *Locator) PressSequentially(text string, options ...playwright.LocatorPressSequentiallyOptions) error {
	el, err := l.act("type")
	if err != nil {
		return err
	}
	l.page.mu.Lock()
	el.Value += text
	l.page.mu.Unlock()
	return nil
}

func (l *Locator) Press(key string, options ...playwright.LocatorPressOptions) error {
	if _, err := l.act("press"); err != nil {
		return err
	}
	l.page.mu.Lock()
	l.page.keys = append(l.page.keys, key)
	l.page.mu.Unlock()
	return nil
}

func (l *Locator) Click(options ...playwright.LocatorClickOptions) error {
	verb := "click"
	if len(options) > 0 && options[0].Button != nil && *options[0].Button == *playwright.MouseButtonRight {
		verb = "rightclick"
	}
	if _, err := l.act(verb); err != nil {
		return err
	}
	l.page.mu.Lock()
	fn := l.page.onClick[l.selector]
	l.page.mu.Unlock()
	if fn != nil {
		fn(l.page)
	}
	return nil
}

func (l *Locator) Dblclick(options ...playwright.LocatorDblclickOptions) error {
	_, err := l.act("dblclick")
	return err
}

func (l *Locator) Hover(options ...playwright.LocatorHoverOptions) error {
	_, err := l.act("hover")
	return err
}

func (l *Locator) Check(options ...playwright.LocatorCheckOptions) error {
	el, err := l.act("check")
	if err != nil {
		return err
	}
	l.page.mu.Lock()
	el.Checked = true
	l.page.mu.Unlock()
	return nil
}

func (l *Locator) IsChecked(options ...playwright.LocatorIsCheckedOptions) (bool, error) {
	el, ok := l.element()
	if !ok {
		return false, errMissing(l.selector)
	}
	l.page.mu.Lock()
	defer l.page.mu.Unlock()
	return el.Checked, nil
}

func (l *Locator) SelectOption(values playwright.SelectOptionValues, options ...playwright.LocatorSelectOptionOptions) ([]string, error) {
	el, err := l.act("select")
	if err != nil {
		return nil, err
	}
	var selected []string
	if values.Values != nil {
		selected = append(selected, *values.Values...)
	}
	l.page.mu.Lock()
	el.Selected = selected
	l.page.mu.Unlock()
	return selected, nil
}

func (l *Locator) TextContent(options ...playwright.LocatorTextContentOptions) (string, error) {
	el, ok := l.element()
	if !ok {
		return "", errMissing(l.selector)
	}
	l.page.mu.Lock()
	defer l.page.mu.Unlock()
	return el.Text, nil
}

func (l *Locator) InnerText(options ...playwright.LocatorInnerTextOptions) (string, error) {
	return l.TextContent()
}

func (l *Locator) GetAttribute(name string, options ...playwright.LocatorGetAttributeOptions) (string, error) {
	el, ok := l.element()
	if !ok {
		return "", errMissing(l.selector)
	}
	l.page.mu.Lock()
	defer l.page.mu.Unlock()
	return el.Attrs[name], nil
}

func (l *Locator) InputValue(options ...playwright.LocatorInputValueOptions) (string, error) {
	el, ok := l.element()
	if !ok {
		return "", errMissing(l.selector)
	}
	l.page.mu.Lock()
	defer l.page.mu.Unlock()
	return el.Value, nil
}

func (l *Locator) IsVisible(options ...playwright.LocatorIsVisibleOptions) (bool, error) {
	el, ok := l.element()
	if !ok {
		return false, nil
	}
	l.page.mu.Lock()
	defer l.page.mu.Unlock()
	return !el.Hidden, nil
}

// WaitFor resolves immediately: it succeeds when the element is already in
// the requested state and times out otherwise.
func (l *Locator) WaitFor(options ...playwright.LocatorWaitForOptions) error {
	state := playwright.WaitForSelectorStateVisible
	if len(options) > 0 && options[0].State != nil {
		state = options[0].State
	}
	visible, _ := l.IsVisible()
	_, attached := l.element()

	var ok bool
	switch *state {
	case *playwright.WaitForSelectorStateVisible:
		ok = visible
	case *playwright.WaitForSelectorStateHidden:
		ok = !visible
	case *playwright.WaitForSelectorStateAttached:
		ok = attached
	case *playwright.WaitForSelectorStateDetached:
		ok = !attached
	}
	if !ok {
		return fmt.Errorf("waiting for locator(%q) to be %s: %w", l.selector, *state, playwright.ErrTimeout)
	}
	return nil
}
