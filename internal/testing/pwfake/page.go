// Package pwfake provides in-memory stand-ins for the playwright-go driver
// interfaces. Each fake embeds the real interface and overrides only the
// methods lancet calls; anything else panics on the nil embedded value.
package pwfake

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/playwright-community/playwright-go"
)

// Element is a node in the fake DOM, addressed by its selector.
type Element struct {
	// Count is the number of matches. Set defaults it to 1.
	Count    int
	Text     string
	Hidden   bool
	Value    string
	Checked  bool
	Attrs    map[string]string
	Selected []string
}

// Page is a fake playwright.Page over a selector-keyed element table.
type Page struct {
	playwright.Page

	mu          sync.Mutex
	url         string
	title       string
	elements    map[string]*Element
	onClick     map[string]func(*Page)
	actions     []string
	gotos       []string
	keys        []string
	screenshots []playwright.PageScreenshotOptions
	dialogs     []func(playwright.Dialog)
	closed      bool
	width       int
	height      int
	timeout     float64
	navTimeout  float64
	request     playwright.APIRequestContext
	onClose     func()
	net         network

	GotoErr       error
	CloseErr      error
	ScreenshotErr error
	// CountErr is returned by every Locator.Count, as a detached frame would.
	CountErr error
}

// NewPage returns a page positioned at url with an empty DOM.
func NewPage(url string) *Page {
	return &Page{
		url:      url,
		elements: make(map[string]*Element),
		onClick:  make(map[string]func(*Page)),
	}
}

// Set places el under selector, replacing whatever was there.
func (p *Page) Set(selector string, el Element) *Page {
	p.mu.Lock()
	defer p.mu.Unlock()
	if el.Count == 0 {
		el.Count = 1
	}
	p.elements[selector] = &el
	return p
}

// Remove deletes selector from the DOM.
func (p *Page) Remove(selector string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.elements, selector)
}

// OnClick runs fn after every click on selector. It is called without the
// page lock held, so fn may use the page's exported helpers.
func (p *Page) OnClick(selector string, fn func(*Page)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onClick[selector] = fn
}

// SetURL changes the current URL, as a navigation would.
func (p *Page) SetURL(url string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.url = url
}

// SetTitle changes the document title.
func (p *Page) SetTitle(title string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.title = title
}

// SetRequest attaches the API request context returned by Request.
func (p *Page) SetRequest(r playwright.APIRequestContext) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.request = r
}

// Element returns a copy of the element under selector.
func (p *Page) Element(selector string) (Element, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	el, ok := p.elements[selector]
	if !ok {
		return Element{}, false
	}
	return *el, true
}

// Actions lists recorded interactions as "verb:selector" strings.
func (p *Page) Actions() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.actions)
}

// Gotos lists every URL passed to Goto.
func (p *Page) Gotos() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.gotos)
}

// Keys lists every key pressed through the keyboard or a locator.
func (p *Page) Keys() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.keys)
}

// Screenshots lists the options of every Screenshot call.
func (p *Page) Screenshots() []playwright.PageScreenshotOptions {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.screenshots)
}

// Viewport returns the size last passed to SetViewportSize.
func (p *Page) Viewport() (int, int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.width, p.height
}

// Timeouts returns the default and navigation timeouts in milliseconds.
func (p *Page) Timeouts() (float64, float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.timeout, p.navTimeout
}

// DialogHandlers returns the number of registered dialog listeners.
func (p *Page) DialogHandlers() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.dialogs)
}

// Closed reports whether Close was called.
func (p *Page) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

func (p *Page) record(action string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.actions = append(p.actions, action)
}

// lookup matches selector exactly, then treats it as a selector list and
// returns the first member present.
func (p *Page) lookup(selector string) (*Element, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if el, ok := p.elements[selector]; ok {
		return el, true
	}
	for _, part := range strings.Split(selector, ",") {
		if el, ok := p.elements[strings.TrimSpace(part)]; ok {
			return el, true
		}
	}
	return nil, false
}

// -- playwright.Page --

func (p *Page) Locator(selector string, options ...playwright.PageLocatorOptions) playwright.Locator {
	return &Locator{page: p, selector: selector, nth: -1}
}

func (p *Page) Goto(url string, options ...playwright.PageGotoOptions) (playwright.Response, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.gotos = append(p.gotos, url)
	if p.GotoErr != nil {
		return nil, p.GotoErr
	}
	p.url = url
	return nil, nil
}

func (p *Page) URL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url
}

func (p *Page) Title() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.title, nil
}

func (p *Page) SetViewportSize(width int, height int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.width, p.height = width, height
	return nil
}

func (p *Page) SetDefaultTimeout(timeout float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.timeout = timeout
}

func (p *Page) SetDefaultNavigationTimeout(timeout float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.navTimeout = timeout
}

func (p *Page) WaitForLoadState(options ...playwright.PageWaitForLoadStateOptions) error {
	return nil
}

func (p *Page) Reload(options ...playwright.PageReloadOptions) (playwright.Response, error) {
	p.record("reload:")
	return nil, nil
}

func (p *Page) GoBack(options ...playwright.PageGoBackOptions) (playwright.Response, error) {
	p.record("back:")
	return nil, nil
}

// Screenshot writes a placeholder PNG when a path is given.
func (p *Page) Screenshot(options ...playwright.PageScreenshotOptions) ([]byte, error) {
	p.mu.Lock()
	var opts playwright.PageScreenshotOptions
	if len(options) > 0 {
		opts = options[0]
	}
	p.screenshots = append(p.screenshots, opts)
	err := p.ScreenshotErr
	p.mu.Unlock()

	if err != nil {
		return nil, err
	}
	data := []byte("\x89PNG fake")
	if opts.Path != nil {
		if err := os.MkdirAll(filepath.Dir(*opts.Path), 0o755); err != nil {
			return nil, err
		}
		if err := os.WriteFile(*opts.Path, data, 0o644); err != nil {
			return nil, err
		}
	}
	return data, nil
}

func (p *Page) Keyboard() playwright.Keyboard {
	return &Keyboard{page: p}
}

func (p *Page) Request() playwright.APIRequestContext {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.request
}

func (p *Page) OnDialog(fn func(playwright.Dialog)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.dialogs = append(p.dialogs, fn)
}

func (p *Page) IsClosed() bool { return p.Closed() }

func (p *Page) Close(options ...playwright.PageCloseOptions) error {
	p.mu.Lock()
	p.closed = true
	onClose := p.onClose
	err := p.CloseErr
	p.mu.Unlock()

	if onClose != nil {
		onClose()
	}
	return err
}

// Keyboard is a fake playwright.Keyboard bound to a Page.
type Keyboard struct {
	playwright.Keyboard
	page *Page
}

func (k *Keyboard) Press(key string, options ...playwright.KeyboardPressOptions) error {
	k.page.mu.Lock()
	defer k.page.mu.Unlock()
	k.page.keys = append(k.page.keys, key)
	return nil
}

// errMissing mimics the driver's timeout when an action targets nothing.
func errMissing(selector string) error {
	return fmt.Errorf("waiting for locator(%q): %w", selector, playwright.ErrTimeout)
}
