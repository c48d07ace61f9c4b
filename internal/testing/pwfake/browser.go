package pwfake

import (
	"fmt"
	"slices"
	"sync"

	"github.com/playwright-community/playwright-go"
)

// Browser is a fake playwright.Browser. It keeps an ordered event log of
// context and page lifecycle so tests can assert sequencing.
type Browser struct {
	playwright.Browser

	mu       sync.Mutex
	contexts []*Context
	events   []string
	closed   int

	// NewPageFunc builds the page for each new context. Defaults to a blank page.
	NewPageFunc func() *Page

	NewContextErr error
	NewPageErr    error
	CloseErr      error
}

// NewBrowser returns a connected fake browser.
func NewBrowser() *Browser {
	return &Browser{}
}

func (b *Browser) log(event string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
}

// Events returns the lifecycle log, e.g. "context-open:1", "page-close:1".
func (b *Browser) Events() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.events)
}

// FakeContexts returns every context created so far.
func (b *Browser) FakeContexts() []*Context {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.contexts)
}

// CloseCount is the number of Close calls.
func (b *Browser) CloseCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

// OpenContexts counts contexts that have not been closed.
func (b *Browser) OpenContexts() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, c := range b.contexts {
		if !c.Closed() {
			n++
		}
	}
	return n
}

func (b *Browser) NewContext(options ...playwright.BrowserNewContextOptions) (playwright.BrowserContext, error) {
	b.mu.Lock()
	if b.NewContextErr != nil {
		err := b.NewContextErr
		b.mu.Unlock()
		return nil, err
	}
	c := &Context{browser: b, ID: len(b.contexts) + 1}
	if len(options) > 0 {
		c.Options = options[0]
	}
	b.contexts = append(b.contexts, c)
	b.mu.Unlock()

	b.log(fmt.Sprintf("context-open:%d", c.ID))
	return c, nil
}

func (b *Browser) Close(options ...playwright.BrowserCloseOptions) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed++
	b.events = append(b.events, "browser-close")
	return b.CloseErr
}

func (b *Browser) Version() string { return "fake-1.0" }

func (b *Browser) IsConnected() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed == 0
}

// Context is a fake playwright.BrowserContext.
type Context struct {
	playwright.BrowserContext

	browser *Browser
	ID      int
	Options playwright.BrowserNewContextOptions

	mu     sync.Mutex
	page   *Page
	closed bool

	CloseErr error
}

// Page returns the page created in this context, if any.
func (c *Context) Page() *Page {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.page
}

// Closed reports whether Close was called.
func (c *Context) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Context) NewPage() (playwright.Page, error) {
	c.browser.mu.Lock()
	err := c.browser.NewPageErr
	factory := c.browser.NewPageFunc
	c.browser.mu.Unlock()
	if err != nil {
		return nil, err
	}

	page := NewPage("about:blank")
	if factory != nil {
		page = factory()
	}
	id := c.ID
	page.mu.Lock()
	page.onClose = func() { c.browser.log(fmt.Sprintf("page-close:%d", id)) }
	page.mu.Unlock()

	c.mu.Lock()
	c.page = page
	c.mu.Unlock()
	c.browser.log(fmt.Sprintf("page-open:%d", id))
	return page, nil
}

func (c *Context) Close(options ...playwright.BrowserContextCloseOptions) error {
	c.mu.Lock()
	c.closed = true
	err := c.CloseErr
	c.mu.Unlock()
	c.browser.log(fmt.Sprintf("context-close:%d", c.ID))
	return err
}
