package pwfake

import (
	"sync"

	"github.com/playwright-community/playwright-go"
)

// Request is a fake playwright.Request.
type Request struct {
	playwright.Request

	Addr string
	Verb string
}

func (r *Request) URL() string    { return r.Addr }
func (r *Request) Method() string { return r.Verb }

// Response is a fake playwright.Response.
type Response struct {
	playwright.Response

	Addr string
	Code int
	Req  *Request
}

func (r *Response) URL() string                 { return r.Addr }
func (r *Response) Status() int                 { return r.Code }
func (r *Response) Ok() bool                    { return r.Code == 0 || (r.Code >= 200 && r.Code < 300) }
func (r *Response) Request() playwright.Request { return r.Req }

// Route is a fake playwright.Route recording how it was settled.
type Route struct {
	playwright.Route

	mu        sync.Mutex
	req       *Request
	fulfilled *playwright.RouteFulfillOptions
	aborted   *string
}

// NewRoute wraps an intercepted request.
func NewRoute(method, url string) *Route {
	return &Route{req: &Request{Addr: url, Verb: method}}
}

// Fulfilled returns the options passed to Fulfill, if it was called.
func (r *Route) Fulfilled() (playwright.RouteFulfillOptions, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fulfilled == nil {
		return playwright.RouteFulfillOptions{}, false
	}
	return *r.fulfilled, true
}

// Aborted returns the error code passed to Abort, if it was called.
func (r *Route) Aborted() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.aborted == nil {
		return "", false
	}
	return *r.aborted, true
}

func (r *Route) Request() playwright.Request { return r.req }

func (r *Route) Fulfill(options ...playwright.RouteFulfillOptions) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var opts playwright.RouteFulfillOptions
	if len(options) > 0 {
		opts = options[0]
	}
	r.fulfilled = &opts
	return nil
}

func (r *Route) Abort(errorCode ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	code := "failed"
	if len(errorCode) > 0 {
		code = errorCode[0]
	}
	r.aborted = &code
	return nil
}

// network holds the page's request and response listeners.
type network struct {
	mu        sync.Mutex
	onRequest []func(playwright.Request)
	onResp    []func(playwright.Response)
}

func (p *Page) OnRequest(fn func(playwright.Request)) {
	p.net.mu.Lock()
	defer p.net.mu.Unlock()
	p.net.onRequest = append(p.net.onRequest, fn)
}

func (p *Page) OnResponse(fn func(playwright.Response)) {
	p.net.mu.Lock()
	defer p.net.mu.Unlock()
	p.net.onResp = append(p.net.onResp, fn)
}

// EmitRequest delivers req to every request listener.
func (p *Page) EmitRequest(req *Request) {
	p.net.mu.Lock()
	fns := append([]func(playwright.Request){}, p.net.onRequest...)
	p.net.mu.Unlock()
	for _, fn := range fns {
		fn(req)
	}
}

// EmitResponse delivers resp to every response listener.
func (p *Page) EmitResponse(resp *Response) {
	p.net.mu.Lock()
	fns := append([]func(playwright.Response){}, p.net.onResp...)
	p.net.mu.Unlock()
	for _, fn := range fns {
		fn(resp)
	}
}
