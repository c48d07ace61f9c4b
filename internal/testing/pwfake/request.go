package pwfake

import (
	"slices"
	"sync"

	"github.com/playwright-community/playwright-go"
)

// Call records a single Fetch.
type Call struct {
	URL     string
	Options playwright.APIRequestContextFetchOptions
}

// APIRequest is a fake playwright.APIRequestContext. Handler decides the
// response for each call; without one every call answers 200 with "{}".
type APIRequest struct {
	playwright.APIRequestContext

	mu    sync.Mutex
	calls []Call

	Handler func(call Call) (*APIResponse, error)
}

// Calls returns the recorded calls in order.
func (a *APIRequest) Calls() []Call {
	a.mu.Lock()
	defer a.mu.Unlock()
	return slices.Clone(a.calls)
}

func (a *APIRequest) Fetch(urlOrRequest interface{}, options ...playwright.APIRequestContextFetchOptions) (playwright.APIResponse, error) {
	call := Call{}
	if s, ok := urlOrRequest.(string); ok {
		call.URL = s
	}
	if len(options) > 0 {
		call.Options = options[0]
	}

	a.mu.Lock()
	a.calls = append(a.calls, call)
	handler := a.Handler
	a.mu.Unlock()

	if handler == nil {
		return &APIResponse{Code: 200, Payload: []byte("{}"), Addr: call.URL}, nil
	}
	resp, err := handler(call)
	if err != nil {
		return nil, err
	}
	if resp.Addr == "" {
		resp.Addr = call.URL
	}
	return resp, nil
}

// APIResponse is a fake playwright.APIResponse.
type APIResponse struct {
	playwright.APIResponse

	Code     int
	Reason   string
	Payload  []byte
	Header   map[string]string
	Addr     string
	disposed bool
}

func (r *APIResponse) Body() ([]byte, error) { return r.Payload, nil }

func (r *APIResponse) Text() (string, error) { return string(r.Payload), nil }

func (r *APIResponse) Status() int { return r.Code }

func (r *APIResponse) StatusText() string { return r.Reason }

func (r *APIResponse) Ok() bool { return r.Code >= 200 && r.Code <= 299 }

func (r *APIResponse) URL() string { return r.Addr }

func (r *APIResponse) Headers() map[string]string { return r.Header }

func (r *APIResponse) Dispose() error {
	r.disposed = true
	return nil
}

// Disposed reports whether Dispose was called.
func (r *APIResponse) Disposed() bool { return r.disposed }
