package apiclient

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/lancet/internal/config"
	"github.com/xkilldash9x/lancet/internal/testing/pwfake"
)

func newTestClient(handler func(pwfake.Call) (*pwfake.APIResponse, error)) (*Client, *pwfake.APIRequest) {
	req := &pwfake.APIRequest{Handler: handler}
	c := New(req, config.APIConfig{BaseURL: "https://api.example.com/", TimeoutMs: 2500}, zap.NewNop())
	return c, req
}

func TestClient_RequestShape(t *testing.T) {
	c, req := newTestClient(nil)
	ctx := context.Background()

	_, err := c.Get(ctx, "/users", WithQuery(map[string]interface{}{"page": 2}))
	require.NoError(t, err)
	_, err = c.WithAuth("tok").Post(ctx, "users", map[string]string{"name": "jane"}, WithHeader("X-Trace", "1"))
	require.NoError(t, err)
	_, err = c.Delete(ctx, "https://other.example.com/x", WithTimeout(time.Second))
	require.NoError(t, err)

	calls := req.Calls()
	require.Len(t, calls, 3)

	assert.Equal(t, "https://api.example.com/users", calls[0].URL)
	assert.Equal(t, "GET", *calls[0].Options.Method)
	assert.Equal(t, 2500.0, *calls[0].Options.Timeout)
	assert.Equal(t, map[string]interface{}{"page": 2}, calls[0].Options.Params)
	assert.NotContains(t, calls[0].Options.Headers, "Authorization")

	assert.Equal(t, "POST", *calls[1].Options.Method)
	assert.Equal(t, "Bearer tok", calls[1].Options.Headers["Authorization"])
	assert.Equal(t, "application/json", calls[1].Options.Headers["Content-Type"])
	assert.Equal(t, "1", calls[1].Options.Headers["X-Trace"])
	assert.Equal(t, map[string]string{"name": "jane"}, calls[1].Options.Data)

	assert.Equal(t, "https://other.example.com/x", calls[2].URL)
	assert.Equal(t, 1000.0, *calls[2].Options.Timeout)

	assert.NotContains(t, c.Headers(), "Authorization", "WithAuth does not mutate the original")
}

func TestClient_Defaults(t *testing.T) {
	c := New(&pwfake.APIRequest{}, config.APIConfig{BaseURL: "https://api.example.com"}, zap.NewNop())
	assert.Equal(t, defaultTimeout, c.timeout)
	assert.Equal(t, "https://api.example.com", c.BaseURL())
	assert.Equal(t, "https://api.example.com/a/b", c.URL("a/b"))
}

func TestClient_ResponseDecoding(t *testing.T) {
	var served []*pwfake.APIResponse
	var mu sync.Mutex
	c, _ := newTestClient(func(call pwfake.Call) (*pwfake.APIResponse, error) {
		resp := &pwfake.APIResponse{Code: 200, Reason: "OK", Header: map[string]string{"content-type": "application/json"}}
		switch call.URL {
		case "https://api.example.com/json":
			resp.Payload = []byte(`{"data":{"items":[{"id":7},{"id":8}]},"total":2}`)
		case "https://api.example.com/text":
			resp.Payload = []byte("plain words")
		case "https://api.example.com/missing":
			resp.Code, resp.Reason = 404, "Not Found"
			resp.Payload = []byte(`{"error":"nope"}`)
		}
		mu.Lock()
		served = append(served, resp)
		mu.Unlock()
		return resp, nil
	})
	ctx := context.Background()

	resp, err := c.Get(ctx, "json")
	require.NoError(t, err)
	assert.True(t, resp.OK)
	assert.Equal(t, 200, resp.Status)
	assert.Equal(t, "https://api.example.com/json", resp.URL)
	require.NoError(t, resp.ValidateKeys("data", "total"))
	err = resp.ValidateKeys("data", "next", "prev")
	require.ErrorIs(t, err, ErrMissingKeys)
	assert.Contains(t, err.Error(), "next, prev")

	id, err := resp.Extract("data.items.1.id")
	require.NoError(t, err)
	assert.Equal(t, 8.0, id)
	_, err = resp.Extract("data.items.5.id")
	assert.ErrorIs(t, err, ErrPathNotFound)
	_, err = resp.Extract("total.value")
	assert.ErrorIs(t, err, ErrPathNotFound)

	var typed struct {
		Total int `json:"total"`
	}
	require.NoError(t, resp.JSON(&typed))
	assert.Equal(t, 2, typed.Total)

	resp, err = c.Get(ctx, "text")
	require.NoError(t, err)
	assert.Equal(t, "plain words", resp.Body)
	assert.ErrorIs(t, resp.ValidateKeys("a"), ErrMissingKeys)

	resp, err = c.Get(ctx, "missing")
	require.NoError(t, err, "error statuses are not transport errors")
	assert.False(t, resp.OK)
	assert.Equal(t, "Not Found", resp.StatusText)

	mu.Lock()
	defer mu.Unlock()
	for _, r := range served {
		assert.True(t, r.Disposed())
	}
}

func TestClient_TransportError(t *testing.T) {
	boom := errors.New("connection refused")
	c, _ := newTestClient(func(pwfake.Call) (*pwfake.APIResponse, error) { return nil, boom })
	_, err := c.Head(context.Background(), "health")
	assert.ErrorIs(t, err, boom)
}

func TestClient_RateLimit(t *testing.T) {
	req := &pwfake.APIRequest{}
	c := New(req, config.APIConfig{BaseURL: "https://api.example.com", RatePerSecond: 0.001}, zap.NewNop())

	_, err := c.Get(context.Background(), "a")
	require.NoError(t, err, "the first call uses the burst")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = c.Get(ctx, "b")
	assert.Error(t, err)
	assert.Len(t, req.Calls(), 1)
}

type fakeRouter struct {
	mu       sync.Mutex
	handlers map[string]func(playwright.Route)
	unrouted []string
}

func (r *fakeRouter) Route(pattern string, handler func(playwright.Route)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.handlers == nil {
		r.handlers = make(map[string]func(playwright.Route))
	}
	r.handlers[pattern] = handler
	return nil
}

func (r *fakeRouter) Unroute(pattern string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.handlers, pattern)
	r.unrouted = append(r.unrouted, pattern)
	return nil
}

func (r *fakeRouter) serve(pattern string, route playwright.Route) bool {
	r.mu.Lock()
	h, ok := r.handlers[pattern]
	r.mu.Unlock()
	if ok {
		h(route)
	}
	return ok
}

func TestMocker(t *testing.T) {
	router := &fakeRouter{}
	m := NewMocker(router, zap.NewNop())

	require.NoError(t, m.MockJSON("**/api/users", []map[string]int{{"id": 1}}, 0))
	route := pwfake.NewRoute("GET", "https://app.test/api/users")
	require.True(t, router.serve("**/api/users", route))
	opts, ok := route.Fulfilled()
	require.True(t, ok)
	assert.Equal(t, 200, *opts.Status)
	assert.Equal(t, "application/json", *opts.ContentType)
	assert.JSONEq(t, `[{"id":1}]`, string(opts.Body.([]byte)))

	require.NoError(t, m.MockJSON("**/api/users", map[string]string{"error": "down"}, 503))
	assert.Equal(t, []string{"**/api/users"}, router.unrouted, "re-mocking replaces the old handler")
	route = pwfake.NewRoute("GET", "https://app.test/api/users")
	router.serve("**/api/users", route)
	opts, _ = route.Fulfilled()
	assert.Equal(t, 503, *opts.Status)

	require.NoError(t, m.MockError("**/api/orders", ""))
	route = pwfake.NewRoute("POST", "https://app.test/api/orders")
	router.serve("**/api/orders", route)
	code, ok := route.Aborted()
	require.True(t, ok)
	assert.Equal(t, "failed", code)
	assert.Equal(t, 2, m.Patterns())

	require.NoError(t, m.Unmock("**/api/orders"))
	require.NoError(t, m.Unmock("**/never-mocked"))
	assert.Equal(t, 1, m.Patterns())
	assert.False(t, router.serve("**/api/orders", pwfake.NewRoute("POST", "x")))
}

func TestTracker(t *testing.T) {
	page := pwfake.NewPage("about:blank")
	tr := NewTracker(page)
	clock := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	tr.now = func() time.Time { return clock }

	before := &pwfake.Request{Addr: "https://app.test/ignored", Verb: "GET"}
	page.EmitRequest(before)
	assert.Empty(t, tr.Requests(), "nothing is recorded before StartTracking")

	tr.StartTracking()
	tr.StartTracking() // restarting must not double-record

	users := &pwfake.Request{Addr: "https://app.test/API/users", Verb: "GET"}
	create := &pwfake.Request{Addr: "https://app.test/api/users", Verb: "POST"}
	slow := &pwfake.Request{Addr: "https://app.test/api/report", Verb: "GET"}
	page.EmitRequest(users)
	page.EmitRequest(create)
	page.EmitRequest(slow)

	clock = clock.Add(100 * time.Millisecond)
	page.EmitResponse(&pwfake.Response{Addr: users.Addr, Code: 200, Req: users})
	clock = clock.Add(200 * time.Millisecond)
	page.EmitResponse(&pwfake.Response{Addr: create.Addr, Code: 422, Req: create})
	page.EmitResponse(&pwfake.Response{Addr: before.Addr, Code: 200, Req: before})

	tr.StopTracking()
	page.EmitRequest(&pwfake.Request{Addr: "https://app.test/after", Verb: "GET"})

	reqs := tr.Requests()
	require.Len(t, reqs, 3)
	assert.Equal(t, 200, reqs[0].Status)
	assert.Equal(t, 100*time.Millisecond, reqs[0].Duration)
	assert.False(t, reqs[2].Done)

	assert.Len(t, tr.Find("", "api/users"), 2)
	assert.Len(t, tr.Find("POST", "users"), 1)

	m := tr.Metrics()
	assert.Equal(t, 3, m.Total)
	assert.Equal(t, 1, m.Failed)
	assert.Equal(t, 1, m.Pending)
	assert.Equal(t, map[string]int{"GET": 2, "POST": 1}, m.ByMethod)
	assert.Equal(t, 200*time.Millisecond, m.Average)
}
