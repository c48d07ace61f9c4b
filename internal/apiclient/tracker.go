// File: internal/apiclient/tracker.go
package apiclient

import (
	"strings"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/samber/lo"
)

// EventSource is the part of a page that reports network traffic.
type EventSource interface {
	OnRequest(fn func(playwright.Request))
	OnResponse(fn func(playwright.Response))
}

// TrackedRequest is one observed request and, once it arrives, its response.
type TrackedRequest struct {
	Method   string
	URL      string
	Status   int
	Started  time.Time
	Duration time.Duration
	Done     bool
}

// Metrics summarizes tracked traffic.
type Metrics struct {
	Total    int
	Failed   int
	Pending  int
	ByMethod map[string]int
	Average  time.Duration
}

// Tracker records page requests between StartTracking and StopTracking.
// Listeners are attached once; stopping only stops recording.
type Tracker struct {
	source EventSource
	now    func() time.Time

	once     sync.Once
	mu       sync.Mutex
	active   bool
	requests []*TrackedRequest
	inflight map[playwright.Request]*TrackedRequest
}

// NewTracker observes source.
func NewTracker(source EventSource) *Tracker {
	return &Tracker{source: source, now: time.Now, inflight: make(map[playwright.Request]*TrackedRequest)}
}

// StartTracking clears previous records and begins recording.
func (t *Tracker) StartTracking() {
	t.once.Do(func() {
		t.source.OnRequest(t.onRequest)
		t.source.OnResponse(t.onResponse)
	})
	t.mu.Lock()
	defer t.mu.Unlock()
	t.active = true
	t.requests = nil
	clear(t.inflight)
}

// StopTracking stops recording; collected requests are kept.
func (t *Tracker) StopTracking() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.active = false
}

func (t *Tracker) onRequest(req playwright.Request) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.active {
		return
	}
	tr := &TrackedRequest{Method: req.Method(), URL: req.URL(), Started: t.now()}
	t.requests = append(t.requests, tr)
	t.inflight[req] = tr
}

func (t *Tracker) onResponse(resp playwright.Response) {
	t.mu.Lock()
	defer t.mu.Unlock()
	req := resp.Request()
	tr, ok := t.inflight[req]
	if !ok {
		return
	}
	delete(t.inflight, req)
	tr.Status = resp.Status()
	tr.Duration = t.now().Sub(tr.Started)
	tr.Done = true
}

// Requests returns a snapshot of the tracked requests in arrival order.
func (t *Tracker) Requests() []TrackedRequest {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]TrackedRequest, 0, len(t.requests))
	for _, r := range t.requests {
		out = append(out, *r)
	}
	return out
}

// Find returns tracked requests with method (any when empty) whose URL
// contains fragment, ignoring case.
func (t *Tracker) Find(method, fragment string) []TrackedRequest {
	return lo.Filter(t.Requests(), func(r TrackedRequest, _ int) bool {
		return (method == "" || r.Method == method) && containsFold(r.URL, fragment)
	})
}

// Metrics summarizes what was tracked. Statuses of 400 and above count as
// failed.
func (t *Tracker) Metrics() Metrics {
	reqs := t.Requests()
	m := Metrics{
		Total:    len(reqs),
		ByMethod: lo.CountValuesBy(reqs, func(r TrackedRequest) string { return r.Method }),
	}
	done := lo.Filter(reqs, func(r TrackedRequest, _ int) bool { return r.Done })
	m.Pending = m.Total - len(done)
	m.Failed = lo.CountBy(done, func(r TrackedRequest) bool { return r.Status >= 400 })
	if len(done) > 0 {
		m.Average = lo.SumBy(done, func(r TrackedRequest) time.Duration { return r.Duration }) / time.Duration(len(done))
	}
	return m
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
