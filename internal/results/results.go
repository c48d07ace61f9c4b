// Package results classifies scenario outcomes and summarizes a run.
package results

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cucumber/godog"
	"github.com/samber/lo"
)

// Status is the outcome of one scenario.
type Status int

const (
	Passed Status = iota
	Failed
	Skipped
	Pending
	Undefined
	Ambiguous
)

var statusNames = map[Status]string{
	Passed:    "PASSED",
	Failed:    "FAILED",
	Skipped:   "SKIPPED",
	Pending:   "PENDING",
	Undefined: "UNDEFINED",
	Ambiguous: "AMBIGUOUS",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// severity orders statuses so the worst step decides the scenario.
var severity = map[Status]int{
	Passed:    0,
	Skipped:   1,
	Pending:   2,
	Undefined: 3,
	Ambiguous: 4,
	Failed:    5,
}

// Worse returns whichever of a and b is more severe.
func Worse(a, b Status) Status {
	if severity[b] > severity[a] {
		return b
	}
	return a
}

// FromError maps the error godog hands to an After hook onto a Status.
func FromError(err error) Status {
	switch {
	case err == nil:
		return Passed
	case errors.Is(err, godog.ErrSkip):
		return Skipped
	case errors.Is(err, godog.ErrPending):
		return Pending
	case errors.Is(err, godog.ErrUndefined):
		return Undefined
	case errors.Is(err, godog.ErrAmbiguous):
		return Ambiguous
	default:
		return Failed
	}
}

// FromStepStatus maps a godog step status onto a Status.
func FromStepStatus(st godog.StepResultStatus) Status {
	switch st {
	case godog.StepPassed:
		return Passed
	case godog.StepFailed:
		return Failed
	case godog.StepSkipped:
		return Skipped
	case godog.StepPending:
		return Pending
	case godog.StepUndefined:
		return Undefined
	case godog.StepAmbiguous:
		return Ambiguous
	default:
		return Failed
	}
}

// Record is the logged outcome of one scenario.
type Record struct {
	Scenario   string
	Status     Status
	Duration   time.Duration
	Screenshot string
	Err        error
}

// Summary accumulates scenario outcomes. It is safe for concurrent use.
type Summary struct {
	mu      sync.Mutex
	started time.Time
	ended   time.Time
	records []Record
}

// NewSummary starts a summary clock at start.
func NewSummary(start time.Time) *Summary {
	return &Summary{started: start}
}

// Add records one scenario outcome.
func (s *Summary) Add(r Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, r)
}

// Finish stops the summary clock.
func (s *Summary) Finish(end time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ended = end
}

// Duration is the wall-clock time between start and Finish.
func (s *Summary) Duration() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended.IsZero() {
		return 0
	}
	return s.ended.Sub(s.started)
}

// Records returns a copy of every recorded outcome.
func (s *Summary) Records() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Record(nil), s.records...)
}

// Counts returns the number of scenarios per status.
func (s *Summary) Counts() map[Status]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return lo.CountValuesBy(s.records, func(r Record) Status { return r.Status })
}

// Total is the number of recorded scenarios.
func (s *Summary) Total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// Failed reports whether any scenario failed.
func (s *Summary) Failed() bool {
	return s.Counts()[Failed] > 0
}

// ExitCode combines the summary with godog's own status: non-zero iff a
// scenario failed or godog reported a failure.
func (s *Summary) ExitCode(godogStatus int) int {
	if godogStatus != 0 || s.Failed() {
		return 1
	}
	return 0
}

// String renders "3 scenarios (2 passed, 1 failed) in 4.2s".
func (s *Summary) String() string {
	counts := s.Counts()
	statuses := lo.Keys(counts)
	sort.Slice(statuses, func(i, j int) bool { return statuses[i] < statuses[j] })

	parts := lo.Map(statuses, func(st Status, _ int) string {
		return fmt.Sprintf("%d %s", counts[st], strings.ToLower(st.String()))
	})
	total := s.Total()
	noun := "scenarios"
	if total == 1 {
		noun = "scenario"
	}
	out := fmt.Sprintf("%d %s", total, noun)
	if len(parts) > 0 {
		out += " (" + strings.Join(parts, ", ") + ")"
	}
	return out + " in " + s.Duration().Round(time.Millisecond).String()
}
