package results

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/cucumber/godog"
	"github.com/stretchr/testify/assert"
)

func TestFromError(t *testing.T) {
	tests := []struct {
		err  error
		want Status
	}{
		{nil, Passed},
		{godog.ErrSkip, Skipped},
		{godog.ErrPending, Pending},
		{fmt.Errorf("step: %w", godog.ErrUndefined), Undefined},
		{godog.ErrAmbiguous, Ambiguous},
		{errors.New("element not found"), Failed},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FromError(tt.err), "error %v", tt.err)
	}
}

func TestFromStepStatus(t *testing.T) {
	assert.Equal(t, Passed, FromStepStatus(godog.StepPassed))
	assert.Equal(t, Failed, FromStepStatus(godog.StepFailed))
	assert.Equal(t, Skipped, FromStepStatus(godog.StepSkipped))
	assert.Equal(t, Pending, FromStepStatus(godog.StepPending))
	assert.Equal(t, Undefined, FromStepStatus(godog.StepUndefined))
	assert.Equal(t, Ambiguous, FromStepStatus(godog.StepAmbiguous))
}

func TestWorse(t *testing.T) {
	assert.Equal(t, Failed, Worse(Passed, Failed))
	assert.Equal(t, Failed, Worse(Failed, Undefined))
	assert.Equal(t, Undefined, Worse(Skipped, Undefined))
	assert.Equal(t, Skipped, Worse(Passed, Skipped))
	assert.Equal(t, Passed, Worse(Passed, Passed))
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "AMBIGUOUS", Ambiguous.String())
	assert.Equal(t, "Status(99)", Status(99).String())
}

func TestSummary(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := NewSummary(start)

	var wg sync.WaitGroup
	for _, st := range []Status{Passed, Passed, Failed, Skipped} {
		wg.Add(1)
		go func(st Status) {
			defer wg.Done()
			s.Add(Record{Scenario: st.String(), Status: st})
		}(st)
	}
	wg.Wait()
	s.Finish(start.Add(4200 * time.Millisecond))

	assert.Equal(t, 4, s.Total())
	assert.Equal(t, map[Status]int{Passed: 2, Failed: 1, Skipped: 1}, s.Counts())
	assert.True(t, s.Failed())
	assert.Equal(t, 1, s.ExitCode(0))
	assert.Equal(t, "4 scenarios (2 passed, 1 failed, 1 skipped) in 4.2s", s.String())
	assert.Len(t, s.Records(), 4)
}

func TestSummary_ExitCode(t *testing.T) {
	s := NewSummary(time.Now())
	s.Add(Record{Status: Passed})
	s.Add(Record{Status: Pending})
	assert.Equal(t, 0, s.ExitCode(0))
	assert.Equal(t, 1, s.ExitCode(1), "a godog failure fails the run even when every scenario passed")
	assert.Equal(t, "2 scenarios (1 passed, 1 pending) in 0s", s.String())
}
