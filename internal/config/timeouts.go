package config

import "time"

// TimeoutTable names the waits used across page objects and steps.
type TimeoutTable struct {
	Short      time.Duration
	Standard   time.Duration
	Long       time.Duration
	VeryLong   time.Duration
	Expect     time.Duration
	Navigation time.Duration
	// Global bounds a single step.
	Global time.Duration
}

// Timeouts is the suite wide timeout table.
var Timeouts = TimeoutTable{
	Short:      1 * time.Second,
	Standard:   5 * time.Second,
	Long:       15 * time.Second,
	VeryLong:   30 * time.Second,
	Expect:     5 * time.Second,
	Navigation: 30 * time.Second,
	Global:     60 * time.Second,
}

// Millis converts a duration to the float64 millisecond value the driver expects.
func Millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
