// File: internal/browser/state.go
package browser

// State is a SessionManager lifecycle state.
type State int

const (
	StateIdle State = iota
	StateLaunching
	StateReady
	StateInUse
	StateTearingDown
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLaunching:
		return "launching"
	case StateReady:
		return "ready"
	case StateInUse:
		return "in_use"
	case StateTearingDown:
		return "tearing_down"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}
