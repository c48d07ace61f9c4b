// File: internal/browser/errors.go
package browser

import "errors"

var (
	// ErrLaunchFailed wraps the driver error from a failed browser launch.
	// It is sticky: every later NewSession on the same manager returns it.
	ErrLaunchFailed = errors.New("browser launch failed")
	// ErrSessionInUse is returned when a manager already has an active session.
	ErrSessionInUse = errors.New("a session is already in use on this worker")
	// ErrManagerClosed is returned after Shutdown.
	ErrManagerClosed = errors.New("session manager is shut down")
	// ErrPoolClosed is returned by Acquire after the pool is shut down.
	ErrPoolClosed = errors.New("worker pool is shut down")
)
