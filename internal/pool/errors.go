package pool

import "errors"

var (
	// ErrUnitFailed reports a worker that could not process its unit.
	ErrUnitFailed = errors.New("work unit failed")
	// ErrPoolStartup reports a pool that could not be brought up.
	ErrPoolStartup = errors.New("worker pool startup failed")
	// ErrProtocolViolation reports a message that breaks the worker protocol.
	ErrProtocolViolation = errors.New("worker protocol violation")
	// ErrWorkerExited reports a worker process that went away before it was
	// finished.
	ErrWorkerExited = errors.New("worker exited unexpectedly")
	// ErrUnitTimeout reports a unit that exceeded the per-unit timeout.
	ErrUnitTimeout = errors.New("work unit timed out")
)
