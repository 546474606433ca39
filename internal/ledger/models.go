package ledger

import (
	"errors"
	"time"
)

// ErrNotFound reports a run reference that matches nothing.
var ErrNotFound = errors.New("run not found")

// ErrAmbiguousRun reports a run id prefix matching more than one run.
var ErrAmbiguousRun = errors.New("run id prefix is ambiguous")

// RunStatus is the lifecycle of a recorded build.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunSucceeded RunStatus = "succeeded"
	RunFailed    RunStatus = "failed"
)

// Run is one recorded build invocation.
type Run struct {
	ID           string     `json:"id"`
	Status       RunStatus  `json:"status"`
	PoolSize     int        `json:"pool_size"`
	UnitCount    int        `json:"unit_count"`
	Assigned     int        `json:"assigned"`
	Completed    int        `json:"completed"`
	ErrorMessage string     `json:"error_message,omitempty"`
	StartedAt    time.Time  `json:"started_at"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
}

// Duration is the wall time of a finished run, or zero while running.
func (r *Run) Duration() time.Duration {
	if r == nil || r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// UnitResult is the recorded state of one unit within a run.
type UnitResult struct {
	Namespace  string        `json:"namespace"`
	WorkerPID  int           `json:"worker_pid"`
	Status     string        `json:"status"`
	Duration   time.Duration `json:"duration_ns"`
	Detail     string        `json:"detail,omitempty"`
	AssignedAt time.Time     `json:"assigned_at"`
	FinishedAt *time.Time    `json:"finished_at,omitempty"`
}

// UnitAssigned is the unit status recorded before an outcome arrives.
const UnitAssigned = "assigned"
