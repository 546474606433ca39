package pool

import (
	"context"
	"time"

	"iconbuild/internal/protocol"
)

// Conn is the coordinator's view of one running worker.
type Conn interface {
	// PID identifies the worker process.
	PID() int
	// Send delivers one instruction.
	Send(protocol.Instruction) error
	// Reports yields worker reports and is closed once the worker exits.
	Reports() <-chan protocol.Report
	// Release closes the instruction stream and reclaims the worker in the
	// background. It must not block.
	Release()
}

// Spawner starts workers.
type Spawner interface {
	Spawn(ctx context.Context) (Conn, error)
}

// Status is the coordinator-side state of a worker.
type Status int

const (
	StatusIdle Status = iota
	StatusBusy
	StatusFinished
	StatusFailed
	StatusExited
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusBusy:
		return "busy"
	case StatusFinished:
		return "finished"
	case StatusFailed:
		return "failed"
	case StatusExited:
		return "exited"
	default:
		return "unknown"
	}
}

// UnitStatus is the recorded outcome of one unit.
type UnitStatus string

const (
	UnitDone      UnitStatus = "done"
	UnitFailed    UnitStatus = "error"
	UnitTimedOut  UnitStatus = "timeout"
	UnitLost      UnitStatus = "lost"
	UnitAbandoned UnitStatus = "abandoned"
)

// UnitOutcome describes how a unit ended.
type UnitOutcome struct {
	Namespace string
	WorkerPID int
	Status    UnitStatus
	Duration  time.Duration
	Detail    string
}

// Recorder observes assignments and outcomes. Errors are logged and never
// change the result of a run.
type Recorder interface {
	RecordAssignment(ctx context.Context, namespace string, workerPID int, remaining int) error
	RecordOutcome(ctx context.Context, outcome UnitOutcome) error
}

// Result summarises a run.
type Result struct {
	PoolSize  int
	Units     int
	Assigned  int
	Completed int
	Duration  time.Duration
	// UnitDurations holds the processing time of every completed unit.
	UnitDurations map[string]time.Duration
}
