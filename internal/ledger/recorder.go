package ledger

import (
	"context"

	"iconbuild/internal/pool"
)

// Recorder writes coordinator progress for one run into the ledger.
type Recorder struct {
	store *Store
	runID string
}

// NewRecorder binds a recorder to runID.
func NewRecorder(store *Store, runID string) *Recorder {
	return &Recorder{store: store, runID: runID}
}

func (r *Recorder) RecordAssignment(ctx context.Context, namespace string, workerPID int, _ int) error {
	return r.store.recordAssignment(ctx, r.runID, namespace, workerPID)
}

func (r *Recorder) RecordOutcome(ctx context.Context, outcome pool.UnitOutcome) error {
	return r.store.recordOutcome(ctx, r.runID, outcome.Namespace, outcome.WorkerPID, string(outcome.Status), outcome.Duration, outcome.Detail)
}

var _ pool.Recorder = (*Recorder)(nil)
