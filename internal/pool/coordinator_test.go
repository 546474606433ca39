package pool

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"iconbuild/internal/catalog"
	"iconbuild/internal/logging"
	"iconbuild/internal/protocol"
)

func testCatalog(t *testing.T, n int) *catalog.Catalog {
	t.Helper()
	units := make([]string, 0, n)
	for i := 0; i < n; i++ {
		units = append(units, fmt.Sprintf("icon-%02d/16", i))
	}
	cat, err := catalog.FromUnits(units...)
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	return cat
}

func assertTerminatedOnce(t *testing.T, spawner *fakeSpawner) {
	t.Helper()
	for _, conn := range spawner.conns {
		if conn.terminates != 1 {
			t.Fatalf("worker %d received %d terminate instructions, want 1", conn.pid, conn.terminates)
		}
		if conn.released != 1 {
			t.Fatalf("worker %d released %d times, want 1", conn.pid, conn.released)
		}
	}
}

func allAssigned(spawner *fakeSpawner) []string {
	var out []string
	for _, conn := range spawner.conns {
		out = append(out, conn.assigned...)
	}
	return out
}

func TestRunAssignsEveryUnitExactlyOnce(t *testing.T) {
	cat := testCatalog(t, 5)
	spawner := newFakeSpawner(alwaysDone)
	coord := New(spawner, logging.NewNop())

	result, err := coord.Run(context.Background(), cat, 3)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Assigned != 5 || result.Completed != 5 {
		t.Fatalf("result = %+v, want 5 assigned and completed", result)
	}
	if len(result.UnitDurations) != 5 {
		t.Fatalf("expected 5 unit durations, got %d", len(result.UnitDurations))
	}

	seen := make(map[string]int)
	for _, ns := range allAssigned(spawner) {
		seen[ns]++
	}
	for _, unit := range cat.Namespaces() {
		if seen[unit] != 1 {
			t.Fatalf("unit %s assigned %d times", unit, seen[unit])
		}
	}
	if len(seen) != 5 {
		t.Fatalf("unexpected assignments %v", seen)
	}
	assertTerminatedOnce(t, spawner)
}

func TestRunEmptyCatalogSucceeds(t *testing.T) {
	cat := testCatalog(t, 0)
	spawner := newFakeSpawner(alwaysDone)

	result, err := New(spawner, logging.NewNop()).Run(context.Background(), cat, 2)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Assigned != 0 || len(allAssigned(spawner)) != 0 {
		t.Fatalf("expected no assignments, got %+v", result)
	}
	if len(spawner.conns) != 2 {
		t.Fatalf("expected 2 workers spawned, got %d", len(spawner.conns))
	}
	assertTerminatedOnce(t, spawner)
}

func TestRunMoreWorkersThanUnits(t *testing.T) {
	cat := testCatalog(t, 2)
	spawner := newFakeSpawner(alwaysDone)

	result, err := New(spawner, logging.NewNop()).Run(context.Background(), cat, 4)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Assigned != 2 || result.Completed != 2 {
		t.Fatalf("result = %+v", result)
	}
	assertTerminatedOnce(t, spawner)
}

func TestRunSingleWorkerFollowsCatalogOrder(t *testing.T) {
	cat := testCatalog(t, 5)
	spawner := newFakeSpawner(alwaysDone)

	if _, err := New(spawner, logging.NewNop()).Run(context.Background(), cat, 1); err != nil {
		t.Fatalf("Run: %v", err)
	}
	got := spawner.conns[0].assigned
	want := cat.Namespaces()
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("assignment order = %v, want %v", got, want)
	}
}

func TestRunFailsOnAnyUnitError(t *testing.T) {
	cat := testCatalog(t, 6)
	for _, bad := range cat.Namespaces() {
		t.Run(bad, func(t *testing.T) {
			spawner := newFakeSpawner(failOn(bad))
			_, err := New(spawner, logging.NewNop()).Run(context.Background(), cat, 3)
			if !errors.Is(err, ErrUnitFailed) {
				t.Fatalf("expected ErrUnitFailed, got %v", err)
			}
			if !strings.Contains(err.Error(), bad) || !strings.Contains(err.Error(), "compile failed") {
				t.Fatalf("error should name the unit and detail: %v", err)
			}
			assertTerminatedOnce(t, spawner)
		})
	}
}

func TestRunFailsWhenLastUnitErrors(t *testing.T) {
	cat := testCatalog(t, 3)
	spawner := newFakeSpawner(failOn(cat.Namespaces()[2]))

	_, err := New(spawner, logging.NewNop()).Run(context.Background(), cat, 1)
	if !errors.Is(err, ErrUnitFailed) {
		t.Fatalf("expected ErrUnitFailed once the catalog is exhausted, got %v", err)
	}
}

func TestRunProtocolViolation(t *testing.T) {
	spawner := newFakeSpawner(alwaysDone)
	spawner.preface = []protocol.Report{protocol.Violation(`unknown state "exploded"`)}

	_, err := New(spawner, logging.NewNop()).Run(context.Background(), testCatalog(t, 3), 2)
	if !errors.Is(err, ErrProtocolViolation) {
		t.Fatalf("expected ErrProtocolViolation, got %v", err)
	}
	assertTerminatedOnce(t, spawner)
}

func TestRunDoneWithoutAssignmentIsViolation(t *testing.T) {
	spawner := newFakeSpawner(alwaysDone)
	spawner.preface = []protocol.Report{protocol.Done("icon-00/16")}

	_, err := New(spawner, logging.NewNop()).Run(context.Background(), testCatalog(t, 3), 1)
	if !errors.Is(err, ErrProtocolViolation) {
		t.Fatalf("expected ErrProtocolViolation, got %v", err)
	}
}

func TestRunWorkerExitBeforeFinishing(t *testing.T) {
	spawner := newFakeSpawner(alwaysDone)
	spawner.silent = true

	_, err := New(spawner, logging.NewNop()).Run(context.Background(), testCatalog(t, 3), 2)
	if !errors.Is(err, ErrWorkerExited) {
		t.Fatalf("expected ErrWorkerExited, got %v", err)
	}
	assertTerminatedOnce(t, spawner)
}

func TestRunUnitTimeout(t *testing.T) {
	spawner := newFakeSpawner(hang)
	rec := &memoryRecorder{}
	coord := New(spawner, logging.NewNop(), WithUnitTimeout(20*time.Millisecond), WithRecorder(rec))

	_, err := coord.Run(context.Background(), testCatalog(t, 2), 1)
	if !errors.Is(err, ErrUnitTimeout) {
		t.Fatalf("expected ErrUnitTimeout, got %v", err)
	}
	if len(rec.outcomes) != 1 || rec.outcomes[0].status != UnitTimedOut {
		t.Fatalf("outcomes = %+v", rec.outcomes)
	}
	assertTerminatedOnce(t, spawner)
}

func TestRunContextCancel(t *testing.T) {
	spawner := newFakeSpawner(hang)
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	_, err := New(spawner, logging.NewNop()).Run(ctx, testCatalog(t, 2), 2)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	assertTerminatedOnce(t, spawner)
}

func TestRunSpawnFailureTerminatesStartedWorkers(t *testing.T) {
	spawner := newFakeSpawner(alwaysDone)
	spawner.failAt = 1

	_, err := New(spawner, logging.NewNop()).Run(context.Background(), testCatalog(t, 3), 3)
	if !errors.Is(err, ErrPoolStartup) {
		t.Fatalf("expected ErrPoolStartup, got %v", err)
	}
	if len(spawner.conns) != 1 {
		t.Fatalf("expected a single started worker, got %d", len(spawner.conns))
	}
	if len(spawner.conns[0].assigned) != 0 {
		t.Fatalf("no work should be dispatched before the pool is up, got %v", spawner.conns[0].assigned)
	}
	assertTerminatedOnce(t, spawner)
}

func TestRunRejectsInvalidPoolSize(t *testing.T) {
	spawner := newFakeSpawner(alwaysDone)
	_, err := New(spawner, logging.NewNop()).Run(context.Background(), testCatalog(t, 1), 0)
	if !errors.Is(err, ErrPoolStartup) {
		t.Fatalf("expected ErrPoolStartup, got %v", err)
	}
	if spawner.attempts != 0 {
		t.Fatalf("expected no spawn attempts, got %d", spawner.attempts)
	}
}

func TestRunRecordsProgress(t *testing.T) {
	cat := testCatalog(t, 4)
	rec := &memoryRecorder{}
	spawner := newFakeSpawner(alwaysDone)

	if _, err := New(spawner, logging.NewNop(), WithRecorder(rec)).Run(context.Background(), cat, 2); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(rec.assignments) != 4 {
		t.Fatalf("assignments = %v", rec.assignments)
	}
	if len(rec.outcomes) != 4 {
		t.Fatalf("outcomes = %v", rec.outcomes)
	}
	for _, o := range rec.outcomes {
		if o.status != UnitDone {
			t.Fatalf("unexpected outcome %+v", o)
		}
	}
}

func TestRecorderErrorsDoNotAffectOutcome(t *testing.T) {
	rec := &memoryRecorder{err: errors.New("database is locked")}
	spawner := newFakeSpawner(alwaysDone)

	result, err := New(spawner, logging.NewNop(), WithRecorder(rec)).Run(context.Background(), testCatalog(t, 3), 2)
	if err != nil {
		t.Fatalf("recorder failure leaked into outcome: %v", err)
	}
	if result.Completed != 3 {
		t.Fatalf("result = %+v", result)
	}
}

func TestOutcomeLatchIsSetOnce(t *testing.T) {
	r := &run{}
	first := errors.New("first")
	r.fail(first)
	r.fail(errors.New("second"))
	r.succeed()
	if !r.resolved || r.outcome != first {
		t.Fatalf("latch = resolved %v outcome %v, want first failure", r.resolved, r.outcome)
	}

	r = &run{}
	r.succeed()
	r.fail(errors.New("late"))
	if r.outcome != nil {
		t.Fatalf("failure after success must be ignored, got %v", r.outcome)
	}
}

func TestCheckInterval(t *testing.T) {
	tests := []struct {
		timeout time.Duration
		want    time.Duration
	}{
		{time.Millisecond, 5 * time.Millisecond},
		{100 * time.Millisecond, 25 * time.Millisecond},
		{time.Minute, time.Second},
	}
	for _, tt := range tests {
		if got := checkInterval(tt.timeout); got != tt.want {
			t.Errorf("checkInterval(%s) = %s, want %s", tt.timeout, got, tt.want)
		}
	}
}
