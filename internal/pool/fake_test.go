package pool

import (
	"context"
	"errors"
	"sync"

	"iconbuild/internal/protocol"
)

// behaviour decides how a fake worker answers an assignment. Returning false
// leaves the unit in flight forever.
type behaviour func(namespace string) (protocol.Report, bool)

func alwaysDone(namespace string) (protocol.Report, bool) { return protocol.Done(namespace), true }

func failOn(bad string) behaviour {
	return func(namespace string) (protocol.Report, bool) {
		if namespace == bad {
			return protocol.Failed(namespace, "compile failed"), true
		}
		return protocol.Done(namespace), true
	}
}

func hang(string) (protocol.Report, bool) { return protocol.Report{}, false }

type fakeConn struct {
	pid          int
	reports      chan protocol.Report
	instructions chan protocol.Instruction
	assigned     []string
	terminates   int
	released     int
	closeOnce    sync.Once
}

func (f *fakeConn) PID() int { return f.pid }

func (f *fakeConn) Send(in protocol.Instruction) error {
	if f.released > 0 {
		return errors.New("stdin closed")
	}
	switch in.Kind {
	case protocol.InstructionAssign:
		f.assigned = append(f.assigned, in.Namespace)
	case protocol.InstructionTerminate:
		f.terminates++
	}
	f.instructions <- in
	return nil
}

func (f *fakeConn) Reports() <-chan protocol.Report { return f.reports }

func (f *fakeConn) Release() {
	f.released++
	f.closeOnce.Do(func() { close(f.instructions) })
}

// serve mimics the worker loop: optional preface reports, then waiting, then
// one report per assignment until terminate or release.
func (f *fakeConn) serve(preface []protocol.Report, announce bool, behave behaviour) {
	defer close(f.reports)
	for _, r := range preface {
		f.reports <- r
	}
	if !announce {
		return
	}
	f.reports <- protocol.Waiting()
	for in := range f.instructions {
		if in.Kind == protocol.InstructionTerminate {
			return
		}
		if report, ok := behave(in.Namespace); ok {
			f.reports <- report
		}
	}
}

type fakeSpawner struct {
	behave   behaviour
	preface  []protocol.Report
	silent   bool
	failAt   int
	conns    []*fakeConn
	attempts int
}

func newFakeSpawner(behave behaviour) *fakeSpawner {
	return &fakeSpawner{behave: behave, failAt: -1}
}

func (s *fakeSpawner) Spawn(context.Context) (Conn, error) {
	s.attempts++
	if s.attempts-1 == s.failAt {
		return nil, errors.New("fork failed")
	}
	conn := &fakeConn{
		pid:          1000 + len(s.conns),
		reports:      make(chan protocol.Report),
		instructions: make(chan protocol.Instruction, 64),
	}
	s.conns = append(s.conns, conn)
	go conn.serve(s.preface, !s.silent, s.behave)
	return conn, nil
}

type recordedOutcome struct {
	namespace string
	status    UnitStatus
}

type memoryRecorder struct {
	mu          sync.Mutex
	assignments []string
	outcomes    []recordedOutcome
	err         error
}

func (m *memoryRecorder) RecordAssignment(_ context.Context, namespace string, _ int, _ int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.assignments = append(m.assignments, namespace)
	return m.err
}

func (m *memoryRecorder) RecordOutcome(_ context.Context, outcome UnitOutcome) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes = append(m.outcomes, recordedOutcome{namespace: outcome.Namespace, status: outcome.Status})
	return m.err
}
