package pool

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"iconbuild/internal/catalog"
	"iconbuild/internal/logging"
	"iconbuild/internal/protocol"
)

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithUnitTimeout fails the run when a single unit stays busy longer than d.
// Zero disables the check.
func WithUnitTimeout(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.unitTimeout = d
		}
	}
}

// WithRecorder attaches a progress recorder.
func WithRecorder(r Recorder) Option {
	return func(c *Coordinator) {
		c.recorder = r
	}
}

// WithProgressBucket sets the percentage step for info-level progress logs.
func WithProgressBucket(pct int) Option {
	return func(c *Coordinator) {
		if pct > 0 {
			c.progressBucket = pct
		}
	}
}

// Coordinator runs catalogs across a pool of workers.
type Coordinator struct {
	spawner        Spawner
	logger         *slog.Logger
	unitTimeout    time.Duration
	recorder       Recorder
	progressBucket int
	now            func() time.Time
}

// New constructs a coordinator that starts workers through spawner.
func New(spawner Spawner, logger *slog.Logger, opts ...Option) *Coordinator {
	c := &Coordinator{
		spawner:        spawner,
		logger:         logging.NewComponentLogger(logger, "coordinator"),
		progressBucket: 10,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type handle struct {
	id         int
	conn       Conn
	status     Status
	unit       catalog.WorkUnit
	assignedAt time.Time
	terminated bool
}

type event struct {
	worker int
	report protocol.Report
	closed bool
}

// run is the per-invocation state. It is only touched by the goroutine
// executing Coordinator.Run.
type run struct {
	// recordCtx outlives cancellation so abandoned units still reach the
	// recorder during teardown.
	recordCtx context.Context
	c         *Coordinator
	logger    *slog.Logger
	cursor    *catalog.Cursor
	handles   []*handle
	sampler   *logging.ProgressSampler
	finished  int
	result    Result
	outcome   error
	resolved  bool
}

// Run spawns poolSize workers, processes every unit of cat, and tears the
// pool down. It returns once the outcome is known; it does not wait for the
// worker processes to exit.
func (c *Coordinator) Run(ctx context.Context, cat *catalog.Catalog, poolSize int) (Result, error) {
	start := c.now()
	r := &run{
		recordCtx: context.WithoutCancel(ctx),
		c:         c,
		logger:    logging.WithContext(ctx, c.logger),
		cursor:    cat.Cursor(),
		sampler:   logging.NewProgressSampler(c.progressBucket),
		result: Result{
			PoolSize:      poolSize,
			Units:         cat.Len(),
			UnitDurations: make(map[string]time.Duration),
		},
	}

	if poolSize < 1 {
		return r.result, fmt.Errorf("%w: pool size must be at least 1, got %d", ErrPoolStartup, poolSize)
	}
	if c.spawner == nil {
		return r.result, fmt.Errorf("%w: no spawner configured", ErrPoolStartup)
	}

	events := make(chan event)
	stop := make(chan struct{})
	defer close(stop)

	r.logger.Info("starting worker pool",
		logging.Int("workers", poolSize),
		logging.Int("units", r.result.Units),
	)
	for i := 0; i < poolSize; i++ {
		conn, err := c.spawner.Spawn(ctx)
		if err != nil {
			r.teardown()
			return r.result, fmt.Errorf("%w: spawn worker %d of %d: %v", ErrPoolStartup, i+1, poolSize, err)
		}
		r.handles = append(r.handles, &handle{id: i, conn: conn, status: StatusIdle})
		go forward(i, conn, events, stop)
		r.logger.Debug("worker spawned", logging.WorkerPID(conn.PID()))
	}

	var tick <-chan time.Time
	if c.unitTimeout > 0 {
		ticker := time.NewTicker(checkInterval(c.unitTimeout))
		defer ticker.Stop()
		tick = ticker.C
	}

	for !r.resolved {
		select {
		case <-ctx.Done():
			r.fail(fmt.Errorf("build interrupted: %w", ctx.Err()))
		case ev := <-events:
			r.handle(ev)
		case now := <-tick:
			r.checkTimeouts(now)
		}
	}

	r.teardown()
	r.result.Duration = c.now().Sub(start)
	if r.outcome != nil {
		r.logger.Error("build failed",
			logging.Error(r.outcome),
			logging.Int("assigned", r.result.Assigned),
			logging.Int("completed", r.result.Completed),
		)
		return r.result, r.outcome
	}
	r.logger.Info("all work units finished",
		logging.Int("completed", r.result.Completed),
		logging.Duration("duration", r.result.Duration),
	)
	return r.result, nil
}

// forward relays a worker's reports onto the shared event channel until
// the worker exits or the run is over. After the run is over remaining
// reports are drained so the worker never blocks writing them.
func forward(id int, conn Conn, events chan<- event, stop <-chan struct{}) {
	reports := conn.Reports()
	for report := range reports {
		select {
		case events <- event{worker: id, report: report}:
		case <-stop:
			for range reports {
			}
			return
		}
	}
	select {
	case events <- event{worker: id, closed: true}:
	case <-stop:
	}
}

func checkInterval(timeout time.Duration) time.Duration {
	interval := timeout / 4
	switch {
	case interval < 5*time.Millisecond:
		return 5 * time.Millisecond
	case interval > time.Second:
		return time.Second
	default:
		return interval
	}
}

func (r *run) handle(ev event) {
	h := r.handles[ev.worker]
	logger := r.logger.With(logging.WorkerPID(h.conn.PID()))

	if ev.closed {
		previous := h.status
		h.status = StatusExited
		switch previous {
		case StatusFinished, StatusFailed:
			logger.Debug("worker exited")
		case StatusBusy:
			r.recordOutcome(h, UnitLost, "worker exited")
			r.fail(fmt.Errorf("%w: worker %d exited while processing %s", ErrWorkerExited, h.conn.PID(), h.unit))
		default:
			r.fail(fmt.Errorf("%w: worker %d exited before finishing", ErrWorkerExited, h.conn.PID()))
		}
		return
	}

	report := ev.report
	switch report.Kind {
	case protocol.ReportWaiting:
		switch h.status {
		case StatusIdle:
			r.dispatch(h)
		case StatusFinished:
			logger.Debug("ignoring waiting report from finished worker")
		default:
			r.violation(h, fmt.Sprintf("waiting report while %s", h.status))
		}
	case protocol.ReportDone:
		if h.status != StatusBusy {
			r.violation(h, fmt.Sprintf("done report for %q without an assignment", report.Namespace))
			return
		}
		if report.Namespace != "" && report.Namespace != h.unit.String() {
			r.violation(h, fmt.Sprintf("done report for %q while assigned %q", report.Namespace, h.unit))
			return
		}
		elapsed := r.c.now().Sub(h.assignedAt)
		r.result.Completed++
		r.result.UnitDurations[h.unit.String()] = elapsed
		r.recordOutcome(h, UnitDone, "")
		logger.Debug("unit done",
			logging.Namespace(h.unit.String()),
			logging.Duration("duration", elapsed),
		)
		r.logProgress()
		h.status = StatusIdle
		h.unit = ""
		r.dispatch(h)
	case protocol.ReportError:
		if h.status != StatusBusy {
			r.violation(h, fmt.Sprintf("error report for %q without an assignment", report.Namespace))
			return
		}
		namespace := report.Namespace
		if namespace == "" {
			namespace = h.unit.String()
		}
		r.recordOutcome(h, UnitFailed, report.Detail)
		h.status = StatusFailed
		r.fail(fmt.Errorf("%w: %s: %s", ErrUnitFailed, namespace, report.Detail))
	default:
		r.violation(h, report.Detail)
	}
}

// dispatch assigns the next unit to an idle worker, or counts the worker
// finished once the catalog is exhausted.
func (r *run) dispatch(h *handle) {
	if r.resolved {
		return
	}
	unit, ok := r.cursor.Next()
	if !ok {
		h.status = StatusFinished
		r.finished++
		r.logger.Debug("worker finished",
			logging.WorkerPID(h.conn.PID()),
			logging.Int("finished_workers", r.finished),
		)
		if r.finished == len(r.handles) {
			r.succeed()
		}
		return
	}

	if err := h.conn.Send(protocol.Assign(unit.String())); err != nil {
		h.status = StatusFailed
		r.fail(fmt.Errorf("%w: assign %s to worker %d: %v", ErrWorkerExited, unit, h.conn.PID(), err))
		return
	}
	h.status = StatusBusy
	h.unit = unit
	h.assignedAt = r.c.now()
	r.result.Assigned++

	remaining := r.cursor.Remaining()
	r.logger.Debug("unit assigned",
		logging.Namespace(unit.String()),
		logging.WorkerPID(h.conn.PID()),
		logging.Int("remaining", remaining),
	)
	if r.c.recorder != nil {
		if err := r.c.recorder.RecordAssignment(r.recordCtx, unit.String(), h.conn.PID(), remaining); err != nil {
			r.warnRecorder(err)
		}
	}
}

func (r *run) checkTimeouts(now time.Time) {
	for _, h := range r.handles {
		if h.status != StatusBusy {
			continue
		}
		if elapsed := now.Sub(h.assignedAt); elapsed > r.c.unitTimeout {
			r.recordOutcome(h, UnitTimedOut, fmt.Sprintf("exceeded %s", r.c.unitTimeout))
			h.status = StatusFailed
			r.fail(fmt.Errorf("%w: %s on worker %d after %s", ErrUnitTimeout, h.unit, h.conn.PID(), elapsed.Round(time.Millisecond)))
			return
		}
	}
}

func (r *run) violation(h *handle, detail string) {
	if h.status == StatusBusy {
		r.recordOutcome(h, UnitFailed, detail)
	}
	h.status = StatusFailed
	r.fail(fmt.Errorf("%w: worker %d: %s", ErrProtocolViolation, h.conn.PID(), detail))
}

func (r *run) succeed() {
	if r.resolved {
		return
	}
	r.resolved = true
}

func (r *run) fail(err error) {
	if r.resolved {
		return
	}
	r.resolved = true
	r.outcome = err
}

// teardown instructs every worker to terminate exactly once and releases it.
// Units still in flight are recorded as abandoned.
func (r *run) teardown() {
	for _, h := range r.handles {
		if h.terminated {
			continue
		}
		h.terminated = true
		if h.status == StatusBusy {
			r.recordOutcome(h, UnitAbandoned, "run ended before the unit finished")
		}
		if err := h.conn.Send(protocol.Terminate()); err != nil {
			r.logger.Debug("terminate not delivered",
				logging.WorkerPID(h.conn.PID()),
				logging.Error(err),
			)
		}
		h.conn.Release()
	}
}

func (r *run) recordOutcome(h *handle, status UnitStatus, detail string) {
	if r.c.recorder == nil {
		return
	}
	outcome := UnitOutcome{
		Namespace: h.unit.String(),
		WorkerPID: h.conn.PID(),
		Status:    status,
		Duration:  r.c.now().Sub(h.assignedAt),
		Detail:    detail,
	}
	if err := r.c.recorder.RecordOutcome(r.recordCtx, outcome); err != nil {
		r.warnRecorder(err)
	}
}

func (r *run) logProgress() {
	total := r.result.Units
	percent, ok := r.sampler.Sample(r.result.Completed, total)
	if !ok {
		return
	}
	r.logger.Info("build progress",
		logging.Int("completed", r.result.Completed),
		logging.Int("total", total),
		logging.Int("percent", percent),
		logging.Int("remaining", r.cursor.Remaining()),
	)
}

func (r *run) warnRecorder(err error) {
	if errors.Is(err, context.Canceled) {
		return
	}
	logging.WarnWithContext(r.logger, "progress recorder failed", "recorder_error",
		logging.Error(err),
		logging.String(logging.FieldImpact, "run history may be incomplete"),
	)
}
