package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const runColumns = "id, status, pool_size, unit_count, assigned, completed, error_message, started_at, finished_at"

// BeginRun records the start of a build.
func (s *Store) BeginRun(ctx context.Context, id string, poolSize, unitCount int) error {
	if id == "" {
		return errors.New("run id required")
	}
	_, err := s.exec(ctx,
		`INSERT INTO runs (id, status, pool_size, unit_count, started_at) VALUES (?, ?, ?, ?, ?)`,
		id, RunRunning, poolSize, unitCount, formatTime(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// FinishRun records the outcome of a build. A nil runErr marks success.
func (s *Store) FinishRun(ctx context.Context, id string, assigned, completed int, runErr error) error {
	status := RunSucceeded
	message := ""
	if runErr != nil {
		status = RunFailed
		message = runErr.Error()
	}
	res, err := s.exec(ctx,
		`UPDATE runs SET status = ?, assigned = ?, completed = ?, error_message = ?, finished_at = ? WHERE id = ?`,
		status, assigned, completed, nullIfEmpty(message), formatTime(time.Now()), id,
	)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// ListRuns returns the most recent runs first. A limit of zero or less
// returns every run.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	query := "SELECT " + runColumns + " FROM runs ORDER BY started_at DESC"
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// FindRun resolves a full run id or a unique prefix of one.
func (s *Store) FindRun(ctx context.Context, ref string) (*Run, error) {
	if ref == "" {
		return nil, fmt.Errorf("%w: empty id", ErrNotFound)
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+runColumns+" FROM runs WHERE id = ? OR substr(id, 1, ?) = ? ORDER BY started_at DESC LIMIT 2",
		ref, len(ref), ref,
	)
	if err != nil {
		return nil, fmt.Errorf("find run: %w", err)
	}
	defer rows.Close()

	var matches []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		matches = append(matches, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, ref)
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrAmbiguousRun, ref)
	}
}

// UnitResults returns the unit rows of a run in assignment order.
func (s *Store) UnitResults(ctx context.Context, runID string) ([]UnitResult, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT namespace, worker_pid, status, duration_ms, detail, assigned_at, finished_at
         FROM unit_results WHERE run_id = ? ORDER BY assigned_at, rowid`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("list unit results: %w", err)
	}
	defer rows.Close()

	var results []UnitResult
	for rows.Next() {
		var (
			result      UnitResult
			durationMS  int64
			detail      sql.NullString
			assignedRaw string
			finishedRaw sql.NullString
		)
		if err := rows.Scan(&result.Namespace, &result.WorkerPID, &result.Status, &durationMS, &detail, &assignedRaw, &finishedRaw); err != nil {
			return nil, fmt.Errorf("scan unit result: %w", err)
		}
		result.Duration = time.Duration(durationMS) * time.Millisecond
		result.Detail = detail.String
		result.AssignedAt, _ = parseTime(assignedRaw)
		result.FinishedAt = parseNullTime(finishedRaw)
		results = append(results, result)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate unit results: %w", err)
	}
	return results, nil
}

func (s *Store) recordAssignment(ctx context.Context, runID, namespace string, workerPID int) error {
	_, err := s.exec(ctx,
		`INSERT INTO unit_results (run_id, namespace, worker_pid, status, assigned_at) VALUES (?, ?, ?, ?, ?)
         ON CONFLICT(run_id, namespace) DO UPDATE SET worker_pid = excluded.worker_pid, status = excluded.status, assigned_at = excluded.assigned_at`,
		runID, namespace, workerPID, UnitAssigned, formatTime(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("record assignment: %w", err)
	}
	return nil
}

func (s *Store) recordOutcome(ctx context.Context, runID, namespace string, workerPID int, status string, duration time.Duration, detail string) error {
	now := formatTime(time.Now())
	_, err := s.exec(ctx,
		`INSERT INTO unit_results (run_id, namespace, worker_pid, status, duration_ms, detail, assigned_at, finished_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT(run_id, namespace) DO UPDATE SET status = excluded.status, duration_ms = excluded.duration_ms,
             detail = excluded.detail, finished_at = excluded.finished_at`,
		runID, namespace, workerPID, status, duration.Milliseconds(), nullIfEmpty(detail), now, now,
	)
	if err != nil {
		return fmt.Errorf("record outcome: %w", err)
	}
	return nil
}

func scanRun(scanner interface{ Scan(dest ...any) error }) (*Run, error) {
	var (
		run         Run
		status      string
		errorMsg    sql.NullString
		startedRaw  string
		finishedRaw sql.NullString
	)
	if err := scanner.Scan(
		&run.ID,
		&status,
		&run.PoolSize,
		&run.UnitCount,
		&run.Assigned,
		&run.Completed,
		&errorMsg,
		&startedRaw,
		&finishedRaw,
	); err != nil {
		return nil, err
	}
	run.Status = RunStatus(status)
	run.ErrorMessage = errorMsg.String
	run.StartedAt, _ = parseTime(startedRaw)
	run.FinishedAt = parseNullTime(finishedRaw)
	return &run, nil
}
