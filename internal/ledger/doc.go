// Package ledger persists build run history in SQLite.
//
// Each build invocation records one row in runs; every unit the coordinator
// assigns gets a row in unit_results that is updated with its outcome. The
// ledger is an observability sink: callers treat write failures as warnings.
// The database lives at <state_dir>/runs.db and is opened in WAL mode so the
// runs command can read while a build writes.
package ledger
