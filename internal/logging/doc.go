// Package logging assembles structured slog loggers and formatting helpers used
// across the coordinator, workers, and CLI.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so build code can automatically
// tag log lines with run IDs, namespaces, and worker process IDs. The package
// also provides a no-op logger for tests and wiring code that cannot fail.
//
// Prefer these constructors over hand-rolled slog setup so worker processes
// and the coordinator emit lines with the same shape.
package logging
