package logging

import (
	"context"
	"log/slog"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldRunID identifies one build invocation across coordinator and workers.
	FieldRunID = "run_id"
	// FieldNamespace is the work unit a log line concerns.
	FieldNamespace = "namespace"
	// FieldWorkerPID is the process ID of the worker a log line concerns.
	FieldWorkerPID = "worker_pid"
	// FieldEventType tags machine-readable event names.
	FieldEventType = "event_type"
	// FieldErrorHint gives the operator a next step for warnings and errors.
	FieldErrorHint = "error_hint"
	// FieldImpact is the user-facing consequence of a warning.
	FieldImpact = "impact"
)

type contextKey string

const (
	runIDKey     contextKey = "run_id"
	namespaceKey contextKey = "namespace"
)

// WithRunID annotates context with the build run identifier.
func WithRunID(ctx context.Context, runID string) context.Context {
	if runID == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, runID)
}

// RunIDFromContext returns the run identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(runIDKey).(string)
	return v, ok && v != ""
}

// WithNamespace annotates context with the work unit being processed.
func WithNamespace(ctx context.Context, namespace string) context.Context {
	if namespace == "" {
		return ctx
	}
	return context.WithValue(ctx, namespaceKey, namespace)
}

// NamespaceFromContext returns the work unit namespace if present.
func NamespaceFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(namespaceKey).(string)
	return v, ok && v != ""
}

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 2)
	if id, ok := RunIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRunID, id))
	}
	if ns, ok := NamespaceFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldNamespace, ns))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(Args(fields...)...)
}
