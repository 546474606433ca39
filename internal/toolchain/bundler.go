package toolchain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"iconbuild/internal/logging"
)

// Bundle formats understood by the bundler.
const (
	FormatES  = "es"
	FormatUMD = "umd"
)

// BundleSpec describes one bundler invocation.
type BundleSpec struct {
	Input  string
	File   string
	Format string
	Name   string
}

// Bundler runs the module bundler.
type Bundler struct {
	binary    string
	args      []string
	externals map[string]string
	exec      Executor
	logger    *slog.Logger
}

// NewBundler constructs a bundler invoking binary with args. Arguments may
// reference {input}, {file}, {format}, {name}, {externals}, and {globals}.
// externals maps module ids left out of bundles to their UMD global names.
func NewBundler(binary string, args []string, externals map[string]string, logger *slog.Logger, opts ...Option) (*Bundler, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("bundler binary required")
	}
	o := applyOptions(opts)
	ext := make(map[string]string, len(externals))
	for id, global := range externals {
		ext[id] = global
	}
	return &Bundler{
		binary:    binary,
		args:      append([]string(nil), args...),
		externals: ext,
		exec:      o.exec,
		logger:    logging.NewComponentLogger(logger, "bundler"),
	}, nil
}

// Bundle produces spec.File from spec.Input.
func (b *Bundler) Bundle(ctx context.Context, spec BundleSpec) error {
	if err := os.MkdirAll(filepath.Dir(spec.File), 0o755); err != nil {
		return fmt.Errorf("create bundle directory: %w", err)
	}
	args := expandArgs(b.args, map[string]string{
		"input":     spec.Input,
		"file":      spec.File,
		"format":    spec.Format,
		"name":      spec.Name,
		"externals": externalList(b.externals),
		"globals":   globalList(b.externals),
	})
	output, err := b.exec.Run(ctx, b.binary, args)
	diag := diagnostics(output)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("bundle %s: %w", filepath.Base(spec.File), ctxErr)
		}
		if diag == "" {
			diag = err.Error()
		}
		return fmt.Errorf("%w: bundle %s (%s): %s", ErrToolFailed, filepath.Base(spec.File), spec.Format, diag)
	}
	if diag != "" {
		b.logger.Debug("bundler output",
			logging.String("file", spec.File),
			logging.String("output", diag),
		)
	}
	return nil
}
