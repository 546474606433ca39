package buildrun

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"iconbuild/internal/config"
	"iconbuild/internal/layout"
	"iconbuild/internal/logging"
	"iconbuild/internal/toolchain"
	"iconbuild/internal/unitbuild"
	"iconbuild/internal/worker"
)

// NewUnitBuilder assembles the per-namespace builder from configuration.
func NewUnitBuilder(cfg *config.Config, logger *slog.Logger) (*unitbuild.Builder, error) {
	l := layout.New(cfg.Paths.SourceDir, cfg.Paths.OutputDir)
	compiler, err := toolchain.NewCompiler(cfg.Toolchain.Compiler, cfg.Toolchain.CompilerArgs, l, logger)
	if err != nil {
		return nil, err
	}
	bundler, err := toolchain.NewBundler(cfg.Toolchain.Bundler, cfg.Toolchain.BundlerArgs, cfg.Package.Externals, logger)
	if err != nil {
		return nil, err
	}
	return unitbuild.New(l, cfg.Package.GlobalName, compiler, bundler, logger), nil
}

// RunWorker serves the worker protocol on in and out until terminated.
func RunWorker(ctx context.Context, cfg *config.Config, logger *slog.Logger, in io.Reader, out io.Writer) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}
	builder, err := NewUnitBuilder(cfg, logger)
	if err != nil {
		return err
	}
	return worker.Serve(ctx, in, out, builder, logging.WithContext(ctx, logger))
}
