// Package unitbuild performs the per-namespace work a worker process runs:
// two compiler passes followed by the flattened and universal bundles.
package unitbuild

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"iconbuild/internal/layout"
	"iconbuild/internal/logging"
	"iconbuild/internal/naming"
	"iconbuild/internal/toolchain"
)

// Compiler compiles one namespace for one language target.
type Compiler interface {
	Compile(ctx context.Context, namespace string, target layout.Target) error
}

// Bundler produces one bundle.
type Bundler interface {
	Bundle(ctx context.Context, spec toolchain.BundleSpec) error
}

// Builder compiles and bundles a single namespace.
type Builder struct {
	layout     layout.Layout
	globalName string
	compiler   Compiler
	bundler    Bundler
	logger     *slog.Logger
}

// New constructs a builder. globalName prefixes the UMD global of every
// per-namespace bundle.
func New(l layout.Layout, globalName string, compiler Compiler, bundler Bundler, logger *slog.Logger) *Builder {
	return &Builder{
		layout:     l,
		globalName: globalName,
		compiler:   compiler,
		bundler:    bundler,
		logger:     logging.NewComponentLogger(logger, "unitbuild"),
	}
}

// Bundles lists the bundles produced for a namespace in build order.
func (b *Builder) Bundles(namespace string) []toolchain.BundleSpec {
	name := b.globalName + "." + naming.Pascal(namespace)
	return []toolchain.BundleSpec{
		{
			Input:  b.layout.ModuleEntry(namespace, layout.TargetES5),
			File:   b.layout.FlatBundle(namespace, layout.TargetES5),
			Format: toolchain.FormatES,
			Name:   name,
		},
		{
			Input:  b.layout.ModuleEntry(namespace, layout.TargetES2015),
			File:   b.layout.FlatBundle(namespace, layout.TargetES2015),
			Format: toolchain.FormatES,
			Name:   name,
		},
		{
			Input:  b.layout.ModuleEntry(namespace, layout.TargetES5),
			File:   b.layout.UMDBundle(namespace),
			Format: toolchain.FormatUMD,
			Name:   name,
		},
	}
}

// Process compiles namespace for ES2015 and ES5 and writes its bundles. The
// first failing step aborts the unit.
func (b *Builder) Process(ctx context.Context, namespace string) error {
	logger := b.logger.With(logging.Namespace(namespace))
	start := time.Now()

	for _, target := range []layout.Target{layout.TargetES2015, layout.TargetES5} {
		if err := b.compiler.Compile(ctx, namespace, target); err != nil {
			return err
		}
		logger.Debug("module compiled", logging.String("target", string(target)))
	}

	for _, spec := range b.Bundles(namespace) {
		if err := b.bundler.Bundle(ctx, spec); err != nil {
			return fmt.Errorf("bundle %s: %w", namespace, err)
		}
	}

	logger.Debug("unit built", logging.Duration("duration", time.Since(start)))
	return nil
}
