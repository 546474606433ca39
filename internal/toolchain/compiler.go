package toolchain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"iconbuild/internal/fileutil"
	"iconbuild/internal/layout"
	"iconbuild/internal/logging"
	"iconbuild/internal/naming"
)

type compilerOptions struct {
	Target                 string   `json:"target"`
	Module                 string   `json:"module"`
	ModuleResolution       string   `json:"moduleResolution"`
	Lib                    []string `json:"lib"`
	ExperimentalDecorators bool     `json:"experimentalDecorators"`
	SourceMap              bool     `json:"sourceMap"`
	InlineSources          bool     `json:"inlineSources"`
	InlineSourceMap        bool     `json:"inlineSourceMap"`
	Declaration            bool     `json:"declaration"`
	OutDir                 string   `json:"outDir"`
	DeclarationDir         string   `json:"declarationDir"`
	RootDir                string   `json:"rootDir"`
	BaseURL                string   `json:"baseUrl"`
}

type angularOptions struct {
	EnableResourceInlining bool   `json:"enableResourceInlining"`
	SkipTemplateCodegen    bool   `json:"skipTemplateCodegen"`
	FlatModuleID           string `json:"flatModuleId"`
	FlatModuleOutFile      string `json:"flatModuleOutFile"`
}

// TSConfig is the per-unit compiler project file.
type TSConfig struct {
	CompilerOptions        compilerOptions `json:"compilerOptions"`
	AngularCompilerOptions angularOptions  `json:"angularCompilerOptions"`
	Files                  []string        `json:"files"`
}

// NewTSConfig derives the compiler project for one namespace and target.
func NewTSConfig(l layout.Layout, namespace string, target layout.Target) TSConfig {
	return TSConfig{
		CompilerOptions: compilerOptions{
			Target:                 string(target),
			Module:                 "es2015",
			ModuleResolution:       "node",
			Lib:                    []string{"es2017", "dom"},
			ExperimentalDecorators: true,
			SourceMap:              false,
			InlineSources:          true,
			InlineSourceMap:        true,
			Declaration:            true,
			OutDir:                 l.ModuleOutDir(namespace, target),
			DeclarationDir:         l.DeclarationDir(namespace),
			RootDir:                l.SourceDir(namespace),
			BaseURL:                l.SourceDir(namespace),
		},
		AngularCompilerOptions: angularOptions{
			EnableResourceInlining: true,
			SkipTemplateCodegen:    true,
			FlatModuleID:           naming.FileName(namespace),
			FlatModuleOutFile:      "index.js",
		},
		Files: []string{"icon.ts"},
	}
}

// Compiler runs the framework compiler for one namespace at a time.
type Compiler struct {
	binary string
	args   []string
	layout layout.Layout
	exec   Executor
	logger *slog.Logger
}

// NewCompiler constructs a compiler invoking binary with args. Arguments may
// reference {tsconfig}, {namespace}, {target}, and {out_dir}.
func NewCompiler(binary string, args []string, l layout.Layout, logger *slog.Logger, opts ...Option) (*Compiler, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("compiler binary required")
	}
	o := applyOptions(opts)
	return &Compiler{
		binary: binary,
		args:   append([]string(nil), args...),
		layout: l,
		exec:   o.exec,
		logger: logging.NewComponentLogger(logger, "compiler"),
	}, nil
}

// Compile writes the namespace's tsconfig for target and runs the compiler.
// Diagnostics printed by a successful compile are logged as warnings.
func (c *Compiler) Compile(ctx context.Context, namespace string, target layout.Target) error {
	tsconfig := c.layout.TSConfig(namespace, target)
	if err := fileutil.WriteJSONIndent(tsconfig, NewTSConfig(c.layout, namespace, target)); err != nil {
		return fmt.Errorf("write tsconfig for %s: %w", namespace, err)
	}

	args := expandArgs(c.args, map[string]string{
		"tsconfig":  tsconfig,
		"namespace": namespace,
		"target":    string(target),
		"out_dir":   c.layout.ModuleOutDir(namespace, target),
	})
	output, err := c.exec.Run(ctx, c.binary, args)
	diag := diagnostics(output)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("compile %s (%s): %w", namespace, target, ctxErr)
		}
		if diag == "" {
			diag = err.Error()
		}
		return fmt.Errorf("%w: compile %s (%s): %s", ErrToolFailed, namespace, target, diag)
	}
	if diag != "" {
		logging.WarnWithContext(c.logger, "compiler reported diagnostics", "compile_diagnostics",
			logging.Namespace(namespace),
			logging.String("target", string(target)),
			logging.String("diagnostics", diag),
			logging.String(logging.FieldImpact, "module compiled; review diagnostics"),
		)
	}
	return nil
}
