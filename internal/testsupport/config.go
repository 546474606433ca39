package testsupport

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"iconbuild/internal/config"
)

// PassingTool is a shell stub that accepts any arguments.
const PassingTool = "#!/bin/sh\nexit 0\n"

// Option adjusts a test config after its directories are laid out under base.
type Option func(t testing.TB, cfg *config.Config, base string)

// NewConfig returns a config whose inputs, outputs, and state all live in a
// fresh temp directory. Two workers and a short terminate grace keep pool
// tests quick.
func NewConfig(t testing.TB, opts ...Option) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths = config.Paths{
		Metadata:  filepath.Join(base, "metadata.json"),
		Manifest:  filepath.Join(base, "package.json"),
		SourceDir: filepath.Join(base, "ts"),
		OutputDir: filepath.Join(base, "dist"),
		StateDir:  filepath.Join(base, "state"),
	}
	cfg.Build.Workers = 2
	cfg.Build.TerminateGrace = 2

	for _, opt := range opts {
		opt(t, &cfg, base)
	}
	return &cfg
}

// WithWorkers sets the pool size.
func WithWorkers(n int) Option {
	return func(_ testing.TB, cfg *config.Config, _ string) {
		cfg.Build.Workers = n
	}
}

// WithToolchain installs shell scripts as the compiler and bundler. An empty
// script falls back to PassingTool. Tests using it are skipped on Windows.
func WithToolchain(compilerScript, bundlerScript string) Option {
	return func(t testing.TB, cfg *config.Config, base string) {
		t.Helper()
		if runtime.GOOS == "windows" {
			t.Skip("stub toolchain uses shell scripts")
		}
		bin := filepath.Join(base, "bin")
		if err := os.MkdirAll(bin, 0o755); err != nil {
			t.Fatalf("mkdir bin dir: %v", err)
		}
		cfg.Toolchain.Compiler = writeTool(t, bin, "ngc", compilerScript)
		cfg.Toolchain.Bundler = writeTool(t, bin, "rollup", bundlerScript)
	}
}

func writeTool(t testing.TB, dir, name, script string) string {
	t.Helper()
	if script == "" {
		script = PassingTool
	}
	target := filepath.Join(dir, name)
	if err := os.WriteFile(target, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub %s: %v", name, err)
	}
	return target
}

// BaseDir returns the temp directory backing a config from NewConfig.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
