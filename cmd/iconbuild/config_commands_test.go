package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, env.configPath)

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	_, _, err = runCLI(t, []string{"config", "init", "--path", target}, "")
	if err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Fatalf("expected existing file error, got %v", err)
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target, "--overwrite"}, ""); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
}

func TestConfigValidateRejectsUnknownKeys(t *testing.T) {
	env := setupCLITestEnv(t)
	if err := os.WriteFile(env.configPath, []byte("[build]\nworkerz = 3\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, _, err := runCLI(t, []string{"config", "validate"}, env.configPath); err == nil {
		t.Fatal("expected unknown key to fail validation")
	}
}

func TestDepsReportsToolchain(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"deps"}, env.configPath)
	if err != nil {
		t.Fatalf("deps: %v", err)
	}
	requireContains(t, out, "Compiler")
	requireContains(t, out, "yes")

	env.cfg.Toolchain.Bundler = filepath.Join(env.baseDir, "missing-rollup")
	writeTestConfig(t, env.configPath, env.cfg)
	out, _, err = runCLI(t, []string{"deps"}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "1 required") {
		t.Fatalf("expected missing dependency error, got %v", err)
	}
	requireContains(t, out, "no")
}

func TestGenerateAndCleanCommands(t *testing.T) {
	env := setupCLITestEnv(t, "add/16", "close/32")

	out, _, err := runCLI(t, []string{"generate"}, env.configPath)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	requireContains(t, out, "Generated 2 namespaces")
	if _, err := os.Stat(filepath.Join(env.cfg.Paths.SourceDir, "close", "32", "icon.ts")); err != nil {
		t.Fatalf("expected generated source: %v", err)
	}

	if _, _, err := runCLI(t, []string{"clean"}, env.configPath); err != nil {
		t.Fatalf("clean: %v", err)
	}
	if _, err := os.Stat(env.cfg.Paths.SourceDir); !os.IsNotExist(err) {
		t.Fatalf("expected sources removed: %v", err)
	}
}

func TestConfigShowPrintsEffectiveValues(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "show"}, env.configPath)
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, "[paths]")
	requireContains(t, out, env.cfg.Toolchain.Compiler)
	requireContains(t, out, "selector_prefix")
}
