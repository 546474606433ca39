package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains input files and output directory configuration.
type Paths struct {
	Metadata  string `toml:"metadata"`
	Manifest  string `toml:"manifest"`
	SourceDir string `toml:"source_dir"`
	OutputDir string `toml:"output_dir"`
	StateDir  string `toml:"state_dir"`
}

// Package contains naming used in generated modules and bundles.
type Package struct {
	Name           string            `toml:"name"`
	GlobalName     string            `toml:"global_name"`
	BundleName     string            `toml:"bundle_name"`
	SelectorPrefix string            `toml:"selector_prefix"`
	Externals      map[string]string `toml:"externals"`
}

// Build contains worker pool settings.
type Build struct {
	// Workers is the pool size. Zero selects the number of CPUs.
	Workers int `toml:"workers"`
	// UnitTimeout bounds a single namespace build in seconds. Zero disables it.
	UnitTimeout int `toml:"unit_timeout"`
	// TerminateGrace is how long a worker may take to exit after being told
	// to terminate before its process group is killed.
	TerminateGrace    int `toml:"terminate_grace"`
	ProgressBucketPct int `toml:"progress_bucket_pct"`
}

// Toolchain contains the external compiler and bundler commands.
type Toolchain struct {
	Compiler     string   `toml:"compiler"`
	CompilerArgs []string `toml:"compiler_args"`
	Bundler      string   `toml:"bundler"`
	BundlerArgs  []string `toml:"bundler_args"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for iconbuild.
type Config struct {
	Paths     Paths     `toml:"paths"`
	Package   Package   `toml:"package"`
	Build     Build     `toml:"build"`
	Toolchain Toolchain `toml:"toolchain"`
	Logging   Logging   `toml:"logging"`
}

const (
	projectConfigName  = "iconbuild.toml"
	userConfigLocation = "~/.config/iconbuild/config.toml"
)

// DefaultConfigPath returns the per-user configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(userConfigLocation)
}

// Load reads the configuration at path, or the first config found in the
// working directory and then the user config directory when path is empty.
// It returns the config, the path it was read from (or would be written to),
// and whether that file existed.
func Load(path string) (*Config, string, bool, error) {
	resolved, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	cfg := Default()
	if exists {
		if err := decodeFile(resolved, &cfg); err != nil {
			return nil, "", false, err
		}
	}
	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolved, exists, nil
}

func decodeFile(path string, cfg *Config) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	decoder := toml.NewDecoder(file)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return fmt.Errorf("parse config %s: %s", path, strict.String())
		}
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		found, err := isConfigFile(expanded)
		return expanded, found, err
	}

	userPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs(projectConfigName)
	if err != nil {
		return "", false, err
	}
	for _, candidate := range []string{projectPath, userPath} {
		if found, _ := isConfigFile(candidate); found {
			return candidate, true, nil
		}
	}
	return userPath, false, nil
}

func isConfigFile(path string) (bool, error) {
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("stat config: %w", err)
	case info.IsDir():
		return false, fmt.Errorf("config path %s is a directory", path)
	}
	return true, nil
}

// EnsureDirectories creates the state directory holding the ledger and lock.
func (c *Config) EnsureDirectories() error {
	if err := os.MkdirAll(c.Paths.StateDir, 0o755); err != nil {
		return fmt.Errorf("create state directory %q: %w", c.Paths.StateDir, err)
	}
	return nil
}

func (c *Config) LedgerPath() string {
	return filepath.Join(c.Paths.StateDir, "runs.db")
}

func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "iconbuild.lock")
}

func expandPath(value string) (string, error) {
	if value == "" {
		return "", nil
	}
	if value == "~" || strings.HasPrefix(value, "~/") || strings.HasPrefix(value, `~\`) {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		value = filepath.Join(home, value[1:])
	}
	absolute, err := filepath.Abs(value)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", value, err)
	}
	return absolute, nil
}

// ExpandPath resolves a leading ~ and makes the path absolute.
func ExpandPath(value string) (string, error) {
	return expandPath(value)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// Encode writes the effective configuration as TOML.
func (c *Config) Encode(w io.Writer) error {
	enc := toml.NewEncoder(w)
	enc.SetIndentTables(true)
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return nil
}
