package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validatePackage(); err != nil {
		return err
	}
	if err := c.validateBuild(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if filepath.Clean(c.Paths.SourceDir) == filepath.Clean(c.Paths.OutputDir) {
		return errors.New("paths.source_dir and paths.output_dir must differ")
	}
	return nil
}

func (c *Config) validatePackage() error {
	if strings.ContainsAny(c.Package.BundleName, `/\`) {
		return fmt.Errorf("package.bundle_name %q must not contain path separators", c.Package.BundleName)
	}
	for module, global := range c.Package.Externals {
		if strings.TrimSpace(module) == "" || strings.TrimSpace(global) == "" {
			return errors.New("package.externals entries need both a module name and a global name")
		}
	}
	return nil
}

func (c *Config) validateBuild() error {
	if c.Build.Workers < 1 {
		return fmt.Errorf("build.workers must be at least 1 (0 selects the CPU count), got %d", c.Build.Workers)
	}
	if c.Build.UnitTimeout < 0 {
		return errors.New("build.unit_timeout must be zero or positive")
	}
	if c.Build.ProgressBucketPct > 100 {
		return errors.New("build.progress_bucket_pct must be between 1 and 100")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json", "auto":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
