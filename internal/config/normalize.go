package config

import (
	"fmt"
	"runtime"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizePackage()
	c.normalizeBuild()
	c.normalizeToolchain()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	fields := []struct {
		name     string
		value    *string
		fallback string
	}{
		{"paths.metadata", &c.Paths.Metadata, defaultMetadataPath},
		{"paths.manifest", &c.Paths.Manifest, defaultManifestPath},
		{"paths.source_dir", &c.Paths.SourceDir, defaultSourceDir},
		{"paths.output_dir", &c.Paths.OutputDir, defaultOutputDir},
		{"paths.state_dir", &c.Paths.StateDir, defaultStateDir},
	}
	for _, field := range fields {
		if strings.TrimSpace(*field.value) == "" {
			*field.value = field.fallback
		}
		expanded, err := expandPath(strings.TrimSpace(*field.value))
		if err != nil {
			return fmt.Errorf("%s: %w", field.name, err)
		}
		*field.value = expanded
	}
	return nil
}

func (c *Config) normalizePackage() {
	c.Package.Name = strings.TrimSpace(c.Package.Name)
	if c.Package.Name == "" {
		c.Package.Name = defaultPackageName
	}
	c.Package.GlobalName = strings.TrimSpace(c.Package.GlobalName)
	if c.Package.GlobalName == "" {
		c.Package.GlobalName = defaultGlobalName
	}
	c.Package.BundleName = strings.TrimSpace(c.Package.BundleName)
	if c.Package.BundleName == "" {
		c.Package.BundleName = defaultBundleName
	}
	c.Package.SelectorPrefix = strings.TrimSpace(c.Package.SelectorPrefix)
	if c.Package.SelectorPrefix == "" {
		c.Package.SelectorPrefix = defaultSelectorPrefix
	}
	if c.Package.Externals == nil {
		c.Package.Externals = defaultExternals()
	}
}

func (c *Config) normalizeBuild() {
	if c.Build.Workers == 0 {
		c.Build.Workers = runtime.NumCPU()
	}
	if c.Build.TerminateGrace <= 0 {
		c.Build.TerminateGrace = defaultTerminateGrace
	}
	if c.Build.ProgressBucketPct <= 0 {
		c.Build.ProgressBucketPct = defaultProgressBucketPct
	}
}

func (c *Config) normalizeToolchain() {
	c.Toolchain.Compiler = strings.TrimSpace(c.Toolchain.Compiler)
	if c.Toolchain.Compiler == "" {
		c.Toolchain.Compiler = defaultCompiler
	}
	if len(c.Toolchain.CompilerArgs) == 0 {
		c.Toolchain.CompilerArgs = defaultCompilerArgs()
	}
	c.Toolchain.Bundler = strings.TrimSpace(c.Toolchain.Bundler)
	if c.Toolchain.Bundler == "" {
		c.Toolchain.Bundler = defaultBundler
	}
	if len(c.Toolchain.BundlerArgs) == 0 {
		c.Toolchain.BundlerArgs = defaultBundlerArgs()
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
