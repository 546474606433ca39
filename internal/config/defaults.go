package config

const (
	defaultMetadataPath      = "metadata.json"
	defaultManifestPath      = "package.json"
	defaultSourceDir         = "ts"
	defaultOutputDir         = "dist"
	defaultStateDir          = "~/.local/share/iconbuild"
	defaultPackageName       = "@carbon/icons-angular"
	defaultGlobalName        = "CarbonIconsAngular"
	defaultBundleName        = "carbon-icons-angular"
	defaultSelectorPrefix    = "ibm-icon"
	defaultCompiler          = "ngc"
	defaultBundler           = "rollup"
	defaultTerminateGrace    = 5
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
	defaultProgressBucketPct = 10
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			Metadata:  defaultMetadataPath,
			Manifest:  defaultManifestPath,
			SourceDir: defaultSourceDir,
			OutputDir: defaultOutputDir,
			StateDir:  defaultStateDir,
		},
		Package: Package{
			Name:           defaultPackageName,
			GlobalName:     defaultGlobalName,
			BundleName:     defaultBundleName,
			SelectorPrefix: defaultSelectorPrefix,
			Externals:      defaultExternals(),
		},
		Build: Build{
			Workers:           0,
			UnitTimeout:       0,
			TerminateGrace:    defaultTerminateGrace,
			ProgressBucketPct: defaultProgressBucketPct,
		},
		Toolchain: Toolchain{
			Compiler:     defaultCompiler,
			CompilerArgs: defaultCompilerArgs(),
			Bundler:      defaultBundler,
			BundlerArgs:  defaultBundlerArgs(),
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}

func defaultExternals() map[string]string {
	return map[string]string{
		"@angular/core":        "ng.core",
		"@carbon/icon-helpers": "CarbonIconHelpers",
	}
}

func defaultCompilerArgs() []string {
	return []string{"-p", "{tsconfig}"}
}

func defaultBundlerArgs() []string {
	return []string{
		"--input", "{input}",
		"--file", "{file}",
		"--format", "{format}",
		"--name", "{name}",
		"--external", "{externals}",
		"--globals", "{globals}",
		"--silent",
	}
}
