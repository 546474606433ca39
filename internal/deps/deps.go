// Package deps checks that the external toolchain a build shells out to is
// installed and reports the version each tool identifies itself with.
package deps

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"iconbuild/internal/config"
)

const versionProbeTimeout = 5 * time.Second

// Requirement is one external binary a build invokes.
type Requirement struct {
	Name    string
	Command string
	Purpose string
	// VersionArgs, when set, are passed to the binary to print its version.
	VersionArgs []string
	Optional    bool
}

// Status is the outcome of checking one Requirement.
type Status struct {
	Requirement
	Available bool
	// Path is the resolved executable when Available.
	Path    string
	Version string
	Detail  string
}

// ToolchainRequirements lists the compiler and bundler configured for cfg.
func ToolchainRequirements(cfg *config.Config) []Requirement {
	if cfg == nil {
		return nil
	}
	return []Requirement{
		{
			Name:        "Compiler",
			Command:     cfg.Toolchain.Compiler,
			Purpose:     "compiles generated component modules (ES2015 and ES5)",
			VersionArgs: []string{"--version"},
		},
		{
			Name:        "Bundler",
			Command:     cfg.Toolchain.Bundler,
			Purpose:     "writes flattened ES and UMD bundles",
			VersionArgs: []string{"--version"},
		},
	}
}

// Missing returns the required dependencies that are unavailable.
func Missing(statuses []Status) []Status {
	var missing []Status
	for _, status := range statuses {
		if !status.Available && !status.Optional {
			missing = append(missing, status)
		}
	}
	return missing
}

// Check resolves every requirement on PATH and probes its version. A
// version probe that fails leaves the tool available with the failure in
// Detail.
func Check(ctx context.Context, requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		req.Command = strings.TrimSpace(req.Command)
		results = append(results, check(ctx, req))
	}
	return results
}

func check(ctx context.Context, req Requirement) Status {
	status := Status{Requirement: req}
	if req.Command == "" {
		status.Detail = "command not configured"
		return status
	}
	path, err := exec.LookPath(req.Command)
	if err != nil {
		status.Detail = fmt.Sprintf("binary %q not found", req.Command)
		return status
	}
	status.Available = true
	status.Path = path
	if len(req.VersionArgs) == 0 {
		return status
	}

	version, err := probeVersion(ctx, path, req.VersionArgs)
	if err != nil {
		status.Detail = fmt.Sprintf("version probe failed: %v", err)
		return status
	}
	status.Version = version
	return status
}

func probeVersion(ctx context.Context, path string, args []string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, versionProbeTimeout)
	defer cancel()
	out, err := exec.CommandContext(ctx, path, args...).Output() //nolint:gosec
	if err != nil {
		return "", err
	}
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			return line, nil
		}
	}
	return "", nil
}
