package toolchain

import (
	"context"
	"errors"
	"os/exec"
	"sort"
	"strings"
)

// ErrToolFailed tags compiler and bundler invocations that did not succeed.
var ErrToolFailed = errors.New("toolchain command failed")

// Executor abstracts command execution for testability. Run returns the
// combined stdout and stderr of the command.
type Executor interface {
	Run(ctx context.Context, binary string, args []string) ([]byte, error)
}

// Option configures a compiler or bundler.
type Option func(*options)

type options struct {
	exec Executor
}

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(o *options) {
		if exec != nil {
			o.exec = exec
		}
	}
}

func applyOptions(opts []Option) options {
	o := options{exec: commandExecutor{}}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	return cmd.CombinedOutput()
}

// expandArgs substitutes {placeholder} tokens in every argument.
func expandArgs(args []string, values map[string]string) []string {
	pairs := make([]string, 0, len(values)*2)
	for key, value := range values {
		pairs = append(pairs, "{"+key+"}", value)
	}
	replacer := strings.NewReplacer(pairs...)
	out := make([]string, 0, len(args))
	for _, arg := range args {
		out = append(out, replacer.Replace(arg))
	}
	return out
}

// externalList renders module ids as a comma separated list in stable order.
func externalList(externals map[string]string) string {
	return strings.Join(sortedKeys(externals), ",")
}

// globalList renders id:global pairs as a comma separated list in stable order.
func globalList(externals map[string]string) string {
	keys := sortedKeys(externals)
	pairs := make([]string, 0, len(keys))
	for _, key := range keys {
		pairs = append(pairs, key+":"+externals[key])
	}
	return strings.Join(pairs, ",")
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func diagnostics(output []byte) string {
	return strings.TrimSpace(string(output))
}
