package buildrun

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"iconbuild/internal/catalog"
	"iconbuild/internal/codegen"
	"iconbuild/internal/config"
	"iconbuild/internal/layout"
	"iconbuild/internal/ledger"
	"iconbuild/internal/logging"
	"iconbuild/internal/pool"
	"iconbuild/internal/postbuild"
	"iconbuild/internal/toolchain"
)

// EnvRunID carries the run identifier from the coordinator to its workers.
const EnvRunID = "ICONBUILD_RUN_ID"

// ErrBuildInProgress reports another build holding the lock for the same
// state directory.
var ErrBuildInProgress = errors.New("another build is already running")

// Options tunes a build invocation.
type Options struct {
	// ConfigPath is forwarded to worker processes so they load the same
	// configuration. Empty means workers fall back to the default lookup.
	ConfigPath string
	// Spawner overrides how workers are started. Nil re-executes the
	// running binary in worker mode.
	Spawner pool.Spawner
	// WorkerStderr receives worker log output. Nil uses os.Stderr.
	WorkerStderr io.Writer
}

// Summary describes a finished build.
type Summary struct {
	RunID  string
	Result pool.Result
}

// Run executes one full build.
func Run(cmdCtx context.Context, cfg *config.Config, logger *slog.Logger, opts Options) (Summary, error) {
	if cfg == nil {
		return Summary{}, fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cfg.EnsureDirectories(); err != nil {
		return Summary{}, fmt.Errorf("ensure directories: %w", err)
	}

	lock := flock.New(cfg.LockPath())
	ok, err := lock.TryLock()
	if err != nil {
		return Summary{}, fmt.Errorf("acquire build lock: %w", err)
	}
	if !ok {
		return Summary{}, fmt.Errorf("%w (lock %s)", ErrBuildInProgress, cfg.LockPath())
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logging.WarnWithContext(logger, "failed to release build lock", "lock_release_failed",
				logging.Error(err),
				logging.String("lock", cfg.LockPath()),
			)
		}
	}()

	summary := Summary{RunID: uuid.NewString()}
	ctx := logging.WithRunID(signalCtx, summary.RunID)
	logger = logging.WithContext(ctx, logging.NewComponentLogger(logger, "build"))

	cat, err := catalog.Load(cfg.Paths.Metadata)
	if err != nil {
		return summary, err
	}
	logger.Info("build starting",
		logging.Int("units", cat.Len()),
		logging.Int("workers", cfg.Build.Workers),
	)

	l := layout.New(cfg.Paths.SourceDir, cfg.Paths.OutputDir)
	if err := codegen.New(l, cfg.Package, logger).Generate(cat); err != nil {
		return summary, fmt.Errorf("generate sources: %w", err)
	}

	bundler, err := toolchain.NewBundler(cfg.Toolchain.Bundler, cfg.Toolchain.BundlerArgs, cfg.Package.Externals, logger)
	if err != nil {
		return summary, err
	}

	spawner := opts.Spawner
	if spawner == nil {
		spawner, err = newSelfSpawner(cfg, opts, summary.RunID, logger)
		if err != nil {
			return summary, fmt.Errorf("%w: %v", pool.ErrPoolStartup, err)
		}
	}

	poolOpts := []pool.Option{
		pool.WithUnitTimeout(time.Duration(cfg.Build.UnitTimeout) * time.Second),
		pool.WithProgressBucket(cfg.Build.ProgressBucketPct),
	}
	store := openLedger(ctx, cfg, summary.RunID, cat.Len(), logger)
	if store != nil {
		defer store.Close()
		poolOpts = append(poolOpts, pool.WithRecorder(ledger.NewRecorder(store, summary.RunID)))
	}

	result, runErr := pool.New(spawner, logger, poolOpts...).Run(ctx, cat, cfg.Build.Workers)
	summary.Result = result
	if runErr == nil {
		stage := postbuild.New(l, cfg.Package, cfg.Paths.Manifest, bundler, logger)
		if err := stage.Run(ctx, cat); err != nil {
			runErr = fmt.Errorf("post-process: %w", err)
		}
	}

	if store != nil {
		if err := store.FinishRun(context.WithoutCancel(ctx), summary.RunID, result.Assigned, result.Completed, runErr); err != nil {
			logging.WarnWithContext(logger, "failed to record run outcome", "ledger_write_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "run history incomplete"),
			)
		}
	}

	if runErr != nil {
		return summary, runErr
	}
	logger.Info("build complete",
		logging.Int("units", result.Units),
		logging.Duration("duration", result.Duration),
	)
	return summary, nil
}

func newSelfSpawner(cfg *config.Config, opts Options, runID string, logger *slog.Logger) (*pool.ProcessSpawner, error) {
	args := []string{"worker"}
	if opts.ConfigPath != "" {
		args = append(args, "--config", opts.ConfigPath)
	}
	stderr := opts.WorkerStderr
	if stderr == nil {
		stderr = os.Stderr
	}
	return pool.SelfSpawner(args, logger,
		pool.WithEnv(EnvRunID+"="+runID),
		pool.WithStderr(stderr),
		pool.WithTerminateGrace(time.Duration(cfg.Build.TerminateGrace)*time.Second),
	)
}

// openLedger opens the run ledger and records the run start. Failures are
// logged and yield nil; a build never fails because history is unavailable.
func openLedger(ctx context.Context, cfg *config.Config, runID string, units int, logger *slog.Logger) *ledger.Store {
	store, err := ledger.Open(cfg.LedgerPath())
	if err != nil {
		logging.WarnWithContext(logger, "run ledger unavailable", "ledger_open_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "run history not recorded"),
		)
		return nil
	}
	if err := store.BeginRun(ctx, runID, cfg.Build.Workers, units); err != nil {
		logging.WarnWithContext(logger, "failed to record run start", "ledger_write_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "run history not recorded"),
		)
		_ = store.Close()
		return nil
	}
	return store
}
