package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"iconbuild/internal/buildrun"
	"iconbuild/internal/logging"
)

func newWorkerCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:    "worker",
		Short:  "Serve build assignments on stdin/stdout",
		Hidden: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.logger("worker")
			if err != nil {
				return err
			}
			logger = logger.With(logging.WorkerPID(os.Getpid()))

			signalCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			runCtx := logging.WithRunID(signalCtx, os.Getenv(buildrun.EnvRunID))

			return buildrun.RunWorker(runCtx, cfg, logger, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}
