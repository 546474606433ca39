package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"iconbuild/internal/buildrun"
)

func newGenerateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "generate",
		Short: "Render component sources without compiling them",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.logger("cli")
			if err != nil {
				return err
			}
			cat, err := buildrun.Generate(cfg, logger)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Generated %d namespaces under %s\n", cat.Len(), cfg.Paths.SourceDir)
			return nil
		},
	}
}

func newCleanCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Remove generated sources and build output",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.logger("cli")
			if err != nil {
				return err
			}
			if err := buildrun.Clean(cfg, logger); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Removed %s\n", cfg.Paths.SourceDir)
			fmt.Fprintf(out, "Removed %s\n", cfg.Paths.OutputDir)
			return nil
		},
	}
}
