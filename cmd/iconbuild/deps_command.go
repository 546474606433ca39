package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"iconbuild/internal/deps"
)

func newDepsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "deps",
		Short: "Check that the configured toolchain is installed",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			statuses := deps.Check(cmd.Context(), deps.ToolchainRequirements(cfg))

			rows := make([][]string, 0, len(statuses))
			for _, status := range statuses {
				version := status.Version
				if version == "" {
					version = "-"
				}
				detail := status.Detail
				if detail == "" {
					detail = status.Purpose
				}
				rows = append(rows, []string{status.Name, status.Command, yesNo(status.Available), version, detail})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]column{
				col("Tool"),
				col("Command"),
				col("Available"),
				col("Version"),
				col("Detail"),
			}, rows))

			if missing := deps.Missing(statuses); len(missing) > 0 {
				return fmt.Errorf("%d required dependencies missing", len(missing))
			}
			return nil
		},
	}
}
