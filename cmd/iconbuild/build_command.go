package main

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"iconbuild/internal/buildrun"
)

const slowestUnitsShown = 5

func newBuildCommand(ctx *commandContext) *cobra.Command {
	var workers int
	var unitTimeout int

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Generate sources and build every icon namespace",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("workers") {
				if workers < 1 {
					return fmt.Errorf("--workers must be at least 1")
				}
				cfg.Build.Workers = workers
			}
			if cmd.Flags().Changed("unit-timeout") {
				if unitTimeout < 0 {
					return fmt.Errorf("--unit-timeout must be zero or positive")
				}
				cfg.Build.UnitTimeout = unitTimeout
			}

			logger, err := ctx.logger("cli")
			if err != nil {
				return err
			}
			summary, err := buildrun.Run(cmd.Context(), cfg, logger, buildrun.Options{
				ConfigPath:   ctx.workerConfigPath(),
				WorkerStderr: cmd.ErrOrStderr(),
			})
			if err != nil {
				if summary.RunID != "" {
					return fmt.Errorf("build %s failed: %w", shortRunID(summary.RunID), err)
				}
				return err
			}
			printBuildSummary(cmd.OutOrStdout(), summary)
			return nil
		},
	}

	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "Number of worker processes (default from config)")
	cmd.Flags().IntVar(&unitTimeout, "unit-timeout", 0, "Seconds a single namespace may take; 0 disables the limit")
	return cmd
}

func printBuildSummary(out io.Writer, summary buildrun.Summary) {
	result := summary.Result
	fmt.Fprintf(out, "Build %s succeeded\n", shortRunID(summary.RunID))
	fmt.Fprintln(out, renderPairs([][2]string{
		{"Run", summary.RunID},
		{"Workers", strconv.Itoa(result.PoolSize)},
		{"Namespaces", strconv.Itoa(result.Units)},
		{"Completed", strconv.Itoa(result.Completed)},
		{"Duration", result.Duration.Round(time.Millisecond).String()},
	}))

	slowest := slowestUnits(result.UnitDurations, slowestUnitsShown)
	if len(slowest) == 0 {
		return
	}
	rows := make([][]string, 0, len(slowest))
	for _, unit := range slowest {
		rows = append(rows, []string{unit.namespace, unit.duration.Round(time.Millisecond).String()})
	}
	fmt.Fprintln(out, "Slowest namespaces")
	fmt.Fprintln(out, renderTable([]column{col("Namespace"), numericCol("Duration")}, rows))
}

type unitDuration struct {
	namespace string
	duration  time.Duration
}

func slowestUnits(durations map[string]time.Duration, limit int) []unitDuration {
	units := make([]unitDuration, 0, len(durations))
	for ns, d := range durations {
		units = append(units, unitDuration{namespace: ns, duration: d})
	}
	sort.Slice(units, func(i, j int) bool {
		if units[i].duration == units[j].duration {
			return units[i].namespace < units[j].namespace
		}
		return units[i].duration > units[j].duration
	})
	if len(units) > limit {
		units = units[:limit]
	}
	return units
}

func shortRunID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
