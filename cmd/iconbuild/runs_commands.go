package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"iconbuild/internal/ledger"
)

func newRunsCommand(ctx *commandContext) *cobra.Command {
	runsCmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect recorded build runs",
	}
	runsCmd.AddCommand(newRunsListCommand(ctx))
	runsCmd.AddCommand(newRunsShowCommand(ctx))
	return runsCmd
}

func newRunsListCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent builds, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLedger(func(store *ledger.Store) error {
				runs, err := store.ListRuns(cmd.Context(), limit)
				if err != nil {
					return err
				}
				if jsonOut {
					if runs == nil {
						runs = []*ledger.Run{}
					}
					return writeJSON(cmd, runs)
				}
				printRuns(cmd.OutOrStdout(), runs, time.Now())
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to show")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func newRunsShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one build and its namespaces",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLedger(func(store *ledger.Store) error {
				run, units, err := loadRun(cmd.Context(), store, args[0])
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, struct {
						*ledger.Run
						Units []ledger.UnitResult `json:"units"`
					}{run, units})
				}
				printRunDetail(cmd.OutOrStdout(), run, units, time.Now())
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func loadRun(ctx context.Context, store *ledger.Store, ref string) (*ledger.Run, []ledger.UnitResult, error) {
	run, err := store.FindRun(ctx, strings.TrimSpace(ref))
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		return nil, nil, fmt.Errorf("no run matches %q", ref)
	case errors.Is(err, ledger.ErrAmbiguousRun):
		return nil, nil, fmt.Errorf("run id %q matches more than one run; use a longer prefix", ref)
	case err != nil:
		return nil, nil, err
	}
	units, err := store.UnitResults(ctx, run.ID)
	if err != nil {
		return nil, nil, err
	}
	return run, units, nil
}

func printRuns(out io.Writer, runs []*ledger.Run, now time.Time) {
	if len(runs) == 0 {
		fmt.Fprintln(out, "No builds recorded")
		return
	}
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, []string{
			shortRunID(run.ID),
			string(run.Status),
			humanize.RelTime(run.StartedAt, now, "ago", "from now"),
			strconv.Itoa(run.PoolSize),
			fmt.Sprintf("%d/%d", run.Completed, run.UnitCount),
			formatRunDuration(run),
		})
	}
	fmt.Fprintln(out, renderTable([]column{
		col("Run"),
		col("Status"),
		col("Started"),
		numericCol("Workers"),
		numericCol("Completed"),
		numericCol("Duration"),
	}, rows))
}

func printRunDetail(out io.Writer, run *ledger.Run, units []ledger.UnitResult, now time.Time) {
	pairs := [][2]string{
		{"Run", run.ID},
		{"Status", string(run.Status)},
		{"Started", fmt.Sprintf("%s (%s)", run.StartedAt.Local().Format(time.DateTime), humanize.RelTime(run.StartedAt, now, "ago", "from now"))},
		{"Workers", strconv.Itoa(run.PoolSize)},
		{"Namespaces", humanize.Comma(int64(run.UnitCount))},
		{"Assigned", humanize.Comma(int64(run.Assigned))},
		{"Completed", humanize.Comma(int64(run.Completed))},
		{"Duration", formatRunDuration(run)},
	}
	if run.ErrorMessage != "" {
		pairs = append(pairs, [2]string{"Error", run.ErrorMessage})
	}
	fmt.Fprintln(out, renderPairs(pairs))

	if len(units) == 0 {
		return
	}
	rows := make([][]string, 0, len(units))
	for _, unit := range units {
		rows = append(rows, []string{
			unit.Namespace,
			unit.Status,
			strconv.Itoa(unit.WorkerPID),
			unit.Duration.Round(time.Millisecond).String(),
			firstLine(unit.Detail),
		})
	}
	fmt.Fprintln(out, renderTable([]column{
		col("Namespace"),
		col("Status"),
		numericCol("Worker"),
		numericCol("Duration"),
		col("Detail"),
	}, rows))
}

func formatRunDuration(run *ledger.Run) string {
	if run.FinishedAt == nil {
		return "-"
	}
	return run.Duration().Round(time.Millisecond).String()
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return s[:idx] + " ..."
	}
	return s
}

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
