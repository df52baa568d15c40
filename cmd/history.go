package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"dltrace/historydb"
	"dltrace/stats"
	"dltrace/util"
)

func newHistoryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect and manage recorded analysis runs",
	}
	cmd.AddCommand(
		newHistoryListCmd(a),
		newHistoryShowCmd(a),
		newHistoryDeleteCmd(a),
		newHistoryBackupCmd(a),
		newHistoryResetCmd(a),
	)
	return cmd
}

func newHistoryListCmd(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded runs, most recent first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.newService(cmd)
			if err != nil {
				return err
			}
			defer svc.Close()

			runs, err := svc.ListRuns(limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded.")
				return nil
			}
			fmt.Fprintf(out, "%-8s  %-20s  %7s  %6s  %11s  %8s  %s\n",
				"RUN", "ANALYZED", "WORKERS", "TASKS", "AVG SPEED", "FINDINGS", "TRACE")
			for _, r := range runs {
				fmt.Fprintf(out, "%-8s  %-20s  %7d  %6d  %11s  %8d  %s\n",
					shortRunID(r.ID), r.AnalyzedAt.Local().Format(time.DateTime), r.Workers, r.Tasks,
					stats.FormatSpeed(r.GlobalAvgSpeedMBps), len(r.Recommendations), r.TracePath)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of runs (0 for all)")
	return cmd
}

func newHistoryShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show a recorded run (full id or unique prefix)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.newService(cmd)
			if err != nil {
				return err
			}
			defer svc.Close()

			detail, err := svc.ShowRun(args[0])
			if err != nil {
				return err
			}
			printRun(cmd.OutOrStdout(), detail.Run, detail.Workers)
			return nil
		},
	}
}

func newHistoryDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <run-id>",
		Short: "Delete a recorded run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.newService(cmd)
			if err != nil {
				return err
			}
			defer svc.Close()

			run, err := svc.DeleteRun(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Deleted run %s\n", run.ID)
			return nil
		},
	}
}

func newHistoryBackupCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "backup",
		Short: "Write a consistent copy of the history database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.newService(cmd)
			if err != nil {
				return err
			}
			defer svc.Close()

			path, err := svc.BackupDatabase()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Backup written to %s\n", path)
			return nil
		},
	}
}

func newHistoryResetCmd(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete the history database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.newService(cmd)
			if err != nil {
				return err
			}
			defer svc.Close()

			out := cmd.OutOrStdout()
			if !svc.DatabaseExists() {
				fmt.Fprintln(out, "No database found")
				return nil
			}

			// Confirm destructive operation (unless -y flag)
			if !yes {
				fmt.Fprintf(out, "WARNING: This will delete every recorded run\n")
				fmt.Fprintf(out, "Database: %s\n\n", svc.GetDatabasePath())
				if !util.AskYN(cmd.InOrStdin(), out, "Are you sure?", false) {
					fmt.Fprintln(out, "Cancelled")
					return nil
				}
			}

			result, err := svc.ResetDatabase()
			if err != nil {
				return err
			}
			for _, f := range result.FilesRemoved {
				fmt.Fprintf(out, "  removed %s\n", f)
			}
			fmt.Fprintln(out, "✓ History database reset successfully")
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

func printRun(w io.Writer, run *historydb.RunRecord, workers []historydb.RunWorkerRecord) {
	fmt.Fprintf(w, "Run:            %s\n", run.ID)
	fmt.Fprintf(w, "Analyzed:       %s\n", run.AnalyzedAt.Local().Format(time.DateTime))
	fmt.Fprintf(w, "Trace:          %s (crc %08x)\n", run.TracePath, run.TraceCRC)
	if run.Filter != "" {
		fmt.Fprintf(w, "Filter:         %s\n", run.Filter)
	}
	if run.Filename != "" {
		fmt.Fprintf(w, "File:           %s (%s)\n", run.Filename, humanize.IBytes(uint64(max(run.TotalSize, 0))))
	}
	fmt.Fprintf(w, "Workers:        %d\n", run.Workers)
	fmt.Fprintf(w, "Tasks:          %d\n", run.Tasks)
	fmt.Fprintf(w, "Data:           %s\n", humanize.IBytes(uint64(max(run.TotalBytes, 0))))
	fmt.Fprintf(w, "Avg speed:      %s\n", stats.FormatSpeed(run.GlobalAvgSpeedMBps))
	fmt.Fprintf(w, "Avg task:       %s\n", stats.FormatSeconds(run.GlobalAvgTaskDuration))
	fmt.Fprintf(w, "Slow tasks:     %d\n", run.SlowTasks)
	fmt.Fprintf(w, "Health kills:   %d\n", run.HealthKills)
	fmt.Fprintf(w, "Splits:         %d\n", run.BalancerSplits)

	if len(workers) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "%6s  %5s  %10s  %11s  %6s  %8s  %s\n", "WORKER", "TASKS", "DATA", "AVG SPEED", "UTIL", "IDLE", "STATUS")
		for _, wk := range workers {
			fmt.Fprintf(w, "%6d  %5d  %10s  %11s  %6s  %8s  %s\n",
				wk.WorkerID, wk.Tasks, humanize.IBytes(uint64(max(wk.TotalBytes, 0))),
				stats.FormatSpeed(wk.AvgSpeedMBps), stats.FormatPercent(wk.Utilization),
				stats.FormatSeconds(wk.IdleSeconds), wk.Status)
		}
	}

	if len(run.Recommendations) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Recommendations:")
		for i, r := range run.Recommendations {
			fmt.Fprintf(w, "  %d. %s\n", i+1, r)
		}
	}
}

func shortRunID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
