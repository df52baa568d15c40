package cmd

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show configuration and history database status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.newService(cmd)
			if err != nil {
				return err
			}
			defer svc.Close()

			st, err := svc.GetStatus()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			configFile := st.ConfigFile
			if configFile == "" {
				configFile = "(defaults)"
			}
			logFile := st.LogFile
			if logFile == "" {
				logFile = "(disabled)"
			}

			fmt.Fprintln(out, "=== dltrace Status ===")
			fmt.Fprintf(out, "Config:        %s\n", configFile)
			fmt.Fprintf(out, "Profile:       %s\n", st.Profile)
			fmt.Fprintf(out, "State dir:     %s\n", st.StateDir)
			fmt.Fprintf(out, "Log file:      %s\n", logFile)
			fmt.Fprintf(out, "Database:      %s\n", st.DatabasePath)

			if st.Stats == nil {
				fmt.Fprintln(out, "History:       disabled")
				return nil
			}
			fmt.Fprintf(out, "Size:          %s\n", humanize.IBytes(uint64(max(st.DatabaseSize, 0))))
			fmt.Fprintf(out, "Runs:          %d\n", st.Stats.Runs)
			fmt.Fprintf(out, "Traces:        %d\n", st.Stats.Traces)
			if st.LatestRun != nil {
				fmt.Fprintf(out, "Latest run:    %s (%s, %s)\n", shortRunID(st.LatestRun.ID),
					st.LatestRun.TracePath, humanize.Time(st.LatestRun.AnalyzedAt))
				fmt.Fprintf(out, "Latest trace:  %s\n", st.LatestTrace)
			}
			return nil
		},
	}
}
