package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"dltrace/log"
)

// ErrNoLogFile is returned by the log command when file logging is off.
var ErrNoLogFile = errors.New("no analyzer log configured (set Log_file in the config)")

func newLogCmd(a *app) *cobra.Command {
	var (
		tail    int
		pattern string
		summary bool
	)
	cmd := &cobra.Command{
		Use:   "log",
		Short: "View the analyzer log",
		Long: `Log shows the analyzer log file. Without flags the whole file is shown,
through $PAGER when stdout is a terminal.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.cfg.LogFile
			if path == "" {
				return ErrNoLogFile
			}
			out := cmd.OutOrStdout()

			switch {
			case summary:
				counts, err := log.LogSummary(path)
				if err != nil {
					return err
				}
				for _, level := range []string{log.LevelError, log.LevelWarn, log.LevelInfo, log.LevelDebug} {
					fmt.Fprintf(out, "%-6s %d\n", level, counts[level])
				}
				return nil
			case pattern != "":
				n, err := log.GrepLog(out, path, pattern)
				if err != nil {
					return err
				}
				if n == 0 {
					fmt.Fprintf(cmd.ErrOrStderr(), "No lines matching %q\n", pattern)
				}
				return nil
			case tail > 0:
				return log.TailLog(out, path, tail)
			default:
				return log.ViewLog(out, path)
			}
		},
	}
	fs := cmd.Flags()
	fs.IntVarP(&tail, "tail", "n", 0, "show only the last N lines")
	fs.StringVarP(&pattern, "grep", "g", "", "show only lines containing the pattern")
	fs.BoolVarP(&summary, "summary", "s", false, "count entries per level")
	return cmd
}
