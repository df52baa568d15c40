package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"dltrace/report"
	"dltrace/ui"
)

// ErrNotTerminal is returned by browse when stdout is not a terminal.
var ErrNotTerminal = errors.New("browse requires an interactive terminal (use analyze for piped output)")

func newBrowseCmd(a *app) *cobra.Command {
	f := &analyzeFlags{}
	cmd := &cobra.Command{
		Use:   "browse [trace]",
		Short: "Explore a trace analysis interactively",
		Long: `Browse opens a full-screen view of the analysis: the worker table, a detail
pane for the selected worker and the findings. Press Tab to switch panes and
q or Esc to quit.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !report.IsTerminal(cmd.OutOrStdout()) {
				return ErrNotTerminal
			}
			doc, err := a.analyzeOnly(cmd, args, f)
			if err != nil {
				return err
			}
			return ui.NewBrowser(doc).Run()
		},
	}
	f.registerFilter(cmd.Flags())
	return cmd
}
