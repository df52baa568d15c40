// Package cmd implements the dltrace command line.
package cmd

import (
	"github.com/spf13/cobra"

	"dltrace/config"
	"dltrace/log"
	"dltrace/service"
)

// Version is overridden at build time with
// -ldflags "-X dltrace/cmd.Version=...".
var Version = "dev"

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	configDir string
	profile   string
	debug     bool
}

// app carries the state of one command invocation: the persistent flags
// and the configuration loaded from them.
type app struct {
	opts globalOptions
	cfg  *config.Config
}

// NewRootCmd builds the complete command tree. Each call returns an
// independent tree, so tests can execute commands side by side.
func NewRootCmd() *cobra.Command {
	a := &app{}
	af := &analyzeFlags{}

	root := &cobra.Command{
		Use:   "dltrace [trace]",
		Short: "Analyze the trace of a multi-worker chunked download",
		Long: `dltrace reads the debug trace written by a chunked downloader (debug.log by
default) and reports per-worker throughput, slow tasks, throughput over time,
the effect of health kills and optimization recommendations.

Running dltrace without a command is the same as "dltrace analyze".`,
		Version:           Version,
		Args:              cobra.MaximumNArgs(1),
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.loadConfig,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runAnalyze(cmd, args, af)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&a.opts.configDir, "config-dir", "C", "", "config base directory (default $XDG_CONFIG_HOME/dltrace)")
	pf.StringVarP(&a.opts.profile, "profile", "p", "default", "configuration profile")
	pf.BoolVarP(&a.opts.debug, "debug", "d", false, "debug verbosity")

	af.register(root.Flags())

	root.AddCommand(
		newAnalyzeCmd(a),
		newBucketsCmd(a),
		newImpactCmd(a),
		newBrowseCmd(a),
		newHistoryCmd(a),
		newInitCmd(a),
		newStatusCmd(a),
		newLogCmd(a),
		newVersionCmd(),
	)
	explainErrors(root)
	return root
}

// Execute runs the command line against os.Args.
func Execute() error {
	return NewRootCmd().Execute()
}

func (a *app) loadConfig(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(a.opts.configDir, a.opts.profile)
	if err != nil {
		return err
	}
	if a.opts.debug {
		cfg.Debug = true
	}
	a.cfg = cfg
	return nil
}

// console logs to the command's stderr so stdout carries only the report.
func (a *app) console(cmd *cobra.Command) log.LibraryLogger {
	return &log.ConsoleLogger{Out: cmd.ErrOrStderr(), Verbose: a.cfg.Debug}
}

func (a *app) newService(cmd *cobra.Command) (*service.Service, error) {
	return service.NewService(a.cfg, a.console(cmd))
}
