package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"dltrace/report"
	"dltrace/service"
	"dltrace/trace"
)

// analyzeFlags are the flags of every command that analyzes a trace.
type analyzeFlags struct {
	worker    int
	since     string
	until     string
	buckets   int
	window    time.Duration
	scope     string
	format    string
	color     string
	charts    bool
	noCharts  bool
	chartDir  string
	noHistory bool
}

func (f *analyzeFlags) register(fs *pflag.FlagSet) {
	f.registerFilter(fs)
	fs.IntVarP(&f.buckets, "buckets", "b", 0, "throughput buckets (default from config, negative disables)")
	fs.DurationVarP(&f.window, "window", "w", 0, "health-kill impact window (default from config)")
	fs.StringVar(&f.scope, "scope", "", "health-kill impact scope: worker or fleet")
	fs.StringVarP(&f.format, "format", "o", "text", "output format: text, json, yaml or prom")
	fs.StringVar(&f.color, "color", "", "colour the text report: auto, always or never")
	fs.BoolVar(&f.charts, "charts", false, "render PNG charts")
	fs.BoolVar(&f.noCharts, "no-charts", false, "do not render charts even if enabled in config")
	fs.StringVar(&f.chartDir, "chart-dir", "", "directory for chart images")
	fs.BoolVar(&f.noHistory, "no-history", false, "do not record the run in the history database")
}

// registerFilter adds only the worker/time restrictions.
func (f *analyzeFlags) registerFilter(fs *pflag.FlagSet) {
	fs.IntVar(&f.worker, "worker", 0, "analyze only this worker id")
	fs.StringVar(&f.since, "since", "", "keep tasks completed at or after `TIME` (2006-01-02 15:04:05)")
	fs.StringVar(&f.until, "until", "", "keep tasks completed at or before `TIME` (2006-01-02 15:04:05)")
}

// filter converts the restriction flags. The worker flag applies only when
// given, since 0 is a valid worker id.
func (f *analyzeFlags) filter(fs *pflag.FlagSet) (trace.FilterOptions, error) {
	var opts trace.FilterOptions
	if fs.Changed("worker") {
		id := f.worker
		opts.WorkerID = &id
	}
	var err error
	if opts.Since, err = trace.ParseFilterTime(f.since); err != nil {
		return opts, fmt.Errorf("--since: %w", err)
	}
	if opts.Until, err = trace.ParseFilterTime(f.until); err != nil {
		return opts, fmt.Errorf("--until: %w", err)
	}
	return opts, opts.Validate()
}

func (a *app) analyzeOptions(cmd *cobra.Command, args []string, f *analyzeFlags) (service.AnalyzeOptions, error) {
	opts := service.AnalyzeOptions{
		TracePath:    service.DefaultTracePath,
		Buckets:      f.buckets,
		ImpactWindow: f.window,
		ImpactScope:  f.scope,
		Charts:       a.cfg.ChartsEnabled,
		ChartDir:     f.chartDir,
		SaveHistory:  a.cfg.History.Enabled && !f.noHistory,
	}
	if len(args) > 0 {
		opts.TracePath = args[0]
	}
	if f.charts {
		opts.Charts = true
	}
	if f.noCharts {
		opts.Charts = false
	}

	filter, err := f.filter(cmd.Flags())
	if err != nil {
		return opts, err
	}
	opts.Filter = filter
	return opts, nil
}

// colorMode resolves --color over the configured mode.
func (a *app) colorMode(f *analyzeFlags) (string, error) {
	switch f.color {
	case "":
		return a.cfg.Color, nil
	case report.ColorAuto, report.ColorAlways, report.ColorNever:
		return f.color, nil
	default:
		return "", fmt.Errorf("invalid --color %q (want auto, always or never)", f.color)
	}
}

func newAnalyzeCmd(a *app) *cobra.Command {
	f := &analyzeFlags{}
	cmd := &cobra.Command{
		Use:   "analyze [trace]",
		Short: "Analyze a trace and print the full report",
		Long: `Analyze parses the trace (debug.log by default), prints the performance
report and records the run in the history database.

Examples:
  dltrace analyze
  dltrace analyze /tmp/debug.log --worker 3
  dltrace analyze --since "2024-01-01 10:00:00" --format json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runAnalyze(cmd, args, f)
		},
	}
	f.register(cmd.Flags())
	return cmd
}

func (a *app) runAnalyze(cmd *cobra.Command, args []string, f *analyzeFlags) error {
	format, err := report.ParseFormat(f.format)
	if err != nil {
		return err
	}
	color, err := a.colorMode(f)
	if err != nil {
		return err
	}
	opts, err := a.analyzeOptions(cmd, args, f)
	if err != nil {
		return err
	}

	svc, err := a.newService(cmd)
	if err != nil {
		return err
	}
	defer svc.Close()

	result, err := svc.Analyze(opts)
	if err != nil {
		return err
	}
	return report.Write(cmd.OutOrStdout(), result.Document, format, report.RenderOptions{Color: color})
}

// analyzeOnly runs the pipeline without side effects: no charts and no
// history record. It backs the section commands and the browser.
func (a *app) analyzeOnly(cmd *cobra.Command, args []string, f *analyzeFlags) (*report.Document, error) {
	opts, err := a.analyzeOptions(cmd, args, f)
	if err != nil {
		return nil, err
	}
	opts.Charts = false
	opts.SaveHistory = false

	svc, err := a.newService(cmd)
	if err != nil {
		return nil, err
	}
	defer svc.Close()

	result, err := svc.Analyze(opts)
	if err != nil {
		return nil, err
	}
	return result.Document, nil
}
