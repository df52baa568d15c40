package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"dltrace/report"
)

// sectionFormat accepts the formats the section commands support.
func sectionFormat(s string) (report.Format, error) {
	format, err := report.ParseFormat(s)
	if err != nil {
		return "", err
	}
	if format == report.FormatPrometheus {
		return "", fmt.Errorf("%w: prom is only available for the full report", report.ErrUnknownFormat)
	}
	return format, nil
}

func newBucketsCmd(a *app) *cobra.Command {
	f := &analyzeFlags{}
	cmd := &cobra.Command{
		Use:   "buckets [trace]",
		Short: "Show throughput over time",
		Long: `Buckets splits the span of task completions into equal windows and prints
the bytes completed in each one.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runSection(cmd, args, f, func(w io.Writer, doc *report.Document, format report.Format, opts report.RenderOptions) error {
				if format == report.FormatText {
					return report.RenderBuckets(w, doc, opts)
				}
				return report.ExportValue(w, doc.Buckets, format)
			})
		},
	}
	fs := cmd.Flags()
	f.registerFilter(fs)
	fs.IntVarP(&f.buckets, "count", "n", 0, "number of buckets (default from config)")
	fs.StringVarP(&f.format, "format", "o", "text", "output format: text, json or yaml")
	fs.StringVar(&f.color, "color", "", "colour the text output: auto, always or never")
	return cmd
}

func newImpactCmd(a *app) *cobra.Command {
	f := &analyzeFlags{}
	cmd := &cobra.Command{
		Use:   "impact [trace]",
		Short: "Compare throughput before and after each health kill",
		Long: `Impact prints, for every health kill, the byte-weighted mean task speed in
the window before the kill and in the window after it.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runSection(cmd, args, f, func(w io.Writer, doc *report.Document, format report.Format, opts report.RenderOptions) error {
				if format == report.FormatText {
					return report.RenderImpacts(w, doc, opts)
				}
				return report.ExportValue(w, doc.Impacts, format)
			})
		},
	}
	fs := cmd.Flags()
	f.registerFilter(fs)
	fs.DurationVarP(&f.window, "window", "w", 0, "comparison window on each side (default from config)")
	fs.StringVar(&f.scope, "scope", "", "worker (killed worker only) or fleet (all tasks)")
	fs.StringVarP(&f.format, "format", "o", "text", "output format: text, json or yaml")
	fs.StringVar(&f.color, "color", "", "colour the text output: auto, always or never")
	return cmd
}

type sectionWriter func(w io.Writer, doc *report.Document, format report.Format, opts report.RenderOptions) error

func (a *app) runSection(cmd *cobra.Command, args []string, f *analyzeFlags, write sectionWriter) error {
	format, err := sectionFormat(f.format)
	if err != nil {
		return err
	}
	color, err := a.colorMode(f)
	if err != nil {
		return err
	}
	doc, err := a.analyzeOnly(cmd, args, f)
	if err != nil {
		return err
	}
	return write(cmd.OutOrStdout(), doc, format, report.RenderOptions{Color: color})
}
