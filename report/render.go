package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"dltrace/stats"
	"dltrace/trace"
)

// RenderOptions controls text rendering.
type RenderOptions struct {
	// Color is ColorAuto, ColorAlways or ColorNever.
	Color string
}

// NoDataNotice is printed in place of the analysis for empty traces.
const NoDataNotice = "No worker activity found in trace; nothing to analyze."

const barWidth = 30

// RenderText writes the human-readable report. The whole report is built in
// memory and written with a single call.
func RenderText(w io.Writer, doc *Document, opts RenderOptions) error {
	p := &printer{st: newStyles(w, opts.Color)}

	p.summary(doc)
	if !doc.HasData {
		p.line("")
		p.line("  " + p.st.warn.Render(NoDataNotice))
		_, err := io.WriteString(w, p.sb.String())
		return err
	}

	p.workers(doc)
	p.variance(doc)
	p.percentiles(doc)
	p.slowTasks(doc)
	p.workerDetails(doc)
	p.balancer(doc)
	p.impacts(doc)
	p.buckets(doc)
	p.recommendations(doc)

	_, err := io.WriteString(w, p.sb.String())
	return err
}

// RenderBuckets writes only the throughput-over-time section.
func RenderBuckets(w io.Writer, doc *Document, opts RenderOptions) error {
	p := &printer{st: newStyles(w, opts.Color)}
	if len(doc.Buckets) == 0 {
		p.line("No throughput buckets (no completed tasks).")
	}
	p.buckets(doc)
	_, err := io.WriteString(w, p.sb.String())
	return err
}

// RenderImpacts writes only the health-kill impact section.
func RenderImpacts(w io.Writer, doc *Document, opts RenderOptions) error {
	p := &printer{st: newStyles(w, opts.Color)}
	if len(doc.Impacts) == 0 {
		p.line("No health kills in trace.")
	}
	p.impacts(doc)
	_, err := io.WriteString(w, p.sb.String())
	return err
}

type printer struct {
	sb strings.Builder
	st styles
}

func (p *printer) line(s string) {
	p.sb.WriteString(s)
	p.sb.WriteByte('\n')
}

func (p *printer) linef(format string, args ...any) {
	fmt.Fprintf(&p.sb, format, args...)
	p.sb.WriteByte('\n')
}

func (p *printer) section(title string) {
	p.line("")
	p.line(p.st.title.Render(title))
	p.line(p.st.dim.Render(strings.Repeat("─", 60)))
}

func (p *printer) kv(label, value string) {
	p.linef("  %s %s", p.st.label.Render(fmt.Sprintf("%-18s", label+":")), value)
}

func (p *printer) summary(doc *Document) {
	p.section("DOWNLOAD SUMMARY")
	s := doc.Summary
	if s.HasProbe {
		p.kv("File", s.Filename)
		p.kv("Size", fmt.Sprintf("%s (%d bytes)", humanize.IBytes(uint64(max(0, s.TotalSize))), s.TotalSize))
	}
	if s.HasCompletion {
		clock := stats.FormatDuration(time.Duration(s.TotalDuration * float64(time.Second)))
		p.kv("Duration", fmt.Sprintf("%s (%s)", stats.FormatSeconds(s.TotalDuration), clock))
		p.kv("Reported speed", s.AvgSpeedText)
	}
	if doc.Filter != "" {
		p.kv("Filter", doc.Filter)
	}
	if !doc.HasData {
		return
	}
	p.kv("Workers", fmt.Sprintf("%d", len(doc.Workers)))
	p.kv("Tasks", fmt.Sprintf("%d", doc.TaskCount))
	p.kv("Data", humanize.IBytes(uint64(max(0, doc.TotalBytes))))
	p.kv("Global avg speed", stats.FormatSpeed(doc.GlobalAvgSpeedMBps))
	p.kv("Global avg task", stats.FormatSeconds(doc.GlobalAvgTaskDuration))
}

func (p *printer) workers(doc *Document) {
	p.section("WORKER PERFORMANCE")
	p.line(p.st.header.Render(fmt.Sprintf("  %3s │ %5s │ %11s │ %7s │ %8s │ %s", "ID", "Tasks", "Avg Speed", "Util %", "Idle", "Status")))
	for _, r := range doc.Workers {
		speed, util, idle := "N/A", "N/A", "0s"
		if r.AvgSpeedMBps > 0 {
			speed = stats.FormatSpeed(r.AvgSpeedMBps)
		}
		if r.Utilization > 0 {
			util = stats.FormatPercent(r.Utilization)
		}
		if r.IdleSeconds > 0 {
			idle = stats.FormatSeconds(r.IdleSeconds)
		}
		p.linef("  %3d │ %5d │ %11s │ %7s │ %8s │ %s", r.ID, r.Tasks, speed, util, idle, p.st.statusStyle(r).Render(r.Status))
	}
}

func (p *printer) variance(doc *Document) {
	v := doc.Findings.SpeedVariance
	if v == nil {
		return
	}
	p.section("SPEED VARIANCE")
	p.kv("Fastest", fmt.Sprintf("worker %d @ %s", v.FastestID, stats.FormatSpeed(v.FastestMBps)))
	p.kv("Slowest", fmt.Sprintf("worker %d @ %s", v.SlowestID, stats.FormatSpeed(v.SlowestMBps)))
	ratio := fmt.Sprintf("%.2fx difference", v.Ratio)
	if v.Flagged {
		ratio = p.st.warn.Render(ratio)
	}
	p.kv("Ratio", ratio)
}

func (p *printer) percentiles(doc *Document) {
	if doc.TaskCount == 0 {
		return
	}
	p.section("TASK PERCENTILES")
	p.line(p.st.header.Render(fmt.Sprintf("  %-8s │ %10s │ %12s", "", "Duration", "Speed")))
	d, s := doc.DurationPercentiles, doc.SpeedPercentiles
	rows := []struct {
		name string
		d, s float64
	}{
		{"min", d.Min, s.Min},
		{"p50", d.P50, s.P50},
		{"p90", d.P90, s.P90},
		{"p95", d.P95, s.P95},
		{"p99", d.P99, s.P99},
		{"max", d.Max, s.Max},
	}
	for _, r := range rows {
		p.linef("  %-8s │ %10s │ %12s", r.name, stats.FormatSeconds(r.d), stats.FormatSpeed(r.s))
	}
}

func (p *printer) slowTasks(doc *Document) {
	f := doc.Findings
	p.section("SLOW TASK ANALYSIS")
	p.kv("Threshold", fmt.Sprintf("%s (%gx avg)", stats.FormatSeconds(f.SlowThreshold), f.Thresholds.SlowTaskMultiplier))
	if len(f.SlowTasks) == 0 {
		p.line("  " + p.st.ok.Render("No slow tasks detected."))
		return
	}

	p.line(p.st.header.Render(fmt.Sprintf("  %6s │ %12s │ %10s │ %9s │ %11s", "Worker", "Offset", "Size", "Duration", "Speed")))
	shown := f.SlowTasks
	if limit := doc.SlowTaskListLimit; limit > 0 && len(shown) > limit {
		shown = shown[:limit]
	}
	for _, t := range shown {
		p.linef("  %6d │ %10.2fMB │ %8.2fMB │ %9s │ %11s",
			t.WorkerID, float64(t.Offset)/trace.MiB, float64(t.Length)/trace.MiB,
			stats.FormatSeconds(t.Duration), stats.FormatSpeed(t.SpeedMBps()))
	}
	if rest := len(f.SlowTasks) - len(shown); rest > 0 {
		p.linef("  ... and %d more", rest)
	}
}

func (p *printer) workerDetails(doc *Document) {
	p.section("WORKER DETAILS")
	for _, r := range doc.Workers {
		p.line("  " + p.st.header.Render(fmt.Sprintf("Worker %d", r.ID)) + " " + p.st.statusStyle(r).Render(r.Status))
		if r.Tasks == 0 {
			p.line("  │ no tasks")
			continue
		}
		p.linef("  │ Tasks: %d   Data: %s", r.Tasks, humanize.IBytes(uint64(max(0, r.TotalBytes))))
		p.linef("  │ Speed: min %s / avg %s / max %s",
			stats.FormatSpeed(r.MinSpeedMBps), stats.FormatSpeed(r.AvgSpeedMBps), stats.FormatSpeed(r.MaxSpeedMBps))
		if r.WallSeconds > 0 {
			p.linef("  │ Wall: %s   Work: %s   Idle: %s",
				stats.FormatSeconds(r.WallSeconds), stats.FormatSeconds(r.WorkSeconds), stats.FormatSeconds(r.IdleSeconds))
		} else {
			p.linef("  │ Work: %s (no lifecycle events)", stats.FormatSeconds(r.WorkSeconds))
		}
		if len(r.SlowestTasks) > 0 {
			p.linef("  │ Top %d slowest tasks:", len(r.SlowestTasks))
			for i, t := range r.SlowestTasks {
				p.linef("  │   %d. %s @ %s (offset %.2fMB)", i+1,
					stats.FormatSeconds(t.Duration), stats.FormatSpeed(t.SpeedMBps()), float64(t.Offset)/trace.MiB)
			}
		}
	}
}

func (p *printer) balancer(doc *Document) {
	b := doc.Findings.Balancer
	if b.Events == 0 {
		return
	}
	p.section("BALANCER ACTIVITY")
	p.kv("Total splits", fmt.Sprintf("%d", b.TotalSplits))
	p.kv("Split window", stats.FormatSeconds(b.WindowSeconds))
	p.kv("Split rate", fmt.Sprintf("%.2f splits/sec", b.RatePerSecond))
	if b.Excessive {
		p.line("  " + p.st.warn.Render(fmt.Sprintf("High split count (%d) suggests end-game fragmentation.", b.TotalSplits)))
	}
}

func (p *printer) impacts(doc *Document) {
	if len(doc.Impacts) == 0 {
		return
	}
	p.section(fmt.Sprintf("HEALTH KILL IMPACT (±%s)", stats.FormatSeconds(doc.ImpactWindow)))
	p.line(p.st.header.Render(fmt.Sprintf("  %8s │ %6s │ %7s │ %11s │ %11s │ %11s", "Time", "Worker", "Reason", "Before", "After", "Delta")))
	for _, im := range doc.Impacts {
		reason := p.st.orange.Render(fmt.Sprintf("%7s", im.Reason))
		if im.Reason == trace.KillStalled {
			reason = p.st.crit.Render(fmt.Sprintf("%7s", im.Reason))
		}
		delta := fmt.Sprintf("%+10.2f", im.Delta())
		if im.Delta() >= 0 {
			delta = p.st.ok.Render(delta)
		} else {
			delta = p.st.warn.Render(delta)
		}
		p.linef("  %8s │ %6d │ %s │ %11s │ %11s │ %s",
			im.Timestamp.Format("15:04:05"), im.WorkerID, reason,
			stats.FormatSpeed(im.BeforeAvgSpeedMBps), stats.FormatSpeed(im.AfterAvgSpeedMBps), delta)
	}
}

func (p *printer) buckets(doc *Document) {
	if len(doc.Buckets) == 0 {
		return
	}
	p.section("THROUGHPUT OVER TIME")
	peak := 0.0
	for _, b := range doc.Buckets {
		peak = max(peak, b.ThroughputMBps)
	}
	for _, b := range doc.Buckets {
		n := 0
		if peak > 0 {
			n = int(b.ThroughputMBps / peak * barWidth)
		}
		p.linef("  %s │ %-*s %s", b.Start.Format("15:04:05"), barWidth, strings.Repeat("█", n),
			stats.FormatSpeed(b.ThroughputMBps))
	}
}

func (p *printer) recommendations(doc *Document) {
	p.section("OPTIMIZATION RECOMMENDATIONS")
	if len(doc.Recommendations) == 0 {
		p.line("  " + p.st.ok.Render("No major optimization issues detected. Download looks healthy!"))
		return
	}
	for i, r := range doc.Recommendations {
		p.linef("  %d. %s: %s", i+1, p.st.warn.Render(r.Title), r.Message)
	}
}
