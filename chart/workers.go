package chart

import (
	"fmt"
	"os"
	"sort"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"dltrace/stats"
	"dltrace/trace"
)

const (
	workerColumns   = 2
	workerRowHeight = 4 * vg.Inch
)

// WorkerSpeeds draws one panel per worker with tasks, two panels per row,
// sharing a y range. Health kills show up as vertical lines: red for
// stalled, orange for slow.
func WorkerSpeeds(ctx *stats.ReportContext, path string, width vg.Length) error {
	var active []*trace.WorkerStats
	for _, w := range ctx.Model.SortedWorkers() {
		if len(w.Tasks) > 0 {
			active = append(active, w)
		}
	}
	if len(active) == 0 {
		return ErrNoTasks
	}

	yMax := 0.0
	for _, w := range active {
		_, hi := w.SpeedRange()
		yMax = max(yMax, hi)
	}
	yMax *= 1.1

	cols := min(workerColumns, len(active))
	rows := (len(active) + cols - 1) / cols
	plots := make([][]*plot.Plot, rows)
	for r := range plots {
		plots[r] = make([]*plot.Plot, cols)
		for c := range plots[r] {
			blank := plot.New()
			blank.HideAxes()
			plots[r][c] = blank
		}
	}

	for i, w := range active {
		p, err := workerPanel(w, ctx.Model.HealthKills, yMax)
		if err != nil {
			return fmt.Errorf("worker %d: %w", w.ID, err)
		}
		plots[i/cols][i%cols] = p
	}

	img := vgimg.New(width, workerRowHeight*vg.Length(rows))
	dc := draw.New(img)
	tiles := draw.Tiles{Rows: rows, Cols: cols, PadX: vg.Millimeter, PadY: vg.Millimeter}
	canvases := plot.Align(plots, tiles, dc)
	for r := range plots {
		for c := range plots[r] {
			plots[r][c].Draw(canvases[r][c])
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := (vgimg.PngCanvas{Canvas: img}).WriteTo(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func workerPanel(w *trace.WorkerStats, kills []trace.HealthKill, yMax float64) (*plot.Plot, error) {
	tasks := make([]trace.Task, len(w.Tasks))
	copy(tasks, w.Tasks)
	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].Timestamp.Before(tasks[j].Timestamp)
	})

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Worker %d", w.ID)
	p.Y.Label.Text = "Speed (MB/s)"
	p.X.Tick.Marker = timeTicks
	p.Y.Min, p.Y.Max = 0, yMax
	p.Add(plotter.NewGrid())

	pts := make(plotter.XYs, len(tasks))
	sum := 0.0
	for i, t := range tasks {
		pts[i].X = float64(t.Timestamp.Unix())
		pts[i].Y = t.SpeedMBps()
		sum += pts[i].Y
	}
	line, points, err := plotter.NewLinePoints(pts)
	if err != nil {
		return nil, err
	}
	line.Color = averageColor
	points.GlyphStyle.Shape = draw.CircleGlyph{}
	points.GlyphStyle.Color = averageColor
	p.Add(line, points)
	p.Legend.Add("Speed", line, points)

	avg := sum / float64(len(pts))
	avgLine, err := horizontalLine(pts[0].X, pts[len(pts)-1].X, avg)
	if err != nil {
		return nil, err
	}
	avgLine.Color = rollingColor
	avgLine.Dashes = []vg.Length{vg.Points(6), vg.Points(3)}
	p.Add(avgLine)
	p.Legend.Add(fmt.Sprintf("Avg: %.2f MB/s", avg), avgLine)

	for _, k := range kills {
		if k.WorkerID != w.ID {
			continue
		}
		marker, err := verticalLine(float64(k.Timestamp.Unix()), 0, yMax)
		if err != nil {
			return nil, err
		}
		marker.Color = slowColor
		if k.Reason == trace.KillStalled {
			marker.Color = stalledColor
		}
		marker.Width = vg.Points(2)
		p.Add(marker)
	}
	p.Legend.Top = true
	return p, nil
}
