package chart

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"dltrace/stats"
)

var timeTicks = plot.TimeTicks{Format: "15:04:05"}

// SpeedOverTime plots every task speed against its completion time, one
// colour per worker, with the rolling average and the overall mean.
func SpeedOverTime(ctx *stats.ReportContext, path string, width, height vg.Length) error {
	tasks := ctx.TasksByCompletion()
	if len(tasks) == 0 {
		return ErrNoTasks
	}

	p := plot.New()
	p.Title.Text = "Download Speed Over Time"
	p.X.Label.Text = "Time"
	p.Y.Label.Text = "Download Speed (MB/s)"
	p.X.Tick.Marker = timeTicks
	p.Y.Min = 0
	p.Add(plotter.NewGrid())

	byWorker := map[int]plotter.XYs{}
	speeds := make([]float64, len(tasks))
	all := make(plotter.XYs, len(tasks))
	for i, t := range tasks {
		x := float64(t.Timestamp.Unix())
		speeds[i] = t.SpeedMBps()
		all[i].X, all[i].Y = x, speeds[i]
		byWorker[t.WorkerID] = append(byWorker[t.WorkerID], plotter.XY{X: x, Y: speeds[i]})
	}

	for i, id := range ctx.Model.WorkerIDs() {
		pts, ok := byWorker[id]
		if !ok {
			continue
		}
		s, err := plotter.NewScatter(pts)
		if err != nil {
			return fmt.Errorf("worker %d points: %w", id, err)
		}
		s.GlyphStyle.Color = plotutil.Color(i)
		s.GlyphStyle.Shape = draw.CircleGlyph{}
		s.GlyphStyle.Radius = vg.Points(3)
		p.Add(s)
		p.Legend.Add(fmt.Sprintf("Worker %d", id), s)
	}

	rolling, window := stats.RollingAverage(speeds)
	rollPts := make(plotter.XYs, len(all))
	for i := range all {
		rollPts[i].X, rollPts[i].Y = all[i].X, rolling[i]
	}
	roll, err := plotter.NewLine(rollPts)
	if err != nil {
		return fmt.Errorf("rolling average: %w", err)
	}
	roll.Color = rollingColor
	roll.Width = vg.Points(2.5)
	p.Add(roll)
	p.Legend.Add(fmt.Sprintf("Rolling Avg (%d tasks)", window), roll)

	overall := 0.0
	for _, s := range speeds {
		overall += s
	}
	overall /= float64(len(speeds))
	avg, err := horizontalLine(all[0].X, all[len(all)-1].X, overall)
	if err != nil {
		return fmt.Errorf("overall average: %w", err)
	}
	avg.Color = averageColor
	avg.Dashes = []vg.Length{vg.Points(6), vg.Points(3)}
	p.Add(avg)
	p.Legend.Add(fmt.Sprintf("Overall Avg: %.2f MB/s", overall), avg)
	p.Legend.Top = true

	return p.Save(width, height, path)
}

func horizontalLine(x0, x1, y float64) (*plotter.Line, error) {
	return plotter.NewLine(plotter.XYs{{X: x0, Y: y}, {X: x1, Y: y}})
}

func verticalLine(x, y0, y1 float64) (*plotter.Line, error) {
	return plotter.NewLine(plotter.XYs{{X: x, Y: y0}, {X: x, Y: y1}})
}
