// Package ui is an interactive terminal browser over one analysis report,
// built on tview/tcell.
package ui

import (
	"fmt"
	"strings"
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"dltrace/report"
	"dltrace/stats"
	"dltrace/trace"
)

// Browser shows the worker table of a report with a detail pane for the
// selected worker and a findings pane.
type Browser struct {
	doc      *report.Document
	app      *tview.Application
	screen   tcell.Screen // Optional injected screen (for testing)
	header   *tview.TextView
	table    *tview.Table
	detail   *tview.TextView
	findings *tview.TextView
	layout   *tview.Flex
	mu       sync.Mutex
}

// NewBrowser creates a browser for doc.
func NewBrowser(doc *report.Document) *Browser {
	return &Browser{doc: doc}
}

// SetScreen injects a custom tcell.Screen for testing purposes.
// Must be called before Run().
func (b *Browser) SetScreen(screen tcell.Screen) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.screen = screen
}

// Run builds the layout and blocks until the user quits with q, Esc or
// Ctrl+C.
func (b *Browser) Run() error {
	b.mu.Lock()
	b.build()
	app := b.app
	b.mu.Unlock()

	return app.SetRoot(b.layout, true).EnableMouse(true).Run()
}

// Stop ends Run from another goroutine.
func (b *Browser) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.app != nil {
		b.app.Stop()
	}
}

func (b *Browser) build() {
	b.app = tview.NewApplication()
	if b.screen != nil {
		b.app.SetScreen(b.screen)
	}

	b.header = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)
	b.header.SetBorder(true).SetTitle(" Download ").SetTitleAlign(tview.AlignLeft)
	b.header.SetText(headerText(b.doc))

	b.table = tview.NewTable().
		SetSelectable(true, false).
		SetFixed(1, 0)
	b.table.SetBorder(true).SetTitle(" Workers ").SetTitleAlign(tview.AlignLeft)
	fillWorkerTable(b.table, b.doc)

	b.detail = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWordWrap(true)
	b.detail.SetBorder(true).SetTitle(" Worker Detail ").SetTitleAlign(tview.AlignLeft)

	b.findings = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWordWrap(true)
	b.findings.SetBorder(true).SetTitle(" Findings ").SetTitleAlign(tview.AlignLeft)
	b.findings.SetText(findingsText(b.doc))

	b.table.SetSelectionChangedFunc(func(row, _ int) {
		b.detail.SetText(b.detailForRow(row))
		b.detail.ScrollToBeginning()
	})
	if len(b.doc.Workers) > 0 {
		b.table.Select(1, 0)
		b.detail.SetText(b.detailForRow(1))
	} else {
		b.detail.SetText("[yellow]No worker activity found in trace.[white]")
	}

	// Layout: header (fixed) over table | detail, findings at the bottom
	middle := tview.NewFlex().
		AddItem(b.table, 0, 3, true).
		AddItem(b.detail, 0, 2, false)
	b.layout = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(b.header, 5, 0, false).
		AddItem(middle, 0, 3, true).
		AddItem(b.findings, 0, 1, false)

	b.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyCtrlC, tcell.KeyEscape:
			b.app.Stop()
			return nil
		case tcell.KeyTab:
			if b.table.HasFocus() {
				b.app.SetFocus(b.findings)
			} else {
				b.app.SetFocus(b.table)
			}
			return nil
		case tcell.KeyRune:
			switch event.Rune() {
			case 3, 'q', 'Q': // 3 is Ctrl+C delivered as ETX
				b.app.Stop()
				return nil
			}
		}
		return event
	})
}

// detailForRow maps a table row (row 0 is the header) to its worker.
func (b *Browser) detailForRow(row int) string {
	if row < 1 || row > len(b.doc.Workers) {
		return ""
	}
	return workerDetailText(b.doc.Workers[row-1])
}

func headerText(doc *report.Document) string {
	var sb strings.Builder
	s := doc.Summary
	if s.HasProbe {
		fmt.Fprintf(&sb, "[yellow]File:[white] %s (%d bytes)  ", tview.Escape(s.Filename), s.TotalSize)
	}
	if s.HasCompletion {
		fmt.Fprintf(&sb, "[yellow]Duration:[white] %s  [yellow]Speed:[white] %s",
			stats.FormatSeconds(s.TotalDuration), tview.Escape(s.AvgSpeedText))
	}
	if sb.Len() > 0 {
		sb.WriteByte('\n')
	}
	fmt.Fprintf(&sb, "[yellow]Workers:[white] %d  [yellow]Tasks:[white] %d  [yellow]Avg:[white] %s  [yellow]Avg task:[white] %s",
		len(doc.Workers), doc.TaskCount, stats.FormatSpeed(doc.GlobalAvgSpeedMBps), stats.FormatSeconds(doc.GlobalAvgTaskDuration))
	if doc.Filter != "" {
		fmt.Fprintf(&sb, "\n[yellow]Filter:[white] %s", tview.Escape(doc.Filter))
	}
	return sb.String()
}

var tableHeaders = []string{"ID", "Tasks", "Avg Speed", "Util %", "Idle", "Status"}

func fillWorkerTable(table *tview.Table, doc *report.Document) {
	for col, h := range tableHeaders {
		table.SetCell(0, col, tview.NewTableCell(h).
			SetTextColor(tcell.ColorYellow).
			SetSelectable(false).
			SetExpansion(1))
	}
	for i, r := range doc.Workers {
		row := i + 1
		cells := []string{
			fmt.Sprintf("%d", r.ID),
			fmt.Sprintf("%d", r.Tasks),
			stats.FormatSpeed(r.AvgSpeedMBps),
			stats.FormatPercent(r.Utilization),
			stats.FormatSeconds(r.IdleSeconds),
			r.Status,
		}
		for col, text := range cells {
			cell := tview.NewTableCell(text).SetExpansion(1)
			if col == len(cells)-1 {
				cell.SetTextColor(statusColor(r))
			}
			if col > 0 && col < len(cells)-1 {
				cell.SetAlign(tview.AlignRight)
			}
			table.SetCell(row, col, cell)
		}
	}
}

func statusColor(r report.WorkerRow) tcell.Color {
	switch {
	case r.Healthy:
		return tcell.ColorGreen
	case r.Tasks == 0:
		return tcell.ColorRed
	default:
		return tcell.ColorYellow
	}
}

func workerDetailText(r report.WorkerRow) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[cyan]Worker %d[white]  %s\n\n", r.ID, r.Status)
	if r.Tasks == 0 {
		sb.WriteString("No tasks completed.\n")
		return sb.String()
	}
	fmt.Fprintf(&sb, "Tasks:  %d\n", r.Tasks)
	fmt.Fprintf(&sb, "Data:   %.2f MB\n", float64(r.TotalBytes)/trace.MiB)
	fmt.Fprintf(&sb, "Speed:  min %s\n        avg %s\n        max %s\n",
		stats.FormatSpeed(r.MinSpeedMBps), stats.FormatSpeed(r.AvgSpeedMBps), stats.FormatSpeed(r.MaxSpeedMBps))
	if r.WallSeconds > 0 {
		fmt.Fprintf(&sb, "Wall:   %s\nWork:   %s\nIdle:   %s\nUtil:   %s\n",
			stats.FormatSeconds(r.WallSeconds), stats.FormatSeconds(r.WorkSeconds),
			stats.FormatSeconds(r.IdleSeconds), stats.FormatPercent(r.Utilization))
	}
	if len(r.SlowestTasks) > 0 {
		sb.WriteString("\n[yellow]Slowest tasks:[white]\n")
		for i, t := range r.SlowestTasks {
			fmt.Fprintf(&sb, "%d. %s @ %s (offset %.2fMB)\n", i+1,
				stats.FormatSeconds(t.Duration), stats.FormatSpeed(t.SpeedMBps()), float64(t.Offset)/trace.MiB)
		}
	}
	return sb.String()
}

func findingsText(doc *report.Document) string {
	if !doc.HasData {
		return "[yellow]" + report.NoDataNotice + "[white]"
	}
	if len(doc.Recommendations) == 0 {
		return "[green]No major optimization issues detected.[white]"
	}
	var sb strings.Builder
	for i, r := range doc.Recommendations {
		fmt.Fprintf(&sb, "%d. [red]%s[white]: %s\n", i+1, tview.Escape(r.Title), tview.Escape(r.Message))
	}
	return sb.String()
}
