package report

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// Color modes accepted by RenderOptions.Color.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

var (
	colorRed    = lipgloss.Color("#FF5555")
	colorYellow = lipgloss.Color("#F1FA8C")
	colorGreen  = lipgloss.Color("#50FA7B")
	colorCyan   = lipgloss.Color("#8BE9FD")
	colorOrange = lipgloss.Color("#FFB86C")
	colorGray   = lipgloss.Color("#6272A4")
)

// styles is the palette bound to one output's renderer.
type styles struct {
	title  lipgloss.Style
	header lipgloss.Style
	label  lipgloss.Style
	ok     lipgloss.Style
	warn   lipgloss.Style
	crit   lipgloss.Style
	orange lipgloss.Style
	dim    lipgloss.Style
}

func newStyles(w io.Writer, mode string) styles {
	r := lipgloss.NewRenderer(w)
	r.SetColorProfile(colorProfile(w, mode))
	return styles{
		title:  r.NewStyle().Bold(true).Foreground(colorCyan),
		header: r.NewStyle().Bold(true),
		label:  r.NewStyle().Foreground(colorGray),
		ok:     r.NewStyle().Foreground(colorGreen),
		warn:   r.NewStyle().Foreground(colorYellow).Bold(true),
		crit:   r.NewStyle().Foreground(colorRed).Bold(true),
		orange: r.NewStyle().Foreground(colorOrange),
		dim:    r.NewStyle().Foreground(colorGray),
	}
}

// colorProfile maps a color mode to a termenv profile. Auto colours only
// terminals and honours NO_COLOR through termenv.
func colorProfile(w io.Writer, mode string) termenv.Profile {
	switch mode {
	case ColorNever:
		return termenv.Ascii
	case ColorAlways:
		return termenv.ANSI256
	}
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return termenv.EnvColorProfile()
	}
	return termenv.Ascii
}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// statusStyle picks the colour of a worker status label.
func (s styles) statusStyle(row WorkerRow) lipgloss.Style {
	switch {
	case row.Healthy:
		return s.ok
	case row.Tasks == 0:
		return s.crit
	default:
		return s.warn
	}
}
