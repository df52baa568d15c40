package trace

import (
	"io"
	"os"
	"regexp"
	"strings"
	"time"
)

var timestampRe = regexp.MustCompile(`^\[(\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2})\]`)

// ScanState is the state threaded through the line fold: the most recent
// timestamp seen at the start of a line.
type ScanState struct {
	Current time.Time
	Known   bool
}

// Step advances the fold by one line. The returned state carries the
// timestamp forward to lines that lack one; lines seen before any timestamp
// produce no event.
func Step(state ScanState, line string) (ScanState, Event, bool) {
	line = strings.TrimSpace(line)

	if g := timestampRe.FindStringSubmatch(line); g != nil {
		// An out-of-range date keeps the previous timestamp.
		if ts, err := time.Parse(TimestampLayout, g[1]); err == nil {
			state = ScanState{Current: ts, Known: true}
		}
	}

	if !state.Known {
		return state, Event{}, false
	}

	ev, ok := Match(line, state.Current)
	return state, ev, ok
}

// Apply folds one event into the model.
func (m *Model) Apply(ev Event) {
	switch ev.Kind {
	case EventWorkerLifecycle:
		w := m.Worker(ev.WorkerID)
		if ev.Lifecycle == WorkerStarted {
			w.StartTime = ev.Time
		} else {
			w.EndTime = ev.Time
		}
	case EventTask:
		w := m.Worker(ev.WorkerID)
		w.Tasks = append(w.Tasks, ev.Task)
	case EventBalancerSplit:
		m.BalancerSplits = append(m.BalancerSplits, BalancerSplit{Timestamp: ev.Time, Total: ev.Splits})
	case EventDownloadComplete:
		m.Summary.HasCompletion = true
		m.Summary.TotalDuration = ev.Duration
		m.Summary.AvgSpeedText = ev.SpeedText
		m.Summary.EndTime = ev.Time
	case EventProbe:
		m.Summary.HasProbe = true
		m.Summary.Filename = ev.Filename
		m.Summary.TotalSize = ev.Size
	case EventHealthKill:
		m.HealthKills = append(m.HealthKills, HealthKill{Timestamp: ev.Time, WorkerID: ev.WorkerID, Reason: ev.Reason})
	}
}

// ParseLines builds a Model from trace lines in one ordered pass.
func ParseLines(lines []string) *Model {
	m := NewModel()
	var state ScanState
	for _, line := range lines {
		var ev Event
		var ok bool
		state, ev, ok = Step(state, line)
		if ok {
			m.Apply(ev)
		}
	}
	return m
}

// Parse reads the whole trace from r before parsing it.
func Parse(r io.Reader) (*Model, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &TraceError{Op: "read", Err: err}
	}
	return ParseLines(splitLines(string(data))), nil
}

// ParseFile opens and parses the trace at path. A missing or unreadable file
// yields an error matching ErrTraceUnreadable.
func ParseFile(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &TraceError{Op: "open", Path: path, Err: err}
	}
	return ParseLines(splitLines(string(data))), nil
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}
