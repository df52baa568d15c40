package trace

import (
	"regexp"
	"strconv"
	"time"
)

// EventKind tags the variant carried by an Event.
type EventKind int

const (
	EventNone EventKind = iota
	EventWorkerLifecycle
	EventTask
	EventBalancerSplit
	EventDownloadComplete
	EventProbe
	EventHealthKill
)

// String returns the string representation of EventKind
func (k EventKind) String() string {
	switch k {
	case EventWorkerLifecycle:
		return "worker-lifecycle"
	case EventTask:
		return "task"
	case EventBalancerSplit:
		return "balancer-split"
	case EventDownloadComplete:
		return "download-complete"
	case EventProbe:
		return "probe"
	case EventHealthKill:
		return "health-kill"
	default:
		return "none"
	}
}

// Lifecycle distinguishes the two worker lifecycle lines.
type Lifecycle int

const (
	WorkerStarted Lifecycle = iota
	WorkerFinished
)

// Event is the result of recognising one trace line. Only the fields that
// belong to Kind are meaningful.
type Event struct {
	Kind EventKind
	Time time.Time

	// EventWorkerLifecycle, EventTask, EventHealthKill
	WorkerID  int
	Lifecycle Lifecycle
	Task      Task
	Reason    KillReason

	// EventBalancerSplit
	Splits int

	// EventDownloadComplete
	Duration  float64
	SpeedText string

	// EventProbe
	Filename string
	Size     int64
}

// matcher recognises one line shape. build returns false when the captured
// fields cannot be converted, in which case the next matcher is tried.
type matcher struct {
	kind  EventKind
	re    *regexp.Regexp
	build func(groups []string, ts time.Time) (Event, bool)
}

// matchers are tried in order; the first success wins.
var matchers = []matcher{
	{
		kind: EventWorkerLifecycle,
		re:   regexp.MustCompile(`Worker (\d+) (started|finished)`),
		build: func(g []string, ts time.Time) (Event, bool) {
			id, err := strconv.Atoi(g[1])
			if err != nil {
				return Event{}, false
			}
			lc := WorkerStarted
			if g[2] == "finished" {
				lc = WorkerFinished
			}
			return Event{Kind: EventWorkerLifecycle, Time: ts, WorkerID: id, Lifecycle: lc}, true
		},
	},
	{
		kind: EventTask,
		re:   regexp.MustCompile(`Worker (\d+): Task offset=(\d+) length=(\d+) took (\S+)`),
		build: func(g []string, ts time.Time) (Event, bool) {
			id, err := strconv.Atoi(g[1])
			if err != nil {
				return Event{}, false
			}
			offset, err := strconv.ParseInt(g[2], 10, 64)
			if err != nil {
				return Event{}, false
			}
			length, err := strconv.ParseInt(g[3], 10, 64)
			if err != nil {
				return Event{}, false
			}
			return Event{
				Kind:     EventTask,
				Time:     ts,
				WorkerID: id,
				Task: Task{
					Timestamp: ts,
					Offset:    offset,
					Length:    length,
					Duration:  ParseDuration(g[4]),
				},
			}, true
		},
	},
	{
		kind: EventBalancerSplit,
		re:   regexp.MustCompile(`Balancer: split largest task \(total splits: (\d+)\)`),
		build: func(g []string, ts time.Time) (Event, bool) {
			n, err := strconv.Atoi(g[1])
			if err != nil {
				return Event{}, false
			}
			return Event{Kind: EventBalancerSplit, Time: ts, Splits: n}, true
		},
	},
	{
		kind: EventDownloadComplete,
		re:   regexp.MustCompile(`Download .+ completed in (\S+) \(([^)]+)\)`),
		build: func(g []string, ts time.Time) (Event, bool) {
			return Event{
				Kind:      EventDownloadComplete,
				Time:      ts,
				Duration:  ParseDuration(g[1]),
				SpeedText: g[2],
			}, true
		},
	},
	{
		kind: EventProbe,
		re:   regexp.MustCompile(`Probe complete - filename: (.+), size: (\d+)`),
		build: func(g []string, ts time.Time) (Event, bool) {
			size, err := strconv.ParseInt(g[2], 10, 64)
			if err != nil {
				return Event{}, false
			}
			return Event{Kind: EventProbe, Time: ts, Filename: g[1], Size: size}, true
		},
	},
	{
		kind: EventHealthKill,
		re:   regexp.MustCompile(`Health: Worker (\d+) (stalled|slow)`),
		build: func(g []string, ts time.Time) (Event, bool) {
			id, err := strconv.Atoi(g[1])
			if err != nil {
				return Event{}, false
			}
			return Event{Kind: EventHealthKill, Time: ts, WorkerID: id, Reason: KillReason(g[2])}, true
		},
	},
}

// Match runs the ordered matchers against a line body and returns the first
// event recognised. ok is false when the line is not part of the trace
// vocabulary.
func Match(line string, ts time.Time) (ev Event, ok bool) {
	for _, m := range matchers {
		g := m.re.FindStringSubmatch(line)
		if g == nil {
			continue
		}
		if ev, ok := m.build(g, ts); ok {
			return ev, true
		}
	}
	return Event{}, false
}
