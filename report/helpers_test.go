package report

import (
	"strings"
	"testing"

	"dltrace/anomaly"
	"dltrace/stats"
	"dltrace/trace"
)

const sampleTrace = `[2026-02-15 10:00:00] Probe complete - filename: big.iso, size: 104857600
[2026-02-15 10:00:00] Worker 0 started
[2026-02-15 10:00:00] Worker 1 started
[2026-02-15 10:00:02] Worker 0: Task offset=0 length=10485760 took 2s
[2026-02-15 10:00:04] Worker 0: Task offset=10485760 length=10485760 took 2s
[2026-02-15 10:00:10] Worker 1: Task offset=20971520 length=10485760 took 10s
[2026-02-15 10:00:11] Health: Worker 1 slow
[2026-02-15 10:00:12] Balancer: split largest task (total splits: 3)
[2026-02-15 10:00:20] Worker 0 finished
[2026-02-15 10:00:20] Worker 1 finished
[2026-02-15 10:00:20] Download big.iso completed in 20s (5.00 MB/s)`

// sampleDocument builds a document over sampleTrace with default options.
func sampleDocument(t *testing.T) *Document {
	t.Helper()
	return documentFor(t, sampleTrace)
}

func documentFor(t *testing.T, text string) *Document {
	t.Helper()
	m, err := trace.Parse(strings.NewReader(text))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	opts := DefaultOptions()
	ctx := stats.NewReportContext(m, opts.Thresholds.SlowTaskMultiplier)
	doc, err := NewDocument(ctx, anomaly.Detect(ctx, opts.Thresholds), opts)
	if err != nil {
		t.Fatalf("NewDocument failed: %v", err)
	}
	return doc
}
