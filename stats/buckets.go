package stats

import (
	"math/bits"
	"time"

	"dltrace/trace"
)

// Bucket is one equal-width window of the throughput series.
type Bucket struct {
	Index int       `json:"index" yaml:"index"`
	Start time.Time `json:"window_start" yaml:"window_start"`
	End   time.Time `json:"window_end" yaml:"window_end"`
	Bytes int64     `json:"bytes" yaml:"bytes"`
	Tasks int       `json:"tasks" yaml:"tasks"`
}

// ThroughputMBps is the bucket's byte volume spread over its width.
func (b Bucket) ThroughputMBps() float64 {
	width := b.End.Sub(b.Start).Seconds()
	if width <= 0 {
		return 0
	}
	return (float64(b.Bytes) / trace.MiB) / width
}

// BuildThroughputBuckets splits [t_min, t_max] of task completion times into
// n equal windows and assigns every task's bytes to the window holding its
// completion time. Windows are left-closed and right-open except the last,
// which also holds t_max. The bucket byte totals always sum to the total
// task length. When every task shares one timestamp all bytes land in the
// first bucket.
func BuildThroughputBuckets(ctx *ReportContext, n int) ([]Bucket, error) {
	if n < 1 {
		return nil, ErrInvalidBucketCount
	}
	if !ctx.HasTasks() {
		return nil, ErrNoData
	}

	tMin, tMax := ctx.AllTasks[0].Timestamp, ctx.AllTasks[0].Timestamp
	for _, t := range ctx.AllTasks[1:] {
		if t.Timestamp.Before(tMin) {
			tMin = t.Timestamp
		}
		if t.Timestamp.After(tMax) {
			tMax = t.Timestamp
		}
	}
	span := tMax.Sub(tMin)

	buckets := make([]Bucket, n)
	for i := range buckets {
		buckets[i] = Bucket{
			Index: i,
			Start: tMin.Add(scale(span, i, n)),
			End:   tMin.Add(scale(span, i+1, n)),
		}
	}
	buckets[n-1].End = tMax

	for _, t := range ctx.AllTasks {
		i := bucketIndex(t.Timestamp.Sub(tMin), span, n)
		buckets[i].Bytes += t.Length
		buckets[i].Tasks++
	}
	return buckets, nil
}

// bucketIndex computes floor(offset·n/span) in integer nanoseconds so that
// a timestamp on a window boundary always opens the next window.
func bucketIndex(offset, span time.Duration, n int) int {
	if span <= 0 || offset <= 0 {
		return 0
	}
	if offset >= span {
		return n - 1
	}
	return min(int(mulDiv(uint64(offset), uint64(n), uint64(span))), n-1)
}

func scale(span time.Duration, i, n int) time.Duration {
	if span <= 0 || i <= 0 {
		return 0
	}
	return time.Duration(mulDiv(uint64(span), uint64(i), uint64(n)))
}

// mulDiv returns a·b/d with a 128-bit intermediate product. The quotient
// must fit in 64 bits.
func mulDiv(a, b, d uint64) uint64 {
	hi, lo := bits.Mul64(a, b)
	q, _ := bits.Div64(hi, lo, d)
	return q
}
