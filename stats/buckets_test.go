package stats

import (
	"errors"
	"testing"
	"time"

	"dltrace/trace"
)

func TestBuildThroughputBuckets(t *testing.T) {
	ctx := contextFor(1, []trace.Task{
		{Timestamp: at(0), Offset: 0, Length: 2 * trace.MiB, Duration: 1},
		{Timestamp: at(1), Offset: 2 * trace.MiB, Length: 2 * trace.MiB, Duration: 1},
		{Timestamp: at(3), Offset: 4 * trace.MiB, Length: 2 * trace.MiB, Duration: 1},
	})

	buckets, err := BuildThroughputBuckets(ctx, 2)
	if err != nil {
		t.Fatalf("BuildThroughputBuckets failed: %v", err)
	}
	if len(buckets) != 2 {
		t.Fatalf("len(buckets) = %d, want 2", len(buckets))
	}
	if buckets[0].Bytes != 4*trace.MiB || buckets[1].Bytes != 2*trace.MiB {
		t.Errorf("bucket bytes = [%d, %d], want [%d, %d]",
			buckets[0].Bytes, buckets[1].Bytes, 4*trace.MiB, 2*trace.MiB)
	}
	if buckets[0].Tasks != 2 || buckets[1].Tasks != 1 {
		t.Errorf("bucket tasks = [%d, %d], want [2, 1]", buckets[0].Tasks, buckets[1].Tasks)
	}
	if !buckets[0].Start.Equal(at(0)) || !buckets[1].End.Equal(at(3)) {
		t.Errorf("windows = [%v .. %v], want [%v .. %v]", buckets[0].Start, buckets[1].End, at(0), at(3))
	}
	if !buckets[0].End.Equal(buckets[1].Start) {
		t.Errorf("windows are not consecutive: %v vs %v", buckets[0].End, buckets[1].Start)
	}
	if got := buckets[1].ThroughputMBps(); got != 2.0/1.5 {
		t.Errorf("ThroughputMBps() = %v, want %v", got, 2.0/1.5)
	}
}

func TestBuildThroughputBuckets_BoundaryAndConservation(t *testing.T) {
	var tasks []trace.Task
	var total int64
	for i := 0; i <= 12; i++ {
		l := int64(1000 + i)
		tasks = append(tasks, trace.Task{Timestamp: at(i), Length: l, Duration: 1})
		total += l
	}
	ctx := contextFor(1, tasks)

	for _, n := range []int{1, 2, 3, 4, 5, 7, 12, 13, 50} {
		buckets, err := BuildThroughputBuckets(ctx, n)
		if err != nil {
			t.Fatalf("n=%d: %v", n, err)
		}
		if len(buckets) != n {
			t.Fatalf("n=%d: got %d buckets", n, len(buckets))
		}
		var sum int64
		for _, b := range buckets {
			sum += b.Bytes
		}
		if sum != total {
			t.Errorf("n=%d: bucket bytes sum %d, want %d", n, sum, total)
		}
	}

	// With 4 windows of 3s, t=3 opens the second window (left-closed).
	buckets, _ := BuildThroughputBuckets(ctx, 4)
	if buckets[0].Tasks != 3 || buckets[1].Tasks != 3 || buckets[3].Tasks != 4 {
		t.Errorf("task counts = %d %d %d %d, want 3 3 3 4",
			buckets[0].Tasks, buckets[1].Tasks, buckets[2].Tasks, buckets[3].Tasks)
	}
}

func TestBuildThroughputBuckets_LongSpanManyWindows(t *testing.T) {
	const day = 24 * 60 * 60
	const n = 300000
	ctx := contextFor(1, []trace.Task{
		{Timestamp: at(0), Length: 1, Duration: 1},
		{Timestamp: at(day / 2), Length: 2, Duration: 1},
		{Timestamp: at(day), Length: 4, Duration: 1},
	})

	buckets, err := BuildThroughputBuckets(ctx, n)
	if err != nil {
		t.Fatalf("BuildThroughputBuckets failed: %v", err)
	}
	for _, tt := range []struct {
		index int
		bytes int64
	}{{0, 1}, {n / 2, 2}, {n - 1, 4}} {
		if buckets[tt.index].Bytes != tt.bytes {
			t.Errorf("bucket %d bytes = %d, want %d", tt.index, buckets[tt.index].Bytes, tt.bytes)
		}
	}
	width := day * time.Second / n
	if got := buckets[1].Start.Sub(at(0)); got != width {
		t.Errorf("bucket 1 starts %v after t_min, want %v", got, width)
	}
	if got := buckets[n/2].Start; !got.Equal(at(day / 2)) {
		t.Errorf("bucket %d start = %v, want %v", n/2, got, at(day/2))
	}
}

func TestBuildThroughputBuckets_Degenerate(t *testing.T) {
	same := contextFor(1, []trace.Task{
		{Timestamp: at(5), Length: 10, Duration: 1},
		{Timestamp: at(5), Length: 20, Duration: 1},
	})
	buckets, err := BuildThroughputBuckets(same, 3)
	if err != nil {
		t.Fatalf("BuildThroughputBuckets failed: %v", err)
	}
	if buckets[0].Bytes != 30 || buckets[1].Bytes != 0 || buckets[2].Bytes != 0 {
		t.Errorf("single-instant buckets = %+v", buckets)
	}

	if _, err := BuildThroughputBuckets(same, 0); !errors.Is(err, ErrInvalidBucketCount) {
		t.Errorf("n=0 error = %v, want ErrInvalidBucketCount", err)
	}
	empty := NewReportContext(trace.NewModel(), 0)
	if _, err := BuildThroughputBuckets(empty, 4); !errors.Is(err, ErrNoData) {
		t.Errorf("empty context error = %v, want ErrNoData", err)
	}
}
