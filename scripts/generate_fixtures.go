//go:build ignore
// +build ignore

// generate_fixtures writes synthetic download traces for manual testing and
// benchmarking of the analyzer. Output is deterministic for a given seed.
//
// Usage: go run scripts/generate_fixtures.go [-workers 8] [-size 1073741824] [-seed 1] [-o testdata/synthetic.log]

package main

import (
	"bufio"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"
)

const (
	timestampLayout = "2006-01-02 15:04:05"
	chunkSize       = 8 << 20
)

type worker struct {
	id    int
	clock time.Time
	speed float64 // MiB/s
	slow  bool
}

func main() {
	workers := flag.Int("workers", 8, "number of workers")
	size := flag.Int64("size", 1<<30, "file size in bytes")
	seed := flag.Int64("seed", 1, "random seed")
	out := flag.String("o", "testdata/synthetic.log", "output file")
	flag.Parse()

	if err := os.MkdirAll(filepath.Dir(*out), 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create output dir: %v\n", err)
		os.Exit(1)
	}
	f, err := os.Create(*out)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create %s: %v\n", *out, err)
		os.Exit(1)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	generate(w, rand.New(rand.NewSource(*seed)), *workers, *size)
	if err := w.Flush(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write %s: %v\n", *out, err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %s (%d workers, %d bytes)\n", *out, *workers, *size)
}

// generate simulates workers pulling fixed-size chunks from a shared
// offset. One worker in four is slow; slow workers are health-killed once
// and resume at normal speed. The tail of the download triggers balancer
// splits.
func generate(w *bufio.Writer, rng *rand.Rand, n int, size int64) {
	start := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	line := func(ts time.Time, format string, args ...any) {
		fmt.Fprintf(w, "[%s] %s\n", ts.Format(timestampLayout), fmt.Sprintf(format, args...))
	}

	line(start, "Probe complete - filename: synthetic.bin, size: %d", size)

	pool := make([]*worker, n)
	for i := range pool {
		pool[i] = &worker{id: i, clock: start, speed: 8 + rng.Float64()*8, slow: i%4 == 3}
		if pool[i].slow {
			pool[i].speed /= 5
		}
		line(start, "Worker %d started", i)
	}

	var offset int64
	splits := 0
	for offset < size {
		// Next worker to become free takes the next chunk
		next := pool[0]
		for _, wk := range pool[1:] {
			if wk.clock.Before(next.clock) {
				next = wk
			}
		}

		length := min(int64(chunkSize), size-offset)
		secs := float64(length) / (1 << 20) / (next.speed * (0.8 + rng.Float64()*0.4))
		if rng.Intn(20) == 0 {
			secs += 1 + rng.Float64()*2 // idle gap before the task
			next.clock = next.clock.Add(time.Duration(secs * float64(time.Second) / 3))
		}
		next.clock = next.clock.Add(time.Duration(secs * float64(time.Second)))
		line(next.clock, "Worker %d: Task offset=%d length=%d took %.3fs", next.id, offset, length, secs)
		offset += length

		if next.slow && secs > 4 {
			line(next.clock, "Health: Worker %d slow", next.id)
			next.slow = false
			next.speed *= 5
		}
		if size-offset < int64(n)*chunkSize && offset < size {
			splits++
			line(next.clock, "Balancer: split largest task (total splits: %d)", splits)
		}
	}

	end := start
	for _, wk := range pool {
		if wk.clock.After(end) {
			end = wk.clock
		}
	}
	for _, wk := range pool {
		line(end, "Worker %d finished", wk.id)
	}
	elapsed := end.Sub(start).Seconds()
	line(end, "Download synthetic.bin completed in %.1fs (%.2f MB/s)", elapsed, float64(size)/(1<<20)/max(elapsed, 1))
}
