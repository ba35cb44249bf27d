// Package perf records wall-clock timings of named functions.
//
// Typical use:
//
//	defer perf.Track("ci.Resolver.Resolve")()
//
// Tracking is off by default and costs a single atomic load per call until
// Enable is called.
package perf

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

const (
	lowestMicros  = 1
	highestMicros = int64(time.Minute / time.Microsecond)
	sigFigs       = 3
)

var (
	enabled atomic.Bool

	mu         sync.Mutex
	histograms = make(map[string]*hdrhistogram.Histogram)
)

// Stat summarizes the recorded timings of one tracked name.
type Stat struct {
	Name  string
	Count int64
	P50   time.Duration
	P99   time.Duration
	Max   time.Duration
}

// Logger is the logging capability LogSummary needs.
type Logger interface {
	Debug(msg interface{}, keyvals ...interface{})
}

func noop() {}

// Enable turns tracking on.
func Enable() {
	enabled.Store(true)
}

// Disable turns tracking off. Recorded timings are kept.
func Disable() {
	enabled.Store(false)
}

// Enabled reports whether tracking is on.
func Enabled() bool {
	return enabled.Load()
}

// Track starts timing name and returns the function that stops it.
func Track(name string) func() {
	if !enabled.Load() {
		return noop
	}

	start := time.Now()
	return func() {
		record(name, time.Since(start))
	}
}

func record(name string, d time.Duration) {
	micros := d.Microseconds()
	if micros < lowestMicros {
		micros = lowestMicros
	}
	if micros > highestMicros {
		micros = highestMicros
	}

	mu.Lock()
	defer mu.Unlock()

	h, ok := histograms[name]
	if !ok {
		h = hdrhistogram.New(lowestMicros, highestMicros, sigFigs)
		histograms[name] = h
	}
	// The value is clamped to the histogram range above.
	_ = h.RecordValue(micros)
}

// Snapshot returns per-name statistics sorted by name.
func Snapshot() []Stat {
	mu.Lock()
	defer mu.Unlock()

	stats := make([]Stat, 0, len(histograms))
	for name, h := range histograms {
		stats = append(stats, Stat{
			Name:  name,
			Count: h.TotalCount(),
			P50:   time.Duration(h.ValueAtQuantile(50)) * time.Microsecond,
			P99:   time.Duration(h.ValueAtQuantile(99)) * time.Microsecond,
			Max:   time.Duration(h.Max()) * time.Microsecond,
		})
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Name < stats[j].Name })
	return stats
}

// Reset drops all recorded timings.
func Reset() {
	mu.Lock()
	defer mu.Unlock()

	histograms = make(map[string]*hdrhistogram.Histogram)
}

// LogSummary writes one debug line per tracked name.
func LogSummary(l Logger) {
	if l == nil {
		return
	}
	for _, s := range Snapshot() {
		l.Debug("Function timing",
			"function", s.Name,
			"count", s.Count,
			"p50", s.P50,
			"p99", s.P99,
			"max", s.Max)
	}
}
