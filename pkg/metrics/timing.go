// Package metrics provides performance instrumentation for tt.
//
// Timings cover the table-of-contents hot paths (hierarchy build, cache
// rebuilds, highlight propagation) plus loading, rendering and export.
// Counters track how many highlight flags were written or skipped, which is
// how the early-exit behaviour of highlight propagation shows up in numbers.
//
// Collection is on by default and uses atomics; TT_METRICS=0 disables it.
//
//	func rebuild() {
//	    defer metrics.Timer(metrics.ChainCacheBuild)()
//	    // ...
//	}
package metrics

import (
	"os"
	"sync/atomic"
	"time"
)

var enabled atomic.Bool

func init() {
	enabled.Store(os.Getenv("TT_METRICS") != "0")
}

// Enabled returns whether metrics collection is enabled.
func Enabled() bool {
	return enabled.Load()
}

// SetEnabled allows programmatic control of metrics collection.
func SetEnabled(e bool) {
	enabled.Store(e)
}

// TimingMetric accumulates durations of one named operation. Safe for
// concurrent use.
type TimingMetric struct {
	name    string
	count   atomic.Int64
	totalNs atomic.Int64
	maxNs   atomic.Int64
	minNs   atomic.Int64 // 0 until the first sample
}

func newTimingMetric(name string) *TimingMetric {
	return &TimingMetric{name: name}
}

// Record adds one sample.
func (m *TimingMetric) Record(d time.Duration) {
	if !Enabled() {
		return
	}
	ns := d.Nanoseconds()
	m.count.Add(1)
	m.totalNs.Add(ns)
	casUntil(&m.maxNs, ns, func(old int64) bool { return ns > old })
	casUntil(&m.minNs, ns, func(old int64) bool { return old == 0 || ns < old })
}

// casUntil stores v while better(current) holds, retrying on contention.
func casUntil(a *atomic.Int64, v int64, better func(old int64) bool) {
	for {
		old := a.Load()
		if !better(old) || a.CompareAndSwap(old, v) {
			return
		}
	}
}

// Name returns the metric name.
func (m *TimingMetric) Name() string { return m.name }

// Count returns the number of samples.
func (m *TimingMetric) Count() int64 { return m.count.Load() }

// MinNs returns the fastest sample, or 0 before the first one.
func (m *TimingMetric) MinNs() int64 { return m.minNs.Load() }

// Stats returns all timing statistics at once.
func (m *TimingMetric) Stats() TimingStats {
	count := m.count.Load()
	total := m.totalNs.Load()
	st := TimingStats{
		Name:    m.name,
		Count:   count,
		TotalMs: ms(total),
		MaxMs:   ms(m.maxNs.Load()),
		MinMs:   ms(m.minNs.Load()),
	}
	if count > 0 {
		st.AvgMs = ms(total / count)
	}
	return st
}

func ms(ns int64) float64 { return float64(ns) / 1e6 }

// Reset clears all samples.
func (m *TimingMetric) Reset() {
	m.count.Store(0)
	m.totalNs.Store(0)
	m.maxNs.Store(0)
	m.minNs.Store(0)
}

// TimingStats holds a snapshot of timing statistics.
type TimingStats struct {
	Name    string  `json:"name"`
	Count   int64   `json:"count"`
	TotalMs float64 `json:"total_ms"`
	AvgMs   float64 `json:"avg_ms"`
	MaxMs   float64 `json:"max_ms"`
	MinMs   float64 `json:"min_ms,omitempty"`
}

// Timer returns a function that records the time elapsed until it is called.
func Timer(m *TimingMetric) func() {
	if !Enabled() || m == nil {
		return func() {}
	}
	start := time.Now()
	return func() { m.Record(time.Since(start)) }
}

// Global timing metrics.
var (
	HierarchyBuild  = newTimingMetric("hierarchy_build")
	SpanCacheBuild  = newTimingMetric("span_cache_build")
	ChainCacheBuild = newTimingMetric("chain_cache_build")
	Highlight       = newTimingMetric("highlight")
	ExpandAll       = newTimingMetric("expand_all")
	LabelLoad       = newTimingMetric("label_load")
	UIRender        = newTimingMetric("ui_render")
	SnapshotExport  = newTimingMetric("snapshot_export")
)

// AllTimingMetrics returns the global timing metrics in reporting order.
func AllTimingMetrics() []*TimingMetric {
	return []*TimingMetric{
		HierarchyBuild, SpanCacheBuild, ChainCacheBuild, Highlight,
		ExpandAll, LabelLoad, UIRender, SnapshotExport,
	}
}

// ResetAll resets every global timing metric and counter.
func ResetAll() {
	for _, m := range AllTimingMetrics() {
		m.Reset()
	}
	for _, c := range AllCounterMetrics() {
		c.Reset()
	}
}

// AllTimingStats returns stats for the timing metrics that have samples.
func AllTimingStats() []TimingStats {
	var stats []TimingStats
	for _, m := range AllTimingMetrics() {
		if m.Count() > 0 {
			stats = append(stats, m.Stats())
		}
	}
	return stats
}
