package metrics

import "sync/atomic"

// CounterMetric is a monotonically increasing event count.
type CounterMetric struct {
	name  string
	value atomic.Int64
}

func newCounterMetric(name string) *CounterMetric {
	return &CounterMetric{name: name}
}

// Add increments the counter by n.
func (c *CounterMetric) Add(n int64) {
	if !Enabled() || n == 0 {
		return
	}
	c.value.Add(n)
}

// Inc increments the counter by one.
func (c *CounterMetric) Inc() { c.Add(1) }

// Name returns the metric name.
func (c *CounterMetric) Name() string { return c.name }

// Value returns the current count.
func (c *CounterMetric) Value() int64 {
	return c.value.Load()
}

// Reset sets the counter back to zero.
func (c *CounterMetric) Reset() {
	c.value.Store(0)
}

// CounterStats is a snapshot of one counter.
type CounterStats struct {
	Name  string `json:"name"`
	Value int64  `json:"value"`
}

// Global counters.
var (
	HighlightMarked  = newCounterMetric("highlight_marked")
	HighlightCleared = newCounterMetric("highlight_cleared")
	HighlightSkipped = newCounterMetric("highlight_skipped")
	Reloads          = newCounterMetric("reloads")
)

// AllCounterMetrics returns all registered counters.
func AllCounterMetrics() []*CounterMetric {
	return []*CounterMetric{HighlightMarked, HighlightCleared, HighlightSkipped, Reloads}
}

// AllCounterStats returns stats for counters that have fired.
func AllCounterStats() []CounterStats {
	var out []CounterStats
	for _, c := range AllCounterMetrics() {
		if v := c.Value(); v > 0 {
			out = append(out, CounterStats{Name: c.name, Value: v})
		}
	}
	return out
}

// Snapshot is the full set of collected metrics, as printed by tt --metrics.
type Snapshot struct {
	Timings  []TimingStats  `json:"timings"`
	Counters []CounterStats `json:"counters,omitempty"`
}

// Collect returns a snapshot of every metric with data.
func Collect() Snapshot {
	return Snapshot{
		Timings:  AllTimingStats(),
		Counters: AllCounterStats(),
	}
}
