package pm

// Meter is a device measuring one dimension of a phase. Meters share the
// phase lifecycle: Start resets accumulated state and begins observing,
// Pause retains state without observing, Resume continues without a reset,
// and Stop marks the end of the measurement window (equivalent to Pause).
// Pause while inactive and Resume while active must be no-ops, because a
// phase drives all of its meters' transitions without tracking per-meter
// activity.
type Meter interface {
	Start()
	Pause()
	Resume()
	Stop()

	// Key identifies the meter's measurement in a report, e.g. "memory"
	// or "time". Keys must be unique within one phase.
	Key() string

	// Snapshot returns the meter's contribution to a report. The result
	// must be JSON-marshalable and must not alias mutable meter state.
	Snapshot() any
}

// MetricSource is an optional meter capability: generic access to named
// metric values. Callers use Metric to query a phase for a metric without
// knowing which composed meter produces it.
type MetricSource interface {
	// MetricValue returns the named metric and true, or false if this
	// meter does not produce the metric.
	MetricValue(name string) (any, bool)
}

// Metric names produced by the built-in meters.
const (
	// MetricTime is the elapsed wall-clock time in milliseconds (float64).
	MetricTime = "time"
	// MetricMemoryPeak is the peak number of outstanding bytes (uint64).
	MetricMemoryPeak = "memory.peak"
	// MetricMemoryClosing is the final number of outstanding bytes
	// (int64, negative if frees outnumbered tracked allocations).
	MetricMemoryClosing = "memory.closing"
)

// Metric retrieves the named metric from the first of the phase's meters
// that supports it, in declaration order. If no meter supports the metric,
// or the supporting meter's value is not of type V, the zero value of V is
// returned.
func Metric[V any](p *Phase, name string) V {
	var zero V
	for _, m := range p.meters {
		src, ok := m.(MetricSource)
		if !ok {
			continue
		}
		v, ok := src.MetricValue(name)
		if !ok {
			continue
		}
		if typed, ok := v.(V); ok {
			return typed
		}
		return zero
	}
	return zero
}
