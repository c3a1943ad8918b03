// Package metrics provides Go runtime memory sampling and a phase meter
// built on it. The runtime view complements the intercepted heap view:
// the interceptor only sees traffic routed through it, while the runtime
// statistics cover the whole process including the Go heap itself.
package metrics

import (
	"runtime"

	"github.com/pdinklag/pm"
)

// MemorySnapshot holds a point-in-time memory reading.
type MemorySnapshot struct {
	HeapAlloc    uint64 // bytes in use by application
	HeapSys      uint64 // bytes obtained from OS for heap
	Sys          uint64 // total bytes obtained from OS
	NumGC        uint32 // number of completed GC cycles
	PauseTotalNs uint64 // cumulative GC pause time
	HeapObjects  uint64 // number of allocated heap objects
}

// MemoryCollector reads runtime memory statistics.
type MemoryCollector struct{}

// NewMemoryCollector creates a new memory collector.
func NewMemoryCollector() *MemoryCollector {
	return &MemoryCollector{}
}

// Snapshot reads current memory statistics.
func (mc *MemoryCollector) Snapshot() MemorySnapshot {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return MemorySnapshot{
		HeapAlloc:    m.HeapAlloc,
		HeapSys:      m.HeapSys,
		Sys:          m.Sys,
		NumGC:        m.NumGC,
		PauseTotalNs: m.PauseTotalNs,
		HeapObjects:  m.HeapObjects,
	}
}

// RuntimeMetrics is the report contribution of a RuntimeMeter. GC counters
// are deltas accumulated over the meter's active windows; heap figures are
// the values observed at the end of the last window.
type RuntimeMetrics struct {
	// GCCycles is the number of GC cycles completed while active.
	GCCycles uint32 `json:"gc_cycles"`
	// GCPauseNanos is the GC pause time accumulated while active.
	GCPauseNanos uint64 `json:"gc_pause_ns"`
	// HeapAlloc is the Go heap usage in bytes at the end of measurement.
	HeapAlloc uint64 `json:"heap_alloc"`
	// HeapObjects is the number of live heap objects at the end of
	// measurement.
	HeapObjects uint64 `json:"heap_objects"`
}

// RuntimeMeter measures Go runtime GC activity over a phase. Time spent
// paused is excluded from the GC counters. The zero value is ready to use.
type RuntimeMeter struct {
	collector MemoryCollector
	running   bool
	base      MemorySnapshot
	acc       RuntimeMetrics
}

var _ pm.Meter = (*RuntimeMeter)(nil)

// NewRuntimeMeter creates a runtime meter.
func NewRuntimeMeter() *RuntimeMeter {
	return &RuntimeMeter{}
}

// Start resets accumulated state and begins a measurement window.
func (m *RuntimeMeter) Start() {
	m.acc = RuntimeMetrics{}
	m.base = m.collector.Snapshot()
	m.running = true
}

// Pause closes the current measurement window. A no-op while inactive.
func (m *RuntimeMeter) Pause() {
	if !m.running {
		return
	}
	m.accumulate(m.collector.Snapshot())
	m.running = false
}

// Resume opens a new measurement window. A no-op while active.
func (m *RuntimeMeter) Resume() {
	if m.running {
		return
	}
	m.base = m.collector.Snapshot()
	m.running = true
}

// Stop ends the measurement.
func (m *RuntimeMeter) Stop() {
	m.Pause()
}

// Key identifies the meter's measurement in a report.
func (m *RuntimeMeter) Key() string { return "runtime" }

// Snapshot returns the accumulated runtime metrics. An open window is
// included without being closed.
func (m *RuntimeMeter) Snapshot() any {
	if !m.running {
		return m.acc
	}
	probe := *m
	probe.accumulate(m.collector.Snapshot())
	return probe.acc
}

func (m *RuntimeMeter) accumulate(now MemorySnapshot) {
	m.acc.GCCycles += now.NumGC - m.base.NumGC
	m.acc.GCPauseNanos += now.PauseTotalNs - m.base.PauseTotalNs
	m.acc.HeapAlloc = now.HeapAlloc
	m.acc.HeapObjects = now.HeapObjects
}
