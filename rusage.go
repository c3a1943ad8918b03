//go:build unix

package pm

import "golang.org/x/sys/unix"

// RusageMetrics is the resource usage meter's report snapshot. Times are
// in milliseconds, MaxRSS in kilobytes as reported by the kernel.
type RusageMetrics struct {
	UserTime               float64 `json:"user_time"`
	SystemTime             float64 `json:"system_time"`
	MaxRSS                 int64   `json:"max_rss"`
	MinorFaults            int64   `json:"minor_faults"`
	MajorFaults            int64   `json:"major_faults"`
	VoluntaryCtxSwitches   int64   `json:"voluntary_ctx_switches"`
	InvoluntaryCtxSwitches int64   `json:"involuntary_ctx_switches"`
}

// RusageMeter measures process-wide resource usage via getrusage(2) over
// the meter's active windows. Counters accumulate the deltas between
// Resume and Pause; MaxRSS is the largest value observed at any window
// boundary. Like all process-wide meters it attributes everything the
// process does during a window to the phase, regardless of origin.
type RusageMeter struct {
	running bool
	base    unix.Rusage
	acc     RusageMetrics
}

// NewRusageMeter creates a stopped resource usage meter.
func NewRusageMeter() *RusageMeter { return &RusageMeter{} }

// Start clears accumulated usage and begins a new measurement window.
func (m *RusageMeter) Start() {
	m.acc = RusageMetrics{}
	m.running = false
	m.Resume()
}

// Pause closes the current window, folding its usage into the accumulated
// totals. A no-op while paused.
func (m *RusageMeter) Pause() {
	if !m.running {
		return
	}
	var now unix.Rusage
	if err := unix.Getrusage(unix.RUSAGE_SELF, &now); err == nil {
		m.accumulate(&now)
	}
	m.running = false
}

// Resume opens a new measurement window. A no-op while running.
func (m *RusageMeter) Resume() {
	if m.running {
		return
	}
	if err := unix.Getrusage(unix.RUSAGE_SELF, &m.base); err != nil {
		return
	}
	m.running = true
}

// Stop ends the measurement; equivalent to Pause.
func (m *RusageMeter) Stop() { m.Pause() }

func (m *RusageMeter) accumulate(now *unix.Rusage) {
	m.acc.UserTime += timevalMillis(now.Utime) - timevalMillis(m.base.Utime)
	m.acc.SystemTime += timevalMillis(now.Stime) - timevalMillis(m.base.Stime)
	m.acc.MinorFaults += now.Minflt - m.base.Minflt
	m.acc.MajorFaults += now.Majflt - m.base.Majflt
	m.acc.VoluntaryCtxSwitches += now.Nvcsw - m.base.Nvcsw
	m.acc.InvoluntaryCtxSwitches += now.Nivcsw - m.base.Nivcsw
	if now.Maxrss > m.acc.MaxRSS {
		m.acc.MaxRSS = now.Maxrss
	}
}

func timevalMillis(tv unix.Timeval) float64 {
	return float64(tv.Sec)*1000 + float64(tv.Usec)/1000
}

// Key identifies the meter's measurement in a report.
func (m *RusageMeter) Key() string { return "rusage" }

// Snapshot returns the accumulated RusageMetrics. While running, the open
// window is included without being closed.
func (m *RusageMeter) Snapshot() any {
	snap := m.acc
	if m.running {
		var now unix.Rusage
		if err := unix.Getrusage(unix.RUSAGE_SELF, &now); err == nil {
			probe := *m
			probe.accumulate(&now)
			snap = probe.acc
		}
	}
	return snap
}
