//go:build !unix

package pm

// RusageMetrics is the resource usage meter's report snapshot. On
// platforms without getrusage(2) it stays zero.
type RusageMetrics struct {
	UserTime               float64 `json:"user_time"`
	SystemTime             float64 `json:"system_time"`
	MaxRSS                 int64   `json:"max_rss"`
	MinorFaults            int64   `json:"minor_faults"`
	MajorFaults            int64   `json:"major_faults"`
	VoluntaryCtxSwitches   int64   `json:"voluntary_ctx_switches"`
	InvoluntaryCtxSwitches int64   `json:"involuntary_ctx_switches"`
}

// RusageMeter measures nothing on platforms without getrusage(2). It keeps
// the same interface so phases composing it build everywhere.
type RusageMeter struct{}

// NewRusageMeter creates a stopped resource usage meter.
func NewRusageMeter() *RusageMeter { return &RusageMeter{} }

// Start does nothing on this platform.
func (m *RusageMeter) Start() {}

// Pause does nothing on this platform.
func (m *RusageMeter) Pause() {}

// Resume does nothing on this platform.
func (m *RusageMeter) Resume() {}

// Stop does nothing on this platform.
func (m *RusageMeter) Stop() {}

// Key identifies the meter's measurement in a report.
func (m *RusageMeter) Key() string { return "rusage" }

// Snapshot returns zero RusageMetrics.
func (m *RusageMeter) Snapshot() any { return RusageMetrics{} }
