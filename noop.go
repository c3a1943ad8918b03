package pm

// NoopPhase implements MeasurementPhase with every operation eliding to
// nothing. It lets performance-sensitive builds compile instrumentation
// out entirely while leaving call sites unchanged: construct a NoopPhase
// where a Phase would otherwise be used.
type NoopPhase struct{}

var _ MeasurementPhase = NoopPhase{}

// NewNoopPhase constructs a no-op phase. The name is not stored.
func NewNoopPhase(string) NoopPhase { return NoopPhase{} }

// Name returns the empty string.
func (NoopPhase) Name() string { return "" }

// Start does nothing.
func (NoopPhase) Start() {}

// Pause does nothing.
func (NoopPhase) Pause() {}

// Resume does nothing.
func (NoopPhase) Resume() {}

// Stop does nothing.
func (NoopPhase) Stop() {}

// Data returns a throwaway map; writes to it are discarded with the map.
func (NoopPhase) Data() map[string]any { return map[string]any{} }

// AppendChild does nothing.
func (NoopPhase) AppendChild(MeasurementPhase) {}

// Report returns the zero report.
func (NoopPhase) Report() Report { return Report{} }
