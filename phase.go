package pm

// MeasurementPhase is the contract shared by Phase and NoopPhase. Call
// sites written against this interface can have instrumentation compiled
// out by substituting the no-op implementation, without any other change.
type MeasurementPhase interface {
	Name() string
	Start()
	Pause()
	Resume()
	Stop()
	Data() map[string]any
	AppendChild(child MeasurementPhase)
	Report() Report
}

// Phase is a named measurement scope composing an ordered, fixed set of
// meters, a free-form auxiliary data store and a list of absorbed child
// reports. The meter set is fixed at construction and driven exclusively
// through the phase's own lifecycle calls.
//
// Start and Resume drive the meters in declaration order; Pause and Stop
// in reverse order, so the meter that started last stops first. Meters
// measuring the phase itself (like a stopwatch) should therefore be
// declared last: they start as late and stop as early as possible,
// minimizing how much of the instrumentation overhead they measure.
//
// Create a phase before the code it measures runs, so its own construction
// is not part of the measurement.
type Phase struct {
	name     string
	meters   []Meter
	data     map[string]any
	children []Report
}

var _ MeasurementPhase = (*Phase)(nil)

// NewPhase constructs a phase with the given name and meters. The meter
// order is the declaration order used for lifecycle traversal.
func NewPhase(name string, meters ...Meter) *Phase {
	return &Phase{name: name, meters: meters}
}

// NewDataPhase constructs a phase without meters. It measures nothing but
// still carries auxiliary data and children.
func NewDataPhase(name string) *Phase { return NewPhase(name) }

// NewTimePhase constructs a phase measuring only wall-clock time.
func NewTimePhase(name string) *Phase { return NewPhase(name, NewStopwatch()) }

// NewMemoryTimePhase constructs a phase measuring heap allocations and
// wall-clock time. The stopwatch is intentionally declared last; see the
// ordering note on Phase.
func NewMemoryTimePhase(name string) *Phase {
	return NewPhase(name, NewMallocCounter(), NewStopwatch())
}

// Name returns the phase's name.
func (p *Phase) Name() string { return p.name }

// Start starts the phase's meters in declaration order.
func (p *Phase) Start() {
	for _, m := range p.meters {
		m.Start()
	}
}

// Pause pauses the phase's meters in reverse declaration order.
func (p *Phase) Pause() {
	for i := len(p.meters) - 1; i >= 0; i-- {
		p.meters[i].Pause()
	}
}

// Resume resumes the phase's meters in declaration order.
func (p *Phase) Resume() {
	for _, m := range p.meters {
		m.Resume()
	}
}

// Stop stops the phase's meters in reverse declaration order.
func (p *Phase) Stop() {
	for i := len(p.meters) - 1; i >= 0; i-- {
		p.meters[i].Stop()
	}
}

// Data returns the phase's mutable auxiliary data store. Values stored
// here appear under the report's "data" object; they are passenger data,
// not measurements.
func (p *Phase) Data() map[string]any {
	if p.data == nil {
		p.data = make(map[string]any)
	}
	return p.data
}

// AppendChild absorbs the child's report snapshot into this phase's
// ordered child list. The child must already be stopped: the snapshot is
// taken now, and later changes to the child are not reflected. This is not
// enforced, but the report is only meaningful if respected.
func (p *Phase) AppendChild(child MeasurementPhase) {
	p.children = append(p.children, child.Report())
}

// Report gathers the phase's name, children, meter snapshots and auxiliary
// data into a report. It does not mutate the phase and may be called at
// any time, though meter snapshots are only final once the phase has
// stopped. Sections are populated conditionally: children and data only
// when non-empty, metrics only when at least one meter is composed.
func (p *Phase) Report() Report {
	r := Report{Name: p.name}

	if len(p.children) > 0 {
		r.Children = append([]Report(nil), p.children...)
	}

	if len(p.meters) > 0 {
		r.Metrics = make(map[string]any, len(p.meters))
		for _, m := range p.meters {
			r.Metrics[m.Key()] = m.Snapshot()
		}
	}

	if len(p.data) > 0 {
		r.Data = make(map[string]any, len(p.data))
		for k, v := range p.data {
			r.Data[k] = v
		}
	}

	return r
}
