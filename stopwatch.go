package pm

import "time"

// Stopwatch measures elapsed wall-clock time using the monotonic clock.
// The zero value is ready to use but not running; Start must be called
// explicitly, typically by the owning phase.
type Stopwatch struct {
	elapsed time.Duration
	resumed time.Time
	running bool
}

// NewStopwatch creates a stopped stopwatch with zero elapsed time.
func NewStopwatch() *Stopwatch { return &Stopwatch{} }

// Start resets the elapsed time to zero and begins measuring.
func (s *Stopwatch) Start() {
	s.elapsed = 0
	s.running = false
	s.Resume()
}

// Pause stops measuring, accumulating the time since the last resume.
// Pausing an already paused stopwatch has no effect.
func (s *Stopwatch) Pause() {
	if s.running {
		s.elapsed += time.Since(s.resumed)
		s.running = false
	}
}

// Resume continues measuring without resetting the accumulated time.
// Resuming a running stopwatch has no effect.
func (s *Stopwatch) Resume() {
	if !s.running {
		s.resumed = time.Now()
		s.running = true
	}
}

// Stop ends the measurement; technically equivalent to Pause.
func (s *Stopwatch) Stop() { s.Pause() }

// Elapsed returns the measured time, including the currently running
// window if the stopwatch has not been paused or stopped yet.
func (s *Stopwatch) Elapsed() time.Duration {
	if s.running {
		return s.elapsed + time.Since(s.resumed)
	}
	return s.elapsed
}

// ElapsedMillis returns the measured time in milliseconds.
func (s *Stopwatch) ElapsedMillis() float64 {
	return float64(s.Elapsed()) / float64(time.Millisecond)
}

// Key identifies the stopwatch's measurement in a report.
func (s *Stopwatch) Key() string { return "time" }

// Snapshot returns the elapsed time in milliseconds.
func (s *Stopwatch) Snapshot() any { return s.ElapsedMillis() }

// MetricValue supports MetricTime.
func (s *Stopwatch) MetricValue(name string) (any, bool) {
	if name == MetricTime {
		return s.ElapsedMillis(), true
	}
	return nil, false
}
