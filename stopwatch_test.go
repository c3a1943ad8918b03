package pm

import (
	"testing"
	"time"
)

func TestStopwatch_MeasuresElapsedTime(t *testing.T) {
	t.Parallel()

	sw := NewStopwatch()
	sw.Start()
	time.Sleep(10 * time.Millisecond)
	sw.Stop()

	if got := sw.Elapsed(); got < 10*time.Millisecond {
		t.Errorf("Elapsed() = %v, want >= 10ms", got)
	}
	if got := sw.ElapsedMillis(); got < 10 {
		t.Errorf("ElapsedMillis() = %v, want >= 10", got)
	}
}

func TestStopwatch_PauseExcludesTime(t *testing.T) {
	t.Parallel()

	sw := NewStopwatch()
	sw.Start()
	time.Sleep(5 * time.Millisecond)
	sw.Pause()

	paused := sw.Elapsed()
	time.Sleep(20 * time.Millisecond)

	if got := sw.Elapsed(); got != paused {
		t.Errorf("Elapsed() advanced while paused: %v -> %v", paused, got)
	}

	sw.Resume()
	time.Sleep(5 * time.Millisecond)
	sw.Stop()

	if got := sw.Elapsed(); got < paused+5*time.Millisecond {
		t.Errorf("Elapsed() = %v, want >= %v", got, paused+5*time.Millisecond)
	}
	if got := sw.Elapsed(); got >= paused+20*time.Millisecond {
		t.Errorf("Elapsed() = %v includes paused window", got)
	}
}

func TestStopwatch_StartResets(t *testing.T) {
	t.Parallel()

	sw := NewStopwatch()
	sw.Start()
	time.Sleep(5 * time.Millisecond)
	sw.Stop()

	sw.Start()
	sw.Stop()

	if got := sw.Elapsed(); got >= 5*time.Millisecond {
		t.Errorf("Elapsed() = %v after restart, want reset near zero", got)
	}
}

func TestStopwatch_IdempotentTransitions(t *testing.T) {
	t.Parallel()

	sw := NewStopwatch()
	sw.Pause() // paused stopwatch, must not panic or accumulate

	sw.Start()
	sw.Resume() // already running
	time.Sleep(2 * time.Millisecond)
	sw.Stop()
	elapsed := sw.Elapsed()
	sw.Stop() // already stopped

	if got := sw.Elapsed(); got != elapsed {
		t.Errorf("Elapsed() changed on repeated Stop: %v -> %v", elapsed, got)
	}
}

func TestStopwatch_ReportContract(t *testing.T) {
	t.Parallel()

	sw := NewStopwatch()
	if got := sw.Key(); got != "time" {
		t.Errorf("Key() = %q, want %q", got, "time")
	}

	sw.Start()
	sw.Stop()
	if _, ok := sw.Snapshot().(float64); !ok {
		t.Errorf("Snapshot() = %T, want float64", sw.Snapshot())
	}

	if _, ok := sw.MetricValue(MetricTime); !ok {
		t.Errorf("MetricValue(%q) not supported", MetricTime)
	}
	if _, ok := sw.MetricValue(MetricMemoryPeak); ok {
		t.Errorf("MetricValue(%q) unexpectedly supported", MetricMemoryPeak)
	}
}
