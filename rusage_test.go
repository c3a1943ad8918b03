//go:build unix

package pm

import "testing"

func TestRusageMeter_ReportContract(t *testing.T) {
	t.Parallel()

	m := NewRusageMeter()
	if got := m.Key(); got != "rusage" {
		t.Errorf("Key() = %q, want %q", got, "rusage")
	}

	m.Start()
	// Burn a little CPU so the window is not empty.
	sink := 0
	for i := 0; i < 1<<20; i++ {
		sink += i
	}
	_ = sink
	m.Stop()

	snap, ok := m.Snapshot().(RusageMetrics)
	if !ok {
		t.Fatalf("Snapshot() = %T, want RusageMetrics", m.Snapshot())
	}
	if snap.MaxRSS <= 0 {
		t.Errorf("MaxRSS = %d, want > 0", snap.MaxRSS)
	}
	if snap.UserTime < 0 || snap.SystemTime < 0 {
		t.Errorf("negative CPU times: user=%v sys=%v", snap.UserTime, snap.SystemTime)
	}
}

func TestRusageMeter_IdempotentTransitions(t *testing.T) {
	t.Parallel()

	m := NewRusageMeter()
	m.Pause() // stopped meter, must be a no-op

	m.Start()
	m.Resume() // already running
	m.Stop()
	m.Stop()

	if _, ok := m.Snapshot().(RusageMetrics); !ok {
		t.Fatalf("Snapshot() = %T, want RusageMetrics", m.Snapshot())
	}
}
