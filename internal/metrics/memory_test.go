package metrics

import (
	"encoding/json"
	"testing"
)

func TestMemoryCollector_Snapshot(t *testing.T) {
	t.Parallel()

	mc := NewMemoryCollector()
	snap := mc.Snapshot()

	if snap.HeapAlloc == 0 {
		t.Error("HeapAlloc should be > 0")
	}
	if snap.Sys == 0 {
		t.Error("Sys should be > 0")
	}
}

func TestMemoryCollector_Delta(t *testing.T) {
	t.Parallel()

	mc := NewMemoryCollector()
	before := mc.Snapshot()

	// Allocate some memory
	_ = make([]byte, 1024*1024) // 1 MB

	after := mc.Snapshot()

	// Sys should not decrease between snapshots
	if after.Sys < before.Sys {
		t.Error("Sys should not decrease between snapshots")
	}
}

func TestRuntimeMeter_Lifecycle(t *testing.T) {
	t.Parallel()

	m := NewRuntimeMeter()
	if m.Key() != "runtime" {
		t.Errorf("Key = %q, want %q", m.Key(), "runtime")
	}

	m.Start()
	sink := make([][]byte, 0, 64)
	for i := 0; i < 64; i++ {
		sink = append(sink, make([]byte, 64*1024))
	}
	_ = sink
	m.Stop()

	got, ok := m.Snapshot().(RuntimeMetrics)
	if !ok {
		t.Fatalf("Snapshot returned %T, want RuntimeMetrics", m.Snapshot())
	}
	if got.HeapAlloc == 0 {
		t.Error("HeapAlloc should be > 0 after measurement")
	}
	if got.HeapObjects == 0 {
		t.Error("HeapObjects should be > 0 after measurement")
	}
}

func TestRuntimeMeter_IdempotentTransitions(t *testing.T) {
	t.Parallel()

	m := NewRuntimeMeter()
	m.Pause()  // inactive, no-op
	m.Resume() // activates
	m.Resume() // active, no-op
	m.Pause()
	m.Pause() // inactive, no-op
	m.Stop()

	if _, ok := m.Snapshot().(RuntimeMetrics); !ok {
		t.Fatal("Snapshot should return RuntimeMetrics")
	}
}

func TestRuntimeMeter_SnapshotWhileRunning(t *testing.T) {
	t.Parallel()

	m := NewRuntimeMeter()
	m.Start()
	got, ok := m.Snapshot().(RuntimeMetrics)
	if !ok {
		t.Fatal("Snapshot should return RuntimeMetrics")
	}
	if got.HeapAlloc == 0 {
		t.Error("open-window snapshot should carry current heap usage")
	}

	// Snapshot must not close the window.
	m.Stop()
	if _, ok := m.Snapshot().(RuntimeMetrics); !ok {
		t.Fatal("Snapshot after Stop should return RuntimeMetrics")
	}
}

func TestRuntimeMetrics_JSONShape(t *testing.T) {
	t.Parallel()

	b, err := json.Marshal(RuntimeMetrics{GCCycles: 3, GCPauseNanos: 1500, HeapAlloc: 4096, HeapObjects: 12})
	if err != nil {
		t.Fatal(err)
	}
	want := `{"gc_cycles":3,"gc_pause_ns":1500,"heap_alloc":4096,"heap_objects":12}`
	if string(b) != want {
		t.Errorf("JSON = %s, want %s", b, want)
	}
}
