package app

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/pdinklag/pm"
	apperrors "github.com/pdinklag/pm/internal/errors"
	"github.com/pdinklag/pm/internal/workload"
)

func TestLiveStats(t *testing.T) {
	var s liveStats

	s.OnAlloc(100)
	s.OnAlloc(50)
	s.OnFree(100)

	m := s.Metrics()
	if m.Peak != 150 {
		t.Errorf("Peak = %d, want 150", m.Peak)
	}
	if m.Closing != 50 {
		t.Errorf("Closing = %d, want 50", m.Closing)
	}
	if m.AllocNum != 2 || m.AllocBytes != 150 {
		t.Errorf("allocs = %d/%d, want 2/150", m.AllocNum, m.AllocBytes)
	}
	if m.FreeNum != 1 || m.FreeBytes != 100 {
		t.Errorf("frees = %d/%d, want 1/100", m.FreeNum, m.FreeBytes)
	}

	s.Reset()
	if m := s.Metrics(); m.Peak != 0 || m.AllocNum != 0 {
		t.Errorf("Reset left state behind: %+v", m)
	}
}

func TestLiveStats_NegativeClosing(t *testing.T) {
	var s liveStats
	s.OnFree(64)
	if m := s.Metrics(); m.Closing != -64 {
		t.Errorf("Closing = %d, want -64", m.Closing)
	}
}

func TestBenchSession_TracksInterceptorTraffic(t *testing.T) {
	session := newBenchSession()

	b := session.interceptor.Allocate(256)
	if b == nil {
		t.Fatal("allocation failed")
	}
	session.interceptor.Free(b)

	m := session.live.Metrics()
	if m.AllocBytes != 256 || m.FreeBytes != 256 {
		t.Errorf("traffic = %d/%d, want 256/256", m.AllocBytes, m.FreeBytes)
	}
	if m.Closing != 0 {
		t.Errorf("Closing = %d, want 0", m.Closing)
	}
}

func TestReportBuffer(t *testing.T) {
	var b reportBuffer
	if got := b.Report(); got.Name != "" {
		t.Errorf("fresh buffer report = %+v", got)
	}

	b.Set(pm.Report{Name: "bench"})
	if got := b.Report(); got.Name != "bench" {
		t.Errorf("Report().Name = %q, want bench", got.Name)
	}
}

func benchApp(t *testing.T, args ...string) *Application {
	t.Helper()
	var errBuf bytes.Buffer
	a, err := New(append([]string{"pmbench"}, args...), &errBuf)
	if err != nil {
		t.Fatalf("New: %v (stderr: %s)", err, errBuf.String())
	}
	return a
}

func TestExecuteWorkloads(t *testing.T) {
	a := benchApp(t, "-rounds", "8", "-blocks", "16", "-block-size", "64")
	workloads := a.workloadsToRun()
	session := newBenchSession()

	var published int
	outcome := a.executeWorkloads(context.Background(), session, workloads,
		func(int, string, float64) {}, func(pm.Report) { published++ })

	if outcome.err != nil {
		t.Fatalf("outcome.err = %v", outcome.err)
	}
	if outcome.report.Name != "bench" {
		t.Errorf("report name = %q, want bench", outcome.report.Name)
	}
	if len(outcome.report.Children) != len(workloads) {
		t.Errorf("got %d children, want %d", len(outcome.report.Children), len(workloads))
	}
	if len(outcome.results) != len(workloads) {
		t.Fatalf("got %d results, want %d", len(outcome.results), len(workloads))
	}
	for _, res := range outcome.results {
		if res.Err != nil {
			t.Errorf("workload %s failed: %v", res.Name, res.Err)
		}
	}
	// One snapshot per workload plus the final report
	if published != len(workloads)+1 {
		t.Errorf("published %d snapshots, want %d", published, len(workloads)+1)
	}
	// Workloads must free everything they allocated
	if outcome.heap.Closing != 0 {
		t.Errorf("heap.Closing = %d, want 0", outcome.heap.Closing)
	}
	if outcome.heap.AllocNum == 0 {
		t.Error("expected tracked allocations")
	}
}

func TestExecuteWorkloads_ChildShape(t *testing.T) {
	a := benchApp(t, "-w", "churn", "-rounds", "4", "-blocks", "8", "-block-size", "32", "-rusage")
	session := newBenchSession()

	outcome := a.executeWorkloads(context.Background(), session, a.workloadsToRun(),
		func(int, string, float64) {}, nil)

	if len(outcome.report.Children) != 1 {
		t.Fatalf("got %d children", len(outcome.report.Children))
	}
	child := outcome.report.Children[0]
	if child.Name != "churn" {
		t.Errorf("child name = %q", child.Name)
	}
	for _, key := range []string{"time", "memory", "rusage"} {
		if _, ok := child.Metrics[key]; !ok {
			t.Errorf("child metrics missing %q", key)
		}
	}
	if child.Data["rounds"] != 4 {
		t.Errorf("data.rounds = %v, want 4", child.Data["rounds"])
	}
}

func TestExecuteWorkloads_CanceledContext(t *testing.T) {
	a := benchApp(t, "-rounds", "8", "-blocks", "16", "-block-size", "64")
	session := newBenchSession()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcome := a.executeWorkloads(ctx, session, a.workloadsToRun(),
		func(int, string, float64) {}, nil)

	if !errors.Is(outcome.err, context.Canceled) {
		t.Errorf("outcome.err = %v, want context.Canceled", outcome.err)
	}
	if len(outcome.results) != 0 {
		t.Errorf("got %d results, want 0", len(outcome.results))
	}
}

func TestRun_QuietResultLine(t *testing.T) {
	a := benchApp(t, "-w", "churn", "-rounds", "8", "-blocks", "16", "-block-size", "64", "-q", "-result")
	a.ErrWriter = io.Discard

	var out bytes.Buffer
	code := a.Run(context.Background(), &out)
	if code != apperrors.ExitSuccess {
		t.Fatalf("exit code = %d, output:\n%s", code, out.String())
	}
	if !strings.HasPrefix(out.String(), "RESULT ") {
		t.Errorf("output should be a single RESULT line, got:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "churn.data.rounds=8") {
		t.Errorf("RESULT line missing run data:\n%s", out.String())
	}
}

func TestPhaseDuration(t *testing.T) {
	p := pm.NewTimePhase("t")
	p.Start()
	p.Stop()
	if d := phaseDuration(p); d < 0 {
		t.Errorf("duration = %v", d)
	}
}

var _ workload.Factory = singleFactory{}
