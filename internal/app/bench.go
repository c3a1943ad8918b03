package app

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"

	"github.com/pdinklag/pm"
	"github.com/pdinklag/pm/callback"
	"github.com/pdinklag/pm/heap"
	"github.com/pdinklag/pm/internal/cli"
	apperrors "github.com/pdinklag/pm/internal/errors"
	"github.com/pdinklag/pm/internal/logging"
	"github.com/pdinklag/pm/internal/metrics"
	"github.com/pdinklag/pm/internal/server"
	"github.com/pdinklag/pm/internal/workload"
	"github.com/pdinklag/pm/otelpm"
	"github.com/pdinklag/pm/prom"
)

// tracerName identifies the spans emitted around benchmark phases.
const tracerName = "pmbench"

// liveStats aggregates interceptor traffic with atomic counters so the
// dashboard and the metrics server can sample it while a workload runs.
// The phase meters keep their own per-phase counters; this one covers the
// whole session.
type liveStats struct {
	current    atomic.Int64
	peak       atomic.Uint64
	allocNum   atomic.Uint64
	allocBytes atomic.Uint64
	freeNum    atomic.Uint64
	freeBytes  atomic.Uint64
}

var _ callback.Callback = (*liveStats)(nil)

// OnAlloc implements callback.Callback.
func (s *liveStats) OnAlloc(bytes int) {
	cur := s.current.Add(int64(bytes))
	for cur > 0 {
		peak := s.peak.Load()
		if uint64(cur) <= peak || s.peak.CompareAndSwap(peak, uint64(cur)) {
			break
		}
	}
	s.allocNum.Add(1)
	s.allocBytes.Add(uint64(bytes))
}

// OnFree implements callback.Callback.
func (s *liveStats) OnFree(bytes int) {
	s.current.Add(-int64(bytes))
	s.freeNum.Add(1)
	s.freeBytes.Add(uint64(bytes))
}

// Reset clears all counters for a fresh run.
func (s *liveStats) Reset() {
	s.current.Store(0)
	s.peak.Store(0)
	s.allocNum.Store(0)
	s.allocBytes.Store(0)
	s.freeNum.Store(0)
	s.freeBytes.Store(0)
}

// Metrics returns a snapshot of the counters.
func (s *liveStats) Metrics() pm.MemoryMetrics {
	return pm.MemoryMetrics{
		Peak:       s.peak.Load(),
		Closing:    s.current.Load(),
		AllocNum:   s.allocNum.Load(),
		AllocBytes: s.allocBytes.Load(),
		FreeNum:    s.freeNum.Load(),
		FreeBytes:  s.freeBytes.Load(),
	}
}

// benchSession owns the allocation plumbing of one benchmark run: a
// private callback registry, the interceptor workloads allocate through
// and the session-wide live counters. A private registry keeps the run
// isolated from anything else observing the process-wide default.
type benchSession struct {
	registry    *callback.Registry
	interceptor *heap.Interceptor
	live        *liveStats
}

func newBenchSession() *benchSession {
	registry := callback.NewRegistry()
	live := &liveStats{}
	registry.Register(live)
	return &benchSession{
		registry:    registry,
		interceptor: heap.NewInterceptor(memory.NewGoAllocator(), registry),
		live:        live,
	}
}

// benchOutcome is everything a finished run produced.
type benchOutcome struct {
	report  pm.Report
	results []cli.RunResult
	heap    pm.MemoryMetrics
	err     error
}

// reportBuffer is a thread-safe prom.ReportSource holding the most recent
// report snapshot, updated as workloads complete.
type reportBuffer struct {
	mu  sync.RWMutex
	rep pm.Report
}

var _ prom.ReportSource = (*reportBuffer)(nil)

func (b *reportBuffer) Set(rep pm.Report) {
	b.mu.Lock()
	b.rep = rep
	b.mu.Unlock()
}

// Report implements prom.ReportSource.
func (b *reportBuffer) Report() pm.Report {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.rep
}

// runBench executes the plain CLI benchmark run.
func (a *Application) runBench(ctx context.Context, out io.Writer) int {
	ctx, cancelTimeout := context.WithTimeout(ctx, a.Config.Timeout)
	defer cancelTimeout()
	ctx, stopSignals := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stopSignals()

	workloads := a.workloadsToRun()
	names := workloadNames(workloads)

	if !a.Config.Quiet {
		cli.DisplayRunConfig(out, a.Config, names)
	}

	session := newBenchSession()
	live := &reportBuffer{}

	var (
		serveGroup  *errgroup.Group
		stopServing context.CancelFunc
	)
	if a.Config.Serve {
		observer := prom.NewObserver("pm")
		session.registry.Register(observer)

		srv := server.New(server.DefaultConfig(a.Config.ListenAddr), live, logging.NewDefaultLogger())
		if err := srv.Metrics().Register(observer); err != nil {
			fmt.Fprintf(a.ErrWriter, "Error registering metrics: %v\n", err)
			return apperrors.ExitErrorGeneric
		}
		if err := srv.Metrics().Register(prom.NewReportCollector(live, "pm")); err != nil {
			fmt.Fprintf(a.ErrWriter, "Error registering metrics: %v\n", err)
			return apperrors.ExitErrorGeneric
		}

		var serveCtx context.Context
		serveCtx, stopServing = context.WithCancel(context.Background())
		defer stopServing()
		serveGroup, serveCtx = errgroup.WithContext(serveCtx)
		srvCtx := serveCtx
		serveGroup.Go(func() error { return srv.Run(srvCtx) })
	}

	var (
		wg      sync.WaitGroup
		updates chan cli.ProgressUpdate
	)
	progress := func(int, string, float64) {}
	if !a.Config.Quiet {
		updates = make(chan cli.ProgressUpdate, 16)
		wg.Add(1)
		go cli.DisplayProgress(&wg, updates, len(workloads), out)
		progress = func(index int, _ string, done float64) {
			updates <- cli.ProgressUpdate{Index: index, Progress: done}
		}
	}

	outcome := a.executeWorkloads(ctx, session, workloads, progress, live.Set)

	if updates != nil {
		close(updates)
		wg.Wait()
	}

	if serveGroup != nil {
		stopServing()
		if err := serveGroup.Wait(); err != nil {
			fmt.Fprintf(a.ErrWriter, "Metrics server error: %v\n", err)
		}
	}

	if !a.Config.Quiet {
		cli.PresentSummaryTable(outcome.results, out)
	}

	outputCfg := cli.OutputConfig{
		OutputFile: a.Config.OutputFile,
		Quiet:      a.Config.Quiet,
		Verbose:    a.Config.Verbose,
		ResultLine: a.Config.ResultLine,
	}
	if err := cli.DisplayReportWithConfig(out, outcome.report, outputCfg); err != nil {
		fmt.Fprintf(a.ErrWriter, "Error writing report: %v\n", err)
		return apperrors.ExitErrorGeneric
	}

	if a.Config.Verbose && !a.Config.Quiet {
		cli.DisplayHeapStats(out, outcome.heap)
	}

	return cli.HandleRunError(outcome.err, out)
}

// executeWorkloads runs the selected workloads sequentially under one root
// phase. Each workload gets its own child phase with an allocation counter
// and a stopwatch, plus a getrusage meter and a runtime meter when
// configured. publish, if non-nil, receives a root report snapshot after
// every completed workload.
func (a *Application) executeWorkloads(
	ctx context.Context,
	session *benchSession,
	workloads []workload.Workload,
	progress func(index int, name string, done float64),
	publish func(pm.Report),
) benchOutcome {
	params := workload.Params{
		Rounds:    a.Config.Rounds,
		Blocks:    a.Config.Blocks,
		BlockSize: a.Config.BlockSize,
		Alignment: a.Config.Alignment,
	}

	tracer := otel.Tracer(tracerName)

	rootCounter := pm.NewMallocCounterWithRegistry(session.registry)
	root := pm.NewPhase("bench", rootCounter, pm.NewStopwatch())
	root.Data()["workloads"] = len(workloads)
	ctx, tracedRoot := otelpm.StartPhase(ctx, tracer, root)

	outcome := benchOutcome{results: make([]cli.RunResult, 0, len(workloads))}

	for i, w := range workloads {
		if err := ctx.Err(); err != nil {
			if outcome.err == nil {
				outcome.err = err
			}
			break
		}

		meters := []pm.Meter{pm.NewMallocCounterWithRegistry(session.registry)}
		if a.Config.Rusage {
			meters = append(meters, pm.NewRusageMeter())
		}
		if a.Config.Verbose {
			meters = append(meters, metrics.NewRuntimeMeter())
		}
		meters = append(meters, pm.NewStopwatch())

		child := pm.NewPhase(w.Name(), meters...)
		child.Data()["rounds"] = params.Rounds
		child.Data()["blocks"] = params.Blocks
		child.Data()["block_size"] = params.BlockSize
		if params.Alignment > 0 {
			child.Data()["alignment"] = params.Alignment
		}

		index, name := i, w.Name()
		_, traced := otelpm.StartPhase(ctx, tracer, child)
		runErr := w.Run(ctx, session.interceptor, params, func(done float64) {
			progress(index, name, done)
		})
		rep := traced.Stop()
		root.AppendChild(child)

		if runErr != nil && !apperrors.IsContextError(runErr) {
			runErr = apperrors.WorkloadError{Workload: name, Cause: runErr}
		}

		outcome.results = append(outcome.results, cli.RunResult{
			Name:     name,
			Duration: phaseDuration(child),
			Report:   rep,
			Err:      runErr,
		})
		if runErr != nil && outcome.err == nil {
			outcome.err = runErr
		}
		if publish != nil {
			publish(root.Report())
		}
	}

	outcome.report = tracedRoot.Stop()
	outcome.heap = rootCounter.Snapshot().(pm.MemoryMetrics)
	if publish != nil {
		publish(outcome.report)
	}
	return outcome
}

// phaseDuration reads a stopped phase's elapsed time.
func phaseDuration(p *pm.Phase) time.Duration {
	millis := pm.Metric[float64](p, pm.MetricTime)
	return time.Duration(millis * float64(time.Millisecond))
}
