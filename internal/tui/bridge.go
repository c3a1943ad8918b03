package tui

import (
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pdinklag/pm"
)

// programRef is a shared reference to the tea.Program.
// Because bubbletea copies the model on every Update, we need a pointer
// that survives copies so the bridge goroutines can send messages.
type programRef struct {
	mu      sync.RWMutex
	program *tea.Program
}

// SetProgram sets the tea.Program reference (thread-safe).
func (r *programRef) SetProgram(p *tea.Program) {
	r.mu.Lock()
	r.program = p
	r.mu.Unlock()
}

// Send sends a message to the bubbletea program (thread-safe).
func (r *programRef) Send(msg tea.Msg) {
	r.mu.RLock()
	p := r.program
	r.mu.RUnlock()
	if p != nil {
		p.Send(msg)
	}
}

// TickMsg drives the periodic sampling loop.
type TickMsg time.Time

// ProgressMsg reports one workload's progress from the run goroutine.
type ProgressMsg struct {
	Index    int
	Workload string
	Progress float64
}

// HeapStatsMsg carries a live snapshot of the intercepted heap.
type HeapStatsMsg struct {
	Metrics pm.MemoryMetrics
}

// SysStatsMsg carries a system-wide CPU and memory sample.
type SysStatsMsg struct {
	CPUPercent float64
	MemPercent float64
}

// RuntimeStatsMsg carries a Go runtime sample.
type RuntimeStatsMsg struct {
	HeapAlloc    uint64
	NumGC        uint32
	NumGoroutine int
}

// RunCompleteMsg signals that the benchmark run finished.
type RunCompleteMsg struct {
	Report     pm.Report
	ExitCode   int
	Generation uint64
}

// ContextCancelledMsg signals that the run context was canceled from the
// outside, e.g. by SIGINT or timeout.
type ContextCancelledMsg struct {
	Err        error
	Generation uint64
}
