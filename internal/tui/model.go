// Package tui implements the live benchmark dashboard. While workloads
// run it shows their progress, the intercepted heap balance and
// system-wide resource usage, sampled on a fixed tick.
package tui

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pdinklag/pm"
	"github.com/pdinklag/pm/internal/config"
	apperrors "github.com/pdinklag/pm/internal/errors"
	"github.com/pdinklag/pm/internal/format"
	"github.com/pdinklag/pm/internal/metrics"
	"github.com/pdinklag/pm/internal/sysmon"
)

// Runner executes the benchmark workloads and returns the final report
// and exit code. The app layer implements it; the dashboard only
// displays. The progress callback may be invoked from any goroutine.
type Runner func(ctx context.Context, progress func(index int, workload string, value float64)) (pm.Report, int)

// HeapSampler returns a live snapshot of intercepted heap activity.
type HeapSampler func() pm.MemoryMetrics

// Layout constants for the dashboard.
const (
	headerHeight         = 1
	footerHeight         = 1
	minBodyHeight        = 4
	activityWidthPercent = 50
	sampleHistory        = 120
	maxLogEntries        = 500
)

// Model is the root bubbletea model for the dashboard.
type Model struct {
	keymap  KeyMap
	version string

	width  int
	height int

	startTime time.Time
	endTime   time.Time
	paused    bool
	done      bool
	exitCode  int

	parentCtx  context.Context
	ctx        context.Context
	cancel     context.CancelFunc
	generation uint64

	config    config.AppConfig
	workloads []string
	runner    Runner
	sampler   HeapSampler
	ref       *programRef

	progresses []float64
	logs       []string
	logOffset  int

	heap        pm.MemoryMetrics
	heapSamples *RingBuffer
	cpuSamples  *RingBuffer
	memSamples  *RingBuffer
	runtime     RuntimeStatsMsg
}

// NewModel creates a dashboard model for the given run.
func NewModel(parentCtx context.Context, cfg config.AppConfig, workloads []string, runner Runner, sampler HeapSampler, version string) Model {
	ctx, cancel := context.WithCancel(parentCtx)

	return Model{
		keymap:      DefaultKeyMap(),
		version:     version,
		startTime:   time.Now(),
		parentCtx:   parentCtx,
		ctx:         ctx,
		cancel:      cancel,
		config:      cfg,
		workloads:   workloads,
		runner:      runner,
		sampler:     sampler,
		ref:         &programRef{},
		progresses:  make([]float64, len(workloads)),
		heapSamples: NewRingBuffer(sampleHistory),
		cpuSamples:  NewRingBuffer(sampleHistory),
		memSamples:  NewRingBuffer(sampleHistory),
		exitCode:    apperrors.ExitSuccess,
	}
}

// Init returns the initial commands.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(),
		startRunCmd(m.ref, m.ctx, m.runner, m.generation),
		watchContextCmd(m.ctx, m.generation),
	)
}

// Update handles all incoming messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case ProgressMsg:
		if !m.paused {
			if msg.Index >= 0 && msg.Index < len(m.progresses) {
				m.progresses[msg.Index] = msg.Progress
			}
			m.addLog(fmt.Sprintf("%s %s %s",
				logTimeStyle.Render(time.Now().Format("15:04:05")),
				logWorkloadStyle.Render(msg.Workload),
				logProgressStyle.Render(fmt.Sprintf("%.1f%%", msg.Progress*100))))
		}
		return m, nil

	case TickMsg:
		if m.done {
			return m, nil
		}
		if m.paused {
			return m, tickCmd()
		}
		return m, tea.Batch(sampleHeapCmd(m.sampler), sampleSysStatsCmd(), sampleRuntimeCmd(), tickCmd())

	case HeapStatsMsg:
		m.heap = msg.Metrics
		outstanding := msg.Metrics.Closing
		if outstanding < 0 {
			outstanding = 0
		}
		m.heapSamples.Push(float64(outstanding))
		return m, nil

	case SysStatsMsg:
		m.cpuSamples.Push(msg.CPUPercent)
		m.memSamples.Push(msg.MemPercent)
		return m, nil

	case RuntimeStatsMsg:
		m.runtime = msg
		return m, nil

	case RunCompleteMsg:
		if msg.Generation != m.generation {
			return m, nil // stale message from a previous run
		}
		m.done = true
		m.exitCode = msg.ExitCode
		m.endTime = time.Now()
		if msg.ExitCode == apperrors.ExitSuccess {
			m.addLog(logSuccessStyle.Render("run complete"))
		} else {
			m.addLog(logErrorStyle.Render(fmt.Sprintf("run failed (exit code %d)", msg.ExitCode)))
		}
		return m, nil

	case ContextCancelledMsg:
		if msg.Generation != m.generation {
			return m, nil
		}
		m.done = true
		m.endTime = time.Now()
		return m, tea.Quit
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keymap.Quit):
		if m.cancel != nil {
			m.cancel()
		}
		return m, tea.Quit

	case key.Matches(msg, m.keymap.Pause):
		m.paused = !m.paused
		return m, nil

	case key.Matches(msg, m.keymap.Reset):
		if m.cancel != nil {
			m.cancel()
		}

		m.generation++
		ctx, cancel := context.WithCancel(m.parentCtx)
		m.ctx = ctx
		m.cancel = cancel

		m.startTime = time.Now()
		m.endTime = time.Time{}
		m.done = false
		m.paused = false
		m.exitCode = apperrors.ExitSuccess
		m.progresses = make([]float64, len(m.workloads))
		m.logs = nil
		m.logOffset = 0
		m.heap = pm.MemoryMetrics{}
		m.heapSamples.Reset()
		m.cpuSamples.Reset()
		m.memSamples.Reset()

		return m, tea.Batch(
			tickCmd(),
			startRunCmd(m.ref, m.ctx, m.runner, m.generation),
			watchContextCmd(m.ctx, m.generation),
		)

	case key.Matches(msg, m.keymap.Up):
		if m.logOffset < len(m.logs)-1 {
			m.logOffset++
		}
		return m, nil

	case key.Matches(msg, m.keymap.Down):
		if m.logOffset > 0 {
			m.logOffset--
		}
		return m, nil
	}

	return m, nil
}

// addLog appends an activity entry, bounding the backlog.
func (m *Model) addLog(entry string) {
	m.logs = append(m.logs, entry)
	if len(m.logs) > maxLogEntries {
		m.logs = m.logs[len(m.logs)-maxLogEntries:]
	}
}

// View renders the entire dashboard.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	header := m.renderHeader()
	footer := m.renderFooter()

	bodyHeight := m.height - headerHeight - footerHeight
	if bodyHeight < minBodyHeight {
		bodyHeight = minBodyHeight
	}
	activityWidth := m.width * activityWidthPercent / 100
	rightWidth := m.width - activityWidth

	activity := m.renderActivityPanel(activityWidth, bodyHeight)
	heap := m.renderHeapPanel(rightWidth, bodyHeight/2)
	system := m.renderSystemPanel(rightWidth, bodyHeight-bodyHeight/2)

	rightCol := lipgloss.JoinVertical(lipgloss.Left, heap, system)
	body := lipgloss.JoinHorizontal(lipgloss.Top, activity, rightCol)

	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}

func (m Model) renderHeader() string {
	titleText := "pm Monitor"
	if m.version != "" && m.version != "dev" {
		titleText += " " + m.version
	}
	title := titleStyle.Render(titleText)
	pipe := versionStyle.Render(" | ")

	var duration time.Duration
	if !m.endTime.IsZero() {
		duration = m.endTime.Sub(m.startTime)
	} else {
		duration = time.Since(m.startTime)
	}
	elapsed := elapsedStyle.Render(fmt.Sprintf("Elapsed: %s", format.FormatExecutionDuration(duration)))

	var status string
	switch {
	case m.done:
		status = statusDoneStyle.Render("DONE")
	case m.paused:
		status = statusPausedStyle.Render("PAUSED")
	default:
		status = statusRunningStyle.Render("RUNNING")
	}

	return headerStyle.Width(m.width).Render(title + pipe + elapsed + pipe + status)
}

func (m Model) renderFooter() string {
	bindings := []key.Binding{m.keymap.Quit, m.keymap.Pause, m.keymap.Reset, m.keymap.Up, m.keymap.Down}
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		parts = append(parts, footerKeyStyle.Render(h.Key)+" "+footerDescStyle.Render(h.Desc))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, "  ", lipgloss.JoinHorizontal(lipgloss.Top, joinWithSeparator(parts, "   ")...))
}

func joinWithSeparator(parts []string, sep string) []string {
	out := make([]string, 0, len(parts)*2)
	for i, p := range parts {
		if i > 0 {
			out = append(out, sep)
		}
		out = append(out, p)
	}
	return out
}

func (m Model) renderActivityPanel(width, height int) string {
	innerHeight := height - 2 // borders
	if innerHeight < 1 {
		innerHeight = 1
	}

	lines := make([]string, 0, innerHeight)
	for i, w := range m.workloads {
		lines = append(lines, fmt.Sprintf("%s %s %5.1f%%",
			logWorkloadStyle.Render(fmt.Sprintf("%-8s", w)),
			format.ProgressBar(m.progresses[i], 16),
			m.progresses[i]*100))
	}
	lines = append(lines, "")

	// Most recent log entries, shifted by the scroll offset
	logWindow := innerHeight - len(lines)
	if logWindow > 0 && len(m.logs) > 0 {
		end := len(m.logs) - m.logOffset
		if end < 0 {
			end = 0
		}
		start := end - logWindow
		if start < 0 {
			start = 0
		}
		lines = append(lines, m.logs[start:end]...)
	}

	content := lipgloss.JoinVertical(lipgloss.Left, lines...)
	return panelStyle.Width(width - 2).Height(innerHeight).Render(content)
}

func (m Model) renderHeapPanel(width, height int) string {
	innerWidth := width - 4
	if innerWidth < 8 {
		innerWidth = 8
	}

	outstanding := m.heap.Closing
	if outstanding < 0 {
		outstanding = 0
	}

	spark := heapSparklineStyle.Render(RenderSparkline(tail(m.heapSamples.Normalized(), innerWidth)))

	content := lipgloss.JoinVertical(lipgloss.Left,
		metricLabelStyle.Render("Heap (intercepted)"),
		fmt.Sprintf("%s %s", metricLabelStyle.Render("outstanding"), metricValueStyle.Render(format.FormatBytes(outstanding))),
		fmt.Sprintf("%s %s", metricLabelStyle.Render("peak       "), metricValueStyle.Render(format.FormatBytes(int64(m.heap.Peak)))),
		fmt.Sprintf("%s %s", metricLabelStyle.Render("allocs     "), metricValueStyle.Render(format.FormatNumberString(fmt.Sprintf("%d", m.heap.AllocNum)))),
		fmt.Sprintf("%s %s", metricLabelStyle.Render("frees      "), metricValueStyle.Render(format.FormatNumberString(fmt.Sprintf("%d", m.heap.FreeNum)))),
		spark,
	)
	return panelStyle.Width(width - 2).Height(height - 2).Render(content)
}

func (m Model) renderSystemPanel(width, height int) string {
	innerWidth := width - 4
	if innerWidth < 8 {
		innerWidth = 8
	}

	cpu := cpuSparklineStyle.Render(RenderSparkline(tail(m.cpuSamples.Slice(), innerWidth)))
	mem := memSparklineStyle.Render(RenderSparkline(tail(m.memSamples.Slice(), innerWidth)))

	content := lipgloss.JoinVertical(lipgloss.Left,
		metricLabelStyle.Render("System"),
		fmt.Sprintf("%s %s", metricLabelStyle.Render(fmt.Sprintf("cpu %5.1f%%", m.cpuSamples.Last())), cpu),
		fmt.Sprintf("%s %s", metricLabelStyle.Render(fmt.Sprintf("mem %5.1f%%", m.memSamples.Last())), mem),
		fmt.Sprintf("%s %s  %s %d  %s %d",
			metricLabelStyle.Render("go heap"), metricValueStyle.Render(format.FormatBytes(int64(m.runtime.HeapAlloc))),
			metricLabelStyle.Render("gc"), m.runtime.NumGC,
			metricLabelStyle.Render("goroutines"), m.runtime.NumGoroutine),
	)
	return panelStyle.Width(width - 2).Height(height - 2).Render(content)
}

// tail returns at most the last n values.
func tail(values []float64, n int) []float64 {
	if len(values) <= n {
		return values
	}
	return values[len(values)-n:]
}

// Run is the public entry point for the TUI mode. It creates the
// bubbletea program, runs it, and returns the exit code.
func Run(ctx context.Context, cfg config.AppConfig, workloads []string, runner Runner, sampler HeapSampler, version string) int {
	// Rebuild styles from the current ui theme (set by app.Run via InitTheme).
	initTUIStyles()

	model := NewModel(ctx, cfg, workloads, runner, sampler, version)
	defer model.cancel()

	p := tea.NewProgram(model, tea.WithAltScreen())
	// Inject the program reference before running so run goroutines can Send.
	model.ref.SetProgram(p)

	finalModel, err := p.Run()
	if err != nil {
		return apperrors.ExitErrorGeneric
	}

	if m, ok := finalModel.(Model); ok {
		m.cancel()
		return m.exitCode
	}
	return apperrors.ExitSuccess
}

// startRunCmd returns a tea.Cmd that launches the benchmark run.
func startRunCmd(ref *programRef, ctx context.Context, runner Runner, gen uint64) tea.Cmd {
	return func() tea.Msg {
		rep, exitCode := runner(ctx, func(index int, workload string, value float64) {
			ref.Send(ProgressMsg{Index: index, Workload: workload, Progress: value})
		})
		return RunCompleteMsg{Report: rep, ExitCode: exitCode, Generation: gen}
	}
}

// tickCmd returns a command that sends a TickMsg after 500ms.
func tickCmd() tea.Cmd {
	return tea.Tick(500*time.Millisecond, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// sampleHeapCmd snapshots the intercepted heap.
func sampleHeapCmd(sampler HeapSampler) tea.Cmd {
	return func() tea.Msg {
		if sampler == nil {
			return HeapStatsMsg{}
		}
		return HeapStatsMsg{Metrics: sampler()}
	}
}

// sampleSysStatsCmd reads system-wide CPU and memory stats.
func sampleSysStatsCmd() tea.Cmd {
	return func() tea.Msg {
		s := sysmon.Sample()
		return SysStatsMsg{CPUPercent: s.CPUPercent, MemPercent: s.MemPercent}
	}
}

// sampleRuntimeCmd reads Go runtime stats.
func sampleRuntimeCmd() tea.Cmd {
	return func() tea.Msg {
		snap := metrics.NewMemoryCollector().Snapshot()
		return RuntimeStatsMsg{
			HeapAlloc:    snap.HeapAlloc,
			NumGC:        snap.NumGC,
			NumGoroutine: runtime.NumGoroutine(),
		}
	}
}

// watchContextCmd waits for context cancellation and sends a message.
func watchContextCmd(ctx context.Context, gen uint64) tea.Cmd {
	return func() tea.Msg {
		<-ctx.Done()
		return ContextCancelledMsg{Err: ctx.Err(), Generation: gen}
	}
}
