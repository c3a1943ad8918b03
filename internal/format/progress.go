package format

import (
	"fmt"
	"strings"
	"time"
)

// ProgressState aggregates the progress of several concurrently running
// workloads into a single consolidated value.
type ProgressState struct {
	progresses []float64
	numWorkers int
}

// NewProgressState creates a progress state tracking the given number of
// workers.
func NewProgressState(numWorkers int) *ProgressState {
	return &ProgressState{
		progresses: make([]float64, numWorkers),
		numWorkers: numWorkers,
	}
}

// Update records a new progress value for one worker. Out-of-range
// indices are ignored.
func (ps *ProgressState) Update(index int, value float64) {
	if index >= 0 && index < len(ps.progresses) {
		ps.progresses[index] = value
	}
}

// CalculateAverage computes the average progress across all workers.
func (ps *ProgressState) CalculateAverage() float64 {
	if ps.numWorkers == 0 {
		return 0
	}
	var total float64
	for _, p := range ps.progresses {
		total += p
	}
	return total / float64(ps.numWorkers)
}

// maxETA caps estimates so a stalled run never shows an absurd value.
const maxETA = 24 * time.Hour

// ProgressWithETA extends ProgressState with a completion time estimate
// derived from an exponential moving average of the progress rate.
type ProgressWithETA struct {
	*ProgressState
	startTime    time.Time
	lastTime     time.Time
	lastProgress float64
	progressRate float64 // fraction per second
}

// NewProgressWithETA creates a progress tracker with ETA estimation for
// the given number of workers.
func NewProgressWithETA(numWorkers int) *ProgressWithETA {
	now := time.Now()
	return &ProgressWithETA{
		ProgressState: NewProgressState(numWorkers),
		startTime:     now,
		lastTime:      now,
	}
}

// UpdateWithETA records a progress value and returns the new average
// progress together with the current ETA.
func (p *ProgressWithETA) UpdateWithETA(index int, value float64) (float64, time.Duration) {
	p.Update(index, value)
	avg := p.CalculateAverage()

	now := time.Now()
	elapsed := now.Sub(p.lastTime).Seconds()
	if elapsed >= 0.1 {
		instantRate := (avg - p.lastProgress) / elapsed
		if instantRate >= 0 {
			if p.progressRate == 0 {
				p.progressRate = instantRate
			} else {
				p.progressRate = 0.3*instantRate + 0.7*p.progressRate
			}
		}
		p.lastTime = now
		p.lastProgress = avg
	}

	return avg, p.GetETA()
}

// GetETA returns the estimated remaining time, capped at maxETA. Returns
// zero while there is not enough data for an estimate.
func (p *ProgressWithETA) GetETA() time.Duration {
	if p.progressRate <= 0 {
		return 0
	}
	remaining := 1 - p.CalculateAverage()
	if remaining <= 0 {
		return 0
	}
	eta := time.Duration(remaining / p.progressRate * float64(time.Second))
	if eta > maxETA {
		return maxETA
	}
	return eta
}

// FormatETA formats an ETA for display. Non-positive values render as
// "calculating..." since no estimate exists yet.
func FormatETA(eta time.Duration) string {
	if eta <= 0 {
		return "calculating..."
	}
	if eta < time.Second {
		return "< 1s"
	}

	eta = eta.Round(time.Second)
	h := int(eta.Hours())
	m := int(eta.Minutes()) % 60
	s := int(eta.Seconds()) % 60

	switch {
	case h > 0 && m > 0:
		return fmt.Sprintf("%dh%dm", h, m)
	case h > 0:
		return fmt.Sprintf("%dh", h)
	case m > 0 && s > 0:
		return fmt.Sprintf("%dm%ds", m, s)
	case m > 0:
		return fmt.Sprintf("%dm", m)
	default:
		return fmt.Sprintf("%ds", s)
	}
}

// ProgressBar renders a textual progress bar of the given character
// width. Progress is clamped to [0, 1].
func ProgressBar(progress float64, length int) string {
	if progress > 1 {
		progress = 1
	}
	if progress < 0 {
		progress = 0
	}
	count := int(progress * float64(length))
	var builder strings.Builder
	builder.Grow(length)
	for i := 0; i < length; i++ {
		if i < count {
			builder.WriteRune('█')
		} else {
			builder.WriteRune('░')
		}
	}
	return builder.String()
}

// FormatProgressBarWithETA combines a progress bar, percentage and ETA
// into one status line.
func FormatProgressBarWithETA(progress float64, eta time.Duration, width int) string {
	return fmt.Sprintf("[%s] %.1f%% ETA: %s", ProgressBar(progress, width), progress*100, FormatETA(eta))
}

// FormatNumberString inserts thousand separators into a decimal number
// string.
func FormatNumberString(s string) string {
	if s == "" {
		return s
	}
	sign := ""
	if s[0] == '-' || s[0] == '+' {
		sign = s[:1]
		s = s[1:]
	}
	if len(s) <= 3 {
		return sign + s
	}
	var builder strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		builder.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if builder.Len() > 0 {
			builder.WriteByte(',')
		}
		builder.WriteString(s[i : i+3])
	}
	return sign + builder.String()
}
