package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/pdinklag/pm"
	"github.com/pdinklag/pm/internal/config"
	apperrors "github.com/pdinklag/pm/internal/errors"
	"github.com/pdinklag/pm/internal/format"
	"github.com/pdinklag/pm/internal/ui"
)

// RunResult records the outcome of a single workload run.
type RunResult struct {
	// Name is the workload name.
	Name string
	// Duration is the wall-clock time the workload took.
	Duration time.Duration
	// Report is the measurement report of the workload's phase.
	Report pm.Report
	// Err is non-nil if the workload failed or was interrupted.
	Err error
}

// DisplayRunConfig prints the effective run parameters before the
// workloads start. Suppressed in quiet mode by the caller.
func DisplayRunConfig(out io.Writer, cfg config.AppConfig, workloads []string) {
	fmt.Fprintf(out, "%sRun configuration%s\n", ui.ColorBold(), ui.ColorReset())
	for _, w := range workloads {
		fmt.Fprintf(out, "  Workload:   %s%s%s\n", ui.ColorPrimary(), w, ui.ColorReset())
	}
	fmt.Fprintf(out, "  Rounds:     %s\n", format.FormatNumberString(fmt.Sprintf("%d", cfg.Rounds)))
	fmt.Fprintf(out, "  Blocks:     %s\n", format.FormatNumberString(fmt.Sprintf("%d", cfg.Blocks)))
	fmt.Fprintf(out, "  Block size: %s\n", format.FormatBytes(int64(cfg.BlockSize)))
	if cfg.Alignment > 0 {
		fmt.Fprintf(out, "  Alignment:  %d\n", cfg.Alignment)
	}
	fmt.Fprintf(out, "  Timeout:    %s\n", cfg.Timeout)
	fmt.Fprintln(out)
}

// PresentSummaryTable displays the run summary table with workload names,
// durations, and status in a formatted tabular layout.
// Uses manual padding to correctly handle ANSI color codes.
func PresentSummaryTable(results []RunResult, out io.Writer) {
	fmt.Fprintf(out, "\n--- Run Summary ---\n")

	// Find the maximum workload name width for proper alignment
	maxNameLen := 8     // "Workload" header length
	maxDurationLen := 8 // "Duration" header length
	for _, res := range results {
		if len(res.Name) > maxNameLen {
			maxNameLen = len(res.Name)
		}
		duration := format.FormatExecutionDuration(res.Duration)
		if res.Duration == 0 {
			duration = "< 1µs"
		}
		if len(duration) > maxDurationLen {
			maxDurationLen = len(duration)
		}
	}

	// Print header with proper padding
	fmt.Fprintf(out, "%sWorkload%s%s   %sDuration%s%s   %sStatus%s\n",
		ui.ColorUnderline(), ui.ColorReset(), padRight("", maxNameLen-8),
		ui.ColorUnderline(), ui.ColorReset(), padRight("", maxDurationLen-8),
		ui.ColorUnderline(), ui.ColorReset())

	// Print each result row
	for _, res := range results {
		var status string
		if res.Err != nil {
			status = fmt.Sprintf("%s❌ Failure (%v)%s", ui.ColorError(), res.Err, ui.ColorReset())
		} else {
			status = fmt.Sprintf("%s✅ Success%s", ui.ColorSuccess(), ui.ColorReset())
		}
		duration := format.FormatExecutionDuration(res.Duration)
		if res.Duration == 0 {
			duration = "< 1µs"
		}
		fmt.Fprintf(out, "%s%s%s%s   %s%s%s%s   %s\n",
			ui.ColorPrimary(), res.Name, ui.ColorReset(), padRight("", maxNameLen-len(res.Name)),
			ui.ColorWarning(), duration, ui.ColorReset(), padRight("", maxDurationLen-len(duration)),
			status)
	}
}

// padRight returns a string of spaces with the given length.
func padRight(s string, length int) string {
	if length <= 0 {
		return s
	}
	return s + fmt.Sprintf("%*s", length, "")
}

// DisplayHeapStats shows the heap allocation statistics of a workload run.
func DisplayHeapStats(out io.Writer, m pm.MemoryMetrics) {
	fmt.Fprintf(out, "\nHeap Stats:\n")
	fmt.Fprintf(out, "  Peak outstanding: %s\n", format.FormatBytes(int64(m.Peak)))
	fmt.Fprintf(out, "  Closing balance:  %s\n", format.FormatBytes(m.Closing))
	fmt.Fprintf(out, "  Allocations:      %s (%s)\n",
		format.FormatNumberString(fmt.Sprintf("%d", m.AllocNum)), format.FormatBytes(int64(m.AllocBytes)))
	fmt.Fprintf(out, "  Frees:            %s (%s)\n",
		format.FormatNumberString(fmt.Sprintf("%d", m.FreeNum)), format.FormatBytes(int64(m.FreeBytes)))
}

// HandleRunError writes a colorized diagnostic for a failed run and
// returns the process exit code matching the error class.
func HandleRunError(err error, out io.Writer) int {
	if err == nil {
		return apperrors.ExitSuccess
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		fmt.Fprintf(out, "%sTimeout: %v%s\n", ui.ColorError(), err, ui.ColorReset())
		return apperrors.ExitErrorTimeout
	case errors.Is(err, context.Canceled):
		fmt.Fprintf(out, "%sCanceled: %v%s\n", ui.ColorWarning(), err, ui.ColorReset())
		return apperrors.ExitErrorCanceled
	}

	var workloadErr apperrors.WorkloadError
	if errors.As(err, &workloadErr) {
		fmt.Fprintf(out, "%sWorkload error: %v%s\n", ui.ColorError(), err, ui.ColorReset())
		return apperrors.ExitErrorWorkload
	}

	var configErr apperrors.ConfigError
	var validationErr apperrors.ValidationError
	if errors.As(err, &configErr) || errors.As(err, &validationErr) {
		fmt.Fprintf(out, "%sConfiguration error: %v%s\n", ui.ColorError(), err, ui.ColorReset())
		return apperrors.ExitErrorConfig
	}

	fmt.Fprintf(out, "%sError: %v%s\n", ui.ColorError(), err, ui.ColorReset())
	return apperrors.ExitErrorGeneric
}
