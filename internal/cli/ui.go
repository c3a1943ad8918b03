//go:generate mockgen -source=ui.go -destination=mocks/mock_ui.go -package=mocks

package cli

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/briandowns/spinner"

	"github.com/pdinklag/pm/internal/format"
)

const (
	// ProgressRefreshRate defines the refresh frequency of the progress
	// display. 200ms keeps terminal updates cheap while still feeling live.
	ProgressRefreshRate = 200 * time.Millisecond
	// ProgressBarWidth defines the width in characters of the progress bar.
	ProgressBarWidth = 40
)

// Spinner is an interface that abstracts the behavior of a terminal spinner.
// This allows the `DisplayProgress` function to be decoupled from a specific
// spinner implementation, facilitating easier testing and maintenance.
// It defines the essential controls for a spinner: starting, stopping, and
// updating its status message.
type Spinner interface {
	// Start begins the spinner animation.
	Start()
	// Stop halts the spinner animation.
	Stop()
	// UpdateSuffix sets the text that is displayed after the spinner.
	//
	// Parameters:
	//   - suffix: The text string to display.
	UpdateSuffix(suffix string)
}

// realSpinner is a wrapper for the `spinner.Spinner` that implements the
// `Spinner` interface. This adapter allows the `spinner` library to be used
// within the application's CLI framework.
type realSpinner struct {
	s *spinner.Spinner
}

// Start begins the spinner animation.
func (rs *realSpinner) Start() {
	rs.s.Start()
}

// Stop halts the spinner animation.
func (rs *realSpinner) Stop() {
	rs.s.Stop()
}

// UpdateSuffix sets the text that is displayed after the spinner.
//
// Parameters:
//   - suffix: The string to display.
func (rs *realSpinner) UpdateSuffix(suffix string) {
	rs.s.Suffix = suffix
}

var newSpinner = func(options ...spinner.Option) Spinner {
	// Using the same interval as ProgressRefreshRate to synchronize
	s := spinner.New(spinner.CharSets[11], ProgressRefreshRate, options...)
	return &realSpinner{s}
}

// ProgressUpdate carries the progress of a single workload within a run.
type ProgressUpdate struct {
	// Index identifies the workload (0 to numWorkloads-1).
	Index int
	// Progress is the workload's normalized progress (0.0 to 1.0).
	Progress float64
}

// DisplayProgress drives a spinner with a consolidated progress bar and
// completion estimate while workloads run. It consumes updates until the
// channel is closed, then stops the spinner and signals the wait group.
//
// Parameters:
//   - wg: The wait group to signal on completion.
//   - updates: The channel delivering per-workload progress values.
//   - numWorkloads: The number of workloads contributing updates.
//   - out: The writer the spinner renders to.
func DisplayProgress(wg *sync.WaitGroup, updates <-chan ProgressUpdate, numWorkloads int, out io.Writer) {
	defer wg.Done()

	sp := newSpinner(spinner.WithWriter(out))
	sp.Start()
	defer sp.Stop()

	state := format.NewProgressWithETA(numWorkloads)
	for u := range updates {
		avg, eta := state.UpdateWithETA(u.Index, u.Progress)
		sp.UpdateSuffix(fmt.Sprintf(" %s", format.FormatProgressBarWithETA(avg, eta, ProgressBarWidth)))
	}
}
