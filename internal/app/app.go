// Package app wires the pmbench pieces together: configuration parsing,
// mode dispatch and the benchmark run itself.
package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/pdinklag/pm"
	"github.com/pdinklag/pm/internal/cli"
	"github.com/pdinklag/pm/internal/config"
	apperrors "github.com/pdinklag/pm/internal/errors"
	"github.com/pdinklag/pm/internal/tui"
	"github.com/pdinklag/pm/internal/ui"
	"github.com/pdinklag/pm/internal/workload"
)

// Application represents the pmbench application instance.
type Application struct {
	Config    config.AppConfig
	Factory   workload.Factory
	ErrWriter io.Writer
}

// AppOption configures an Application during construction.
type AppOption func(*Application)

// WithFactory sets a custom workload factory for the application.
func WithFactory(f workload.Factory) AppOption {
	return func(a *Application) { a.Factory = f }
}

// New creates a new Application instance by parsing command-line arguments.
func New(args []string, errWriter io.Writer, opts ...AppOption) (*Application, error) {
	app := &Application{ErrWriter: errWriter}
	for _, opt := range opts {
		opt(app)
	}
	if app.Factory == nil {
		app.Factory = workload.NewDefaultFactory()
	}

	availableWorkloads := app.Factory.List()

	programName := "pmbench"
	var cmdArgs []string
	if len(args) > 0 {
		programName = args[0]
		cmdArgs = args[1:]
	}

	cfg, err := config.ParseConfig(programName, cmdArgs, errWriter, availableWorkloads)
	if err != nil {
		return nil, err
	}

	app.Config = config.ApplyAdaptiveSizing(cfg)
	return app, nil
}

// Run executes the application based on the configured mode.
func (a *Application) Run(ctx context.Context, out io.Writer) int {
	if a.Config.Completion != "" {
		return a.runCompletion(out)
	}

	switch {
	case a.Config.Verbose:
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case a.Config.Quiet:
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	ui.InitTheme(false)

	if a.Config.TUI {
		return a.runTUI(ctx, out)
	}

	return a.runBench(ctx, out)
}

// runCompletion generates shell completion scripts.
func (a *Application) runCompletion(out io.Writer) int {
	availableWorkloads := a.Factory.List()
	if err := cli.GenerateCompletion(out, a.Config.Completion, availableWorkloads); err != nil {
		fmt.Fprintf(a.ErrWriter, "Error generating completion: %v\n", err)
		return apperrors.ExitErrorConfig
	}
	return apperrors.ExitSuccess
}

// runTUI launches the interactive dashboard.
func (a *Application) runTUI(ctx context.Context, _ io.Writer) int {
	ctx, cancelTimeout := context.WithTimeout(ctx, a.Config.Timeout)
	defer cancelTimeout()
	ctx, stopSignals := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stopSignals()

	workloads := a.workloadsToRun()
	session := newBenchSession()

	runner := func(ctx context.Context, progress func(index int, name string, done float64)) (pm.Report, int) {
		session.live.Reset()
		outcome := a.executeWorkloads(ctx, session, workloads, progress, nil)
		return outcome.report, cli.HandleRunError(outcome.err, io.Discard)
	}

	return tui.Run(ctx, a.Config, workloadNames(workloads), runner, session.live.Metrics, Version)
}

// workloadsToRun resolves the configured workload selection against the
// factory. "all" selects every registered workload.
func (a *Application) workloadsToRun() []workload.Workload {
	if a.Config.Workload == "all" {
		return a.Factory.GetAll()
	}
	if w, ok := a.Factory.Get(a.Config.Workload); ok {
		return []workload.Workload{w}
	}
	return nil
}

func workloadNames(workloads []workload.Workload) []string {
	names := make([]string, len(workloads))
	for i, w := range workloads {
		names[i] = w.Name()
	}
	return names
}

// IsHelpError checks if the error is a help flag error (-help was used).
func IsHelpError(err error) bool {
	return errors.Is(err, flag.ErrHelp)
}
