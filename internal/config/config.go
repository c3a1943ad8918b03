// Package config defines the pmbench configuration and its resolution
// chain: CLI flags take priority over PM_* environment variables, which
// take priority over adaptive defaults.
package config

import (
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	apperrors "github.com/pdinklag/pm/internal/errors"
)

// EnvPrefix is the prefix of all environment variables read by pmbench.
const EnvPrefix = "PM_"

// DefaultTimeout bounds a benchmark run unless overridden.
const DefaultTimeout = 5 * time.Minute

// DefaultListenAddr is the default metrics server address.
const DefaultListenAddr = "localhost:9090"

// AppConfig holds the complete pmbench configuration.
type AppConfig struct {
	// Workload selects the workload to run, or "all".
	Workload string
	// Rounds is the number of iterations each workload performs.
	// Zero selects an adaptive default.
	Rounds int
	// Blocks is the size of the live allocation set a workload maintains.
	// Zero selects an adaptive default.
	Blocks int
	// BlockSize is the size in bytes of each allocated block.
	// Zero selects an adaptive default.
	BlockSize int
	// Alignment forces aligned allocations when non-zero. Must be a
	// power of two.
	Alignment int
	// Timeout bounds the whole run.
	Timeout time.Duration
	// OutputFile receives the report as indented JSON when set.
	OutputFile string
	// ResultLine prints the flattened RESULT line after the run.
	ResultLine bool
	// Rusage adds a getrusage meter to each workload phase.
	Rusage bool
	// Serve exposes /metrics and /report over HTTP during the run.
	Serve bool
	// ListenAddr is the metrics server address.
	ListenAddr string
	// TUI launches the live dashboard instead of the plain CLI run.
	TUI bool
	// Quiet suppresses all output except the requested results.
	Quiet bool
	// Verbose enables debug logging and per-round detail.
	Verbose bool
	// Completion requests a shell completion script ("bash" or "zsh").
	Completion string
}

// DefaultConfig returns the configuration used when no flags or
// environment variables are set. Sizing fields stay zero; they are
// resolved by ApplyAdaptiveSizing.
func DefaultConfig() AppConfig {
	return AppConfig{
		Workload:   "all",
		Timeout:    DefaultTimeout,
		ListenAddr: DefaultListenAddr,
	}
}

// ParseConfig parses command-line arguments into an AppConfig, applies
// environment overrides for flags not explicitly set and validates the
// result. availableWorkloads is used for validation and usage output.
func ParseConfig(programName string, args []string, errWriter io.Writer, availableWorkloads []string) (AppConfig, error) {
	cfg := DefaultConfig()

	fs := flag.NewFlagSet(programName, flag.ContinueOnError)
	fs.SetOutput(errWriter)

	fs.StringVar(&cfg.Workload, "workload", cfg.Workload,
		fmt.Sprintf("workload to run: %s, or 'all'", strings.Join(availableWorkloads, ", ")))
	fs.StringVar(&cfg.Workload, "w", cfg.Workload, "alias for -workload")
	fs.IntVar(&cfg.Rounds, "rounds", cfg.Rounds, "iterations per workload (0 = adaptive)")
	fs.IntVar(&cfg.Blocks, "blocks", cfg.Blocks, "live allocation set size (0 = adaptive)")
	fs.IntVar(&cfg.BlockSize, "block-size", cfg.BlockSize, "bytes per allocated block (0 = adaptive)")
	fs.IntVar(&cfg.Alignment, "alignment", cfg.Alignment, "force aligned allocations (power of two, 0 = none)")
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "maximum run duration")
	fs.StringVar(&cfg.OutputFile, "output", cfg.OutputFile, "write the report as JSON to this file")
	fs.StringVar(&cfg.OutputFile, "o", cfg.OutputFile, "alias for -output")
	fs.BoolVar(&cfg.ResultLine, "result", cfg.ResultLine, "print the flattened RESULT line")
	fs.BoolVar(&cfg.Rusage, "rusage", cfg.Rusage, "add a getrusage meter to each workload phase")
	fs.BoolVar(&cfg.Serve, "serve", cfg.Serve, "expose /metrics and /report over HTTP during the run")
	fs.StringVar(&cfg.ListenAddr, "listen", cfg.ListenAddr, "metrics server address")
	fs.BoolVar(&cfg.TUI, "tui", cfg.TUI, "launch the live dashboard")
	fs.BoolVar(&cfg.Quiet, "quiet", cfg.Quiet, "suppress all output except requested results")
	fs.BoolVar(&cfg.Quiet, "q", cfg.Quiet, "alias for -quiet")
	fs.BoolVar(&cfg.Verbose, "verbose", cfg.Verbose, "enable debug logging")
	fs.BoolVar(&cfg.Verbose, "v", cfg.Verbose, "alias for -verbose")
	fs.StringVar(&cfg.Completion, "completion", cfg.Completion, "print a shell completion script (bash or zsh)")

	if err := fs.Parse(args); err != nil {
		return AppConfig{}, err
	}
	if fs.NArg() > 0 {
		return AppConfig{}, apperrors.NewConfigError("unexpected argument: %s", fs.Arg(0))
	}

	applyEnvOverrides(&cfg, fs)

	if err := cfg.Validate(availableWorkloads); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}

// Validate checks the configuration for consistency.
func (c AppConfig) Validate(availableWorkloads []string) error {
	if c.Workload != "all" && !contains(availableWorkloads, c.Workload) {
		return apperrors.ValidationError{
			Field:   "workload",
			Message: fmt.Sprintf("unknown workload %q (available: %s)", c.Workload, strings.Join(availableWorkloads, ", ")),
		}
	}
	if c.Rounds < 0 {
		return apperrors.ValidationError{Field: "rounds", Message: "must not be negative"}
	}
	if c.Blocks < 0 {
		return apperrors.ValidationError{Field: "blocks", Message: "must not be negative"}
	}
	if c.BlockSize < 0 {
		return apperrors.ValidationError{Field: "block-size", Message: "must not be negative"}
	}
	if c.Alignment < 0 || (c.Alignment != 0 && c.Alignment&(c.Alignment-1) != 0) {
		return apperrors.ValidationError{Field: "alignment", Message: "must be a power of two"}
	}
	if c.Timeout <= 0 {
		return apperrors.ValidationError{Field: "timeout", Message: "must be positive"}
	}
	if c.Serve && c.ListenAddr == "" {
		return apperrors.ValidationError{Field: "listen", Message: "required with -serve"}
	}
	if c.Completion != "" && c.Completion != "bash" && c.Completion != "zsh" {
		return apperrors.ValidationError{Field: "completion", Message: "must be bash or zsh"}
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, e := range list {
		if e == s {
			return true
		}
	}
	return false
}
