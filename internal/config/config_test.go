package config

import (
	"errors"
	"io"
	"testing"
	"time"

	apperrors "github.com/pdinklag/pm/internal/errors"
)

var testWorkloads = []string{"churn", "ramp", "touch"}

func parse(t *testing.T, args ...string) (AppConfig, error) {
	t.Helper()
	return ParseConfig("pmbench", args, io.Discard, testWorkloads)
}

func TestParseConfig_Defaults(t *testing.T) {
	cfg, err := parse(t)
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}

	if cfg.Workload != "all" {
		t.Errorf("Workload = %q, want %q", cfg.Workload, "all")
	}
	if cfg.Timeout != DefaultTimeout {
		t.Errorf("Timeout = %v, want %v", cfg.Timeout, DefaultTimeout)
	}
	if cfg.ListenAddr != DefaultListenAddr {
		t.Errorf("ListenAddr = %q, want %q", cfg.ListenAddr, DefaultListenAddr)
	}
	if cfg.Rounds != 0 || cfg.Blocks != 0 || cfg.BlockSize != 0 {
		t.Errorf("sizing not zero by default: %+v", cfg)
	}
}

func TestParseConfig_Flags(t *testing.T) {
	cfg, err := parse(t,
		"-workload", "churn",
		"-rounds", "100",
		"-block-size", "512",
		"-alignment", "64",
		"-timeout", "30s",
		"-o", "report.json",
		"-result",
		"-q",
	)
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}

	if cfg.Workload != "churn" || cfg.Rounds != 100 || cfg.BlockSize != 512 {
		t.Errorf("flag values lost: %+v", cfg)
	}
	if cfg.Alignment != 64 {
		t.Errorf("Alignment = %d, want 64", cfg.Alignment)
	}
	if cfg.Timeout != 30*time.Second {
		t.Errorf("Timeout = %v, want 30s", cfg.Timeout)
	}
	if cfg.OutputFile != "report.json" || !cfg.ResultLine || !cfg.Quiet {
		t.Errorf("output flags lost: %+v", cfg)
	}
}

func TestParseConfig_EnvOverrides(t *testing.T) {
	t.Setenv("PM_WORKLOAD", "ramp")
	t.Setenv("PM_ROUNDS", "7")
	t.Setenv("PM_TIMEOUT", "1m")
	t.Setenv("PM_RESULT", "yes")

	cfg, err := parse(t)
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}

	if cfg.Workload != "ramp" {
		t.Errorf("Workload = %q, want env override %q", cfg.Workload, "ramp")
	}
	if cfg.Rounds != 7 {
		t.Errorf("Rounds = %d, want 7", cfg.Rounds)
	}
	if cfg.Timeout != time.Minute {
		t.Errorf("Timeout = %v, want 1m", cfg.Timeout)
	}
	if !cfg.ResultLine {
		t.Error("ResultLine = false, want env override true")
	}
}

func TestParseConfig_FlagBeatsEnv(t *testing.T) {
	t.Setenv("PM_WORKLOAD", "ramp")
	t.Setenv("PM_QUIET", "true")

	cfg, err := parse(t, "-workload", "touch")
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}

	if cfg.Workload != "touch" {
		t.Errorf("Workload = %q, CLI flag must beat env", cfg.Workload)
	}
	if !cfg.Quiet {
		t.Error("Quiet = false, env must apply for unset flag")
	}
}

func TestParseConfig_AliasBlocksEnv(t *testing.T) {
	t.Setenv("PM_WORKLOAD", "ramp")

	cfg, err := parse(t, "-w", "churn")
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}
	if cfg.Workload != "churn" {
		t.Errorf("Workload = %q, short alias must beat env", cfg.Workload)
	}
}

func TestParseConfig_InvalidEnvIgnored(t *testing.T) {
	t.Setenv("PM_ROUNDS", "not-a-number")

	cfg, err := parse(t)
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}
	if cfg.Rounds != 0 {
		t.Errorf("Rounds = %d, want default for unparsable env", cfg.Rounds)
	}
}

func TestParseConfig_Validation(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		field string
	}{
		{"unknown workload", []string{"-workload", "nope"}, "workload"},
		{"negative rounds", []string{"-rounds", "-1"}, "rounds"},
		{"non power of two alignment", []string{"-alignment", "24"}, "alignment"},
		{"zero timeout", []string{"-timeout", "0s"}, "timeout"},
		{"serve without listen", []string{"-serve", "-listen", ""}, "listen"},
		{"unknown completion shell", []string{"-completion", "fish"}, "completion"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parse(t, tt.args...)
			var validationErr apperrors.ValidationError
			if !errors.As(err, &validationErr) {
				t.Fatalf("error = %v, want ValidationError", err)
			}
			if validationErr.Field != tt.field {
				t.Errorf("Field = %q, want %q", validationErr.Field, tt.field)
			}
		})
	}
}

func TestParseConfig_RejectsPositionalArgs(t *testing.T) {
	_, err := parse(t, "stray")
	var configErr apperrors.ConfigError
	if !errors.As(err, &configErr) {
		t.Fatalf("error = %v, want ConfigError", err)
	}
}

func TestApplyAdaptiveSizing(t *testing.T) {
	cfg := DefaultConfig()
	sized := ApplyAdaptiveSizing(cfg)

	if sized.Rounds <= 0 || sized.Blocks <= 0 || sized.BlockSize <= 0 {
		t.Errorf("adaptive sizing left zeros: %+v", sized)
	}

	pinned := cfg
	pinned.Rounds = 3
	pinned.BlockSize = 99
	sized = ApplyAdaptiveSizing(pinned)
	if sized.Rounds != 3 || sized.BlockSize != 99 {
		t.Errorf("adaptive sizing overwrote explicit values: %+v", sized)
	}
}
