package cli

import (
	"errors"
	"flag"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseDefaults(t *testing.T) {
	opts, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}

	want := Options{ConfigPath: "scss2emotion.toml"}
	if diff := cmp.Diff(want, opts); diff != "" {
		t.Fatalf("options mismatch (-want +got):\n%s", diff)
	}
}

func TestParseOverrides(t *testing.T) {
	args := []string{
		"--config", "project.toml",
		"--check",
		"-j", "3",
		"--strict-config",
		"--cache-dir", ".cache",
		"--no-color",
		"--log-json",
		"-v",
		"src/scss/_button.scss",
		"src/scss/card.scss",
	}

	opts, err := Parse(args)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}

	want := Options{
		ConfigPath:   "project.toml",
		ConfigSet:    true,
		Check:        true,
		Jobs:         3,
		StrictConfig: true,
		CacheDir:     ".cache",
		NoColor:      true,
		JSONLogs:     true,
		Verbose:      true,
		Files:        []string{"src/scss/_button.scss", "src/scss/card.scss"},
	}
	if diff := cmp.Diff(want, opts); diff != "" {
		t.Fatalf("options mismatch (-want +got):\n%s", diff)
	}
}

func TestParseShortConfig(t *testing.T) {
	opts, err := Parse([]string{"-c", "alt.toml", "--dry-run"})
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if !opts.ConfigSet || opts.ConfigPath != "alt.toml" || !opts.DryRun {
		t.Fatalf("opts = %+v", opts)
	}
}

func TestParseInvalid(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"unknown flag", []string{"--unknown"}, "Usage of scss2emotion"},
		{"negative jobs", []string{"-jobs", "-2"}, "must not be negative"},
		{"dry-run with check", []string{"-dry-run", "-check"}, "cannot be combined"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.args)
			if err == nil {
				t.Fatal("Parse expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("error = %q, want %q", err.Error(), tt.want)
			}
			if errors.Is(err, flag.ErrHelp) {
				t.Fatal("error unexpectedly wraps flag.ErrHelp")
			}
		})
	}
}

func TestParseHelp(t *testing.T) {
	_, err := Parse([]string{"-h"})
	if !errors.Is(err, flag.ErrHelp) {
		t.Fatalf("err = %v, want flag.ErrHelp", err)
	}
}

func TestUsage(t *testing.T) {
	fs := flag.NewFlagSet("scss2emotion", flag.ContinueOnError)
	fs.String("flag", "value", "test flag")

	usage := Usage(fs)
	if !strings.Contains(usage, "Usage of scss2emotion:") {
		t.Fatalf("usage missing header: %q", usage)
	}
	if !strings.Contains(usage, "-flag") {
		t.Fatalf("usage missing flag definition: %q", usage)
	}
}
