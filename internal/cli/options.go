// Package cli parses scss2emotion command-line flags.
package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
)

// DefaultConfig is the configuration file read when -config is not given.
const DefaultConfig = "scss2emotion.toml"

type Options struct {
	ConfigPath string
	// ConfigSet reports whether -config was passed explicitly. A missing
	// default file falls back to built-in settings; a missing explicit one
	// is an error.
	ConfigSet    bool
	DryRun       bool
	Check        bool
	Jobs         int
	StrictConfig bool
	CacheDir     string
	NoColor      bool
	JSONLogs     bool
	Verbose      bool
	// Files are stylesheet paths that replace the configured sources.
	Files []string
}

func Parse(args []string) (Options, error) {
	opts := Options{
		ConfigPath: DefaultConfig,
	}

	fs := flag.NewFlagSet("scss2emotion", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&opts.ConfigPath, "config", opts.ConfigPath, "Path to configuration file")
	fs.StringVar(&opts.ConfigPath, "c", opts.ConfigPath, "Path to configuration file")
	fs.BoolVar(&opts.DryRun, "dry-run", false, "Transform files and list outputs without writing them")
	fs.BoolVar(&opts.Check, "check", false, "Fail when any output is missing or out of date")
	fs.IntVar(&opts.Jobs, "jobs", 0, "Number of files transformed in parallel (0 uses all CPUs)")
	fs.IntVar(&opts.Jobs, "j", 0, "Number of files transformed in parallel (0 uses all CPUs)")
	fs.BoolVar(&opts.StrictConfig, "strict-config", false, "Treat configuration warnings as errors")
	fs.StringVar(&opts.CacheDir, "cache-dir", "", "Directory for the result cache; overrides cache_dir")
	fs.BoolVar(&opts.NoColor, "no-color", false, "Disable coloured output")
	fs.BoolVar(&opts.JSONLogs, "log-json", false, "Emit logs as JSON")
	fs.BoolVar(&opts.Verbose, "verbose", false, "Enable verbose logging")
	fs.BoolVar(&opts.Verbose, "v", false, "Enable verbose logging")

	if err := fs.Parse(args); err != nil {
		return Options{}, fmt.Errorf("%w\n\n%s", err, Usage(fs))
	}
	if opts.Jobs < 0 {
		return Options{}, fmt.Errorf("-jobs must not be negative\n\n%s", Usage(fs))
	}
	if opts.DryRun && opts.Check {
		return Options{}, errors.New("-dry-run and -check cannot be combined")
	}

	fs.Visit(func(f *flag.Flag) {
		if f.Name == "config" || f.Name == "c" {
			opts.ConfigSet = true
		}
	})
	opts.Files = fs.Args()
	return opts, nil
}

func Usage(fs *flag.FlagSet) string {
	if fs == nil {
		return ""
	}
	var buf strings.Builder
	fmt.Fprintf(&buf, "Usage of %s:\n", fs.Name())
	out := fs.Output()
	fs.SetOutput(&buf)
	fs.PrintDefaults()
	fs.SetOutput(out)
	return buf.String()
}
