// Package main implements the scss2emotion CLI.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"go.uber.org/multierr"

	"github.com/electwix/scss2emotion/internal/cli"
	"github.com/electwix/scss2emotion/internal/diagnostics"
	"github.com/electwix/scss2emotion/internal/logging"
	"github.com/electwix/scss2emotion/internal/pipeline"
)

// Exit codes.
const (
	exitOK = iota
	exitFailure
	exitWriteFailure
	exitStale
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := cli.Parse(args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			_, _ = fmt.Fprintln(stdout, err.Error())
			return exitOK
		}
		_, _ = fmt.Fprintln(stderr, err.Error())
		return exitFailure
	}

	useColor := !opts.NoColor && !color.NoColor
	title := color.New(color.Bold, color.FgHiMagenta)
	if useColor {
		title.EnableColor()
	} else {
		title.DisableColor()
	}

	logger := logging.New(logging.Options{
		Verbose: opts.Verbose,
		JSON:    opts.JSONLogs,
		Writer:  stderr,
	})

	pipe := pipeline.Pipeline{
		Env: pipeline.Environment{
			Logger: logger,
			Writer: pipeline.NewOSWriter(),
		},
		Hooks: pipeline.Hooks{
			BeforeTransform: func(_ context.Context, sources []string) error {
				_, _ = title.Fprintf(stdout, "Transforming %s files...\n", humanize.Comma(int64(len(sources))))
				return nil
			},
			BeforeWrite: func(context.Context, []pipeline.File) error {
				_, _ = title.Fprintln(stdout, "Processed all files without errors, writing to disk.")
				return nil
			},
		},
	}
	summary, runErr := pipe.Run(ctx, pipeline.RunOptions{
		ConfigPath:     opts.ConfigPath,
		ConfigRequired: opts.ConfigSet,
		Files:          opts.Files,
		DryRun:         opts.DryRun,
		Check:          opts.Check,
		Jobs:           opts.Jobs,
		CacheDir:       opts.CacheDir,
		StrictConfig:   opts.StrictConfig,
	})

	if runErr != nil {
		var checkErr *pipeline.CheckError
		if errors.As(runErr, &checkErr) {
			printStale(stderr, checkErr)
			printWarnings(stdout, summary, useColor)
			return exitStale
		}
		for _, err := range multierr.Errors(runErr) {
			_, _ = fmt.Fprintln(stderr, err.Error())
		}
		var writeErr *pipeline.WriteError
		if errors.As(runErr, &writeErr) {
			return exitWriteFailure
		}
		return exitFailure
	}

	if opts.DryRun {
		for _, file := range summary.Files {
			_, _ = fmt.Fprintln(stdout, file.Path)
		}
	}

	hasWarnings := summary.Warnings != nil && summary.Warnings.Len() > 0
	suffix := ""
	if hasWarnings {
		suffix = " but has warnings"
	}
	_, _ = title.Fprintf(stdout, "Finished successfully%s!\n", suffix)
	_, _ = fmt.Fprintf(stdout, "%s modules (%s), %s skipped, %s written, %s unchanged, %s from cache\n\n",
		humanize.Comma(int64(len(summary.Files))),
		humanize.Bytes(summary.Bytes()),
		humanize.Comma(int64(len(summary.Skipped))),
		humanize.Comma(int64(len(summary.Written))),
		humanize.Comma(int64(summary.Unchanged)),
		humanize.Comma(int64(summary.CacheHits)))
	printWarnings(stdout, summary, useColor)
	return exitOK
}

func printWarnings(w io.Writer, summary pipeline.Summary, useColor bool) {
	if summary.Warnings == nil || summary.Warnings.Len() == 0 {
		return
	}
	_, _ = fmt.Fprint(w, "The following files have warnings...\n\n")
	reporter := diagnostics.Reporter{Color: useColor, Sources: summary.Sources}
	_ = reporter.Write(w, summary.Warnings)
}

func printStale(w io.Writer, checkErr *pipeline.CheckError) {
	_, _ = fmt.Fprintln(w, checkErr.Error())
	for _, f := range checkErr.Stale {
		_, _ = fmt.Fprintf(w, "\n%s\n%s", f.Path, f.Diff)
	}
}
