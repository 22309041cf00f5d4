// Package pipeline orchestrates a migration run: configuration, discovery,
// parallel per-file transforms, formatting, and writing.
package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/electwix/scss2emotion/internal/cache"
	"github.com/electwix/scss2emotion/internal/codegen"
	"github.com/electwix/scss2emotion/internal/config"
	"github.com/electwix/scss2emotion/internal/diagnostics"
	"github.com/electwix/scss2emotion/internal/fileset"
	"github.com/electwix/scss2emotion/internal/logging"
	"github.com/electwix/scss2emotion/internal/stylesheet"
	"github.com/electwix/scss2emotion/internal/transform"
)

// cacheTTL bounds how long a rendered module is reused.
const cacheTTL = 7 * 24 * time.Hour

// cacheVersion changes whenever the rendered output for identical input
// changes.
const cacheVersion = "2"

// Environment captures external dependencies used by the pipeline.
type Environment struct {
	Logger *slog.Logger
	Writer Writer
	// Cache overrides the cache built from the configured cache directory.
	Cache cache.Cache
	// Formatter overrides the formatter built from the configured command.
	Formatter Formatter
}

// Writer writes generated files to persistent storage.
type Writer interface {
	WriteFile(path string, data []byte) error
}

// OutputReader is implemented by writers that can serve the outputs they
// hold. Unchanged detection and check runs read existing modules through it;
// a missing output must be reported as fs.ErrNotExist.
type OutputReader interface {
	ReadFile(path string) ([]byte, error)
}

// Pipeline orchestrates configuration loading, transformation, and writes.
type Pipeline struct {
	Env   Environment
	Hooks Hooks
}

// File is one generated module.
type File struct {
	// Source is the absolute stylesheet path.
	Source string
	// Path is the absolute output path.
	Path    string
	Content []byte
	Symbols int
	Cached  bool
}

// Summary describes a run.
type Summary struct {
	Plan config.Plan
	// Files are the generated modules in source order.
	Files []File
	// Skipped are sources that only import other stylesheets.
	Skipped []string
	// Written are output paths whose content changed on disk.
	Written   []string
	Unchanged int
	CacheHits int
	// Warnings holds every warning of the run keyed by display path.
	Warnings *diagnostics.Registry
	// Sources holds the text of every source for report snippets.
	Sources *diagnostics.ContextExtractor
}

// Bytes is the total size of the generated modules.
func (s Summary) Bytes() uint64 {
	var n uint64
	for _, f := range s.Files {
		n += uint64(len(f.Content))
	}
	return n
}

// RunOptions configures a pipeline execution.
type RunOptions struct {
	ConfigPath string
	// ConfigRequired turns a missing configuration file into an error instead
	// of falling back to defaults.
	ConfigRequired bool
	// Files replace the configured sources when non-empty.
	Files        []string
	DryRun       bool
	Check        bool
	Jobs         int
	CacheDir     string
	StrictConfig bool
}

// FileError wraps a failure to transform one stylesheet.
type FileError struct {
	Path string
	Err  error
}

func (e *FileError) Error() string {
	// Parse and transform errors already carry the path.
	var syntaxErr *stylesheet.SyntaxError
	var transformErr *transform.Error
	if errors.As(e.Err, &syntaxErr) || errors.As(e.Err, &transformErr) {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

// WriteError wraps failures encountered while writing generated files.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// NewOSWriter returns a Writer that performs atomic writes on the local filesystem.
func NewOSWriter() Writer {
	return &osWriter{perm: 0o644}
}

type osWriter struct {
	perm fs.FileMode
}

func (w *osWriter) WriteFile(path string, data []byte) error {
	if path == "" {
		return errors.New("pipeline: empty path")
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".scss2emotion-")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	success := false
	defer func() {
		if !success {
			_ = os.Remove(tmpName)
		}
		_ = tmp.Close()
	}()
	if w.perm != 0 {
		if err := tmp.Chmod(w.perm); err != nil {
			return fmt.Errorf("chmod temp file: %w", err)
		}
	}
	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	success = true
	return nil
}

func (w *osWriter) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(filepath.Clean(path))
}

// Run executes the pipeline according to the provided options. Every source
// is transformed before anything is written; a single failing file aborts
// the batch and all failures are returned together.
func (p *Pipeline) Run(ctx context.Context, opts RunOptions) (Summary, error) {
	summary := Summary{
		Warnings: diagnostics.NewRegistry(),
		Sources:  diagnostics.NewContextExtractor(),
	}
	logger := p.Env.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	plan, err := p.loadPlan(opts, summary.Warnings)
	if err != nil {
		return summary, err
	}
	summary.Plan = plan

	sources, err := sourceList(plan, opts.Files)
	if err != nil {
		return summary, err
	}
	if err := p.Hooks.BeforeTransform.call(ctx, sources); err != nil {
		return summary, err
	}

	store, err := p.openCache(plan, opts.CacheDir)
	if err != nil {
		return summary, err
	}
	formatter := p.Env.Formatter
	if formatter == nil && len(plan.Formatter) > 0 {
		formatter = CommandFormatter{Args: plan.Formatter, Dir: plan.BaseDir}
	}
	emitter, err := codegen.NewEmitter(codegen.Options{
		CSSPackage:      plan.CSSPackage,
		HelperPackage:   plan.Manifest.Package,
		VariablesExport: plan.Manifest.VariablesExport,
		UtilsModule:     plan.UtilsModule,
	})
	if err != nil {
		return summary, err
	}

	jobs := opts.Jobs
	if jobs == 0 {
		jobs = plan.Jobs
	}
	if jobs == 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	w := &worker{
		plan:      plan,
		emitter:   emitter,
		formatter: formatter,
		cache:     store,
		warnings:  summary.Warnings,
		sources:   summary.Sources,
		logger:    logger,
	}
	logger.Info("transforming stylesheets", "files", len(sources), "jobs", jobs)

	outcomes := make([]outcome, len(sources))
	failures := make([]error, len(sources))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, src := range sources {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out, err := w.process(gctx, src)
			if err != nil {
				failures[i] = &FileError{Path: src, Err: err}
				return nil
			}
			outcomes[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return summary, err
	}
	if err := multierr.Combine(failures...); err != nil {
		return summary, err
	}

	owners := make(map[string]string, len(outcomes))
	for i, out := range outcomes {
		if !out.emitted {
			summary.Skipped = append(summary.Skipped, sources[i])
			continue
		}
		if prev, dup := owners[out.file.Path]; dup {
			failures[i] = &FileError{Path: sources[i], Err: fmt.Errorf("output %s is also generated from %s", out.file.Path, prev)}
			continue
		}
		owners[out.file.Path] = sources[i]
		if out.file.Cached {
			summary.CacheHits++
		}
		summary.Files = append(summary.Files, out.file)
	}
	if err := multierr.Combine(failures...); err != nil {
		return summary, err
	}
	logger.Info("transformed stylesheets",
		"modules", len(summary.Files),
		"skipped", len(summary.Skipped),
		"cache_hits", summary.CacheHits,
		"warnings", summary.Warnings.Len())

	if err := p.Hooks.AfterTransform.call(ctx, summary.Files); err != nil {
		return summary, err
	}

	if opts.DryRun {
		return summary, nil
	}

	writer := p.Env.Writer
	if writer == nil {
		writer = NewOSWriter()
	}
	existing := outputReader(writer)
	if opts.Check {
		return summary, checkOutputs(existing, summary.Files)
	}

	if err := p.Hooks.BeforeWrite.call(ctx, summary.Files); err != nil {
		return summary, err
	}

	for _, file := range summary.Files {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		same, cmpErr := fileMatches(existing, file.Path, file.Content)
		if cmpErr != nil {
			return summary, &WriteError{Path: file.Path, Err: cmpErr}
		}
		if same {
			summary.Unchanged++
			continue
		}
		if err := writer.WriteFile(file.Path, file.Content); err != nil {
			return summary, &WriteError{Path: file.Path, Err: err}
		}
		logger.Debug("wrote module", "path", file.Path)
		summary.Written = append(summary.Written, file.Path)
	}

	return summary, p.Hooks.AfterWrite.call(ctx, summary)
}

func (p *Pipeline) loadPlan(opts RunOptions, warnings *diagnostics.Registry) (config.Plan, error) {
	configPath := opts.ConfigPath
	if configPath == "" {
		configPath = config.DefaultFile
	}
	absConfigPath, err := filepath.Abs(configPath)
	if err != nil {
		return config.Plan{}, fmt.Errorf("resolve config path: %w", err)
	}

	loadResult, err := config.Load(absConfigPath, config.LoadOptions{Strict: opts.StrictConfig})
	switch {
	case err == nil:
	case errors.Is(err, fs.ErrNotExist) && !opts.ConfigRequired:
		return config.Defaults(filepath.Dir(absConfigPath)), nil
	default:
		return config.Plan{}, err
	}
	for _, warning := range loadResult.Warnings {
		warnings.Warn(displayPath(loadResult.Plan.BaseDir, absConfigPath), 0, warning)
	}
	return loadResult.Plan, nil
}

func (p *Pipeline) openCache(plan config.Plan, override string) (cache.Cache, error) {
	if p.Env.Cache != nil {
		return p.Env.Cache, nil
	}
	dir := plan.CacheDir
	if override != "" {
		abs, err := filepath.Abs(override)
		if err != nil {
			return nil, fmt.Errorf("resolve cache dir: %w", err)
		}
		dir = abs
	}
	if dir == "" {
		return nil, nil
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		return nil, err
	}
	return fc, nil
}

func sourceList(plan config.Plan, files []string) ([]string, error) {
	if len(files) == 0 {
		if len(plan.Sources) == 0 {
			return nil, errors.New("no stylesheets to migrate: set sources in the configuration or pass files")
		}
		return plan.Sources, nil
	}

	seen := make(map[string]struct{}, len(files))
	out := make([]string, 0, len(files))
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", f, err)
		}
		if _, dup := seen[abs]; dup {
			continue
		}
		seen[abs] = struct{}{}
		out = append(out, abs)
	}
	fileset.SortNatural(out)
	return out, nil
}

// outcome is the result of processing one source.
type outcome struct {
	file    File
	emitted bool
}

// cachedModule is the cache payload for one source.
type cachedModule struct {
	Emitted  bool                     `json:"emitted"`
	Content  []byte                   `json:"content,omitempty"`
	Symbols  int                      `json:"symbols"`
	Warnings []diagnostics.Diagnostic `json:"warnings,omitempty"`
}

type worker struct {
	plan      config.Plan
	emitter   *codegen.Emitter
	formatter Formatter
	cache     cache.Cache
	warnings  *diagnostics.Registry
	sources   *diagnostics.ContextExtractor
	logger    *slog.Logger
}

func (w *worker) process(ctx context.Context, src string) (outcome, error) {
	data, err := os.ReadFile(filepath.Clean(src))
	if err != nil {
		return outcome{}, err
	}
	display := displayPath(w.plan.BaseDir, src)
	w.sources.Register(display, data)

	outPath := OutputPath(src, w.plan)
	out := outcome{file: File{Source: src, Path: outPath}}

	varsImport := VariablesImport(outPath, w.plan)
	key := w.cacheKey(display, varsImport, data)
	if mod, ok := w.lookup(ctx, key); ok {
		for _, d := range mod.Warnings {
			w.warnings.Add(d)
		}
		out.emitted = mod.Emitted
		out.file.Content = mod.Content
		out.file.Symbols = mod.Symbols
		out.file.Cached = true
		w.logger.Debug("cache hit", "path", display)
		return out, nil
	}

	// Warnings go to a per-file registry first so they can be cached with
	// the module.
	local := diagnostics.NewRegistry()
	root, err := stylesheet.Parse(display, data)
	if err != nil {
		return outcome{}, err
	}
	res, err := transform.Transform(root, transform.Options{
		Manifest:         w.plan.Manifest,
		HelperPrefix:     w.plan.HelperPrefix,
		BreakpointHelper: w.plan.BreakpointHelper,
		CSSPackage:       w.plan.CSSPackage,
	}, local)
	if err != nil {
		return outcome{}, err
	}

	content, emitted, err := w.emitter.ForVariables(varsImport).Emit(res)
	if err != nil {
		return outcome{}, err
	}
	if emitted && w.formatter != nil {
		content, err = w.formatter.Format(ctx, outPath, content)
		if err != nil {
			return outcome{}, fmt.Errorf("format %s: %w", outPath, err)
		}
	}

	mod := cachedModule{Emitted: emitted, Content: content, Symbols: len(res.Symbols), Warnings: local.Diagnostics(display)}
	for _, d := range mod.Warnings {
		w.warnings.Add(d)
	}
	w.store(ctx, key, mod)

	w.logger.Debug("transformed", "path", display, "symbols", mod.Symbols, "emitted", emitted, "warnings", len(mod.Warnings))
	out.emitted = emitted
	out.file.Content = content
	out.file.Symbols = mod.Symbols
	return out, nil
}

func (w *worker) cacheKey(display, varsImport string, data []byte) string {
	if w.cache == nil {
		return ""
	}
	p := w.plan
	m := p.Manifest
	settings := fmt.Sprintf("%s|%s|%s|%s|%s|%s|%s|%s|%v|%v|%v|%q",
		cacheVersion, p.CSSPackage, p.HelperPrefix, p.BreakpointHelper, p.UtilsModule,
		m.Package, m.VariablesExport, varsImport,
		m.Namespaces, m.Objects, m.Functions, p.Formatter)
	return cache.ComputeKeyWithPrefix("module", []byte(display), []byte(settings), data)
}

func (w *worker) lookup(ctx context.Context, key string) (cachedModule, bool) {
	var mod cachedModule
	if w.cache == nil {
		return mod, false
	}
	raw, ok := w.cache.Get(ctx, key)
	if !ok {
		return mod, false
	}
	if err := json.Unmarshal(raw, &mod); err != nil {
		w.cache.Delete(ctx, key)
		return mod, false
	}
	return mod, true
}

func (w *worker) store(ctx context.Context, key string, mod cachedModule) {
	if w.cache == nil {
		return
	}
	raw, err := json.Marshal(mod)
	if err != nil {
		return
	}
	w.cache.Set(ctx, key, raw, cacheTTL)
}

// OutputPath maps a stylesheet path to its module path: the first source
// directory segment becomes the target directory, the .scss extension is
// replaced and the first underscore of the file name is dropped.
func OutputPath(src string, plan config.Plan) string {
	p := filepath.ToSlash(src)
	if plan.SourceDir != "" && plan.TargetDir != "" {
		p = strings.Replace(p, "/"+plan.SourceDir+"/", "/"+plan.TargetDir+"/", 1)
	}
	p = strings.TrimSuffix(p, ".scss") + plan.Extension

	dir, base := filepath.Split(filepath.FromSlash(p))
	return filepath.Join(dir, strings.Replace(base, "_", "", 1))
}

// VariablesImport is the custom variables module specifier as seen from the
// module at outPath.
func VariablesImport(outPath string, plan config.Plan) string {
	rel, err := filepath.Rel(filepath.Dir(outPath), plan.VariablesDir)
	if err != nil {
		rel = plan.VariablesDir
	}
	specifier := filepath.ToSlash(filepath.Join(rel, plan.VariablesModule))
	if !strings.HasPrefix(specifier, ".") && !strings.HasPrefix(specifier, "/") {
		specifier = "./" + specifier
	}
	return specifier
}

func displayPath(baseDir, path string) string {
	if baseDir == "" {
		return path
	}
	rel, err := filepath.Rel(baseDir, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return path
	}
	return rel
}

// outputReader returns how existing outputs are read for w. Writers that do
// not implement OutputReader are backed by the local filesystem.
func outputReader(w Writer) OutputReader {
	if r, ok := w.(OutputReader); ok {
		return r
	}
	return &osWriter{}
}

func fileMatches(r OutputReader, path string, content []byte) (bool, error) {
	existing, err := r.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return bytes.Equal(existing, content), nil
}
