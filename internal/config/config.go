// Package config loads and validates the scss2emotion configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/electwix/scss2emotion/internal/fileset"
	"github.com/electwix/scss2emotion/internal/manifest"
)

// DefaultFile is the configuration file looked up when none is named.
const DefaultFile = "scss2emotion.toml"

// Config mirrors the expected scss2emotion TOML schema.
type Config struct {
	Sources          []string `toml:"sources"`
	SourceDir        string   `toml:"source_dir"`
	TargetDir        string   `toml:"target_dir"`
	Extension        string   `toml:"extension"`
	VariablesDir     string   `toml:"variables_dir"`
	VariablesModule  string   `toml:"variables_module"`
	UtilsModule      string   `toml:"utils_module"`
	CSSPackage       string   `toml:"css_package"`
	HelperPrefix     string   `toml:"helper_prefix"`
	BreakpointHelper string   `toml:"breakpoint_helper"`
	Manifest         string   `toml:"manifest"`
	Jobs             int      `toml:"jobs"`
	Formatter        []string `toml:"formatter"`
	CacheDir         string   `toml:"cache_dir"`
}

// Plan is the fully-resolved configuration used by downstream stages.
type Plan struct {
	// BaseDir is the directory relative paths were resolved against.
	BaseDir string
	// Sources are the stylesheet files matched by the configured patterns.
	Sources []string

	SourceDir string
	TargetDir string
	Extension string
	// VariablesDir is the absolute directory of the custom variables module.
	VariablesDir    string
	VariablesModule string

	UtilsModule      string
	CSSPackage       string
	HelperPrefix     string
	BreakpointHelper string
	Manifest         *manifest.Manifest

	Jobs      int
	Formatter []string
	CacheDir  string
}

// LoadOptions tunes config loading behavior.
type LoadOptions struct {
	Strict   bool
	Resolver *fileset.Resolver
}

// Result wraps a loaded plan alongside any non-fatal warnings.
type Result struct {
	Plan     Plan
	Warnings []string
}

// Defaults returns the plan used when no configuration file exists. Relative
// paths resolve against baseDir.
func Defaults(baseDir string) Plan {
	var cfg Config
	applyDefaults(&cfg)
	return Plan{
		BaseDir:          baseDir,
		SourceDir:        cfg.SourceDir,
		TargetDir:        cfg.TargetDir,
		Extension:        cfg.Extension,
		VariablesDir:     filepath.Join(baseDir, filepath.FromSlash(cfg.VariablesDir)),
		VariablesModule:  cfg.VariablesModule,
		UtilsModule:      cfg.UtilsModule,
		CSSPackage:       cfg.CSSPackage,
		HelperPrefix:     cfg.HelperPrefix,
		BreakpointHelper: cfg.BreakpointHelper,
		Manifest:         manifest.Default(),
	}
}

func applyDefaults(cfg *Config) {
	setDefault(&cfg.SourceDir, "scss")
	setDefault(&cfg.TargetDir, "styles")
	setDefault(&cfg.Extension, ".emotion.js")
	setDefault(&cfg.VariablesDir, "src/styles")
	setDefault(&cfg.VariablesModule, "variables")
	setDefault(&cfg.UtilsModule, "../utils")
	setDefault(&cfg.CSSPackage, "@emotion/core")
	setDefault(&cfg.HelperPrefix, "$fe-brary-")
	setDefault(&cfg.BreakpointHelper, "media")
}

func setDefault(field *string, value string) {
	if *field == "" {
		*field = value
	}
}

// Load reads, validates, and resolves a scss2emotion configuration file. A
// missing file yields an error wrapping fs.ErrNotExist.
func Load(path string, opts LoadOptions) (Result, error) {
	var res Result

	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return res, fmt.Errorf("read %s: %w", path, err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return res, fmt.Errorf("%s: %w", path, err)
	}

	unknownKeys, err := collectUnknownKeys(data)
	if err != nil {
		return res, fmt.Errorf("%s: %w", path, err)
	}
	if len(unknownKeys) > 0 {
		slices.Sort(unknownKeys)
		message := fmt.Sprintf("%s: unknown configuration keys: %s", path, strings.Join(unknownKeys, ", "))
		if opts.Strict {
			return res, errors.New(message)
		}
		res.Warnings = append(res.Warnings, message)
	}

	applyDefaults(&cfg)
	if err := validate(path, cfg); err != nil {
		return res, err
	}

	baseDir, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return res, fmt.Errorf("%s: %w", path, err)
	}

	var sources []string
	if len(cfg.Sources) > 0 {
		var resolver fileset.Resolver
		if opts.Resolver != nil {
			resolver = *opts.Resolver
		} else {
			resolver, err = fileset.NewOSResolver(baseDir)
			if err != nil {
				return res, fmt.Errorf("%s: %w", path, err)
			}
		}
		sources, err = resolvePatterns(resolver, "sources", cfg.Sources)
		if err != nil {
			return res, fmt.Errorf("%s: %w", path, err)
		}
	}

	lib := manifest.Default()
	if cfg.Manifest != "" {
		lib, err = manifest.Load(resolvePath(baseDir, cfg.Manifest))
		if err != nil {
			return res, fmt.Errorf("%s: %w", path, err)
		}
	}

	cacheDir := cfg.CacheDir
	if cacheDir != "" {
		cacheDir = resolvePath(baseDir, cacheDir)
	}

	res.Plan = Plan{
		BaseDir:          baseDir,
		Sources:          sources,
		SourceDir:        cfg.SourceDir,
		TargetDir:        cfg.TargetDir,
		Extension:        cfg.Extension,
		VariablesDir:     resolvePath(baseDir, cfg.VariablesDir),
		VariablesModule:  cfg.VariablesModule,
		UtilsModule:      cfg.UtilsModule,
		CSSPackage:       cfg.CSSPackage,
		HelperPrefix:     cfg.HelperPrefix,
		BreakpointHelper: cfg.BreakpointHelper,
		Manifest:         lib,
		Jobs:             cfg.Jobs,
		Formatter:        cfg.Formatter,
		CacheDir:         cacheDir,
	}
	return res, nil
}

func collectUnknownKeys(data []byte) ([]string, error) {
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	known := map[string]struct{}{
		"sources":           {},
		"source_dir":        {},
		"target_dir":        {},
		"extension":         {},
		"variables_dir":     {},
		"variables_module":  {},
		"utils_module":      {},
		"css_package":       {},
		"helper_prefix":     {},
		"breakpoint_helper": {},
		"manifest":          {},
		"jobs":              {},
		"formatter":         {},
		"cache_dir":         {},
	}

	unknown := make([]string, 0)
	for key := range raw {
		if _, ok := known[key]; !ok {
			unknown = append(unknown, key)
		}
	}
	return unknown, nil
}

func validate(path string, cfg Config) error {
	if !strings.HasPrefix(cfg.Extension, ".") {
		return fmt.Errorf("%s: extension %q must start with a dot", path, cfg.Extension)
	}
	if !strings.HasPrefix(cfg.HelperPrefix, "$") {
		return fmt.Errorf("%s: helper_prefix %q must start with $", path, cfg.HelperPrefix)
	}
	if cfg.Jobs < 0 {
		return fmt.Errorf("%s: jobs must not be negative", path)
	}
	if len(cfg.Formatter) > 0 && strings.TrimSpace(cfg.Formatter[0]) == "" {
		return fmt.Errorf("%s: formatter command is empty", path)
	}
	if strings.ContainsAny(cfg.SourceDir, `/\`) || strings.ContainsAny(cfg.TargetDir, `/\`) {
		return fmt.Errorf("%s: source_dir and target_dir must be single directory names", path)
	}
	return nil
}

func resolvePath(baseDir, p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(baseDir, filepath.FromSlash(p))
}

func resolvePatterns(resolver fileset.Resolver, field string, patterns []string) ([]string, error) {
	paths, err := resolver.Resolve(patterns)
	if err != nil {
		switch {
		case errors.Is(err, fileset.ErrNoPatterns):
			return nil, fmt.Errorf("%s must include at least one pattern", field)
		default:
			var noMatchErr fileset.NoMatchError
			if errors.As(err, &noMatchErr) {
				return nil, fmt.Errorf("%s patterns matched no files: %s", field, strings.Join(noMatchErr.Patterns, ", "))
			}

			var patternErr fileset.PatternError
			if errors.As(err, &patternErr) {
				return nil, fmt.Errorf("%s: invalid glob pattern %q: %w", field, patternErr.Pattern, patternErr.Err)
			}

			return nil, fmt.Errorf("%s: %w", field, err)
		}
	}
	return paths, nil
}
