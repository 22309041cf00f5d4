package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/multierr"

	"github.com/electwix/scss2emotion/internal/cache"
	"github.com/electwix/scss2emotion/internal/config"
	"github.com/electwix/scss2emotion/internal/stylesheet"
	"github.com/electwix/scss2emotion/internal/transform"
)

// writeProject lays out files under a fresh directory and returns the
// configuration path.
func writeProject(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, contents := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return filepath.Join(dir, config.DefaultFile)
}

const projectConfig = `sources = ["src/scss/**/*.scss"]` + "\n"

func TestPipelineDryRun(t *testing.T) {
	configPath := writeProject(t, map[string]string{
		"scss2emotion.toml":     projectConfig,
		"src/scss/_button.scss": ".button { color: red; }\n",
		"src/scss/index.scss":   "@import 'button';\n",
	})
	writer := &MemoryWriter{}

	p := Pipeline{Env: Environment{Writer: writer}}
	summary, err := p.Run(context.Background(), RunOptions{ConfigPath: configPath, DryRun: true})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if writes := writer.Writes(); len(writes) != 0 {
		t.Fatalf("writer invoked during dry-run: %v", writes)
	}
	if len(summary.Files) != 1 {
		t.Fatalf("Files = %+v, want one module", summary.Files)
	}
	base := filepath.Dir(configPath)
	if got, want := summary.Files[0].Path, filepath.Join(base, "src", "styles", "button.emotion.js"); got != want {
		t.Fatalf("output path = %q, want %q", got, want)
	}
	if diff := cmp.Diff([]string{filepath.Join(base, "src", "scss", "index.scss")}, summary.Skipped); diff != "" {
		t.Fatalf("skipped mismatch (-want +got):\n%s", diff)
	}
	if summary.Bytes() == 0 {
		t.Fatal("Bytes() = 0")
	}
}

func TestPipelineWritesAndSkipsUnchanged(t *testing.T) {
	configPath := writeProject(t, map[string]string{
		"scss2emotion.toml":  projectConfig,
		"src/scss/card.scss": ".card { padding: 0; }\n",
	})

	p := Pipeline{}
	first, err := p.Run(context.Background(), RunOptions{ConfigPath: configPath})
	if err != nil {
		t.Fatalf("first Run: %v", err)
	}
	if len(first.Written) != 1 {
		t.Fatalf("Written = %v, want one file", first.Written)
	}
	data, err := os.ReadFile(first.Written[0])
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	want := "import { css } from '@emotion/core';\n\nexport default css` padding: 0; `;\n"
	if diff := cmp.Diff(want, string(data)); diff != "" {
		t.Fatalf("output mismatch (-want +got):\n%s", diff)
	}

	second, err := p.Run(context.Background(), RunOptions{ConfigPath: configPath})
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if len(second.Written) != 0 || second.Unchanged != 1 {
		t.Fatalf("second run wrote %v, unchanged %d", second.Written, second.Unchanged)
	}
}

func TestPipelineFailureWritesNothing(t *testing.T) {
	configPath := writeProject(t, map[string]string{
		"scss2emotion.toml":  projectConfig,
		"src/scss/a.scss":    ".a { color: red; }\n",
		"src/scss/b.scss":    ".b { @extend; }\n",
		"src/scss/c.scss":    ".c { color: red;\n",
		"src/scss/d/_d.scss": ".d { color: blue; }\n",
	})
	writer := &MemoryWriter{}

	p := Pipeline{Env: Environment{Writer: writer}}
	_, err := p.Run(context.Background(), RunOptions{ConfigPath: configPath})
	if err == nil {
		t.Fatal("Run succeeded, want failure")
	}
	if writes := writer.Writes(); len(writes) != 0 {
		t.Fatalf("writer invoked for %v, want no writes", writes)
	}

	errs := multierr.Errors(err)
	if len(errs) != 2 {
		t.Fatalf("errors = %v, want 2", errs)
	}
	var transformErr *transform.Error
	if !errors.As(errs[0], &transformErr) {
		t.Errorf("first error = %v, want *transform.Error", errs[0])
	}
	var syntaxErr *stylesheet.SyntaxError
	if !errors.As(errs[1], &syntaxErr) {
		t.Errorf("second error = %v, want *stylesheet.SyntaxError", errs[1])
	}
	var fileErr *FileError
	if !errors.As(errs[0], &fileErr) || !strings.HasSuffix(fileErr.Path, "b.scss") {
		t.Errorf("first error = %#v, want FileError for b.scss", errs[0])
	}
}

func TestPipelineWarnings(t *testing.T) {
	configPath := writeProject(t, map[string]string{
		"scss2emotion.toml":   projectConfig + "mystery = 1\n",
		"src/scss/_page.scss": "body { margin: 0; }\n.page { width: $w * 2; }\n",
	})

	p := Pipeline{}
	summary, err := p.Run(context.Background(), RunOptions{ConfigPath: configPath, DryRun: true})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	page := filepath.Join("src", "scss", "_page.scss")
	want := []string{
		transform.MathsWarning,
		`Found a global selector "body". Do you need this? If you must use "import { Global } from '@emotion/core'".`,
	}
	if diff := cmp.Diff(want, summary.Warnings.Messages(page)); diff != "" {
		t.Fatalf("warnings mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{config.DefaultFile, page}, summary.Warnings.Files()); diff != "" {
		t.Fatalf("warned files mismatch (-want +got):\n%s", diff)
	}
	if _, err := summary.Sources.ExtractContext(page, 2, 1, 0); err != nil {
		t.Fatalf("source not registered: %v", err)
	}
}

func TestPipelineCheck(t *testing.T) {
	stale := "import { css } from '@emotion/core';\n\nexport default css` color: blue; `;\n"
	configPath := writeProject(t, map[string]string{
		"scss2emotion.toml":       projectConfig,
		"src/scss/a.scss":         ".a { color: red; }\n",
		"src/styles/a.emotion.js": stale,
	})

	p := Pipeline{}
	_, err := p.Run(context.Background(), RunOptions{ConfigPath: configPath, Check: true})
	var checkErr *CheckError
	if !errors.As(err, &checkErr) {
		t.Fatalf("err = %v, want *CheckError", err)
	}
	if len(checkErr.Stale) != 1 {
		t.Fatalf("stale = %+v", checkErr.Stale)
	}
	wantDiff := "- export default css` color: blue; `;\n+ export default css` color: red; `;\n"
	if diff := cmp.Diff(wantDiff, checkErr.Stale[0].Diff); diff != "" {
		t.Fatalf("diff mismatch (-want +got):\n%s", diff)
	}

	if _, err := (&Pipeline{}).Run(context.Background(), RunOptions{ConfigPath: configPath}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if _, err := p.Run(context.Background(), RunOptions{ConfigPath: configPath, Check: true}); err != nil {
		t.Fatalf("check after write: %v", err)
	}
}

func TestPipelineCache(t *testing.T) {
	configPath := writeProject(t, map[string]string{
		"scss2emotion.toml": projectConfig,
		"src/scss/a.scss":   "body { margin: 0; }\n.a { color: red; }\n",
	})
	store := cache.NewMemoryCache()
	p := Pipeline{Env: Environment{Cache: store}}

	first, err := p.Run(context.Background(), RunOptions{ConfigPath: configPath, DryRun: true})
	if err != nil {
		t.Fatalf("first Run: %v", err)
	}
	if first.CacheHits != 0 || store.Len() != 1 {
		t.Fatalf("first run: hits %d, cached %d", first.CacheHits, store.Len())
	}

	second, err := p.Run(context.Background(), RunOptions{ConfigPath: configPath, DryRun: true})
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if second.CacheHits != 1 {
		t.Fatalf("second run hits = %d, want 1", second.CacheHits)
	}
	if diff := cmp.Diff(first.Files[0].Content, second.Files[0].Content); diff != "" {
		t.Fatalf("cached content mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(first.Warnings.Messages("src/scss/a.scss"), second.Warnings.Messages("src/scss/a.scss")); diff != "" {
		t.Fatalf("cached warnings mismatch (-want +got):\n%s", diff)
	}
}

func TestPipelineFilesOverrideSources(t *testing.T) {
	configPath := writeProject(t, map[string]string{
		"src/scss/a.scss": ".a { color: red; }\n",
		"src/scss/b.scss": ".b { color: red; }\n",
	})
	base := filepath.Dir(configPath)
	b := filepath.Join(base, "src", "scss", "b.scss")

	p := Pipeline{}
	summary, err := p.Run(context.Background(), RunOptions{ConfigPath: configPath, Files: []string{b, b}, DryRun: true})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(summary.Files) != 1 || summary.Files[0].Source != b {
		t.Fatalf("Files = %+v, want only b.scss", summary.Files)
	}
	if summary.Plan.BaseDir != base {
		t.Fatalf("BaseDir = %q, want defaults rooted at %q", summary.Plan.BaseDir, base)
	}
}

func TestPipelineConfigErrors(t *testing.T) {
	configPath := writeProject(t, map[string]string{})

	p := Pipeline{}
	if _, err := p.Run(context.Background(), RunOptions{ConfigPath: configPath, ConfigRequired: true}); err == nil {
		t.Fatal("missing required config: want error")
	}
	_, err := p.Run(context.Background(), RunOptions{ConfigPath: configPath})
	if err == nil || !strings.Contains(err.Error(), "no stylesheets to migrate") {
		t.Fatalf("err = %v, want no stylesheets error", err)
	}
}

type upperFormatter struct{ calls int }

func (f *upperFormatter) Format(_ context.Context, _ string, src []byte) ([]byte, error) {
	f.calls++
	return []byte(strings.ToUpper(string(src))), nil
}

func TestPipelineFormatter(t *testing.T) {
	configPath := writeProject(t, map[string]string{
		"scss2emotion.toml":   projectConfig,
		"src/scss/a.scss":     ".a { color: red; }\n",
		"src/scss/index.scss": "@import 'a';\n",
	})
	f := &upperFormatter{}

	p := Pipeline{Env: Environment{Formatter: f}}
	summary, err := p.Run(context.Background(), RunOptions{ConfigPath: configPath, DryRun: true})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if f.calls != 1 {
		t.Fatalf("formatter calls = %d, want 1", f.calls)
	}
	if !strings.HasPrefix(string(summary.Files[0].Content), "IMPORT { CSS }") {
		t.Fatalf("content not formatted: %q", summary.Files[0].Content)
	}
}

func TestCommandFormatter(t *testing.T) {
	f := CommandFormatter{Args: []string{"sh", "-c", `printf '// %s\n' "$1"; cat`, "sh", "{path}"}}
	out, err := f.Format(context.Background(), "src/styles/a.emotion.js", []byte("export default 1;\n"))
	if err != nil {
		t.Skipf("shell not available: %v", err)
	}
	want := "// src/styles/a.emotion.js\nexport default 1;\n"
	if diff := cmp.Diff(want, string(out)); diff != "" {
		t.Fatalf("output mismatch (-want +got):\n%s", diff)
	}

	failing := CommandFormatter{Args: []string{"sh", "-c", "echo bad input >&2; exit 3"}}
	if _, err := failing.Format(context.Background(), "x.js", nil); err == nil || !strings.Contains(err.Error(), "bad input") {
		t.Fatalf("err = %v, want stderr in message", err)
	}
}

func TestOutputPath(t *testing.T) {
	plan := config.Defaults("/work")
	tests := []struct {
		src  string
		want string
	}{
		{"/work/src/scss/_button.scss", "/work/src/styles/button.emotion.js"},
		{"/work/src/scss/forms/_input_field.scss", "/work/src/styles/forms/input_field.emotion.js"},
		{"/work/src/scss/card.scss", "/work/src/styles/card.emotion.js"},
		{"/work/app/scss/a/scss/x.scss", "/work/app/styles/a/scss/x.emotion.js"},
		{"/work/other/y.scss", "/work/other/y.emotion.js"},
	}
	for _, tt := range tests {
		if got := OutputPath(filepath.FromSlash(tt.src), plan); got != filepath.FromSlash(tt.want) {
			t.Errorf("OutputPath(%q) = %q, want %q", tt.src, got, tt.want)
		}
	}
}

func TestVariablesImport(t *testing.T) {
	plan := config.Defaults("/work")
	tests := []struct {
		out  string
		want string
	}{
		{"/work/src/styles/button.emotion.js", "./variables"},
		{"/work/src/styles/forms/input.emotion.js", "../variables"},
		{"/work/src/app/styles/x.emotion.js", "../../styles/variables"},
		{"/work/src/x.emotion.js", "./styles/variables"},
	}
	for _, tt := range tests {
		if got := VariablesImport(filepath.FromSlash(tt.out), plan); got != tt.want {
			t.Errorf("VariablesImport(%q) = %q, want %q", tt.out, got, tt.want)
		}
	}
}
