package fileset

import (
	"errors"
	"io/fs"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"
)

func TestResolverResolveSuccess(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"scss/base/_reset.scss":       &fstest.MapFile{Mode: fs.ModePerm},
		"scss/base/_type.scss":        &fstest.MapFile{Mode: fs.ModePerm},
		"scss/components/button.scss": &fstest.MapFile{Mode: fs.ModePerm},
		"scss/components/card.scss":   &fstest.MapFile{Mode: fs.ModePerm},
		"scss/components/alert.scss":  &fstest.MapFile{Mode: fs.ModePerm},
		"scss/components/old/x.scss":  &fstest.MapFile{Mode: fs.ModePerm},
	}

	resolver := NewResolver(fsys)
	patterns := []string{
		"scss/components/*.scss",
		"scss/base/*.scss",
		"scss/components/button.scss",
	}

	paths, err := resolver.Resolve(patterns)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}

	expected := []string{
		"scss/base/_reset.scss",
		"scss/base/_type.scss",
		"scss/components/alert.scss",
		"scss/components/button.scss",
		"scss/components/card.scss",
	}

	if len(paths) != len(expected) {
		t.Fatalf("expected %d paths, got %d (%v)", len(expected), len(paths), paths)
	}

	for i, want := range expected {
		if paths[i] != want {
			t.Fatalf("unexpected path at %d: want %q, got %q", i, want, paths[i])
		}
	}
}

func TestResolverResolveNoMatches(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"scss/button.scss": &fstest.MapFile{Mode: fs.ModePerm},
	}

	resolver := NewResolver(fsys)
	patterns := []string{
		"styles/*.scss",
		"scss/nope.scss",
	}

	_, err := resolver.Resolve(patterns)
	if err == nil {
		t.Fatal("expected error for missing patterns")
	}

	var noMatchErr NoMatchError
	if !errors.As(err, &noMatchErr) {
		t.Fatalf("expected NoMatchError, got %T: %v", err, err)
	}

	if len(noMatchErr.Patterns) != 2 {
		t.Fatalf("unexpected patterns length: %v", noMatchErr.Patterns)
	}

	if noMatchErr.Patterns[0] != "styles/*.scss" || noMatchErr.Patterns[1] != "scss/nope.scss" {
		t.Fatalf("unexpected missing patterns: %v", noMatchErr.Patterns)
	}
}

func TestResolverResolveInvalidPattern(t *testing.T) {
	t.Parallel()

	resolver := NewResolver(fstest.MapFS{})

	_, err := resolver.Resolve([]string{"["})
	if err == nil {
		t.Fatal("expected error for invalid pattern")
	}

	var patternErr PatternError
	if !errors.As(err, &patternErr) {
		t.Fatalf("expected PatternError, got %T: %v", err, err)
	}

	if patternErr.Pattern != "[" {
		t.Fatalf("unexpected pattern on error: %q", patternErr.Pattern)
	}
}

func TestResolverResolveNoPatterns(t *testing.T) {
	t.Parallel()

	resolver := NewResolver(fstest.MapFS{})

	_, err := resolver.Resolve(nil)
	if !errors.Is(err, ErrNoPatterns) {
		t.Fatalf("expected ErrNoPatterns, got %v", err)
	}
}

func TestResolverResolveDoubleStar(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"src/scss/_vars.scss":             &fstest.MapFile{Mode: fs.ModePerm},
		"src/scss/a/b/deep.scss":          &fstest.MapFile{Mode: fs.ModePerm},
		"src/scss/a/item10.scss":          &fstest.MapFile{Mode: fs.ModePerm},
		"src/scss/a/item2.scss":           &fstest.MapFile{Mode: fs.ModePerm},
		"src/scss/a/notes.md":             &fstest.MapFile{Mode: fs.ModePerm},
		"src/other/ignored.scss":          &fstest.MapFile{Mode: fs.ModePerm},
		"src/scss/vendor/theme/main.scss": &fstest.MapFile{Mode: fs.ModePerm},
	}

	paths, err := NewResolver(fsys).Resolve([]string{"src/scss/**/*.scss"})
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	want := []string{
		"src/scss/_vars.scss",
		"src/scss/a/b/deep.scss",
		"src/scss/a/item2.scss",
		"src/scss/a/item10.scss",
		"src/scss/vendor/theme/main.scss",
	}
	if diff := cmp.Diff(want, paths); diff != "" {
		t.Fatalf("paths mismatch (-want +got):\n%s", diff)
	}
}

func TestResolverResolvePatterns(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"a.scss":              &fstest.MapFile{Mode: fs.ModePerm},
		"a/c.scss":            &fstest.MapFile{Mode: fs.ModePerm},
		"a/x/y/c.scss":        &fstest.MapFile{Mode: fs.ModePerm},
		"b/c.scss":            &fstest.MapFile{Mode: fs.ModePerm},
		"dir.scss/inner.scss": &fstest.MapFile{Mode: fs.ModePerm},
	}

	tests := []struct {
		pattern string
		want    []string
	}{
		{"*.scss", []string{"a.scss"}},
		{"a/**/c.scss", []string{"a/c.scss", "a/x/y/c.scss"}},
		{"a/*/c.scss", nil},
		{"{a,b}/c.scss", []string{"a/c.scss", "b/c.scss"}},
		{"**/inner.scss", []string{"dir.scss/inner.scss"}},
	}
	resolver := NewResolver(fsys)
	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			t.Parallel()
			paths, err := resolver.Resolve([]string{tt.pattern})
			if tt.want == nil {
				var noMatchErr NoMatchError
				if !errors.As(err, &noMatchErr) {
					t.Fatalf("Resolve(%q) error = %v, want NoMatchError", tt.pattern, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve(%q) returned error: %v", tt.pattern, err)
			}
			if diff := cmp.Diff(tt.want, paths); diff != "" {
				t.Fatalf("paths mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
