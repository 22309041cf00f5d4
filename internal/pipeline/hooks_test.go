package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestHooks_Chain(t *testing.T) {
	t.Run("chains two hooks", func(t *testing.T) {
		var calls []string
		h1 := Hooks{BeforeTransform: func(context.Context, []string) error {
			calls = append(calls, "h1")
			return nil
		}}
		h2 := Hooks{BeforeTransform: func(context.Context, []string) error {
			calls = append(calls, "h2")
			return nil
		}}

		if err := h1.Chain(h2).BeforeTransform(context.Background(), nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if diff := cmp.Diff([]string{"h1", "h2"}, calls); diff != "" {
			t.Errorf("calls mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("first error stops chain", func(t *testing.T) {
		h1 := Hooks{BeforeWrite: func(context.Context, []File) error {
			return errors.New("h1 error")
		}}
		var h2Called bool
		h2 := Hooks{BeforeWrite: func(context.Context, []File) error {
			h2Called = true
			return nil
		}}

		err := h1.Chain(h2).BeforeWrite(context.Background(), nil)
		if err == nil || err.Error() != "h1 error" {
			t.Errorf("error = %v, want 'h1 error'", err)
		}
		if h2Called {
			t.Error("h2 should not have been called")
		}
	})

	t.Run("nil hooks", func(t *testing.T) {
		var called int
		h := Hooks{AfterWrite: func(context.Context, Summary) error {
			called++
			return nil
		}}

		if err := NoHooks().Chain(h).AfterWrite(context.Background(), Summary{}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := h.Chain(NoHooks()).AfterWrite(context.Background(), Summary{}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if called != 2 {
			t.Errorf("called = %d, want 2", called)
		}
		if NoHooks().Chain(NoHooks()).AfterTransform != nil {
			t.Error("chaining two empty hooks should stay nil")
		}
	})
}

func TestPipeline_Run_WithHooks(t *testing.T) {
	configPath := writeProject(t, map[string]string{
		"scss2emotion.toml": projectConfig,
		"src/scss/a.scss":   ".a { color: red; }\n",
	})

	var calls []string
	record := func(name string) { calls = append(calls, name) }
	hooks := Hooks{
		BeforeTransform: func(_ context.Context, paths []string) error {
			record("BeforeTransform")
			if len(paths) != 1 {
				t.Errorf("BeforeTransform paths = %v", paths)
			}
			return nil
		},
		AfterTransform: func(_ context.Context, files []File) error {
			record("AfterTransform")
			return nil
		},
		BeforeWrite: func(_ context.Context, files []File) error {
			record("BeforeWrite")
			return nil
		},
		AfterWrite: func(_ context.Context, summary Summary) error {
			record("AfterWrite")
			if len(summary.Written) != 1 {
				t.Errorf("AfterWrite written = %v", summary.Written)
			}
			return nil
		},
	}

	p := &Pipeline{Env: Environment{Writer: &MemoryWriter{}}, Hooks: hooks}
	if _, err := p.Run(context.Background(), RunOptions{ConfigPath: configPath}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	want := []string{"BeforeTransform", "AfterTransform", "BeforeWrite", "AfterWrite"}
	if diff := cmp.Diff(want, calls); diff != "" {
		t.Errorf("hook calls mismatch (-want +got):\n%s", diff)
	}

	calls = nil
	if _, err := p.Run(context.Background(), RunOptions{ConfigPath: configPath, DryRun: true}); err != nil {
		t.Fatalf("dry Run() error = %v", err)
	}
	if diff := cmp.Diff([]string{"BeforeTransform", "AfterTransform"}, calls); diff != "" {
		t.Errorf("dry-run hook calls mismatch (-want +got):\n%s", diff)
	}
}

func TestPipeline_Run_HookError(t *testing.T) {
	configPath := writeProject(t, map[string]string{
		"scss2emotion.toml": projectConfig,
		"src/scss/a.scss":   ".a { color: red; }\n",
	})
	writer := &MemoryWriter{}

	p := &Pipeline{
		Env: Environment{Writer: writer},
		Hooks: Hooks{BeforeWrite: func(context.Context, []File) error {
			return errors.New("hook error")
		}},
	}
	_, err := p.Run(context.Background(), RunOptions{ConfigPath: configPath})
	if err == nil || !strings.Contains(err.Error(), "hook error") {
		t.Fatalf("error = %v, want to contain 'hook error'", err)
	}
	if writes := writer.Writes(); len(writes) != 0 {
		t.Fatalf("files written despite hook error: %v", writes)
	}
}
