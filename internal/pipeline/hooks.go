package pipeline

import (
	"context"
)

// Hook is called at one stage of a run. Returning an error aborts the run.
type Hook[T any] func(ctx context.Context, arg T) error

func (h Hook[T]) call(ctx context.Context, arg T) error {
	if h == nil {
		return nil
	}
	return h(ctx, arg)
}

// Hooks provides extension points in the pipeline execution.
type Hooks struct {
	// BeforeTransform receives the absolute source paths about to be read.
	BeforeTransform Hook[[]string]

	// AfterTransform receives every generated module once all sources
	// transformed successfully.
	AfterTransform Hook[[]File]

	// BeforeWrite is called before writing files. It is not called for dry
	// runs or check runs.
	BeforeWrite Hook[[]File]

	// AfterWrite is called after all files are written.
	AfterWrite Hook[Summary]
}

// Chain combines two Hooks, calling h's hooks first, then other's hooks.
// If a hook in h returns an error, other's hook is not called.
func (h Hooks) Chain(other Hooks) Hooks {
	return Hooks{
		BeforeTransform: chainHook(h.BeforeTransform, other.BeforeTransform),
		AfterTransform:  chainHook(h.AfterTransform, other.AfterTransform),
		BeforeWrite:     chainHook(h.BeforeWrite, other.BeforeWrite),
		AfterWrite:      chainHook(h.AfterWrite, other.AfterWrite),
	}
}

func chainHook[T any](first, second Hook[T]) Hook[T] {
	if first == nil {
		return second
	}
	if second == nil {
		return first
	}
	return func(ctx context.Context, arg T) error {
		if err := first(ctx, arg); err != nil {
			return err
		}
		return second(ctx, arg)
	}
}

// NoHooks returns a Hooks with all nil functions (no-op).
func NoHooks() Hooks {
	return Hooks{}
}
