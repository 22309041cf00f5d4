// Package diagnostics collects the warnings raised while migrating stylesheets.
// A Registry is created per run and threaded through every stage; entries are
// keyed by source path and never merge across files.
package diagnostics

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/maruel/natural"
)

// Location represents a position in a source file.
type Location struct {
	Path   string
	Line   int
	Column int
}

// Diagnostic is a single warning attached to a file. Warnings never block
// output; fatal problems are returned as errors instead.
type Diagnostic struct {
	Message  string
	Location Location
}

// HasLocation returns true if the diagnostic points at a line.
func (d Diagnostic) HasLocation() bool {
	return d.Location.Path != "" && d.Location.Line > 0
}

// String renders path:line:column: warning: message.
func (d Diagnostic) String() string {
	var b strings.Builder
	if d.HasLocation() {
		fmt.Fprintf(&b, "%s:%d:%d: ", d.Location.Path, d.Location.Line, d.Location.Column)
	}
	fmt.Fprintf(&b, "warning: %s", d.Message)
	return b.String()
}

// Registry maps source paths to ordered, unique diagnostics. It is safe for
// concurrent use by per-file workers.
type Registry struct {
	mu    sync.Mutex
	files map[string]*fileDiagnostics
}

type fileDiagnostics struct {
	seen  map[string]struct{}
	items []Diagnostic
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{files: make(map[string]*fileDiagnostics)}
}

// Add records d under d.Location.Path. A message already recorded for the
// same file is dropped; the first occurrence keeps its location.
func (r *Registry) Add(d Diagnostic) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.files[d.Location.Path]
	if !ok {
		entry = &fileDiagnostics{seen: make(map[string]struct{})}
		r.files[d.Location.Path] = entry
	}
	if _, dup := entry.seen[d.Message]; dup {
		return false
	}
	entry.seen[d.Message] = struct{}{}
	entry.items = append(entry.items, d)
	return true
}

// Warn records a warning for path at line.
func (r *Registry) Warn(path string, line int, message string) bool {
	return r.Add(Diagnostic{
		Message:  message,
		Location: Location{Path: path, Line: line, Column: 1},
	})
}

// Warnf is Warn with formatting.
func (r *Registry) Warnf(path string, line int, format string, args ...any) bool {
	return r.Warn(path, line, fmt.Sprintf(format, args...))
}

// Files returns the paths with at least one diagnostic in natural order.
func (r *Registry) Files() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	paths := make([]string, 0, len(r.files))
	for path := range r.files {
		paths = append(paths, path)
	}
	slices.SortFunc(paths, func(a, b string) int {
		switch {
		case natural.Less(a, b):
			return -1
		case natural.Less(b, a):
			return 1
		default:
			return 0
		}
	})
	return paths
}

// Diagnostics returns a copy of the entries recorded for path.
func (r *Registry) Diagnostics(path string) []Diagnostic {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.files[path]
	if !ok {
		return nil
	}
	return slices.Clone(entry.items)
}

// Messages returns the unique messages recorded for path in insertion order.
func (r *Registry) Messages(path string) []string {
	diags := r.Diagnostics(path)
	if diags == nil {
		return nil
	}
	msgs := make([]string, len(diags))
	for i, d := range diags {
		msgs[i] = d.Message
	}
	return msgs
}

// Len returns the total number of diagnostics across all files.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	total := 0
	for _, entry := range r.files {
		total += len(entry.items)
	}
	return total
}
