package pipeline

import (
	"io/fs"
	"slices"
	"sync"

	"github.com/electwix/scss2emotion/internal/fileset"
)

// MemoryWriter keeps generated modules in memory. It serves them back as
// existing outputs, so a second run against the same writer skips unchanged
// modules and a check run compares against what was written before. The zero
// value is ready to use.
type MemoryWriter struct {
	mu      sync.RWMutex
	modules map[string][]byte
	writes  []string
}

// NewMemoryWriter returns a writer seeded with existing outputs.
func NewMemoryWriter(existing map[string]string) *MemoryWriter {
	w := &MemoryWriter{modules: make(map[string][]byte, len(existing))}
	for path, content := range existing {
		w.modules[path] = []byte(content)
	}
	return w
}

// WriteFile stores a copy of data and records the write.
func (w *MemoryWriter) WriteFile(path string, data []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.modules == nil {
		w.modules = make(map[string][]byte)
	}
	w.modules[path] = append([]byte(nil), data...)
	w.writes = append(w.writes, path)
	return nil
}

// ReadFile returns a copy of the module at path.
func (w *MemoryWriter) ReadFile(path string) ([]byte, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	data, ok := w.modules[path]
	if !ok {
		return nil, &fs.PathError{Op: "read", Path: path, Err: fs.ErrNotExist}
	}
	return append([]byte(nil), data...), nil
}

// Module returns the content held for path.
func (w *MemoryWriter) Module(path string) (string, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	data, ok := w.modules[path]
	return string(data), ok
}

// Paths lists every held output in natural order.
func (w *MemoryWriter) Paths() []string {
	w.mu.RLock()
	paths := make([]string, 0, len(w.modules))
	for path := range w.modules {
		paths = append(paths, path)
	}
	w.mu.RUnlock()

	fileset.SortNatural(paths)
	return paths
}

// Writes returns the paths passed to WriteFile, in call order. Seeded outputs
// and skipped unchanged modules do not appear.
func (w *MemoryWriter) Writes() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()

	return slices.Clone(w.writes)
}

var (
	_ Writer       = (*MemoryWriter)(nil)
	_ OutputReader = (*MemoryWriter)(nil)
)
