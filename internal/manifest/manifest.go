// Package manifest describes the external helper library that generated
// modules can import instead of defining styles locally.
//
// The manifest replaces runtime inspection of the library: every identifier is
// classified up front as a value namespace (a field of the exported variables
// object), an object-typed helper (usable with @extend) or a function-typed
// helper (usable with @include).
package manifest

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultManifest []byte

// Kind classifies a helper identifier.
type Kind int

const (
	// KindUnknown means the library does not expose the identifier.
	KindUnknown Kind = iota
	// KindNamespace is a field of the library's variables export.
	KindNamespace
	// KindObject is a style object, the target of @extend.
	KindObject
	// KindFunction is a style function, the target of @include.
	KindFunction
)

// String returns the manifest section name for the kind.
func (k Kind) String() string {
	switch k {
	case KindNamespace:
		return "namespace"
	case KindObject:
		return "object"
	case KindFunction:
		return "function"
	default:
		return "unknown"
	}
}

// Manifest is the resolved helper catalog.
type Manifest struct {
	Package         string   `yaml:"package"`
	VariablesExport string   `yaml:"variables_export"`
	Namespaces      []string `yaml:"namespaces"`
	Objects         []string `yaml:"objects"`
	Functions       []string `yaml:"functions"`

	namespaces map[string]struct{}
	objects    map[string]struct{}
	functions  map[string]struct{}
}

// Default returns the embedded manifest.
func Default() *Manifest {
	m, err := Parse(defaultManifest)
	if err != nil {
		panic(fmt.Sprintf("embedded manifest: %v", err))
	}
	return m
}

// Load reads a manifest from a YAML file.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read manifest %s: %w", path, err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Parse decodes a YAML manifest and indexes it.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	if m.Package == "" {
		return nil, errors.New("manifest: package is required")
	}
	if m.VariablesExport == "" {
		m.VariablesExport = "variables"
	}
	m.index()
	return &m, nil
}

// New builds a manifest in code, mostly for tests and embedding callers.
func New(pkg string, namespaces, objects, functions []string) *Manifest {
	m := &Manifest{
		Package:         pkg,
		VariablesExport: "variables",
		Namespaces:      slices.Clone(namespaces),
		Objects:         slices.Clone(objects),
		Functions:       slices.Clone(functions),
	}
	m.index()
	return m
}

func (m *Manifest) index() {
	m.namespaces = toSet(m.Namespaces)
	m.objects = toSet(m.Objects)
	m.functions = toSet(m.Functions)
}

// Lookup classifies name for the given usage. Objects and functions share
// names in some libraries, so the caller states which one it needs.
func (m *Manifest) Lookup(name string, want Kind) bool {
	var set map[string]struct{}
	switch want {
	case KindNamespace:
		set = m.namespaces
	case KindObject:
		set = m.objects
	case KindFunction:
		set = m.functions
	default:
		return false
	}
	_, ok := set[name]
	return ok
}

// IsNamespace reports whether name is a field of the variables export.
func (m *Manifest) IsNamespace(name string) bool { return m.Lookup(name, KindNamespace) }

// IsObject reports whether name is an object-typed helper.
func (m *Manifest) IsObject(name string) bool { return m.Lookup(name, KindObject) }

// IsFunction reports whether name is a function-typed helper.
func (m *Manifest) IsFunction(name string) bool { return m.Lookup(name, KindFunction) }

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		set[item] = struct{}{}
	}
	return set
}
