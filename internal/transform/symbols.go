package transform

import (
	"slices"
)

// SymbolKind classifies a top-level construct.
type SymbolKind int

const (
	// ConstVar is a top-level `$name: value` declaration.
	ConstVar SymbolKind = iota
	// Class is a `.name` rule.
	Class
	// Placeholder is a `%name` rule, only ever referenced through @extend.
	Placeholder
	// Mixin is a `@mixin` definition, emitted as a function.
	Mixin
)

// String returns the lower-case kind name.
func (k SymbolKind) String() string {
	switch k {
	case ConstVar:
		return "constVar"
	case Class:
		return "class"
	case Placeholder:
		return "placeholder"
	case Mixin:
		return "mixin"
	default:
		return "unknown"
	}
}

// SymbolEntry is one construct destined for the generated module.
type SymbolEntry struct {
	Name string
	Kind SymbolKind

	// Body is the flattened style text. Empty for ConstVar.
	Body string
	// RawValue is the resolved value of a ConstVar.
	RawValue string
	// Params is the JavaScript parameter list of a Mixin, without parentheses.
	Params string
	// Notes are comments rendered above the declaration.
	Notes []string

	UsedInFile bool
	SourceLine int
}

// Exported applies the export policy: classes are always exported, every
// other kind only when nothing else in the file uses it.
func (e SymbolEntry) Exported() bool {
	return e.Kind == Class || !e.UsedInFile
}

// SymbolTable keeps entries in first-insertion order. Adding a name that is
// already present replaces the entry in place.
type SymbolTable struct {
	order []string
	byKey map[string]SymbolEntry
}

// NewSymbolTable returns an empty table.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{byKey: make(map[string]SymbolEntry)}
}

// Set inserts or replaces the entry named e.Name.
func (t *SymbolTable) Set(e SymbolEntry) {
	if _, ok := t.byKey[e.Name]; !ok {
		t.order = append(t.order, e.Name)
	}
	t.byKey[e.Name] = e
}

// Get returns the entry for name.
func (t *SymbolTable) Get(name string) (SymbolEntry, bool) {
	e, ok := t.byKey[name]
	return e, ok
}

// Len returns the number of distinct names.
func (t *SymbolTable) Len() int {
	return len(t.order)
}

// Entries returns the entries in insertion order.
func (t *SymbolTable) Entries() []SymbolEntry {
	out := make([]SymbolEntry, 0, len(t.order))
	for _, name := range t.order {
		out = append(out, t.byKey[name])
	}
	return out
}

// Sorted returns the entries stably sorted by source line.
func (t *SymbolTable) Sorted() []SymbolEntry {
	out := t.Entries()
	slices.SortStableFunc(out, func(a, b SymbolEntry) int {
		return a.SourceLine - b.SourceLine
	})
	return out
}

// Requirements lists the imports a generated module needs.
type Requirements struct {
	UsesExternalVars bool
	UsesLocalVars    bool
	// ExternalHelperNames are helper-library exports referenced by the file.
	ExternalHelperNames []string
	// ExternalImportNames are identifiers expected from the sibling utilities module.
	ExternalImportNames []string
}

func (r *Requirements) addHelper(name string) {
	if !slices.Contains(r.ExternalHelperNames, name) {
		r.ExternalHelperNames = append(r.ExternalHelperNames, name)
	}
}

func (r *Requirements) addImport(name string) {
	if !slices.Contains(r.ExternalImportNames, name) {
		r.ExternalImportNames = append(r.ExternalImportNames, name)
	}
}
