// Package transform turns a parsed SCSS tree into the symbol table of an
// Emotion module.
//
// A file goes through four stages in order: @extend and @include directives
// are rewritten in place into interpolation text, declaration values are
// resolved against the helper library, the file's own scope or the custom
// variables module, top-level constructs are classified into symbols, and each
// symbol's subtree is flattened into a template-literal body. Files are
// independent; the only shared state is the diagnostics registry.
package transform

import (
	"errors"
	"fmt"

	"github.com/electwix/scss2emotion/internal/diagnostics"
	"github.com/electwix/scss2emotion/internal/manifest"
	"github.com/electwix/scss2emotion/internal/stylesheet"
)

var (
	errMissingName = errors.New("missing name before argument list")
	errUnbalanced  = errors.New("unbalanced parentheses")
)

// Error reports a construct the transform cannot express. The whole file is
// rejected; nothing is emitted for it.
type Error struct {
	Path    string
	Line    int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.Path, e.Line, e.Message)
}

// Options configures namespace resolution.
type Options struct {
	// Manifest classifies helper-library identifiers. Defaults to the
	// embedded manifest.
	Manifest *manifest.Manifest
	// HelperPrefix marks variables that live in the helper library.
	HelperPrefix string
	// BreakpointHelper is the function name of the responsive helper whose
	// content blocks become media blocks.
	BreakpointHelper string
	// CSSPackage is quoted in the global selector warning.
	CSSPackage string
}

// Defaults used when an option is left empty.
const (
	DefaultHelperPrefix     = "$fe-brary-"
	DefaultBreakpointHelper = "media"
	DefaultCSSPackage       = "@emotion/core"
)

func (o Options) withDefaults() Options {
	if o.Manifest == nil {
		o.Manifest = manifest.Default()
	}
	if o.HelperPrefix == "" {
		o.HelperPrefix = DefaultHelperPrefix
	}
	if o.BreakpointHelper == "" {
		o.BreakpointHelper = DefaultBreakpointHelper
	}
	if o.CSSPackage == "" {
		o.CSSPackage = DefaultCSSPackage
	}
	return o
}

// Result is the outcome of transforming one file.
type Result struct {
	Path string
	// Symbols are ordered by source line.
	Symbols      []SymbolEntry
	Requirements Requirements
	// ImportsOnly is set when the file has no symbols and nothing but
	// import directives, so no module should be written for it.
	ImportsOnly bool
}

// Transform rewrites root in place and returns its symbols. Warnings are
// recorded in diags under root.Path; an *Error aborts the file.
func Transform(root *stylesheet.Node, opts Options, diags *diagnostics.Registry) (*Result, error) {
	if root == nil || root.Kind != stylesheet.KindRoot {
		return nil, &Error{Message: "transform needs a stylesheet root"}
	}
	if diags == nil {
		diags = diagnostics.NewRegistry()
	}
	s := newFileState(root, opts.withDefaults(), diags)

	if err := s.rewriteDirectives(); err != nil {
		return nil, err
	}
	s.markMaths()
	s.resolveDeclarations()
	if err := s.classify(); err != nil {
		return nil, err
	}

	return &Result{
		Path:         s.path,
		Symbols:      s.table.Sorted(),
		Requirements: s.req,
		ImportsOnly:  s.table.Len() == 0 && importsOnly(root),
	}, nil
}

func importsOnly(root *stylesheet.Node) bool {
	for _, n := range root.Nodes {
		if n.Kind == stylesheet.KindComment {
			continue
		}
		if n.Kind != stylesheet.KindAtRule {
			return false
		}
		if _, ok := importDirectives[n.Name]; !ok {
			return false
		}
	}
	return true
}

// scope records which constructs enclose a node's children.
type scope struct {
	mixin     bool
	ampersand bool
}

type fileState struct {
	root  *stylesheet.Node
	path  string
	opts  Options
	diags *diagnostics.Registry
	req   Requirements
	table *SymbolTable

	// inside maps a container to the scope its children see.
	inside map[*stylesheet.Node]scope

	selectors      map[string]struct{}
	mixins         map[string]struct{}
	topLevelVars   map[string]struct{}
	extendTargets  map[string]struct{}
	includedMixins map[string]struct{}
	fixme          map[*stylesheet.Node]struct{}
}

func newFileState(root *stylesheet.Node, opts Options, diags *diagnostics.Registry) *fileState {
	s := &fileState{
		root:           root,
		path:           root.Path,
		opts:           opts,
		diags:          diags,
		table:          NewSymbolTable(),
		inside:         make(map[*stylesheet.Node]scope),
		selectors:      make(map[string]struct{}),
		mixins:         make(map[string]struct{}),
		topLevelVars:   make(map[string]struct{}),
		extendTargets:  make(map[string]struct{}),
		includedMixins: make(map[string]struct{}),
		fixme:          make(map[*stylesheet.Node]struct{}),
	}
	s.index(root, scope{})
	return s
}

// index precomputes scopes and the names defined anywhere in the file in one
// top-down pass.
func (s *fileState) index(n *stylesheet.Node, sc scope) {
	switch {
	case n.Kind == stylesheet.KindRule:
		s.selectors[n.Selector] = struct{}{}
		if len(n.Selector) > 0 && n.Selector[0] == '&' {
			sc.ampersand = true
		}
	case n.IsAtRule("mixin"):
		s.mixins[callName(n.Params)] = struct{}{}
		sc.mixin = true
	case n.Kind == stylesheet.KindDecl && n.IsTopLevel():
		s.topLevelVars[n.Prop] = struct{}{}
	}
	s.inside[n] = sc
	for _, child := range n.Nodes {
		s.index(child, sc)
	}
}

// scopeOf returns the constructs enclosing n.
func (s *fileState) scopeOf(n *stylesheet.Node) scope {
	if n.Parent == nil {
		return scope{}
	}
	return s.inside[n.Parent]
}

func (s *fileState) errorf(n *stylesheet.Node, format string, args ...any) error {
	return &Error{Path: s.path, Line: n.Pos.Line, Message: fmt.Sprintf(format, args...)}
}
