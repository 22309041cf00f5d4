package transform

import (
	"strings"

	"github.com/electwix/scss2emotion/internal/stylesheet"
)

// flattener renders the body of one container into template-literal text.
// In opaque mode (mixin bodies) nested rules are rendered as written; only the
// directive and media splices apply.
type flattener struct {
	s      *fileState
	opaque bool
	b      strings.Builder
}

// flatten returns the body of container without its own `{` and `}`.
func (s *fileState) flatten(container *stylesheet.Node, opaque bool) string {
	f := &flattener{s: s, opaque: opaque}
	f.body(container)
	f.b.WriteString(escapeTemplate(container.Raws.After))
	return f.b.String()
}

func (f *flattener) body(n *stylesheet.Node) {
	for _, child := range n.Nodes {
		if f.skip(child) {
			continue
		}
		f.b.WriteString(escapeTemplate(child.Raws.Before))
		f.node(child)
	}
}

// skip reports whether child is a nested class or placeholder that owns its
// own symbol and is not under an ampersand rule. Its whole subtree is left out.
func (f *flattener) skip(child *stylesheet.Node) bool {
	if f.opaque || child.Kind != stylesheet.KindRule {
		return false
	}
	return isSymbolSelector(child.Selector) && !f.s.scopeOf(child).ampersand
}

func (f *flattener) node(n *stylesheet.Node) {
	switch n.Kind {
	case stylesheet.KindDecl:
		f.b.WriteString(escapeTemplate(stylesheet.DeclPrefix(n)) + n.Value + ";")
	case stylesheet.KindComment:
		f.b.WriteString(escapeTemplate(stylesheet.BlockComment(n)))
	case stylesheet.KindRule:
		f.rule(n)
	case stylesheet.KindAtRule:
		f.atRule(n)
	}
}

func (f *flattener) rule(n *stylesheet.Node) {
	if !f.opaque && isSymbolSelector(n.Selector) && f.s.scopeOf(n).ampersand {
		name, _, _ := splitSelector(n.Selector)
		f.block("css-${"+name+".name} {", n)
		return
	}
	selector, _ := f.s.interpolate(n.Selector, n)
	f.block(selector+escapeTemplate(n.Raws.Between)+"{", n)
}

func (f *flattener) atRule(n *stylesheet.Node) {
	switch n.Name {
	case "extend":
		f.b.WriteString(n.Params)
	case "include":
		f.b.WriteString(n.Params)
		if n.Block {
			f.body(n)
		}
	case MediaMarker:
		f.block(n.Params+" {", n)
	default:
		params, _ := f.s.interpolate(n.Params, n)
		head := escapeTemplate(stylesheet.AtRulePrefix(n)) + params
		if !n.Block {
			f.b.WriteString(head + ";")
			return
		}
		f.block(head+escapeTemplate(n.Raws.Between)+"{", n)
	}
}

func (f *flattener) block(open string, n *stylesheet.Node) {
	f.b.WriteString(open)
	f.body(n)
	f.b.WriteString(escapeTemplate(n.Raws.After))
	f.b.WriteString("}")
}

// isSymbolSelector reports whether a rule selector names a class or a
// placeholder.
func isSymbolSelector(selector string) bool {
	return strings.HasPrefix(selector, ".") || strings.HasPrefix(selector, "%")
}
