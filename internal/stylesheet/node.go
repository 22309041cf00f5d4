// Package stylesheet models SCSS source as a postcss-style syntax tree.
//
// The tree keeps enough raw whitespace to re-serialize nodes close to their
// original text, which the transform stages rely on when they splice rewritten
// fragments back into flattened bodies.
package stylesheet

import (
	"iter"
	"slices"
)

// Kind tags the variant carried by a Node.
type Kind int

const (
	// KindRoot is the top of a parsed file.
	KindRoot Kind = iota
	// KindRule is a selector block such as `.button { ... }`.
	KindRule
	// KindAtRule is a directive such as `@include`, `@mixin` or `@media`.
	KindAtRule
	// KindDecl is a `prop: value` declaration, including `$var: value`.
	KindDecl
	// KindComment is a block or inline comment.
	KindComment
)

// String returns the postcss name of the kind.
func (k Kind) String() string {
	switch k {
	case KindRoot:
		return "root"
	case KindRule:
		return "rule"
	case KindAtRule:
		return "atrule"
	case KindDecl:
		return "decl"
	case KindComment:
		return "comment"
	default:
		return "unknown"
	}
}

// Position locates a node in its source file. Line and Column are 1-based.
type Position struct {
	Line   int
	Column int
	Offset int
}

// Raws holds the whitespace captured around a node.
type Raws struct {
	// Before precedes the node inside its parent.
	Before string
	// Between separates selector/params from `{`, or prop from value (`: `).
	Between string
	// AfterName separates an at-rule name from its params.
	AfterName string
	// After precedes the closing `}` of a container, or trails the root.
	After string
}

// Node is a tagged variant over the stylesheet constructs. Only the fields
// relevant to Kind are populated.
type Node struct {
	Kind   Kind
	Parent *Node
	Nodes  []*Node
	Pos    Position
	Raws   Raws

	// Rule.
	Selector string

	// AtRule. Block reports whether the directive carries a `{}` body.
	Name           string
	Params         string
	OriginalParams string
	Block          bool

	// Decl.
	Prop          string
	Value         string
	OriginalValue string

	// Comment. Inline marks `//` comments.
	Text   string
	Inline bool

	// Path is set on the root only.
	Path string
}

// NewRoot returns an empty root for path.
func NewRoot(path string) *Node {
	return &Node{Kind: KindRoot, Path: path, Pos: Position{Line: 1, Column: 1}}
}

// Root walks up to the top of the tree.
func (n *Node) Root() *Node {
	cur := n
	for cur.Parent != nil {
		cur = cur.Parent
	}
	return cur
}

// IsTopLevel reports whether n is a direct child of the root.
func (n *Node) IsTopLevel() bool {
	return n.Parent != nil && n.Parent.Kind == KindRoot
}

// Append adds children to n, fixing their parent pointers.
func (n *Node) Append(children ...*Node) {
	for _, child := range children {
		child.Parent = n
		n.Nodes = append(n.Nodes, child)
	}
}

// Index returns the position of child within n, or -1.
func (n *Node) Index(child *Node) int {
	return slices.Index(n.Nodes, child)
}

// InsertBefore places node directly before the existing child ref.
func (n *Node) InsertBefore(ref, node *Node) bool {
	idx := n.Index(ref)
	if idx < 0 {
		return false
	}
	node.Parent = n
	n.Nodes = slices.Insert(n.Nodes, idx, node)
	return true
}

// Ancestors yields the parent chain of n from nearest to farthest, stopping
// before the root.
func (n *Node) Ancestors() iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		for cur := n.Parent; cur != nil && cur.Kind != KindRoot; cur = cur.Parent {
			if !yield(cur) {
				return
			}
		}
	}
}

// HasAncestor reports whether any non-root ancestor satisfies pred.
func (n *Node) HasAncestor(pred func(*Node) bool) bool {
	for anc := range n.Ancestors() {
		if pred(anc) {
			return true
		}
	}
	return false
}

// Walk visits every descendant of n depth-first in document order. Returning
// false from fn skips the descendants of the visited node.
func (n *Node) Walk(fn func(*Node) bool) {
	for _, child := range slices.Clone(n.Nodes) {
		if fn(child) {
			child.Walk(fn)
		}
	}
}

// All yields every descendant of n in document order.
func (n *Node) All() iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		var visit func(*Node) bool
		visit = func(parent *Node) bool {
			for _, child := range parent.Nodes {
				if !yield(child) || !visit(child) {
					return false
				}
			}
			return true
		}
		visit(n)
	}
}

// IsAtRule reports whether n is an at-rule with the given name.
func (n *Node) IsAtRule(name string) bool {
	return n.Kind == KindAtRule && n.Name == name
}

// NewComment builds a detached block comment node.
func NewComment(text string) *Node {
	return &Node{Kind: KindComment, Text: " " + text + " "}
}
