package stylesheet

// DeclPrefix renders a declaration up to its value, `prop: ` with the
// original spacing around the colon.
func DeclPrefix(n *Node) string {
	between := n.Raws.Between
	if between == "" {
		between = ": "
	}
	return n.Prop + between
}

// AtRulePrefix renders `@name` and, when the rule has params, the spacing that
// separates them from the name.
func AtRulePrefix(n *Node) string {
	head := "@" + n.Name
	if n.Params == "" {
		return head
	}
	if n.Raws.AfterName == "" {
		return head + " "
	}
	return head + n.Raws.AfterName
}

// BlockComment renders a comment as `/* text */`. Inline `//` comments are
// not valid CSS and are converted.
func BlockComment(n *Node) string {
	return "/*" + n.Text + "*/"
}
