package transform

import (
	"strings"

	"github.com/tdewolff/parse/v2/css"

	"github.com/electwix/scss2emotion/internal/naming"
	"github.com/electwix/scss2emotion/internal/stylesheet"
)

// MediaMarker is the name given to `@include media(...) { ... }` blocks once
// they have been rewritten into a breakpoint-helper interpolation.
const MediaMarker = "__media_helper__"

// rewriteDirectives rewrites every @extend, then every @include, in place.
// Params then hold the interpolation text the flattener splices verbatim.
func (s *fileState) rewriteDirectives() error {
	var extends, includes []*stylesheet.Node
	for n := range s.root.All() {
		switch {
		case n.IsAtRule("extend"):
			extends = append(extends, n)
		case n.IsAtRule("include"):
			includes = append(includes, n)
		}
	}
	for _, n := range extends {
		if err := s.rewriteExtend(n); err != nil {
			return err
		}
	}
	for _, n := range includes {
		if err := s.rewriteInclude(n); err != nil {
			return err
		}
	}
	return nil
}

func (s *fileState) rewriteExtend(n *stylesheet.Node) error {
	target := strings.TrimSpace(n.Params)
	if target == "" {
		return s.errorf(n, "@extend without a selector")
	}
	n.OriginalParams = target
	s.extendTargets[target] = struct{}{}

	ident := naming.Identifier(target)
	if _, local := s.selectors[target]; !local {
		if s.opts.Manifest.IsObject(ident) {
			s.req.addHelper(ident)
		} else {
			s.req.addImport(ident)
		}
	}
	n.Params = "${" + ident + "};"
	return nil
}

func (s *fileState) rewriteInclude(n *stylesheet.Node) error {
	params := strings.TrimSpace(n.Params)
	if params == "" {
		return s.errorf(n, "@include without a mixin name")
	}
	n.OriginalParams = params

	if n.Block && len(n.Nodes) > 0 && strings.HasPrefix(params, s.opts.BreakpointHelper+"(") {
		n.Name = MediaMarker
		n.Params = "${" + params + "}"
		s.req.addHelper(naming.Identifier(s.opts.BreakpointHelper))
		return nil
	}

	name, args, err := splitCall(params)
	if err != nil {
		return s.errorf(n, "@include %s: %v", params, err)
	}
	s.includedMixins[name] = struct{}{}

	ident := naming.Identifier(name)
	if _, local := s.mixins[name]; !local {
		if s.opts.Manifest.IsFunction(ident) {
			s.req.addHelper(ident)
		} else {
			s.req.addImport(ident)
		}
	}

	if n.Block && len(n.Nodes) > 0 {
		s.diags.Warnf(s.path, n.Pos.Line, "@include %s passes a content block, which cannot be expressed; its content was inlined after the call.", name)
	}

	resolved := make([]string, len(args))
	for i, arg := range args {
		resolved[i] = s.resolveArg(arg, n)
	}
	n.Params = "${" + ident + "(" + strings.Join(resolved, ", ") + ")}"
	return nil
}

// splitCall splits `name(a, b)` into its name and top-level arguments. A bare
// name has no arguments.
func splitCall(call string) (string, []string, error) {
	open := strings.IndexByte(call, '(')
	if open < 0 {
		return strings.TrimSpace(call), nil, nil
	}
	name := strings.TrimSpace(call[:open])
	if name == "" {
		return "", nil, errMissingName
	}
	if !strings.HasSuffix(call, ")") {
		return "", nil, errUnbalanced
	}
	inner := call[open+1 : len(call)-1]
	if !balanced(inner) {
		return "", nil, errUnbalanced
	}
	return name, splitList(inner, css.CommaToken), nil
}

// callName returns the function-name portion of a call signature.
func callName(call string) string {
	name, _, _ := strings.Cut(call, "(")
	return strings.TrimSpace(name)
}

// mixinSignature turns `@mixin name($a, $b: 1px)` params into the function
// name and a JavaScript parameter list `a, b = '1px'`.
func (s *fileState) mixinSignature(n *stylesheet.Node) (string, string, error) {
	name, args, err := splitCall(strings.TrimSpace(n.Params))
	if err != nil {
		return "", "", s.errorf(n, "@mixin %s: %v", n.Params, err)
	}
	if name == "" {
		return "", "", s.errorf(n, "@mixin without a name")
	}
	params := make([]string, len(args))
	for i, arg := range args {
		param, def, hasDefault := strings.Cut(arg, ":")
		params[i] = naming.Identifier(strings.TrimSpace(param))
		if hasDefault {
			params[i] += " = " + s.resolveArg(def, n)
		}
	}
	return naming.Identifier(name), strings.Join(params, ", "), nil
}
