package transform

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/electwix/scss2emotion/internal/naming"
	"github.com/electwix/scss2emotion/internal/stylesheet"
)

// Messages raised for constructs that need a manual look.
const (
	MathsWarning = "Sass maths detected, find the FIXME's in this file and manually fix."
	MathsFixme   = "FIXME: Sass maths was detected in the line below, you must fix manually."
)

var operators = []string{" + ", " - ", " / ", " * ", " % ", " < ", " > ", " == ", " != ", " <= ", " >= "}

// importDirectives produce no code of their own.
var importDirectives = map[string]struct{}{
	"import":  {},
	"use":     {},
	"forward": {},
	"charset": {},
}

func hasOperator(value string) bool {
	for _, op := range operators {
		if strings.Contains(value, op) {
			return true
		}
	}
	return false
}

// markMaths flags declarations holding arithmetic. Nested declarations get a
// FIXME comment inserted before them; top-level ones carry it on their symbol.
func (s *fileState) markMaths() {
	var flagged []*stylesheet.Node
	for n := range s.root.All() {
		if n.Kind == stylesheet.KindDecl && hasOperator(n.Value) {
			flagged = append(flagged, n)
		}
	}
	for _, decl := range flagged {
		s.diags.Warn(s.path, decl.Pos.Line, MathsWarning)
		if decl.IsTopLevel() {
			s.fixme[decl] = struct{}{}
			continue
		}
		note := stylesheet.NewComment(MathsFixme)
		note.Raws.Before = decl.Raws.Before
		note.Pos = decl.Pos
		decl.Parent.InsertBefore(decl, note)
	}
}

// resolveDeclarations rewrites every declaration value, keeping the source
// text in OriginalValue for reference scanning.
func (s *fileState) resolveDeclarations() {
	for n := range s.root.All() {
		if n.Kind != stylesheet.KindDecl {
			continue
		}
		n.OriginalValue = n.Value
		n.Value = s.resolveValue(n.Value, n)
	}
}

// classify visits the root's children and fills the symbol table. Nested
// classes and placeholders outside mixin bodies get symbols of their own.
func (s *fileState) classify() error {
	for _, n := range s.root.Nodes {
		switch n.Kind {
		case stylesheet.KindDecl:
			s.table.Set(s.constSymbol(n))
		case stylesheet.KindRule:
			if isSymbolSelector(n.Selector) {
				s.table.Set(s.selectorSymbol(n))
			} else {
				s.diags.Warnf(s.path, n.Pos.Line,
					`Found a global selector "%s". Do you need this? If you must use "import { Global } from '%s'".`,
					n.Selector, s.opts.CSSPackage)
			}
			s.classifyNested(n)
		case stylesheet.KindAtRule:
			if err := s.classifyAtRule(n); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *fileState) classifyNested(rule *stylesheet.Node) {
	rule.Walk(func(n *stylesheet.Node) bool {
		if n.IsAtRule("mixin") {
			return false
		}
		if n.Kind == stylesheet.KindRule && isSymbolSelector(n.Selector) && !s.scopeOf(n).mixin {
			s.table.Set(s.selectorSymbol(n))
		}
		return true
	})
}

func (s *fileState) classifyAtRule(n *stylesheet.Node) error {
	if _, ok := importDirectives[n.Name]; ok {
		return nil
	}
	if n.Name != "mixin" {
		s.diags.Warnf(s.path, n.Pos.Line, `Unsupported top-level at-rule "@%s" was skipped.`, n.Name)
		return nil
	}
	name, params, err := s.mixinSignature(n)
	if err != nil {
		return err
	}
	_, used := s.includedMixins[callName(n.Params)]
	s.table.Set(SymbolEntry{
		Name:       name,
		Kind:       Mixin,
		Body:       s.flatten(n, true),
		Params:     params,
		UsedInFile: used,
		SourceLine: n.Pos.Line,
	})
	return nil
}

func (s *fileState) constSymbol(decl *stylesheet.Node) SymbolEntry {
	entry := SymbolEntry{
		Name:       naming.Identifier(decl.Prop),
		Kind:       ConstVar,
		RawValue:   decl.Value,
		UsedInFile: s.referencedInRules(decl),
		SourceLine: decl.Pos.Line,
	}
	if _, ok := s.fixme[decl]; ok {
		entry.Notes = append(entry.Notes, MathsFixme)
	}
	return entry
}

// referencedInRules reports whether any declaration nested below the root
// mentions decl's variable in its source value.
func (s *fileState) referencedInRules(decl *stylesheet.Node) bool {
	ref := regexp.MustCompile(regexp.QuoteMeta(decl.Prop) + `(?:[^\w-]|$)`)
	for n := range s.root.All() {
		if n == decl || n.Kind != stylesheet.KindDecl || n.IsTopLevel() {
			continue
		}
		if ref.MatchString(n.OriginalValue) {
			return true
		}
	}
	return false
}

func (s *fileState) selectorSymbol(rule *stylesheet.Node) SymbolEntry {
	name, pseudo, hasPseudo := splitSelector(rule.Selector)
	kind := Class
	used := false
	if strings.HasPrefix(rule.Selector, "%") {
		kind = Placeholder
		_, used = s.extendTargets[rule.Selector]
	}
	body := s.flatten(rule, false)
	if hasPseudo {
		body = fmt.Sprintf("&:%s { %s }", escapeTemplate(pseudo), body)
	}
	return SymbolEntry{
		Name:       name,
		Kind:       kind,
		Body:       body,
		UsedInFile: used,
		SourceLine: rule.Pos.Line,
	}
}

// splitSelector derives the symbol name from the part of selector before the
// first `:` and returns the pseudo segment after it.
func splitSelector(selector string) (string, string, bool) {
	base, pseudo, hasPseudo := strings.Cut(selector, ":")
	return naming.Identifier(base), pseudo, hasPseudo
}
