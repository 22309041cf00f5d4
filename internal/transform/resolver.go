package transform

import (
	"regexp"
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"

	"github.com/electwix/scss2emotion/internal/naming"
	"github.com/electwix/scss2emotion/internal/stylesheet"
)

// Namespace aliases bound by the generated import statements.
const (
	VarsAlias       = "vars"
	CustomVarsAlias = "customVars"
)

// varToken matches a value element that is exactly one variable reference.
var varToken = regexp.MustCompile(`^\$[A-Za-z_-][\w-]*$`)

type token struct {
	typ  css.TokenType
	text string
}

// lex splits s into CSS tokens. The lexer is lossless, so joining the token
// texts gives s back.
func lex(s string) []token {
	l := css.NewLexer(parse.NewInputString(s))
	var tokens []token
	for {
		tt, data := l.Next()
		if tt == css.ErrorToken {
			return tokens
		}
		tokens = append(tokens, token{typ: tt, text: string(data)})
	}
}

// splitList splits value on sep tokens outside any brackets or function
// calls. Elements are trimmed and empty elements dropped.
func splitList(value string, sep css.TokenType) []string {
	var (
		parts []string
		cur   strings.Builder
		depth int
	)
	flush := func() {
		if part := strings.TrimSpace(cur.String()); part != "" {
			parts = append(parts, part)
		}
		cur.Reset()
	}
	for _, tok := range lex(value) {
		switch tok.typ {
		case css.FunctionToken, css.LeftParenthesisToken, css.LeftBracketToken, css.LeftBraceToken:
			depth++
		case css.RightParenthesisToken, css.RightBracketToken, css.RightBraceToken:
			if depth > 0 {
				depth--
			}
		}
		if tok.typ == sep && depth == 0 {
			flush()
			continue
		}
		cur.WriteString(tok.text)
	}
	flush()
	return parts
}

// balanced reports whether the brackets of s pair up. Brackets inside strings
// do not count.
func balanced(s string) bool {
	depth := 0
	for _, tok := range lex(s) {
		switch tok.typ {
		case css.FunctionToken, css.LeftParenthesisToken, css.LeftBracketToken, css.LeftBraceToken:
			depth++
		case css.RightParenthesisToken, css.RightBracketToken, css.RightBraceToken:
			depth--
			if depth < 0 {
				return false
			}
		}
	}
	return depth == 0
}

// splitValue returns the elements of a genuinely splittable list and the
// separator to rejoin them with. A value that does not split comes back as a
// single element.
func splitValue(value string) ([]string, string) {
	if strings.Contains(value, ",") {
		if parts := splitList(value, css.CommaToken); len(parts) > 1 || (len(parts) == 1 && parts[0] != value) {
			return parts, ", "
		}
	}
	if strings.ContainsAny(value, " \t\n") {
		if parts := splitList(value, css.WhitespaceToken); len(parts) > 1 || (len(parts) == 1 && parts[0] != value) {
			return parts, " "
		}
	}
	return []string{value}, ""
}

// resolveValue rewrites a declaration value into template text, replacing
// variable references with interpolation slots.
func (s *fileState) resolveValue(value string, at *stylesheet.Node) string {
	parts, sep := splitValue(value)
	if len(parts) == 1 && parts[0] == value {
		return s.resolveElement(value, at)
	}
	resolved := make([]string, len(parts))
	for i, part := range parts {
		resolved[i] = s.resolveValue(part, at)
	}
	return strings.Join(resolved, sep)
}

func (s *fileState) resolveElement(elem string, at *stylesheet.Node) string {
	if varToken.MatchString(elem) {
		return "${" + s.reference(elem, at) + "}"
	}
	text, _ := s.interpolate(elem, at)
	return text
}

// resolveArg rewrites one inclusion argument into a JavaScript expression.
func (s *fileState) resolveArg(arg string, at *stylesheet.Node) string {
	arg = strings.TrimSpace(arg)
	if varToken.MatchString(arg) {
		return s.reference(arg, at)
	}
	if strings.HasPrefix(arg, `"`) || strings.HasPrefix(arg, "'") {
		return arg
	}
	if text, found := s.interpolate(arg, at); found {
		return "`" + text + "`"
	}
	return "'" + strings.ReplaceAll(arg, "'", `\'`) + "'"
}

// reference resolves a `$name` token against the helper-library namespace,
// the enclosing scope, or the custom variables module.
func (s *fileState) reference(tok string, at *stylesheet.Node) string {
	if rest, ok := strings.CutPrefix(tok, s.opts.HelperPrefix); ok && rest != "" {
		s.req.UsesExternalVars = true
		field, name, _ := strings.Cut(rest, "-")
		if !s.opts.Manifest.IsNamespace(field) {
			s.diags.Warnf(s.path, at.Pos.Line, "Unknown helper namespace %q referenced by %q, check the helper manifest.", field, tok)
		}
		if name == "" {
			return VarsAlias + "." + field
		}
		return VarsAlias + "." + field + "." + naming.CamelCase(name)
	}

	ident := naming.Identifier(tok)
	if s.scopeOf(at).mixin {
		return ident
	}
	if _, ok := s.topLevelVars[tok]; ok {
		return ident
	}
	s.req.UsesLocalVars = true
	return CustomVarsAlias + "." + ident
}

// interpolate rewrites `$name` and `#{$name}` references embedded in literal
// text into interpolation slots and escapes the rest for a template literal.
// found reports whether any reference was rewritten.
func (s *fileState) interpolate(text string, at *stylesheet.Node) (string, bool) {
	if !strings.Contains(text, "$") {
		return escapeTemplate(text), false
	}
	tokens := lex(text)
	var (
		b     strings.Builder
		found bool
	)
	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		if isDelim(tok, "#") && i+4 < len(tokens) && tokens[i+1].typ == css.LeftBraceToken &&
			isDelim(tokens[i+2], "$") && tokens[i+3].typ == css.IdentToken && tokens[i+4].typ == css.RightBraceToken {
			b.WriteString("${" + s.reference("$"+tokens[i+3].text, at) + "}")
			found = true
			i += 4
			continue
		}
		if isDelim(tok, "$") && i+1 < len(tokens) && tokens[i+1].typ == css.IdentToken {
			b.WriteString("${" + s.reference("$"+tokens[i+1].text, at) + "}")
			found = true
			i++
			continue
		}
		b.WriteString(escapeTemplate(tok.text))
	}
	return b.String(), found
}

func isDelim(tok token, text string) bool {
	return tok.typ == css.DelimToken && tok.text == text
}

var templateEscaper = strings.NewReplacer(`\`, `\\`, "`", "\\`", "${", `\${`)

// escapeTemplate makes literal source text safe inside a JavaScript template
// literal.
func escapeTemplate(s string) string {
	return templateEscaper.Replace(s)
}
