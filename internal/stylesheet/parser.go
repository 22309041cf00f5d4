package stylesheet

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/alecthomas/participle/v2/lexer"
)

// SCSSLexer splits SCSS source into the structural tokens the tree builder
// needs. Everything that is not structure is a Text run; raw spelling is
// recovered from source offsets.
//
//nolint:govet // Participle DSL uses unkeyed fields
var SCSSLexer = lexer.MustStateful(lexer.Rules{
	"Root": {
		{Name: "Comment", Pattern: `/\*[\s\S]*?\*/`, Action: nil},
		{Name: "LineComment", Pattern: `//[^\n]*`, Action: nil},
		{Name: "URL", Pattern: `url\([^)]*\)`, Action: nil},
		{Name: "String", Pattern: `"(?:\\.|[^"\\])*"|'(?:\\.|[^'\\])*'`, Action: nil},
		{Name: "Interp", Pattern: `#\{[^}]*\}`, Action: nil},
		{Name: "Whitespace", Pattern: `\s+`, Action: nil},
		{Name: "LBrace", Pattern: `\{`, Action: nil},
		{Name: "RBrace", Pattern: `\}`, Action: nil},
		{Name: "Semi", Pattern: `;`, Action: nil},
		{Name: "LParen", Pattern: `\(`, Action: nil},
		{Name: "RParen", Pattern: `\)`, Action: nil},
		{Name: "Slash", Pattern: `/`, Action: nil},
		// Separators end a Text run so that a following url( is always
		// lexed as URL, as in `background:url(//cdn/a.png)`.
		{Name: "Separator", Pattern: `[:,]`, Action: nil},
		{Name: "Text", Pattern: `(?:[^\s{};()/"'#:,]|#[^{\s;:,])+|#`, Action: nil},
	},
})

var symbols = SCSSLexer.Symbols()

var (
	tokComment     = symbols["Comment"]
	tokLineComment = symbols["LineComment"]
	tokWhitespace  = symbols["Whitespace"]
	tokLBrace      = symbols["LBrace"]
	tokRBrace      = symbols["RBrace"]
	tokSemi        = symbols["Semi"]
	tokLParen      = symbols["LParen"]
	tokRParen      = symbols["RParen"]
)

// SyntaxError reports malformed stylesheet input.
type SyntaxError struct {
	Path    string
	Line    int
	Column  int
	Message string
}

// Error implements the error interface.
func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s", e.Path, e.Line, e.Column, e.Message)
}

// Parse builds a syntax tree from SCSS source.
func Parse(path string, src []byte) (*Node, error) {
	if !utf8.Valid(src) {
		return nil, &SyntaxError{Path: path, Line: 1, Column: 1, Message: "input is not valid UTF-8"}
	}
	text := string(src)
	lex, err := SCSSLexer.LexString(path, text)
	if err != nil {
		return nil, lexError(path, err)
	}
	tokens, err := lexer.ConsumeAll(lex)
	if err != nil {
		return nil, lexError(path, err)
	}

	p := &parser{path: path, src: text, tokens: tokens, root: NewRoot(path)}
	p.current = p.root
	if err := p.parse(); err != nil {
		return nil, err
	}
	return p.root, nil
}

func lexError(path string, err error) error {
	var perr *lexer.Error
	if errors.As(err, &perr) {
		return &SyntaxError{Path: path, Line: perr.Pos.Line, Column: perr.Pos.Column, Message: perr.Msg}
	}
	return &SyntaxError{Path: path, Line: 1, Column: 1, Message: err.Error()}
}

type parser struct {
	path    string
	src     string
	tokens  []lexer.Token
	root    *Node
	current *Node

	// pending statement tokens and the whitespace that preceded them.
	stmt   []lexer.Token
	before strings.Builder
	parens int
}

func (p *parser) parse() error {
	for _, tok := range p.tokens {
		if tok.EOF() {
			break
		}
		if len(p.stmt) == 0 {
			switch tok.Type {
			case tokWhitespace:
				p.before.WriteString(tok.Value)
				continue
			case tokComment, tokLineComment:
				p.comment(tok)
				continue
			}
		}
		if p.parens > 0 {
			switch tok.Type {
			case tokLParen:
				p.parens++
			case tokRParen:
				p.parens--
			}
			p.stmt = append(p.stmt, tok)
			continue
		}

		switch tok.Type {
		case tokLParen:
			p.parens++
			p.stmt = append(p.stmt, tok)
		case tokSemi:
			if err := p.endStatement(); err != nil {
				return err
			}
		case tokLBrace:
			if err := p.openBlock(tok); err != nil {
				return err
			}
		case tokRBrace:
			if err := p.closeBlock(tok); err != nil {
				return err
			}
		default:
			p.stmt = append(p.stmt, tok)
		}
	}

	if len(p.stmt) > 0 {
		if err := p.endStatement(); err != nil {
			return err
		}
	}
	if p.current != p.root {
		return p.errorAt(p.current.Pos, "unclosed block")
	}
	p.root.Raws.After = p.takeBefore()
	return nil
}

func (p *parser) comment(tok lexer.Token) {
	node := &Node{
		Kind: KindComment,
		Pos:  position(tok.Pos),
		Raws: Raws{Before: p.takeBefore()},
	}
	if tok.Type == tokLineComment {
		node.Inline = true
		node.Text = strings.TrimPrefix(tok.Value, "//")
	} else {
		node.Text = strings.TrimSuffix(strings.TrimPrefix(tok.Value, "/*"), "*/")
	}
	p.current.Append(node)
}

// statementText returns the raw source spanned by the pending statement with
// trailing whitespace split off.
func (p *parser) statementText() (text, trailing string) {
	first := p.stmt[0]
	last := p.stmt[len(p.stmt)-1]
	raw := p.src[first.Pos.Offset : last.Pos.Offset+len(last.Value)]
	text = strings.TrimRightFunc(raw, isSpace)
	return text, raw[len(text):]
}

func (p *parser) endStatement() error {
	if len(p.stmt) == 0 {
		// Stray `;` only contributes whitespace.
		return nil
	}
	pos := position(p.stmt[0].Pos)
	text, _ := p.statementText()
	before := p.takeBefore()
	p.stmt = p.stmt[:0]

	if strings.HasPrefix(text, "@") {
		node := atRule(text)
		node.Pos = pos
		node.Raws.Before = before
		p.current.Append(node)
		return nil
	}

	colon := strings.IndexByte(text, ':')
	if colon <= 0 {
		return p.errorAt(pos, fmt.Sprintf("unknown word %q", firstWord(text)))
	}
	prop := strings.TrimRightFunc(text[:colon], isSpace)
	rest := text[colon+1:]
	value := strings.TrimLeftFunc(rest, isSpace)
	node := &Node{
		Kind:  KindDecl,
		Pos:   pos,
		Prop:  prop,
		Value: value,
		Raws: Raws{
			Before:  before,
			Between: text[len(prop):colon+1] + rest[:len(rest)-len(value)],
		},
	}
	node.OriginalValue = node.Value
	p.current.Append(node)
	return nil
}

func (p *parser) openBlock(tok lexer.Token) error {
	if len(p.stmt) == 0 {
		return p.errorAt(position(tok.Pos), "block without selector")
	}
	pos := position(p.stmt[0].Pos)
	text, trailing := p.statementText()
	before := p.takeBefore()
	p.stmt = p.stmt[:0]

	var node *Node
	if strings.HasPrefix(text, "@") {
		node = atRule(text)
		node.Block = true
	} else {
		node = &Node{Kind: KindRule, Selector: text}
	}
	node.Pos = pos
	node.Raws.Before = before
	node.Raws.Between = trailing
	p.current.Append(node)
	p.current = node
	return nil
}

func (p *parser) closeBlock(tok lexer.Token) error {
	if len(p.stmt) > 0 {
		if err := p.endStatement(); err != nil {
			return err
		}
	}
	if p.current == p.root {
		return p.errorAt(position(tok.Pos), "unexpected }")
	}
	p.current.Raws.After = p.takeBefore()
	p.current = p.current.Parent
	return nil
}

func (p *parser) takeBefore() string {
	s := p.before.String()
	p.before.Reset()
	return s
}

func (p *parser) errorAt(pos Position, msg string) error {
	return &SyntaxError{Path: p.path, Line: pos.Line, Column: pos.Column, Message: msg}
}

func atRule(text string) *Node {
	body := text[1:]
	nameEnd := strings.IndexFunc(body, func(r rune) bool {
		return isSpace(r) || r == '(' || r == '"' || r == '\''
	})
	node := &Node{Kind: KindAtRule}
	if nameEnd < 0 {
		node.Name = body
		return node
	}
	node.Name = body[:nameEnd]
	rest := body[nameEnd:]
	params := strings.TrimLeftFunc(rest, isSpace)
	node.Raws.AfterName = rest[:len(rest)-len(params)]
	node.Params = params
	node.OriginalParams = params
	return node
}

func position(pos lexer.Position) Position {
	return Position{Line: pos.Line, Column: pos.Column, Offset: pos.Offset}
}

func firstWord(text string) string {
	if idx := strings.IndexFunc(text, isSpace); idx > 0 {
		return text[:idx]
	}
	return text
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\f'
}
