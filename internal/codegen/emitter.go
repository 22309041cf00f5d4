// Package codegen renders a transformed stylesheet as an Emotion module.
package codegen

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/electwix/scss2emotion/internal/transform"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

// Options names the packages the generated imports point at.
type Options struct {
	// CSSPackage exports the `css` tagged template.
	CSSPackage string
	// HelperPackage is the external helper library.
	HelperPackage string
	// VariablesExport is the helper library's variables object, imported as
	// `vars`.
	VariablesExport string
	// UtilsModule provides identifiers found neither locally nor in the
	// helper library.
	UtilsModule string
	// VariablesPath is the custom variables module relative to the output file.
	VariablesPath string
}

// Emitter renders module source.
type Emitter struct {
	tmpl *template.Template
	opts Options
}

// NewEmitter parses the embedded templates.
func NewEmitter(opts Options) (*Emitter, error) {
	tmpl, err := template.New("module").ParseFS(templatesFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	if opts.VariablesExport == "" {
		opts.VariablesExport = "variables"
	}
	return &Emitter{tmpl: tmpl, opts: opts}, nil
}

// ForVariables returns a copy of e whose custom variables import points at
// path. Copies share the parsed templates.
func (e *Emitter) ForVariables(path string) *Emitter {
	cp := *e
	cp.opts.VariablesPath = path
	return &cp
}

type moduleView struct {
	Imports []string
	Symbols []symbolView
}

type symbolView struct {
	Kind    string
	Export  string
	Binding string
	Name    string
	Params  string
	Body    string
	Value   string
	Notes   []string
}

// Emit renders res. ok is false when the file produces no module at all.
func (e *Emitter) Emit(res *transform.Result) ([]byte, bool, error) {
	if res.ImportsOnly {
		return nil, false, nil
	}

	view := moduleView{Imports: e.imports(res)}
	single := len(res.Symbols) == 1
	for _, sym := range res.Symbols {
		view.Symbols = append(view.Symbols, symbolFor(sym, single))
	}

	var buf bytes.Buffer
	if err := e.tmpl.ExecuteTemplate(&buf, "module.js.tmpl", view); err != nil {
		return nil, false, fmt.Errorf("render %s: %w", res.Path, err)
	}
	return []byte(strings.TrimLeft(buf.String(), "\n")), true, nil
}

func (e *Emitter) imports(res *transform.Result) []string {
	req := res.Requirements
	var out []string

	if !constantsOnly(res.Symbols) {
		out = append(out, fmt.Sprintf("import { css } from '%s';", e.opts.CSSPackage))
	}

	helpers := req.ExternalHelperNames
	switch {
	case req.UsesExternalVars:
		names := append([]string{e.opts.VariablesExport + " as " + transform.VarsAlias}, helpers...)
		out = append(out, fmt.Sprintf("import { %s } from '%s';", strings.Join(names, ", "), e.opts.HelperPackage))
	case len(helpers) > 0:
		out = append(out, fmt.Sprintf("import { %s } from '%s';", strings.Join(helpers, ", "), e.opts.HelperPackage))
	}

	if len(req.ExternalImportNames) > 0 {
		out = append(out, fmt.Sprintf("import { %s } from '%s';", strings.Join(req.ExternalImportNames, ", "), e.opts.UtilsModule))
	}
	if req.UsesLocalVars {
		out = append(out, fmt.Sprintf("import * as %s from '%s';", transform.CustomVarsAlias, e.opts.VariablesPath))
	}
	return out
}

func constantsOnly(symbols []transform.SymbolEntry) bool {
	for _, sym := range symbols {
		if sym.Kind != transform.ConstVar {
			return false
		}
	}
	return true
}

func symbolFor(sym transform.SymbolEntry, single bool) symbolView {
	view := symbolView{
		Name:    sym.Name,
		Params:  sym.Params,
		Body:    sym.Body,
		Notes:   sym.Notes,
		Binding: "const " + sym.Name + " = ",
	}
	switch sym.Kind {
	case transform.Mixin:
		view.Kind = "mixin"
	case transform.ConstVar:
		view.Kind = "const"
		view.Value = literal(sym.RawValue)
	default:
		view.Kind = "css"
	}
	switch {
	case single:
		view.Export = "export default "
		view.Binding = ""
	case sym.Exported():
		view.Export = "export "
	}
	return view
}

// literal quotes a resolved constant value. Values holding interpolations or
// both quote characters become template literals; the value text is already
// escaped for that context.
func literal(value string) string {
	value = strings.ReplaceAll(value, "\n", " ")
	hasSlot := strings.Contains(strings.ReplaceAll(value, `\${`, ""), "${")
	hasSingle := strings.Contains(value, "'")
	hasDouble := strings.Contains(value, `"`)
	switch {
	case hasSlot || (hasSingle && hasDouble):
		return "`" + value + "`"
	case hasSingle:
		return `"` + value + `"`
	default:
		return "'" + value + "'"
	}
}
