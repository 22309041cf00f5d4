package diagnostics

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// Reporter prints a Registry grouped by file: the path bold and underlined,
// then one red bullet per message.
type Reporter struct {
	// Color enables ANSI colors regardless of terminal detection.
	Color bool
	// Sources, when set, adds the offending source lines under each message.
	Sources *ContextExtractor
	// ContextLines is the number of lines shown around a located message.
	ContextLines int
}

// Write renders every file in the registry to w.
func (r Reporter) Write(w io.Writer, reg *Registry) error {
	header := color.New(color.Bold, color.Underline)
	bullet := color.New(color.FgRed)
	faint := color.New(color.Faint)
	for _, c := range []*color.Color{header, bullet, faint} {
		if r.Color {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}

	var b strings.Builder
	for _, path := range reg.Files() {
		b.WriteString(header.Sprint(path))
		b.WriteString("\n\n")
		for _, d := range reg.Diagnostics(path) {
			b.WriteString(bullet.Sprintf("- %s", d.Message))
			b.WriteString("\n")
			if snippet := r.snippet(d); snippet != "" {
				b.WriteString(faint.Sprint(snippet))
			}
		}
		b.WriteString("\n")
	}
	_, err := fmt.Fprint(w, b.String())
	return err
}

func (r Reporter) snippet(d Diagnostic) string {
	if r.Sources == nil || !d.HasLocation() {
		return ""
	}
	ctx, err := r.Sources.ExtractContext(d.Location.Path, d.Location.Line, d.Location.Column, r.ContextLines)
	if err != nil {
		return ""
	}
	return ctx.Format()
}
