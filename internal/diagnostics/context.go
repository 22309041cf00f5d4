package diagnostics

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"
	"sync"
)

// ContextExtractor serves source lines for diagnostics. Sources are registered
// by the pipeline once read, so reporting never touches the filesystem again.
type ContextExtractor struct {
	mu    sync.RWMutex
	cache map[string][]string
}

// NewContextExtractor creates an empty extractor.
func NewContextExtractor() *ContextExtractor {
	return &ContextExtractor{cache: make(map[string][]string)}
}

// Register stores the content of path.
func (e *ContextExtractor) Register(path string, content []byte) {
	lines := splitLines(content)
	e.mu.Lock()
	e.cache[path] = lines
	e.mu.Unlock()
}

// ExtractContext extracts lines around a specific location.
func (e *ContextExtractor) ExtractContext(path string, line, column, contextLines int) (Context, error) {
	e.mu.RLock()
	lines, ok := e.cache[path]
	e.mu.RUnlock()
	if !ok {
		return Context{}, fmt.Errorf("no source registered for %s", path)
	}
	if line < 1 || line > len(lines) {
		return Context{}, fmt.Errorf("line %d out of range [1, %d]", line, len(lines))
	}

	startLine := max(line-contextLines, 1)
	endLine := min(line+contextLines, len(lines))

	return Context{
		Lines:       append([]string(nil), lines[startLine-1:endLine]...),
		StartLine:   startLine,
		ErrorLine:   line,
		ErrorColumn: column,
	}, nil
}

func splitLines(data []byte) []string {
	var lines []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines
}

// Context represents extracted code context.
type Context struct {
	Lines       []string
	StartLine   int
	ErrorLine   int
	ErrorColumn int
}

// IsEmpty returns true if the context has no lines.
func (c Context) IsEmpty() bool {
	return len(c.Lines) == 0
}

// Format formats the context for display with line numbers.
func (c Context) Format() string {
	if c.IsEmpty() {
		return ""
	}

	var b strings.Builder
	maxLineNum := c.StartLine + len(c.Lines) - 1
	lineNumWidth := len(fmt.Sprintf("%d", maxLineNum))

	for i, line := range c.Lines {
		lineNum := c.StartLine + i
		if lineNum == c.ErrorLine {
			fmt.Fprintf(&b, "> %*d | ", lineNumWidth, lineNum)
		} else {
			fmt.Fprintf(&b, "  %*d | ", lineNumWidth, lineNum)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}
