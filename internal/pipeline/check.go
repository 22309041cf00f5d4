package pipeline

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// StaleFile is an output whose content on disk differs from what the run
// would generate.
type StaleFile struct {
	Path string
	// Diff lists removed lines prefixed "- " and added lines prefixed "+ ".
	Diff string
}

// CheckError reports stale outputs found by a check run.
type CheckError struct {
	Stale []StaleFile
}

func (e *CheckError) Error() string {
	paths := make([]string, len(e.Stale))
	for i, f := range e.Stale {
		paths[i] = f.Path
	}
	return fmt.Sprintf("%d generated file(s) out of date: %s", len(e.Stale), strings.Join(paths, ", "))
}

func checkOutputs(r OutputReader, files []File) error {
	var stale []StaleFile
	for _, file := range files {
		existing, err := readExisting(r, file.Path)
		if err != nil {
			return &WriteError{Path: file.Path, Err: err}
		}
		if existing == string(file.Content) {
			continue
		}
		stale = append(stale, StaleFile{Path: file.Path, Diff: lineDiff(existing, string(file.Content))})
	}
	if len(stale) > 0 {
		return &CheckError{Stale: stale}
	}
	return nil
}

// readExisting returns the current content at path; a missing file reads as
// empty.
func readExisting(r OutputReader, path string) (string, error) {
	data, err := r.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	return string(data), err
}

// lineDiff renders the changed lines between two texts.
func lineDiff(before, after string) string {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var sb strings.Builder
	for _, d := range diffs {
		var prefix string
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			prefix = "+ "
		case diffmatchpatch.DiffDelete:
			prefix = "- "
		default:
			continue
		}
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			sb.WriteString(prefix)
			sb.WriteString(line)
			if !strings.HasSuffix(line, "\n") {
				sb.WriteByte('\n')
			}
		}
	}
	return sb.String()
}
