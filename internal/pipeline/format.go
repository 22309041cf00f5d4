package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Formatter rewrites a generated module before it is written.
type Formatter interface {
	Format(ctx context.Context, path string, src []byte) ([]byte, error)
}

// CommandFormatter pipes modules through an external command, such as
// prettier, reading the result from stdout. The placeholder {path} in Args
// is replaced with the output path.
type CommandFormatter struct {
	Args []string
	// Dir is the working directory of the command.
	Dir string
}

// Format runs the command with src on stdin.
func (f CommandFormatter) Format(ctx context.Context, path string, src []byte) ([]byte, error) {
	if len(f.Args) == 0 {
		return src, nil
	}
	args := make([]string, len(f.Args))
	for i, arg := range f.Args {
		args[i] = strings.ReplaceAll(arg, "{path}", path)
	}

	// #nosec G204 -- the command comes from the project's own configuration.
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Dir = f.Dir
	cmd.Stdin = bytes.NewReader(src)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%s: %w: %s", args[0], err, msg)
		}
		return nil, fmt.Errorf("%s: %w", args[0], err)
	}
	return stdout.Bytes(), nil
}
