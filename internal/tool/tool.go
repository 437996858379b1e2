// Package tool is the narrow capability the pipeline uses to run external
// programs (sketcher, comparator, plotter), plus typed argument builders for
// each of them.
package tool

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
)

// Output is what a finished invocation left behind.
type Output struct {
	Stdout []byte
	Stderr []byte
	Status string // e.g. "exit status 1"; empty on success
}

// ExternalTool runs one program with an argument vector.
// Invoke returns a non-nil error when the program could not be started or
// exited unsuccessfully; Output is populated as far as possible either way.
type ExternalTool interface {
	Name() string
	Check() error
	Invoke(ctx context.Context, args []string) (Output, error)
}

// Exec binds ExternalTool to an executable on disk or on PATH.
type Exec struct {
	Path string

	// DiscardStdout drops the child's stdout instead of buffering it.
	DiscardStdout bool
	// StderrLimit caps buffered stderr (bytes, tail kept); 0 means 64 KiB.
	StderrLimit int
}

func (e Exec) Name() string { return e.Path }

// Check reports whether the executable can be located.
func (e Exec) Check() error {
	if _, err := exec.LookPath(e.Path); err != nil {
		return fmt.Errorf("cannot find %q: %w", e.Path, err)
	}
	return nil
}

func (e Exec) Invoke(ctx context.Context, args []string) (Output, error) {
	cmd := exec.CommandContext(ctx, e.Path, args...)

	var stdout bytes.Buffer
	if e.DiscardStdout {
		cmd.Stdout = io.Discard
	} else {
		cmd.Stdout = &stdout
	}
	limit := e.StderrLimit
	if limit <= 0 {
		limit = 64 << 10
	}
	stderr := &tailBuffer{limit: limit}
	cmd.Stderr = stderr

	err := cmd.Run()
	out := Output{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}
	if err != nil {
		var ee *exec.ExitError
		if errors.As(err, &ee) {
			out.Status = ee.ProcessState.String()
		}
		return out, err
	}
	return out, nil
}

// tailBuffer keeps only the last limit bytes written.
type tailBuffer struct {
	limit int
	buf   []byte
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	n := len(p)
	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.limit; over > 0 {
		t.buf = append(t.buf[:0], t.buf[over:]...)
	}
	return n, nil
}

func (t *tailBuffer) Bytes() []byte { return t.buf }
