// Package hulkerr classifies pipeline failures so the app can map them to
// exit codes and tests can assert on the failure kind.
package hulkerr

import (
	"errors"
	"fmt"
	"strings"
)

type Kind int

const (
	KindConfig           Kind = iota + 1 // bad inputs, empty discovery, unreadable alias file
	KindIO                               // filesystem failures
	KindRun                              // job batch could not start or failed
	KindIncompleteOutput                 // artifact count mismatch after a stage
	KindExternalTool                     // one-shot external invocation failed
)

func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "config error"
	case KindIO:
		return "io error"
	case KindRun:
		return "run error"
	case KindIncompleteOutput:
		return "incomplete output"
	case KindExternalTool:
		return "external tool error"
	}
	return "error"
}

// Error is the single error type produced by the pipeline packages.
type Error struct {
	Kind Kind
	Op   string // short operation name, e.g. "discover", "sketch"
	Msg  string
	Err  error

	// Set for KindExternalTool and KindRun when a process ran.
	Status string
	Stderr string
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(e.Msg)
	if e.Status != "" {
		fmt.Fprintf(&b, " (%s)", e.Status)
	}
	if e.Err != nil {
		if e.Msg != "" {
			b.WriteString(": ")
		}
		b.WriteString(e.Err.Error())
	}
	if s := strings.TrimSpace(e.Stderr); s != "" {
		b.WriteString("\n")
		b.WriteString(s)
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

func Config(op, format string, a ...any) error {
	return &Error{Kind: KindConfig, Op: op, Msg: fmt.Sprintf(format, a...)}
}

// ConfigWrap is Config with an underlying cause.
func ConfigWrap(op string, err error, format string, a ...any) error {
	return &Error{Kind: KindConfig, Op: op, Msg: fmt.Sprintf(format, a...), Err: err}
}

func IO(op string, err error, format string, a ...any) error {
	return &Error{Kind: KindIO, Op: op, Msg: fmt.Sprintf(format, a...), Err: err}
}

func Run(op string, err error, format string, a ...any) error {
	return &Error{Kind: KindRun, Op: op, Msg: fmt.Sprintf(format, a...), Err: err}
}

func Incomplete(op, format string, a ...any) error {
	return &Error{Kind: KindIncompleteOutput, Op: op, Msg: fmt.Sprintf(format, a...)}
}

// External builds a KindExternalTool error. status and stderr may be empty
// when the tool could not be started at all.
func External(op string, err error, status, stderr, format string, a ...any) error {
	return &Error{
		Kind:   KindExternalTool,
		Op:     op,
		Msg:    fmt.Sprintf(format, a...),
		Err:    err,
		Status: status,
		Stderr: stderr,
	}
}

// Is reports whether any *Error in err's chain has kind k.
func Is(err error, k Kind) bool {
	var he *Error
	for err != nil {
		if !errors.As(err, &he) {
			return false
		}
		if he.Kind == k {
			return true
		}
		err = he.Err
	}
	return false
}

// KindOf returns the outermost Kind in err's chain, or 0.
func KindOf(err error) Kind {
	var he *Error
	if errors.As(err, &he) {
		return he.Kind
	}
	return 0
}
