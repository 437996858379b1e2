package cmdutil

import (
	"fmt"
	"io"
	"sync"
)

// Logger writes leveled lines to stderr-like destinations. Quiet suppresses
// INFO only; warnings always print.
type Logger struct {
	mu    *sync.Mutex // shared with tagged children
	dst   io.Writer
	quiet bool
	tag   string
}

func NewLogger(dst io.Writer, quiet bool) *Logger {
	if dst == nil {
		dst = io.Discard
	}
	return &Logger{mu: new(sync.Mutex), dst: dst, quiet: quiet}
}

// Discard returns a logger that drops everything (tests, library callers).
func Discard() *Logger { return NewLogger(io.Discard, true) }

// WithTag returns a logger prefixing every line with [tag].
func (l *Logger) WithTag(tag string) *Logger {
	if l == nil {
		return nil
	}
	return &Logger{mu: l.mu, dst: l.dst, quiet: l.quiet, tag: tag}
}

func (l *Logger) Infof(format string, a ...any) {
	if l == nil || l.quiet {
		return
	}
	l.emit("INFO", format, a...)
}

func (l *Logger) Warnf(format string, a ...any) {
	if l == nil {
		return
	}
	l.emit("WARN", format, a...)
}

func (l *Logger) emit(level, format string, a ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.tag != "" {
		_, _ = fmt.Fprintf(l.dst, "[%s] ", l.tag)
	}
	_, _ = fmt.Fprintf(l.dst, level+": "+format+"\n", a...)
}

// Warnf is the package-level form kept for one-off callers without a Logger.
func Warnf(dst io.Writer, quiet bool, format string, a ...any) {
	if quiet {
		return
	}
	_, _ = fmt.Fprintf(dst, "WARN: "+format+"\n", a...)
}

// Plural returns "" for n==1 and "s" otherwise.
func Plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
