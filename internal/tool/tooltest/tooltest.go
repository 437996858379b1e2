// Package tooltest provides in-process ExternalTool fakes for stage tests.
package tooltest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"runhulk/internal/tool"
)

// Func is an ExternalTool backed by a Go function. Calls are recorded.
type Func struct {
	ToolName string
	CheckErr error
	Fn       func(ctx context.Context, args []string) (tool.Output, error)

	mu    sync.Mutex
	calls [][]string
}

func (f *Func) Name() string { return f.ToolName }
func (f *Func) Check() error { return f.CheckErr }

func (f *Func) Invoke(ctx context.Context, args []string) (tool.Output, error) {
	f.mu.Lock()
	f.calls = append(f.calls, append([]string(nil), args...))
	f.mu.Unlock()
	if f.Fn == nil {
		return tool.Output{}, nil
	}
	return f.Fn(ctx, args)
}

// Calls returns a copy of the recorded argument vectors.
func (f *Func) Calls() [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]string(nil), f.calls...)
}

// Flag returns the value following name in args.
func Flag(args []string, name string) (string, bool) {
	for i := 0; i+1 < len(args); i++ {
		if args[i] == name {
			return args[i+1], true
		}
	}
	return "", false
}

// Fail builds a failed invocation result.
func Fail(status, stderr string) (tool.Output, error) {
	return tool.Output{Status: status, Stderr: []byte(stderr)}, errors.New(status)
}

// Sketcher fakes `hulk sketch`: it writes <-o>.sketch unless fail reports
// true for the -f input.
func Sketcher(fail func(input string) bool) *Func {
	return &Func{
		ToolName: "hulk",
		Fn: func(_ context.Context, args []string) (tool.Output, error) {
			in, _ := Flag(args, "-f")
			if fail != nil && fail(in) {
				return Fail("exit status 1", "cannot read "+in+"\n")
			}
			prefix, _ := Flag(args, "-o")
			if err := os.WriteFile(prefix+tool.SketchExt, []byte("sketch of "+in+"\n"), 0o644); err != nil {
				return Fail("exit status 2", err.Error())
			}
			return tool.Output{}, nil
		},
	}
}

// Comparator fakes `hulk smash`: it lists the *.sketch files in -d and writes
// an N×N CSV next to --outFile. sim gives the 0–100 similarity of (i, j);
// nil means 100 on the diagonal and 50 elsewhere.
func Comparator(sim func(i, j int) float64) *Func {
	if sim == nil {
		sim = func(i, j int) float64 {
			if i == j {
				return 100
			}
			return 50
		}
	}
	return &Func{
		ToolName: "hulk",
		Fn: func(_ context.Context, args []string) (tool.Output, error) {
			dir, _ := Flag(args, "-d")
			prefix, _ := Flag(args, "--outFile")
			weighted := len(args) > 1 && args[1] == "--wjsMatrix"

			entries, err := os.ReadDir(dir)
			if err != nil {
				return Fail("exit status 1", err.Error())
			}
			var names []string
			for _, e := range entries {
				if strings.HasSuffix(e.Name(), tool.SketchExt) {
					names = append(names, filepath.Join(dir, e.Name()))
				}
			}
			sort.Strings(names)

			var b strings.Builder
			b.WriteString(strings.Join(names, ","))
			b.WriteString("\n")
			for i := range names {
				cells := make([]string, len(names))
				for j := range names {
					cells[j] = strconv.FormatFloat(sim(i, j), 'f', -1, 64)
				}
				b.WriteString(strings.Join(cells, ","))
				b.WriteString("\n")
			}
			b.WriteString("\n")
			if err := os.WriteFile(tool.SmashOutput(weighted, prefix), []byte(b.String()), 0o644); err != nil {
				return Fail("exit status 1", err.Error())
			}
			return tool.Output{}, nil
		},
	}
}
