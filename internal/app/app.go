// internal/app/app.go
package app

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"runhulk/internal/cli"
	"runhulk/internal/cmdutil"
	"runhulk/internal/config"
	"runhulk/internal/hulkerr"
	"runhulk/internal/pipeline"
	"runhulk/internal/version"
	"runhulk/internal/writers"
)

const name = "run-hulk"

// ToolsFunc builds the external tool bindings for a resolved config.
type ToolsFunc func(config.Config) pipeline.Tools

// Deps are the seams tests replace.
type Deps struct {
	Tools  ToolsFunc
	Getenv func(string) string
}

func RunContext(parent context.Context, argv []string, stdout, stderr io.Writer) int {
	return RunWith(parent, argv, stdout, stderr, Deps{})
}

func RunWith(parent context.Context, argv []string, stdout, stderr io.Writer, deps Deps) int {
	if deps.Tools == nil {
		deps.Tools = pipeline.ExecTools
	}
	if deps.Getenv == nil {
		deps.Getenv = os.Getenv
	}

	outw := bufio.NewWriter(stdout)
	defer func() { _ = outw.Flush() }()

	fs := cli.NewUsageFlagSet(name)
	fs.SetOutput(io.Discard)

	usage := func(code int) int {
		cli.Usage(outw, name, fs)
		if e := outw.Flush(); writers.IsBrokenPipe(e) {
			return code
		} else if e != nil {
			_, _ = fmt.Fprintln(stderr, e)
			return 3
		}
		return code
	}

	if len(argv) == 0 {
		return usage(0)
	}

	opts, err := cli.ParseArgs(fs, argv)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return usage(0)
		}
		_, _ = fmt.Fprintln(stderr, "Error:", err)
		return usage(2)
	}

	if opts.Version {
		_, _ = fmt.Fprintf(outw, "%s version %s\n", name, version.Version)
		if e := outw.Flush(); e != nil && !writers.IsBrokenPipe(e) {
			_, _ = fmt.Fprintln(stderr, e)
			return 3
		}
		return 0
	}

	cfg, err := opts.Resolve(deps.Getenv)
	if err != nil {
		_, _ = fmt.Fprintln(stderr, "Error:", err)
		return ExitCode(err)
	}

	log := cmdutil.NewLogger(stderr, cfg.Quiet)
	sum, err := pipeline.Run(parent, cfg, deps.Tools(cfg), log)
	if err != nil {
		if parent.Err() != nil {
			_, _ = fmt.Fprintln(stderr, "Error: interrupted")
			return 130
		}
		_, _ = fmt.Fprintln(stderr, "Error:", err)
		return ExitCode(err)
	}

	_, _ = fmt.Fprintln(outw, sum.Matrix.DistancePath)
	if e := outw.Flush(); e != nil && !writers.IsBrokenPipe(e) {
		_, _ = fmt.Fprintln(stderr, e)
		return 3
	}
	return 0
}

// ExitCode maps a pipeline error to the process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, context.Canceled):
		return 130
	case hulkerr.KindOf(err) == hulkerr.KindConfig:
		return 2
	}
	return 3
}

func Run(argv []string, stdout, stderr io.Writer) int {
	return RunContext(context.Background(), argv, stdout, stderr)
}
