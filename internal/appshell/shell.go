package appshell

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"runhulk/internal/cmdutil"
)

// Main loads an optional .env, runs run under a signal-aware context and
// exits with its code.
func Main(run func(context.Context, []string, io.Writer, io.Writer) int) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		cmdutil.Warnf(os.Stderr, false, "ignoring .env: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	argv := os.Args[1:]
	if len(argv) == 0 {
		argv = []string{"-h"}
	}

	code := run(ctx, argv, os.Stdout, os.Stderr)
	// Normalize cancellation exit code.
	if ctx.Err() != nil && code == 0 {
		code = 130
	}

	stop()
	os.Exit(code)
}
