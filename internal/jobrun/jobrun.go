// Package jobrun executes a batch of independent tool invocations with a
// concurrency cap and fail-fast semantics.
//
// After the first failure no further job is launched; jobs already running
// are allowed to finish. Only cancellation of the parent context (e.g. SIGINT)
// interrupts running processes.
package jobrun

import (
	"context"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"runhulk/internal/cmdutil"
	"runhulk/internal/hulkerr"
	"runhulk/internal/tool"
)

// Job is one command in a batch.
type Job struct {
	Tool  tool.ExternalTool
	Args  []string
	Label string // shown in logs and errors, typically the input file
}

// String renders the job as a shell-like line for logs.
func (j Job) String() string {
	parts := make([]string, 0, len(j.Args)+1)
	parts = append(parts, j.Tool.Name())
	for _, a := range j.Args {
		if a == "" || strings.ContainsAny(a, " \t'\"") {
			a = "'" + strings.ReplaceAll(a, "'", `'\''`) + "'"
		}
		parts = append(parts, a)
	}
	return strings.Join(parts, " ")
}

type Runner struct {
	Concurrency int
	Log         *cmdutil.Logger
}

// Stats reports what a batch did.
type Stats struct {
	Launched  int
	Succeeded int
	Failed    int
}

// Run executes jobs. An empty batch is a no-op. The returned error is a
// hulkerr KindRun describing the first failure.
func (r Runner) Run(ctx context.Context, label string, jobs []Job) (Stats, error) {
	var st Stats
	if len(jobs) == 0 {
		return st, nil
	}
	n := r.Concurrency
	if n < 1 {
		n = 1
	}

	checked := map[string]bool{}
	for _, j := range jobs {
		name := j.Tool.Name()
		if checked[name] {
			continue
		}
		if err := j.Tool.Check(); err != nil {
			return st, hulkerr.Run("jobrun", err, "%s: cannot start batch", label)
		}
		checked[name] = true
	}

	r.Log.Infof("%s (# %d job%s @ %d)", label, len(jobs), cmdutil.Plural(len(jobs)), n)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(n)

	var mu sync.Mutex
	for _, j := range jobs {
		if gctx.Err() != nil {
			break
		}
		j := j
		g.Go(func() error {
			// A slot may free up only after a sibling failed.
			if gctx.Err() != nil {
				return nil
			}
			mu.Lock()
			st.Launched++
			mu.Unlock()
			r.Log.Infof("%s", j)

			out, err := j.Tool.Invoke(ctx, j.Args)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				st.Failed++
				return &hulkerr.Error{
					Kind:   hulkerr.KindRun,
					Op:     "jobrun",
					Msg:    label + ": job " + j.Label + " failed",
					Err:    err,
					Status: out.Status,
					Stderr: string(out.Stderr),
				}
			}
			st.Succeeded++
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		r.Log.Warnf("%s: %d/%d job%s launched, %d failed", label, st.Launched, len(jobs), cmdutil.Plural(len(jobs)), st.Failed)
		return st, err
	}
	if ctx.Err() != nil {
		return st, hulkerr.Run("jobrun", ctx.Err(), "%s: interrupted", label)
	}
	return st, nil
}
