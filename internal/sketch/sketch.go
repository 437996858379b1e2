// Package sketch turns input sequence files into one sketch artifact each,
// skipping inputs whose artifact already exists, then verifies that the
// sketch directory holds exactly one artifact per input.
package sketch

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"runhulk/internal/alias"
	"runhulk/internal/cmdutil"
	"runhulk/internal/config"
	"runhulk/internal/hulkerr"
	"runhulk/internal/jobrun"
	"runhulk/internal/seqfile"
	"runhulk/internal/tool"
)

// Job pairs an input with the prefix handed to the sketcher (-o) and the
// artifact the sketcher will write.
type Job struct {
	Input    string
	Prefix   string
	Artifact string
}

// Result is the stage's output and skip report.
type Result struct {
	Dir       string
	Queued    []string // inputs sketched in this run
	Cached    []string // inputs whose artifact already existed
	Stale     []string // zero-byte artifacts removed and re-queued
	Artifacts int

	// Aliases is the table loaded for this run; the matrix stage reuses it.
	Aliases     *alias.Table
	AliasReport alias.Report
}

type Stage struct {
	Sketcher tool.ExternalTool
	Runner   jobrun.Runner
	Log      *cmdutil.Logger
}

// ArtifactPath is where the artifact for input lands in dir.
func ArtifactPath(dir string, t *alias.Table, input string) (prefix, artifact string) {
	prefix = filepath.Join(dir, t.Resolve(input))
	return prefix, prefix + tool.SketchExt
}

// Plan computes the jobs for files. Inputs that map onto the same artifact
// are a configuration error since one would silently overwrite the other.
func Plan(dir string, t *alias.Table, files []string) ([]Job, error) {
	owner := make(map[string]string, len(files))
	jobs := make([]Job, 0, len(files))
	for _, f := range files {
		prefix, art := ArtifactPath(dir, t, f)
		if prev, dup := owner[art]; dup {
			return nil, hulkerr.Config("sketch", "%q and %q both map to artifact %q", prev, f, filepath.Base(art))
		}
		owner[art] = f
		jobs = append(jobs, Job{Input: f, Prefix: prefix, Artifact: art})
	}
	return jobs, nil
}

// Run executes the stage for files (already sorted by discovery).
func (s Stage) Run(ctx context.Context, cfg config.Config, files []string) (Result, error) {
	dir := cfg.SketchDir()
	res := Result{Dir: dir}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return res, hulkerr.IO("sketch", err, "creating %q", dir)
	}

	aliases, rep, err := alias.Load(cfg.AliasFile)
	if err != nil {
		return res, err
	}
	for _, sk := range rep.Skipped {
		s.Log.Warnf("%s:%d: %s", cfg.AliasFile, sk.Line, sk.Reason)
	}
	res.Aliases, res.AliasReport = aliases, rep

	plan, err := Plan(dir, aliases, files)
	if err != nil {
		return res, err
	}

	flags := tool.SketchFlags(tool.SketchOptions{
		Threads:       cfg.Threads,
		KmerSize:      cfg.KmerSize,
		SketchSize:    cfg.SketchSize,
		Interval:      cfg.Interval,
		MinKmerCount:  cfg.MinKmerCount,
		ReadsAreFasta: cfg.ReadsAreFasta,
	})

	var batch []jobrun.Job
	for _, j := range plan {
		cached, stale, err := artifactState(j.Artifact)
		if err != nil {
			return res, err
		}
		if stale {
			if err := os.Remove(j.Artifact); err != nil {
				return res, hulkerr.IO("sketch", err, "removing empty artifact %q", j.Artifact)
			}
			res.Stale = append(res.Stale, j.Input)
			s.Log.Warnf("re-sketching %s: existing artifact is empty", j.Input)
		}
		if cached {
			res.Cached = append(res.Cached, j.Input)
			continue
		}
		args, err := tool.SketchArgs(flags, j.Prefix, j.Input)
		if err != nil {
			return res, hulkerr.ConfigWrap("sketch", err, "building sketch command for %q", j.Input)
		}
		batch = append(batch, jobrun.Job{Tool: s.Sketcher, Args: args, Label: j.Input})
		res.Queued = append(res.Queued, j.Input)
	}

	s.checkFormats(cfg.ReadsAreFasta, res.Queued)

	if len(batch) > 0 {
		runner := s.Runner
		if cfg.Jobs > 0 {
			runner.Concurrency = cfg.Jobs
		}
		if runner.Log == nil {
			runner.Log = s.Log
		}
		if _, err := runner.Run(ctx, "Sketching files", batch); err != nil {
			return res, err
		}
	} else {
		s.Log.Infof("No sketch jobs to run, skipping this step")
	}

	found, err := ListArtifacts(dir)
	if err != nil {
		return res, err
	}
	res.Artifacts = len(found)
	if len(found) != len(files) {
		return res, hulkerr.Incomplete("sketch", "failed to create all sketches: have %d, want %d%s",
			len(found), len(files), missingSuffix(plan, found))
	}
	// The count can match while a leftover from an earlier run stands in
	// for an artifact this run failed to write.
	if miss := missingSuffix(plan, found); miss != "" {
		s.Log.Warnf("sketch count matches but artifacts differ from the inputs%s", miss)
	}
	return res, nil
}

// artifactState reports whether path counts as cached, or is a zero-byte
// leftover that must be redone.
func artifactState(path string) (cached, stale bool, err error) {
	fi, err := os.Stat(path)
	switch {
	case os.IsNotExist(err):
		return false, false, nil
	case err != nil:
		return false, false, hulkerr.IO("sketch", err, "checking %q", path)
	case !fi.Mode().IsRegular():
		return false, false, hulkerr.Config("sketch", "artifact path %q is not a regular file", path)
	case fi.Size() == 0:
		return false, true, nil
	}
	return true, false, nil
}

// ListArtifacts returns the sorted artifact files directly inside dir.
func ListArtifacts(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, hulkerr.IO("sketch", err, "reading %q", dir)
	}
	var out []string
	for _, e := range entries {
		if !e.Type().IsRegular() || !strings.HasSuffix(e.Name(), tool.SketchExt) {
			continue
		}
		out = append(out, filepath.Join(dir, e.Name()))
	}
	sort.Strings(out)
	return out, nil
}

func missingSuffix(plan []Job, found []string) string {
	have := make(map[string]struct{}, len(found))
	for _, f := range found {
		have[f] = struct{}{}
	}
	var missing []string
	for _, j := range plan {
		if _, ok := have[j.Artifact]; !ok {
			missing = append(missing, filepath.Base(j.Artifact))
		}
	}
	if len(missing) == 0 {
		return ""
	}
	const show = 5
	if len(missing) > show {
		missing = append(missing[:show], "…")
	}
	return "; missing " + strings.Join(missing, ", ")
}

// checkFormats warns when the inputs disagree with --reads_are_fasta.
// Unreadable inputs are left for the sketcher to report.
func (s Stage) checkFormats(readsAreFasta bool, inputs []string) {
	var mismatched int
	var example string
	for _, in := range inputs {
		f, err := seqfile.Sniff(in)
		if err != nil || f == seqfile.Unknown {
			continue
		}
		if (f == seqfile.FASTA) != readsAreFasta {
			if mismatched == 0 {
				example = in + " looks like " + f.String()
			}
			mismatched++
		}
	}
	if mismatched == 0 {
		return
	}
	if readsAreFasta {
		s.Log.Warnf("--reads_are_fasta is set but %d input%s are not FASTA (%s)", mismatched, cmdutil.Plural(mismatched), example)
		return
	}
	s.Log.Warnf("%d input%s look like FASTA; pass --reads_are_fasta (%s)", mismatched, cmdutil.Plural(mismatched), example)
}
