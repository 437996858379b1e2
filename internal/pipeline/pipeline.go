package pipeline

import (
	"context"
	"os"
	"time"

	"github.com/google/uuid"

	"runhulk/internal/cmdutil"
	"runhulk/internal/config"
	"runhulk/internal/discover"
	"runhulk/internal/hulkerr"
	"runhulk/internal/jobrun"
	"runhulk/internal/manifest"
	"runhulk/internal/matrix"
	"runhulk/internal/sketch"
	"runhulk/internal/tool"
	"runhulk/internal/version"
)

// Tools are the external programs a run needs.
type Tools struct {
	Sketcher   tool.ExternalTool
	Comparator tool.ExternalTool
	Plotter    tool.ExternalTool
}

// ExecTools binds Tools to executables named by cfg.
func ExecTools(cfg config.Config) Tools {
	// hulk's stdout is progress chatter; its outputs are files.
	hulk := tool.Exec{Path: cfg.HulkExe, DiscardStdout: true}
	return Tools{
		Sketcher:   hulk,
		Comparator: hulk,
		Plotter:    tool.Exec{Path: cfg.PlotterPath()},
	}
}

// Summary is what a successful run produced.
type Summary struct {
	RunID        string
	Files        []string
	Sketch       sketch.Result
	Matrix       matrix.Result
	ManifestPath string
}

// Run executes the pipeline for cfg, which must already be validated.
func Run(ctx context.Context, cfg config.Config, tools Tools, log *cmdutil.Logger) (Summary, error) {
	sum := Summary{RunID: uuid.NewString()}
	started := time.Now().UTC()
	log = log.WithTag(sum.RunID[:8])
	log.Infof("run %s: %s", sum.RunID, cfg)

	re, err := cfg.PatternRegexp()
	if err != nil {
		return sum, err
	}
	files, err := discover.Discover(cfg.Query, re)
	if err != nil {
		return sum, err
	}
	sum.Files = files
	log.Infof("Will process %d file%s", len(files), cmdutil.Plural(len(files)))

	if err := os.MkdirAll(cfg.OutDir, 0o755); err != nil {
		return sum, hulkerr.IO("pipeline", err, "creating %q", cfg.OutDir)
	}

	sk := sketch.Stage{
		Sketcher: tools.Sketcher,
		Runner:   jobrun.Runner{Concurrency: cfg.Jobs, Log: log},
		Log:      log,
	}
	sum.Sketch, err = sk.Run(ctx, cfg, files)
	if err != nil {
		return sum, err
	}
	log.Infof("Sketch dir = %s (%d new, %d cached)", sum.Sketch.Dir, len(sum.Sketch.Queued), len(sum.Sketch.Cached))

	if err := ctx.Err(); err != nil {
		return sum, err
	}

	mx := matrix.Stage{Comparator: tools.Comparator, Plotter: tools.Plotter, Log: log}
	sum.Matrix, err = mx.Run(ctx, cfg, sum.Sketch.Dir, sum.Sketch.Aliases)
	if err != nil {
		return sum, err
	}

	m := manifest.Manifest{
		RunID:       sum.RunID,
		Version:     version.Version,
		StartedAt:   started,
		FinishedAt:  time.Now().UTC(),
		Config:      cfg,
		Inputs:      files,
		Sketched:    sum.Sketch.Queued,
		Cached:      sum.Sketch.Cached,
		Stale:       sum.Sketch.Stale,
		SketchDir:   sum.Sketch.Dir,
		Similarity:  sum.Matrix.SimilarityPath,
		Distance:    sum.Matrix.DistancePath,
		Labels:      sum.Matrix.Labels,
		DroppedCell: sum.Matrix.Dropped,
		Plotted:     sum.Matrix.Plotted,
	}
	for _, s := range sum.Sketch.AliasReport.Skipped {
		m.AliasSkips = append(m.AliasSkips, manifest.AliasSkip{Line: s.Line, Reason: s.Reason})
	}
	sum.ManifestPath, err = manifest.Write(cfg.OutDir, m)
	if err != nil {
		return sum, hulkerr.IO("pipeline", err, "writing run manifest")
	}

	log.Infof("Done, see output in %q", sum.Matrix.Dir)
	return sum, nil
}
