// Package matrix runs the all-pairs comparator over the sketch directory and
// turns its similarity CSV into a labeled distance matrix for plotting.
package matrix

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"runhulk/internal/alias"
	"runhulk/internal/cmdutil"
	"runhulk/internal/config"
	"runhulk/internal/hulkerr"
	"runhulk/internal/sketch"
	"runhulk/internal/tool"
	"runhulk/internal/writers"
)

// DistanceFile is the matrix written into the figures directory.
const DistanceFile = "distance.tab"

type Stage struct {
	Comparator tool.ExternalTool
	Plotter    tool.ExternalTool
	Log        *cmdutil.Logger
}

type Result struct {
	Dir            string // figures directory
	SimilarityPath string
	DistancePath   string
	Labels         []string
	Dropped        int
	Plotted        bool
}

// Run compares every sketch in sketchDir, writes the distance matrix and
// hands it to the plotter. aliases must be the table the sketch stage used.
func (s Stage) Run(ctx context.Context, cfg config.Config, sketchDir string, aliases *alias.Table) (Result, error) {
	figDir := cfg.FiguresDir()
	res := Result{Dir: figDir}

	if err := os.MkdirAll(figDir, 0o755); err != nil {
		return res, hulkerr.IO("matrix", err, "creating %q", figDir)
	}

	prefix := filepath.Join(figDir, tool.SmashPrefix)
	args, err := tool.SmashArgs(cfg.CreateWeightedMatrix, sketchDir, prefix)
	if err != nil {
		return res, hulkerr.ConfigWrap("matrix", err, "building comparator command")
	}
	s.Log.Infof("Comparing sketches in %s", sketchDir)
	out, err := s.Comparator.Invoke(ctx, args)
	if err != nil {
		return res, hulkerr.External("matrix", err, out.Status, string(out.Stderr), "%s smash failed", s.Comparator.Name())
	}

	res.SimilarityPath = tool.SmashOutput(cfg.CreateWeightedMatrix, prefix)
	fh, err := os.Open(res.SimilarityPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return res, hulkerr.External("matrix", nil, "", string(out.Stderr), "failed to create comparator output %q", res.SimilarityPath)
		}
		return res, hulkerr.IO("matrix", err, "opening %q", res.SimilarityPath)
	}
	sim, err := ParseSimilarity(fh, aliases)
	_ = fh.Close()
	if err != nil {
		return res, err
	}
	res.Labels, res.Dropped = sim.Labels, sim.Dropped

	if err := VerifyLabels(sim.Labels, sketchDir, aliases); err != nil {
		return res, err
	}
	if len(sim.Rows) != len(sim.Labels) {
		return res, hulkerr.External("matrix", nil, "", "", "similarity matrix has %d rows for %d labels", len(sim.Rows), len(sim.Labels))
	}
	if sim.Dropped > 0 {
		s.Log.Warnf("dropped %d non-numeric cell%s from %s", sim.Dropped, cmdutil.Plural(sim.Dropped), filepath.Base(res.SimilarityPath))
	}
	if bad := sim.Ragged(); len(bad) > 0 {
		s.Log.Warnf("%d row%s of %s do not have %d values", len(bad), cmdutil.Plural(len(bad)), filepath.Base(res.SimilarityPath), len(sim.Labels))
	}
	if a := sim.Asymmetry(); a > 1e-6 {
		s.Log.Warnf("similarity matrix is not symmetric (max difference %.4g)", a)
	}

	dist := sim.Distance()
	res.DistancePath = filepath.Join(figDir, DistanceFile)
	err = writers.WriteFileAtomic(res.DistancePath, func(w io.Writer) error {
		return writers.WriteDistanceTSV(w, dist.Labels, dist.Rows, FormatDistance)
	})
	if err != nil {
		return res, hulkerr.IO("matrix", err, "writing %q", res.DistancePath)
	}

	if cfg.NoFigures {
		s.Log.Infof("Skipping figures (--no-figures)")
		return res, nil
	}

	plotArgs, err := tool.PlotArgs(figDir, res.DistancePath)
	if err != nil {
		return res, hulkerr.ConfigWrap("matrix", err, "building plot command")
	}
	s.Log.Infof("Making figures")
	pout, err := s.Plotter.Invoke(ctx, plotArgs)
	if err != nil {
		return res, hulkerr.External("matrix", err, pout.Status, string(pout.Stderr), "failed to run %q", s.Plotter.Name())
	}
	res.Plotted = true
	return res, nil
}

// VerifyLabels checks that the comparator's labels are exactly the labels of
// the artifacts in sketchDir. Row labels are assigned by position, so a
// comparator output for some other sketch set would otherwise be mislabeled.
func VerifyLabels(labels []string, sketchDir string, aliases *alias.Table) error {
	arts, err := sketch.ListArtifacts(sketchDir)
	if err != nil {
		return err
	}
	want := make(map[string]int, len(arts))
	for _, a := range arts {
		want[aliases.Label(a)]++
	}
	got := make(map[string]int, len(labels))
	for _, l := range labels {
		got[l]++
	}

	var extra, missing []string
	for l, n := range got {
		if want[l] < n {
			extra = append(extra, l)
		}
	}
	for l, n := range want {
		if got[l] < n {
			missing = append(missing, l)
		}
	}
	if len(extra) == 0 && len(missing) == 0 {
		return nil
	}
	sort.Strings(extra)
	sort.Strings(missing)
	var parts []string
	if len(extra) > 0 {
		parts = append(parts, fmt.Sprintf("unexpected %s", strings.Join(extra, ", ")))
	}
	if len(missing) > 0 {
		parts = append(parts, fmt.Sprintf("missing %s", strings.Join(missing, ", ")))
	}
	return hulkerr.External("matrix", nil, "", "", "comparator labels do not match sketches in %q: %s", sketchDir, strings.Join(parts, "; "))
}
