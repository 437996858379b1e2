package tool

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// SketchOptions are the pass-through knobs of `hulk sketch`.
type SketchOptions struct {
	Threads       int
	KmerSize      int
	SketchSize    int
	Interval      int
	MinKmerCount  int
	ReadsAreFasta bool
}

// MaxSketchThreads is the exclusive upper bound for -p; values outside
// (0, MaxSketchThreads) are left to the tool's default.
const MaxSketchThreads = 64

// SketchExt is the suffix hulk appends to the -o prefix.
const SketchExt = ".sketch"

// SketchFlags builds the option fragment shared by every sketch job.
// Options at their "unset" value are omitted so the tool applies its own default.
func SketchFlags(o SketchOptions) []string {
	var args []string
	if o.Threads > 0 && o.Threads < MaxSketchThreads {
		args = append(args, "-p", strconv.Itoa(o.Threads))
	}
	if o.KmerSize > 0 {
		args = append(args, "-k", strconv.Itoa(o.KmerSize))
	}
	if o.SketchSize > 0 {
		args = append(args, "-s", strconv.Itoa(o.SketchSize))
	}
	if o.Interval > 0 {
		args = append(args, "-i", strconv.Itoa(o.Interval))
	}
	if o.MinKmerCount > 1 {
		args = append(args, "-m", strconv.Itoa(o.MinKmerCount))
	}
	if o.ReadsAreFasta {
		args = append(args, "--fasta")
	}
	return args
}

// SketchArgs is the full argv for sketching input into outPrefix(.sketch).
func SketchArgs(flags []string, outPrefix, input string) ([]string, error) {
	if err := checkPath("output prefix", outPrefix); err != nil {
		return nil, err
	}
	if err := checkPath("input", input); err != nil {
		return nil, err
	}
	args := make([]string, 0, len(flags)+5)
	args = append(args, "sketch")
	args = append(args, flags...)
	args = append(args, "-o", outPrefix, "-f", input)
	return args, nil
}

// SmashPrefix is the --outFile basename given to the comparator.
const SmashPrefix = "hulk"

// SmashArgs is the argv for an all-vs-all comparison of sketchDir.
func SmashArgs(weighted bool, sketchDir, outPrefix string) ([]string, error) {
	if err := checkPath("sketch dir", sketchDir); err != nil {
		return nil, err
	}
	if err := checkPath("output prefix", outPrefix); err != nil {
		return nil, err
	}
	mode := "--jsMatrix"
	if weighted {
		mode = "--wjsMatrix"
	}
	dir := sketchDir
	if !strings.HasSuffix(dir, "/") {
		dir += "/"
	}
	return []string{"smash", mode, "-d", dir, "--outFile", outPrefix}, nil
}

// SmashOutput is the CSV the comparator writes for outPrefix.
func SmashOutput(weighted bool, outPrefix string) string {
	if weighted {
		return outPrefix + ".wjs-matrix.csv"
	}
	return outPrefix + ".js-matrix.csv"
}

// PlotArgs is the argv for the figure script.
func PlotArgs(figDir, matrixPath string) ([]string, error) {
	if err := checkPath("figures dir", figDir); err != nil {
		return nil, err
	}
	if err := checkPath("matrix", matrixPath); err != nil {
		return nil, err
	}
	return []string{"-o", figDir, "-m", matrixPath}, nil
}

// checkPath rejects values the receiving tool would misparse as a flag or
// that are empty. Relative paths starting with '-' are made explicit instead.
func checkPath(what, p string) error {
	switch {
	case strings.TrimSpace(p) == "":
		return fmt.Errorf("empty %s path", what)
	case strings.ContainsRune(p, 0):
		return fmt.Errorf("%s path %q contains NUL", what, p)
	case strings.HasPrefix(p, "-") && !filepath.IsAbs(p):
		return fmt.Errorf("%s path %q looks like a flag; prefix it with ./", what, p)
	}
	return nil
}
