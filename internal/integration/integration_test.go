// internal/integration/integration_test.go
package integration

import (
	"bytes"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"runhulk/internal/app"
)

const fakeHulk = `#!/bin/sh
cmd=$1; shift
case "$cmd" in
sketch)
  out=""; in=""
  while [ $# -gt 0 ]; do
    case "$1" in
      -o) out=$2; shift 2 ;;
      -f) in=$2; shift 2 ;;
      --fasta) shift ;;
      *) shift 2 ;;
    esac
  done
  [ -r "$in" ] || { echo "cannot read $in" >&2; exit 1; }
  if grep -q FAIL "$in"; then echo "bad input $in" >&2; exit 1; fi
  echo sketch > "$out.sketch"
  ;;
smash)
  mode=$1; dir=$3; out=$5
  suffix=js
  [ "$mode" = "--wjsMatrix" ] && suffix=wjs
  files=$(ls "$dir"*.sketch)
  {
    echo $files | tr ' ' ','
    i=0
    for f in $files; do
      row=""; j=0
      for g in $files; do
        if [ $i -eq $j ]; then v=100; else v=37.5; fi
        row="$row${row:+,}$v"
        j=$((j+1))
      done
      echo "$row"
      i=$((i+1))
    done
    echo
  } > "$out.$suffix-matrix.csv"
  ;;
*)
  echo "unknown command $cmd" >&2; exit 2 ;;
esac
`

const fakePlot = `#!/bin/sh
# -o figdir -m matrix
touch "$2/plotted"
`

type env struct {
	hulk   string
	binDir string
	reads  string
	out    string
}

func setup(t *testing.T, samples map[string]string) env {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake tools are shell scripts")
	}
	root := t.TempDir()
	e := env{
		hulk:   filepath.Join(root, "bin", "hulk"),
		binDir: filepath.Join(root, "bin"),
		reads:  filepath.Join(root, "reads"),
		out:    filepath.Join(root, "hulk-out"),
	}
	require.NoError(t, os.MkdirAll(e.binDir, 0o755))
	require.NoError(t, os.MkdirAll(e.reads, 0o755))
	require.NoError(t, os.WriteFile(e.hulk, []byte(fakeHulk), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(e.binDir, "make_figures.r"), []byte(fakePlot), 0o755))
	for name, body := range samples {
		require.NoError(t, os.WriteFile(filepath.Join(e.reads, name), []byte(body), 0o644))
	}
	return e
}

func (e env) run(t *testing.T, extra ...string) (int, string, string) {
	t.Helper()
	args := append([]string{"-q", e.reads, "-o", e.out, "--hulk", e.hulk, "-b", e.binDir, "-f"}, extra...)
	var out, errBuf bytes.Buffer
	code := app.Run(args, &out, &errBuf)
	return code, out.String(), errBuf.String()
}

func distanceLines(t *testing.T, e env) []string {
	t.Helper()
	b, err := os.ReadFile(filepath.Join(e.out, "figures", "distance.tab"))
	require.NoError(t, err)
	return strings.Split(strings.TrimSuffix(string(b), "\n"), "\n")
}

var three = map[string]string{
	"sample1.fa": ">a\nACGTACGT\n",
	"sample2.fa": ">b\nACGTTTTT\n",
	"sample3.fa": ">c\nGGGGACGT\n",
}

func TestEndToEnd(t *testing.T) {
	e := setup(t, three)
	code, stdout, stderr := e.run(t)
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "distance.tab")

	sketches, _ := filepath.Glob(filepath.Join(e.out, "sketches", "*.sketch"))
	assert.Len(t, sketches, 3)

	lines := distanceLines(t, e)
	require.Len(t, lines, 4)
	assert.Equal(t, "\tsample1.fa\tsample2.fa\tsample3.fa", lines[0])
	assert.Equal(t, "sample1.fa\t0.0000\t0.6250\t0.6250", lines[1])
	for _, l := range lines[1:] {
		assert.Len(t, strings.Split(l, "\t"), 4)
	}
	assert.FileExists(t, filepath.Join(e.out, "figures", "plotted"))
	assert.FileExists(t, filepath.Join(e.out, "run.json"))
}

func TestEndToEndWithAliases(t *testing.T) {
	e := setup(t, three)
	aliasFile := filepath.Join(t.TempDir(), "aliases.csv")
	require.NoError(t, os.WriteFile(aliasFile, []byte("sample_name,alias\nsample1.fa,S1\n"), 0o644))

	code, _, stderr := e.run(t, "-a", aliasFile)
	require.Equal(t, 0, code, stderr)

	lines := distanceLines(t, e)
	assert.Equal(t, "\tS1\tsample2.fa\tsample3.fa", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "S1\t"))
	assert.NotContains(t, strings.Join(lines, "\n"), "sample1")
}

func TestRerunIsCached(t *testing.T) {
	e := setup(t, three)
	code, _, stderr := e.run(t)
	require.Equal(t, 0, code, stderr)

	code, _, stderr = e.run(t)
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stderr, "No sketch jobs to run")
}

func TestFailingSketchStopsPipeline(t *testing.T) {
	e := setup(t, map[string]string{
		"good.fa": ">a\nACGT\n",
		"bad.fa":  "FAIL\n",
	})
	code, _, stderr := e.run(t)
	assert.Equal(t, 3, code)
	assert.Contains(t, stderr, "bad.fa")
	assert.NoFileExists(t, filepath.Join(e.out, "figures", "distance.tab"))
}

func TestMissingSketcher(t *testing.T) {
	e := setup(t, three)
	e.hulk = filepath.Join(t.TempDir(), "no-hulk-here")
	code, _, stderr := e.run(t)
	assert.Equal(t, 3, code)
	assert.Contains(t, stderr, "cannot start")
}

func TestMissingPlotter(t *testing.T) {
	e := setup(t, three)
	e.binDir = t.TempDir()
	code, _, stderr := e.run(t)
	assert.Equal(t, 3, code)
	assert.Contains(t, stderr, "make_figures.r")
	assert.FileExists(t, filepath.Join(e.out, "figures", "distance.tab"))
}

func TestWeightedMatrix(t *testing.T) {
	e := setup(t, three)
	code, _, stderr := e.run(t, "-w", "--no-figures")
	require.Equal(t, 0, code, stderr)
	assert.FileExists(t, filepath.Join(e.out, "figures", "hulk.wjs-matrix.csv"))
	assert.NoFileExists(t, filepath.Join(e.out, "figures", "plotted"))
}
