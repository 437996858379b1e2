package sketch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"runhulk/internal/alias"
	"runhulk/internal/cmdutil"
	"runhulk/internal/config"
	"runhulk/internal/hulkerr"
	"runhulk/internal/jobrun"
	"runhulk/internal/tool"
	"runhulk/internal/tool/tooltest"
)

func inputs(t *testing.T, names ...string) []string {
	t.Helper()
	dir := t.TempDir()
	var out []string
	for _, n := range names {
		fn := filepath.Join(dir, n)
		require.NoError(t, os.WriteFile(fn, []byte("@r\nACGT\n+\nIIII\n"), 0o644))
		out = append(out, fn)
	}
	return out
}

func testConfig(t *testing.T) config.Config {
	c := config.Default()
	c.Query = []string{"unused"}
	c.OutDir = t.TempDir()
	return c
}

func newStage(sk *tooltest.Func) Stage {
	return Stage{Sketcher: sk, Runner: jobrun.Runner{}, Log: cmdutil.Discard()}
}

func TestRunSketchesEveryInput(t *testing.T) {
	cfg := testConfig(t)
	files := inputs(t, "a.fq", "b.fq", "c.fq")
	sk := tooltest.Sketcher(nil)

	res, err := newStage(sk).Run(context.Background(), cfg, files)
	require.NoError(t, err)
	assert.Equal(t, cfg.SketchDir(), res.Dir)
	assert.Equal(t, files, res.Queued)
	assert.Empty(t, res.Cached)
	assert.Equal(t, 3, res.Artifacts)
	assert.Len(t, sk.Calls(), 3)

	got, err := ListArtifacts(res.Dir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(res.Dir, "a.fq.sketch"),
		filepath.Join(res.Dir, "b.fq.sketch"),
		filepath.Join(res.Dir, "c.fq.sketch"),
	}, got)
}

func TestRunCommandShape(t *testing.T) {
	cfg := testConfig(t)
	cfg.Interval = 5
	cfg.ReadsAreFasta = true
	files := inputs(t, "a.fq")
	sk := tooltest.Sketcher(nil)

	_, err := newStage(sk).Run(context.Background(), cfg, files)
	require.NoError(t, err)
	require.Len(t, sk.Calls(), 1)
	assert.Equal(t, []string{
		"sketch", "-p", "8", "-k", "11", "-s", "256", "-i", "5", "--fasta",
		"-o", filepath.Join(cfg.SketchDir(), "a.fq"), "-f", files[0],
	}, sk.Calls()[0])
}

func TestRunIsIdempotent(t *testing.T) {
	cfg := testConfig(t)
	files := inputs(t, "a.fq", "b.fq")
	sk := tooltest.Sketcher(nil)
	st := newStage(sk)

	_, err := st.Run(context.Background(), cfg, files)
	require.NoError(t, err)

	res, err := st.Run(context.Background(), cfg, files)
	require.NoError(t, err)
	assert.Empty(t, res.Queued)
	assert.Equal(t, files, res.Cached)
	assert.Equal(t, 2, res.Artifacts)
	assert.Len(t, sk.Calls(), 2, "second run launches nothing")
}

func TestRunRequeuesEmptyArtifact(t *testing.T) {
	cfg := testConfig(t)
	files := inputs(t, "a.fq", "b.fq")
	require.NoError(t, os.MkdirAll(cfg.SketchDir(), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.SketchDir(), "a.fq.sketch"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.SketchDir(), "b.fq.sketch"), []byte("ok"), 0o644))

	res, err := newStage(tooltest.Sketcher(nil)).Run(context.Background(), cfg, files)
	require.NoError(t, err)
	assert.Equal(t, []string{files[0]}, res.Stale)
	assert.Equal(t, []string{files[0]}, res.Queued)
	assert.Equal(t, []string{files[1]}, res.Cached)
}

func TestRunUsesAliases(t *testing.T) {
	cfg := testConfig(t)
	files := inputs(t, "sample1.fa", "sample2.fa")
	cfg.AliasFile = filepath.Join(t.TempDir(), "aliases.csv")
	require.NoError(t, os.WriteFile(cfg.AliasFile, []byte("sample_name,alias\nsample1.fa,S1\nbroken\n"), 0o644))

	res, err := newStage(tooltest.Sketcher(nil)).Run(context.Background(), cfg, files)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Aliases.Len())
	assert.Len(t, res.AliasReport.Skipped, 1)
	assert.FileExists(t, filepath.Join(res.Dir, "S1.sketch"))
	assert.FileExists(t, filepath.Join(res.Dir, "sample2.fa.sketch"))
}

func TestRunFailingJobIsRunError(t *testing.T) {
	cfg := testConfig(t)
	cfg.Jobs = 1
	files := inputs(t, "a.fq", "b.fq", "c.fq")
	sk := tooltest.Sketcher(func(in string) bool { return strings.HasSuffix(in, "a.fq") })
	st := Stage{Sketcher: sk, Runner: jobrun.Runner{Concurrency: 1}, Log: cmdutil.Discard()}

	_, err := st.Run(context.Background(), cfg, files)
	require.Error(t, err)
	assert.True(t, hulkerr.Is(err, hulkerr.KindRun))
}

func TestRunMissingArtifactIsIncomplete(t *testing.T) {
	cfg := testConfig(t)
	files := inputs(t, "a.fq", "b.fq", "c.fq")
	// The tool "succeeds" but writes nothing for b.
	sk := tooltest.Sketcher(nil)
	inner := sk.Fn
	sk.Fn = func(ctx context.Context, args []string) (out tool.Output, err error) {
		if in, _ := tooltest.Flag(args, "-f"); strings.HasSuffix(in, "b.fq") {
			return out, nil
		}
		return inner(ctx, args)
	}

	res, err := newStage(sk).Run(context.Background(), cfg, files)
	require.Error(t, err)
	assert.True(t, hulkerr.Is(err, hulkerr.KindIncompleteOutput))
	assert.Contains(t, err.Error(), "b.fq.sketch")
	assert.Equal(t, 2, res.Artifacts)
}

func TestRunWarnsWhenLeftoverMasksMissingArtifact(t *testing.T) {
	cfg := testConfig(t)
	files := inputs(t, "a.fq", "b.fq")
	require.NoError(t, os.MkdirAll(cfg.SketchDir(), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.SketchDir(), "old.fq.sketch"), []byte("x"), 0o644))

	sk := tooltest.Sketcher(nil)
	inner := sk.Fn
	sk.Fn = func(ctx context.Context, args []string) (out tool.Output, err error) {
		if in, _ := tooltest.Flag(args, "-f"); strings.HasSuffix(in, "b.fq") {
			return out, nil
		}
		return inner(ctx, args)
	}
	var buf strings.Builder
	st := newStage(sk)
	st.Log = cmdutil.NewLogger(&buf, true)

	res, err := st.Run(context.Background(), cfg, files)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Artifacts)
	assert.Contains(t, buf.String(), "WARN: sketch count matches")
	assert.Contains(t, buf.String(), "missing b.fq.sketch")
}

func TestPlanRejectsCollidingArtifacts(t *testing.T) {
	tab := alias.New(map[string]string{"x.fa": "S", "y.fa": "S"})
	_, err := Plan("/out", tab, []string{"/d/x.fa", "/d/y.fa"})
	require.Error(t, err)
	assert.True(t, hulkerr.Is(err, hulkerr.KindConfig))

	_, err = Plan("/out", nil, []string{"/d1/x.fa", "/d2/x.fa"})
	assert.True(t, hulkerr.Is(err, hulkerr.KindConfig))
}

func TestArtifactPath(t *testing.T) {
	prefix, art := ArtifactPath("/out/sketches", alias.New(map[string]string{"s.fa": "S"}), "/in/s.fa")
	assert.Equal(t, "/out/sketches/S", prefix)
	assert.Equal(t, "/out/sketches/S.sketch", art)
}

func TestFormatWarnings(t *testing.T) {
	var buf strings.Builder
	st := Stage{Log: cmdutil.NewLogger(&buf, true)}
	dir := t.TempDir()
	fa := filepath.Join(dir, "x.fa")
	require.NoError(t, os.WriteFile(fa, []byte(">x\nACGT\n"), 0o644))

	st.checkFormats(false, []string{fa})
	assert.Contains(t, buf.String(), "look like FASTA")

	buf.Reset()
	st.checkFormats(true, []string{fa, filepath.Join(dir, "missing.fa")})
	assert.Empty(t, buf.String())
}
