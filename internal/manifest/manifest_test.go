package manifest

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"runhulk/internal/config"
)

func TestWriteRead(t *testing.T) {
	dir := t.TempDir()
	m := Manifest{
		RunID:     "0b7c",
		StartedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Inputs:    []string{"a.fa", "b.fa"},
		Sketched:  []string{"b.fa"},
		Cached:    []string{"a.fa"},
		Labels:    []string{"a.fa", "b.fa"},
		Plotted:   true,
	}
	path, err := Write(dir, m)
	require.NoError(t, err)

	got, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, m.RunID, got.RunID)
	assert.True(t, m.StartedAt.Equal(got.StartedAt))
	assert.Equal(t, m.Cached, got.Cached)
	assert.True(t, got.Plotted)
}

func TestEncodePrettyIndents(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EncodePretty(&buf, map[string]int{"a": 1}))
	assert.Equal(t, "{\n  \"a\": 1\n}\n", buf.String())
}

func TestConfigKeysMatchConfigFile(t *testing.T) {
	cfg := config.Default()
	cfg.Query = []string{"reads"}
	cfg.OutDir = "/out"
	m := Manifest{RunID: "r1", Config: cfg}

	var buf bytes.Buffer
	require.NoError(t, EncodePretty(&buf, m))
	var raw struct {
		Config map[string]any `json:"config"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &raw))
	for _, key := range []string{"query", "out_dir", "kmer_size", "num_threads", "create_weighted_matrix", "hulk"} {
		assert.Contains(t, raw.Config, key)
	}
	assert.NotContains(t, raw.Config, "OutDir")

	path, err := Write(t.TempDir(), m)
	require.NoError(t, err)
	got, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got.Config)
}
