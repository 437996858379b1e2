// Package manifest records what a run did as indented JSON next to its outputs.
package manifest

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"time"

	"runhulk/internal/config"
	"runhulk/internal/writers"
)

const FileName = "run.json"

type AliasSkip struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

type Manifest struct {
	RunID      string        `json:"run_id"`
	Version    string        `json:"version"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Config     config.Config `json:"config"`

	Inputs      []string    `json:"inputs"`
	Sketched    []string    `json:"sketched"`
	Cached      []string    `json:"cached"`
	Stale       []string    `json:"stale,omitempty"`
	AliasSkips  []AliasSkip `json:"alias_skips,omitempty"`
	SketchDir   string      `json:"sketch_dir"`
	Similarity  string      `json:"similarity_matrix,omitempty"`
	Distance    string      `json:"distance_matrix,omitempty"`
	Labels      []string    `json:"labels,omitempty"`
	DroppedCell int         `json:"dropped_cells,omitempty"`
	Plotted     bool        `json:"plotted"`
}

// EncodePretty writes v as indented JSON to w.
func EncodePretty(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Write stores m as dir/run.json and returns the path.
func Write(dir string, m Manifest) (string, error) {
	path := filepath.Join(dir, FileName)
	return path, writers.WriteFileAtomic(path, func(w io.Writer) error { return EncodePretty(w, m) })
}

// Read loads a manifest written by Write.
func Read(path string) (Manifest, error) {
	var m Manifest
	b, err := os.ReadFile(path)
	if err != nil {
		return m, err
	}
	return m, json.Unmarshal(b, &m)
}
