// Package alias maps sample names to display aliases and resolves file paths
// to the names used for sketch artifacts and matrix labels.
package alias

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"runhulk/internal/hulkerr"
)

const (
	ColSampleName = "sample_name"
	ColAlias      = "alias"
)

// Table maps a sample identifier (a file's base name) to its alias.
// A nil *Table is valid and resolves every name to itself.
type Table struct {
	m      map[string]string
	values map[string]struct{} // every alias, for Label
}

// SkippedRow is one record that could not be used.
type SkippedRow struct {
	Line   int
	Reason string
}

// Report lists records skipped during Load.
type Report struct {
	Rows    int
	Skipped []SkippedRow
}

// New builds a table from a plain map; empty maps give nil.
func New(m map[string]string) *Table {
	if len(m) == 0 {
		return nil
	}
	t := &Table{m: make(map[string]string, len(m)), values: make(map[string]struct{}, len(m))}
	for k, v := range m {
		t.m[k] = v
		t.values[v] = struct{}{}
	}
	return t
}

// Delimiter picks ',' for .csv files and '\t' for everything else.
func Delimiter(path string) rune {
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return ','
	}
	return '\t'
}

// Load reads the alias file at path. An empty path returns a nil table.
// Records lacking sample_name or alias are skipped and reported, never fatal.
func Load(path string) (*Table, Report, error) {
	var rep Report
	if path == "" {
		return nil, rep, nil
	}
	fh, err := os.Open(path)
	if err != nil {
		return nil, rep, hulkerr.ConfigWrap("alias", err, "failed to open %q", path)
	}
	defer fh.Close()

	t, rep, err := Parse(fh, Delimiter(path))
	if err != nil {
		return nil, rep, hulkerr.ConfigWrap("alias", err, "reading %q", path)
	}
	return t, rep, nil
}

// Parse reads a delimited alias table with a header row.
func Parse(r io.Reader, delim rune) (*Table, Report, error) {
	var rep Report

	cr := csv.NewReader(r)
	cr.Comma = delim
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, rep, nil
	}
	if err != nil {
		return nil, rep, err
	}
	nameIdx, aliasIdx := -1, -1
	for i, h := range header {
		switch strings.TrimSpace(h) {
		case ColSampleName:
			nameIdx = i
		case ColAlias:
			aliasIdx = i
		}
	}

	m := map[string]string{}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, rep, err
		}
		rep.Rows++
		line, _ := cr.FieldPos(0)
		name, okName := field(rec, nameIdx)
		al, okAlias := field(rec, aliasIdx)
		if !okName || !okAlias {
			rep.Skipped = append(rep.Skipped, SkippedRow{
				Line:   line,
				Reason: fmt.Sprintf("missing %s or %s", ColSampleName, ColAlias),
			})
			continue
		}
		m[name] = al
	}
	return New(m), rep, nil
}

func field(rec []string, i int) (string, bool) {
	if i < 0 || i >= len(rec) {
		return "", false
	}
	v := strings.TrimSpace(rec[i])
	return v, v != ""
}

// Len is the number of aliases; zero for a nil table.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.m)
}

// Lookup returns the alias for name, if any.
func (t *Table) Lookup(name string) (string, bool) {
	if t == nil {
		return "", false
	}
	a, ok := t.m[name]
	return a, ok
}

// Resolve keeps only the final '/'-separated segment of path and substitutes
// its alias when one exists. Artifact names are built from this.
func (t *Table) Resolve(path string) string {
	name := lastSegment(path)
	if a, ok := t.Lookup(name); ok {
		return a
	}
	return name
}

// Label is Resolve for comparator labels: the trailing extension (the
// artifact suffix) is removed before the alias lookup. A name that already
// is an alias came out of Resolve and is kept, so a chain like a→b, b→Z
// labels a's artifact b, matching its file name.
func (t *Table) Label(path string) string {
	name := lastSegment(strings.TrimSpace(path))
	if ext := filepath.Ext(name); ext != "" && ext != name {
		name = strings.TrimSuffix(name, ext)
	}
	if t.isAlias(name) {
		return name
	}
	if a, ok := t.Lookup(name); ok {
		return a
	}
	return name
}

func (t *Table) isAlias(name string) bool {
	if t == nil {
		return false
	}
	_, ok := t.values[name]
	return ok
}

func lastSegment(path string) string {
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		return path[i+1:]
	}
	return path
}
