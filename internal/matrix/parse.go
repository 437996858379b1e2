package matrix

import (
	"bufio"
	"io"
	"math"
	"strconv"
	"strings"

	"runhulk/internal/alias"
	"runhulk/internal/hulkerr"
)

// Similarity is the comparator's all-pairs table on a 0–100 scale.
type Similarity struct {
	Labels  []string
	Rows    [][]float64
	Dropped int // cells that did not parse as numbers
}

// Distance is Similarity converted to 1 - s/100, labels in header order.
type Distance struct {
	Labels []string
	Rows   [][]float64
}

// ParseSimilarity reads the comparator CSV. Header fields become labels via
// t.Label. Data ends at the first empty line; unparsable cells are dropped.
// Row i is labeled Labels[i], so more rows than labels is an error.
func ParseSimilarity(r io.Reader, t *alias.Table) (Similarity, error) {
	var sim Similarity

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64<<10), 64<<20)

	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return sim, hulkerr.IO("matrix", err, "reading similarity matrix")
		}
		return sim, hulkerr.External("matrix", nil, "", "", "similarity matrix is empty")
	}
	header := strings.TrimRight(sc.Text(), "\r")
	if header == "" {
		return sim, hulkerr.External("matrix", nil, "", "", "similarity matrix has an empty header")
	}
	for _, f := range strings.Split(header, ",") {
		sim.Labels = append(sim.Labels, t.Label(f))
	}

	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if line == "" {
			break
		}
		if len(sim.Rows) == len(sim.Labels) {
			return sim, hulkerr.External("matrix", nil, "", "",
				"similarity matrix has more rows than its %d header labels", len(sim.Labels))
		}
		var row []float64
		for _, cell := range strings.Split(line, ",") {
			v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
			if err != nil {
				sim.Dropped++
				continue
			}
			row = append(row, v)
		}
		sim.Rows = append(sim.Rows, row)
	}
	if err := sc.Err(); err != nil {
		return sim, hulkerr.IO("matrix", err, "reading similarity matrix")
	}
	return sim, nil
}

// ToDistance converts a 0–100 similarity into a 0–1 distance.
func ToDistance(similarity float64) float64 { return 1 - similarity/100 }

// FormatDistance renders d with exactly four decimals ("-0.0000" is folded to "0.0000").
func FormatDistance(d float64) string {
	s := strconv.FormatFloat(d, 'f', 4, 64)
	if s == "-0.0000" {
		return "0.0000"
	}
	return s
}

// Distance converts every cell.
func (s Similarity) Distance() Distance {
	d := Distance{Labels: s.Labels, Rows: make([][]float64, len(s.Rows))}
	for i, row := range s.Rows {
		out := make([]float64, len(row))
		for j, v := range row {
			out[j] = ToDistance(v)
		}
		d.Rows[i] = out
	}
	return d
}

// Ragged reports the rows whose width differs from the label count.
func (s Similarity) Ragged() []int {
	var bad []int
	for i, row := range s.Rows {
		if len(row) != len(s.Labels) {
			bad = append(bad, i)
		}
	}
	return bad
}

// Asymmetry returns the largest |s[i][j] - s[j][i]| over square cells.
func (s Similarity) Asymmetry() float64 {
	var worst float64
	for i, row := range s.Rows {
		for j := 0; j < i && j < len(row); j++ {
			if i >= len(s.Rows[j]) {
				continue
			}
			if d := math.Abs(row[j] - s.Rows[j][i]); d > worst {
				worst = d
			}
		}
	}
	return worst
}
