package writers

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// WriteDistanceTSV writes a labeled matrix: a header of an empty cell plus
// the labels, then one line per row with labels[i] and the formatted cells.
// Row labels are positional.
func WriteDistanceTSV(w io.Writer, labels []string, rows [][]float64, format func(float64) string) error {
	if len(rows) > len(labels) {
		return fmt.Errorf("distance matrix has %d rows but only %d labels", len(rows), len(labels))
	}
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(bw, "\t%s\n", strings.Join(labels, "\t")); err != nil {
		return err
	}
	cells := make([]string, 0, len(labels))
	for i, row := range rows {
		cells = cells[:0]
		for _, v := range row {
			cells = append(cells, format(v))
		}
		if _, err := fmt.Fprintf(bw, "%s\t%s\n", labels[i], strings.Join(cells, "\t")); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteFileAtomic writes via a temp file in the same directory and renames it
// into place, so readers never see a half-written file.
func WriteFileAtomic(path string, write func(io.Writer) error) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()
	if err = write(tmp); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	if err = os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
