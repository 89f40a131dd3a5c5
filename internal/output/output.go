// Package output loads and writes the whitespace separated numeric tables
// (.dat files) produced by the measurement program.
package output

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/banshee-data/flowcheck/internal/fsutil"
)

// ErrRaggedTable is returned when rows have different column counts.
var ErrRaggedTable = errors.New("rows have different column counts")

// Table is a dense numeric table. An empty table has no backing matrix.
type Table struct {
	m *mat.Dense
}

// NewTable builds a table from rows. All rows must have the same length.
func NewTable(rows [][]float64) (*Table, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return &Table{}, nil
	}
	cols := len(rows[0])
	data := make([]float64, 0, len(rows)*cols)
	for i, r := range rows {
		if len(r) != cols {
			return nil, fmt.Errorf("%w: row %d has %d columns, want %d", ErrRaggedTable, i, len(r), cols)
		}
		data = append(data, r...)
	}
	return &Table{m: mat.NewDense(len(rows), cols, data)}, nil
}

// Dims returns the row and column counts.
func (t *Table) Dims() (rows, cols int) {
	if t == nil || t.m == nil {
		return 0, 0
	}
	return t.m.Dims()
}

// At returns the value at row i, column j.
func (t *Table) At(i, j int) float64 {
	return t.m.At(i, j)
}

// Col returns a copy of column j.
func (t *Table) Col(j int) []float64 {
	if t.m == nil {
		return nil
	}
	return mat.Col(nil, j, t.m)
}

// Row returns a copy of row i.
func (t *Table) Row(i int) []float64 {
	if t.m == nil {
		return nil
	}
	return mat.Row(nil, i, t.m)
}

// Values returns all values in row-major order.
func (t *Table) Values() []float64 {
	if t.m == nil {
		return nil
	}
	raw := t.m.RawMatrix()
	out := make([]float64, 0, raw.Rows*raw.Cols)
	for i := 0; i < raw.Rows; i++ {
		out = append(out, raw.Data[i*raw.Stride:i*raw.Stride+raw.Cols]...)
	}
	return out
}

// Parse reads a table. Lines starting with '#' and blank lines are
// skipped. "nan", "-nan", "inf" and "-inf" are accepted in any case.
func Parse(r io.Reader) (*Table, error) {
	var rows [][]float64
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		row := make([]float64, len(fields))
		for i, f := range fields {
			v, err := parseValue(f)
			if err != nil {
				return nil, fmt.Errorf("line %d column %d: %w", line, i+1, err)
			}
			row[i] = v
		}
		rows = append(rows, row)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return NewTable(rows)
}

func parseValue(s string) (float64, error) {
	switch strings.ToLower(strings.TrimLeft(s, "+-")) {
	case "nan", "nan(ind)":
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}

// Load reads and parses the named file.
func Load(fsys fsutil.FileSystem, path string) (*Table, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	t, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return t, nil
}

// Write emits t tab separated with full float precision.
func Write(w io.Writer, t *Table) error {
	bw := bufio.NewWriter(w)
	rows, cols := t.Dims()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if j > 0 {
				bw.WriteByte('\t')
			}
			bw.WriteString(strconv.FormatFloat(t.At(i, j), 'g', -1, 64))
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// MethodDir is the directory holding a method's output under root.
func MethodDir(root, method string) string {
	return filepath.Join(root, "Fundamental_Diagram", "Method_"+method)
}

// FileName builds "{quantity}_{traj}_id_{area}.dat".
func FileName(quantity, traj string, area int) string {
	return fmt.Sprintf("%s_%s_id_%d.dat", quantity, traj, area)
}

// LineFileName builds "{quantity}_{traj}_id_{area}_line_{line}.dat".
func LineFileName(quantity, traj string, area, line int) string {
	return fmt.Sprintf("%s_%s_id_%d_line_%d.dat", quantity, traj, area, line)
}
