// Package frame provides a small column-labelled table of string cells.
//
// A Frame keeps every cell as it was read from CSV. Numeric conversion
// happens later in the transformers that know which columns are numeric,
// so categorical columns such as file extensions survive untouched.
package frame

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ezoic/phishing-classifier/pkg/errors"
)

// Frame is an immutable table with named columns. Operations that select
// rows or columns return a new Frame.
type Frame struct {
	columns []string
	index   map[string]int
	rows    [][]string
}

// New builds a Frame. Every row must have len(columns) cells and column
// names must be unique.
func New(columns []string, rows [][]string) (*Frame, error) {
	index := make(map[string]int, len(columns))
	for i, c := range columns {
		if _, dup := index[c]; dup {
			return nil, errors.NewValueError("frame.New", fmt.Sprintf("duplicate column %q", c))
		}
		index[c] = i
	}
	for i, r := range rows {
		if len(r) != len(columns) {
			return nil, errors.NewDimensionError(fmt.Sprintf("frame.New row %d", i), len(columns), len(r), 1)
		}
	}

	cols := make([]string, len(columns))
	copy(cols, columns)
	return &Frame{columns: cols, index: index, rows: rows}, nil
}

// Columns returns a copy of the column names in order.
func (f *Frame) Columns() []string {
	out := make([]string, len(f.columns))
	copy(out, f.columns)
	return out
}

// NRows returns the number of data rows.
func (f *Frame) NRows() int { return len(f.rows) }

// NCols returns the number of columns.
func (f *Frame) NCols() int { return len(f.columns) }

// Has reports whether the frame has a column called name.
func (f *Frame) Has(name string) bool {
	_, ok := f.index[name]
	return ok
}

// ColumnIndex returns the position of name.
func (f *Frame) ColumnIndex(name string) (int, bool) {
	i, ok := f.index[name]
	return i, ok
}

// Row returns row i. The returned slice must not be modified.
func (f *Frame) Row(i int) []string { return f.rows[i] }

// Cell returns the cell at row i, column j.
func (f *Frame) Cell(i, j int) string { return f.rows[i][j] }

// Column returns a copy of the values of the named column.
func (f *Frame) Column(name string) ([]string, error) {
	j, ok := f.index[name]
	if !ok {
		return nil, errors.NewColumnError("frame.Column", name)
	}
	out := make([]string, len(f.rows))
	for i, r := range f.rows {
		out[i] = r[j]
	}
	return out, nil
}

// Missing returns the names in want that the frame does not have, in the
// order they were given.
func (f *Frame) Missing(want ...string) []string {
	var missing []string
	for _, name := range want {
		if !f.Has(name) {
			missing = append(missing, name)
		}
	}
	return missing
}

// Select returns a frame with only the named columns, in the given order.
func (f *Frame) Select(names ...string) (*Frame, error) {
	if missing := f.Missing(names...); len(missing) > 0 {
		return nil, errors.NewColumnError("frame.Select", missing...)
	}

	idx := make([]int, len(names))
	for k, name := range names {
		idx[k] = f.index[name]
	}
	rows := make([][]string, len(f.rows))
	for i, r := range f.rows {
		row := make([]string, len(idx))
		for k, j := range idx {
			row[k] = r[j]
		}
		rows[i] = row
	}
	return New(names, rows)
}

// Drop returns a frame without the named columns. Every name must exist.
func (f *Frame) Drop(names ...string) (*Frame, error) {
	if missing := f.Missing(names...); len(missing) > 0 {
		return nil, errors.NewColumnError("frame.Drop", missing...)
	}

	dropped := make(map[string]bool, len(names))
	for _, n := range names {
		dropped[n] = true
	}
	keep := make([]string, 0, len(f.columns))
	for _, c := range f.columns {
		if !dropped[c] {
			keep = append(keep, c)
		}
	}
	return f.Select(keep...)
}

// Take returns the rows at the given positions, in that order.
func (f *Frame) Take(indices []int) (*Frame, error) {
	rows := make([][]string, len(indices))
	for k, i := range indices {
		if i < 0 || i >= len(f.rows) {
			return nil, errors.NewValueError("frame.Take", fmt.Sprintf("row index %d out of range [0, %d)", i, len(f.rows)))
		}
		rows[k] = f.rows[i]
	}
	return &Frame{columns: f.columns, index: f.index, rows: rows}, nil
}

// Concat appends the columns of other to f. Both frames must have the
// same number of rows and no shared column names.
func (f *Frame) Concat(other *Frame) (*Frame, error) {
	if other.NRows() != f.NRows() {
		return nil, errors.NewDimensionError("frame.Concat", f.NRows(), other.NRows(), 0)
	}

	columns := append(f.Columns(), other.columns...)
	rows := make([][]string, len(f.rows))
	for i := range f.rows {
		row := make([]string, 0, len(columns))
		row = append(row, f.rows[i]...)
		row = append(row, other.rows[i]...)
		rows[i] = row
	}
	return New(columns, rows)
}

// Floats parses the named column as numbers using ParseFloat.
func (f *Frame) Floats(name string) ([]float64, error) {
	j, ok := f.index[name]
	if !ok {
		return nil, errors.NewColumnError("frame.Floats", name)
	}
	out := make([]float64, len(f.rows))
	for i, r := range f.rows {
		v, err := ParseFloat(r[j])
		if err != nil {
			return nil, errors.NewValueError("frame.Floats", fmt.Sprintf("row %d, column %q: %v", i, name, err))
		}
		out[i] = v
	}
	return out, nil
}

// ParseFloat converts a CSV cell to a float. Boolean literals map to 1 and
// 0. Empty cells are rejected.
func ParseFloat(s string) (float64, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "":
		return 0, errors.New("missing value")
	case "true":
		return 1, nil
	case "false":
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errors.Newf("could not convert %q to float", s)
	}
	return v, nil
}
