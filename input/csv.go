package input

import (
	"encoding/csv"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ErrMalformed marks a table that cannot be trusted as a whole: a row with
// the wrong number of fields, a broken quote, or a key cell that is empty
// or not a number. Callers treat such a file like a missing one.
var ErrMalformed = errors.New("malformed table")

// table is a header-addressed CSV file held in memory.
type table struct {
	path string
	cols map[string]int
	rows [][]string
}

// readTable loads a CSV file whose first line names the columns. A missing
// file yields an error satisfying errors.Is(err, fs.ErrNotExist); a file
// that does not parse yields ErrMalformed.
func readTable(path string, required ...string) (*table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open table")
	}
	defer f.Close()

	// every row must have as many fields as the header
	r := csv.NewReader(f)
	header, err := r.Read()
	if err == io.EOF {
		return &table{path: path, cols: map[string]int{}}, nil
	}
	if err != nil {
		return nil, errors.Wrapf(ErrMalformed, "%s header: %v", path, err)
	}
	t := &table{path: path, cols: make(map[string]int, len(header))}
	for i, name := range header {
		t.cols[strings.TrimSpace(name)] = i
	}
	for _, col := range required {
		if _, ok := t.cols[col]; !ok {
			return nil, errors.Wrapf(ErrMalformed, "%s: missing column %q", path, col)
		}
	}
	for {
		rec, err := r.Read()
		if err == io.EOF {
			return t, nil
		}
		if err != nil {
			return nil, errors.Wrapf(ErrMalformed, "%s: %v", path, err)
		}
		t.rows = append(t.rows, rec)
	}
}

// each calls fn with a decoder positioned on every row, stopping at the
// first decode error.
func (t *table) each(fn func(d *rowDecoder)) error {
	for i, rec := range t.rows {
		d := &rowDecoder{cols: t.cols, rec: rec}
		fn(d)
		if d.err != nil {
			return errors.Wrapf(d.err, "%s line %d", t.path, i+2)
		}
	}
	return nil
}

// rowDecoder converts the cells of one row, keeping the first error.
type rowDecoder struct {
	cols map[string]int
	rec  []string
	err  error
}

func (d *rowDecoder) fail(col, format string, args ...interface{}) {
	if d.err == nil {
		d.err = errors.Wrapf(ErrMalformed, "column %s: "+format, append([]interface{}{col}, args...)...)
	}
}

func (d *rowDecoder) text(col string) string {
	i, ok := d.cols[col]
	if !ok || i >= len(d.rec) {
		return ""
	}
	return strings.TrimSpace(d.rec[i])
}

// key returns a cell that identifies the row and must not be empty.
func (d *rowDecoder) key(col string) string {
	s := d.text(col)
	if s == "" {
		d.fail(col, "empty key")
	}
	return s
}

// float parses a numeric cell; an empty cell is NaN.
func (d *rowDecoder) float(col string) float64 {
	s := d.text(col)
	if s == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		d.fail(col, "%v", err)
	}
	return v
}

// value parses a numeric cell that must be present.
func (d *rowDecoder) value(col string) float64 {
	v := d.float(col)
	if math.IsNaN(v) {
		d.fail(col, "no value")
	}
	return v
}

// index parses a non-negative integral key cell such as an event number,
// accepting the "12.0" form.
func (d *rowDecoder) index(col string) int {
	v := d.value(col)
	if v < 0 || v != math.Trunc(v) {
		d.fail(col, "bad index %v", v)
		return 0
	}
	return int(v)
}

func (d *rowDecoder) optFloat(col string) *float64 {
	v := d.float(col)
	if math.IsNaN(v) {
		return nil
	}
	return &v
}

// int parses an integral cell, accepting the "12.0" form; empty is 0.
func (d *rowDecoder) int(col string) int {
	v := d.float(col)
	if math.IsNaN(v) {
		return 0
	}
	return int(v)
}

func (d *rowDecoder) optInt(col string) *int {
	v := d.float(col)
	if math.IsNaN(v) {
		return nil
	}
	n := int(v)
	return &n
}
