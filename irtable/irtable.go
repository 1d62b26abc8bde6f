// Package irtable provides the tab-separated table model shared by the
// intron classifier and the permutation tester. A table keeps its columns
// in order and its cells as strings, so score columns and any other
// columns a tool does not recognize pass through untouched.
package irtable

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/carbocation/pfx"
)

type Table struct {
	Columns []string
	Rows    [][]string

	index map[string]int
}

// New creates an empty table with the given header.
func New(columns []string) *Table {
	t := &Table{Columns: columns}
	t.reindex()

	return t
}

// Read parses a tab-separated table with a header row. Lines starting
// with '#' are skipped.
func Read(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.Comment = '#'

	lines, err := cr.ReadAll()
	if err != nil {
		return nil, pfx.Err(err)
	}

	if len(lines) < 1 {
		return nil, fmt.Errorf("0 lines in input table")
	}

	t := New(lines[0])
	t.Rows = lines[1:]

	return t, nil
}

func (t *Table) reindex() {
	t.index = make(map[string]int, len(t.Columns))
	for i, col := range t.Columns {
		t.index[col] = i
	}
}

// Index reports the position of the named column.
func (t *Table) Index(col string) (int, bool) {
	i, ok := t.index[col]

	return i, ok
}

// Require returns an error naming every listed column that is absent
// from the table. Tools call this before doing any computation.
func (t *Table) Require(cols ...string) error {
	var missing []string
	for _, col := range cols {
		if _, ok := t.index[col]; !ok {
			missing = append(missing, col)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("input table is missing required columns: %s", strings.Join(missing, ", "))
	}

	return nil
}

// Float parses the named column's cell from one row.
func (t *Table) Float(row []string, col string) (float64, error) {
	i, ok := t.index[col]
	if !ok {
		return 0, fmt.Errorf("input table is missing required columns: %s", col)
	}

	v, err := strconv.ParseFloat(row[i], 64)
	if err != nil {
		return 0, pfx.Err(err)
	}

	return v, nil
}

// Int parses the named column's cell from one row.
func (t *Table) Int(row []string, col string) (int, error) {
	i, ok := t.index[col]
	if !ok {
		return 0, fmt.Errorf("input table is missing required columns: %s", col)
	}

	v, err := strconv.Atoi(row[i])
	if err != nil {
		return 0, pfx.Err(err)
	}

	return v, nil
}

// Floats parses the named column across every row of the table.
func (t *Table) Floats(col string) ([]float64, error) {
	out := make([]float64, 0, len(t.Rows))
	for _, row := range t.Rows {
		v, err := t.Float(row, col)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}

	return out, nil
}

// Group is the set of rows sharing one value of a key column.
type Group struct {
	Key  string
	Rows [][]string
}

// GroupSorted partitions the rows by the named column. Groups come back
// ordered by key; within a group, rows keep their input order.
func (t *Table) GroupSorted(col string) ([]Group, error) {
	i, ok := t.index[col]
	if !ok {
		return nil, fmt.Errorf("input table is missing required columns: %s", col)
	}

	byKey := make(map[string][][]string)
	for _, row := range t.Rows {
		byKey[row[i]] = append(byKey[row[i]], row)
	}

	keys := make([]string, 0, len(byKey))
	for k := range byKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	groups := make([]Group, 0, len(keys))
	for _, k := range keys {
		groups = append(groups, Group{Key: k, Rows: byKey[k]})
	}

	return groups, nil
}

// Write emits the table as tab-separated text with a header row.
func (t *Table) Write(w io.Writer) error {
	cw := csv.NewWriter(w)
	cw.Comma = '\t'

	if err := cw.Write(t.Columns); err != nil {
		return pfx.Err(err)
	}

	for _, row := range t.Rows {
		if err := cw.Write(row); err != nil {
			return pfx.Err(err)
		}
	}

	cw.Flush()

	return pfx.Err(cw.Error())
}
