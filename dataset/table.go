package dataset

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMissingColumn is returned when a required column is absent from a source.
var ErrMissingColumn = errors.New("missing column")

// Source column names. These are the literal headers of the three input
// files; renaming one upstream is a fatal break.
const (
	ColCustomerID = "Customer ID"
	ColName       = "name"

	ColYear         = "year"
	ColMonth        = "month"
	ColDate         = "date"
	ColChildren     = "children"
	ColCharges      = "charges"
	ColHospitalTier = "Hospital tier"
	ColCityTier     = "City tier"
	ColStateID      = "State ID"

	ColBMI            = "BMI"
	ColHbA1c          = "HBA1C"
	ColHeartIssues    = "Heart Issues"
	ColAnyTransplants = "Any Transplants"
	ColCancerHistory  = "Cancer history"
	ColSurgeries      = "NumberOfMajorSurgeries"
	ColSmoker         = "smoker"
)

// Table is an in-memory tabular source: a header and rows of raw string
// cells. Every row has exactly len(Header) cells.
type Table struct {
	Name   string
	Header []string
	Rows   [][]string

	colIdx map[string]int
}

// NewTable builds a table, padding short rows and truncating long ones to
// the header width.
func NewTable(name string, header []string, rows [][]string) *Table {
	t := &Table{
		Name:   name,
		Header: header,
		colIdx: make(map[string]int, len(header)),
	}
	for i, h := range header {
		if _, dup := t.colIdx[h]; !dup {
			t.colIdx[h] = i
		}
	}
	t.Rows = make([][]string, 0, len(rows))
	for _, row := range rows {
		t.Rows = append(t.Rows, fitRow(row, len(header)))
	}
	return t
}

func fitRow(row []string, width int) []string {
	if len(row) == width {
		return row
	}
	out := make([]string, width)
	copy(out, row)
	return out
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// Col returns the index of a column.
func (t *Table) Col(name string) (int, bool) {
	i, ok := t.colIdx[name]
	return i, ok
}

// Require fails with ErrMissingColumn naming the first absent column.
func (t *Table) Require(cols ...string) error {
	for _, c := range cols {
		if _, ok := t.colIdx[c]; !ok {
			return fmt.Errorf("%s: %w %q", t.Name, ErrMissingColumn, c)
		}
	}
	return nil
}

// Value returns the cell of row in column col, or "" when the column is absent.
func (t *Table) Value(row []string, col string) string {
	if i, ok := t.colIdx[col]; ok && i < len(row) {
		return row[i]
	}
	return ""
}

// Column returns a copy of one column's cells.
func (t *Table) Column(name string) ([]string, error) {
	i, ok := t.colIdx[name]
	if !ok {
		return nil, fmt.Errorf("%s: %w %q", t.Name, ErrMissingColumn, name)
	}
	out := make([]string, len(t.Rows))
	for r, row := range t.Rows {
		out[r] = row[i]
	}
	return out, nil
}

// ColumnCount pairs a column name with a count.
type ColumnCount struct {
	Column string
	Count  int
}

// MissingCounts returns, in header order, how many cells of each column are
// empty after trimming.
func (t *Table) MissingCounts() []ColumnCount {
	counts := make([]ColumnCount, len(t.Header))
	for i, h := range t.Header {
		counts[i].Column = h
	}
	for _, row := range t.Rows {
		for i, cell := range row {
			if strings.TrimSpace(cell) == "" {
				counts[i].Count++
			}
		}
	}
	return counts
}

// DuplicateKeys returns the key values that occur more than once, in order
// of their second occurrence.
func (t *Table) DuplicateKeys(key string) ([]string, error) {
	i, ok := t.colIdx[key]
	if !ok {
		return nil, fmt.Errorf("%s: %w %q", t.Name, ErrMissingColumn, key)
	}
	seen := make(map[string]int, len(t.Rows))
	var dups []string
	for _, row := range t.Rows {
		seen[row[i]]++
		if seen[row[i]] == 2 {
			dups = append(dups, row[i])
		}
	}
	return dups, nil
}
