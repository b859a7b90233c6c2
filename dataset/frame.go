package dataset

import (
	"fmt"
	"strconv"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// frame loads t into a DataFrame under the given column names. Every column
// is a raw string series: no type detection and no NA spellings, so cells
// come back from Records exactly as they went in.
func frame(t *Table, names []string) (dataframe.DataFrame, error) {
	records := make([][]string, 0, len(t.Rows)+1)
	records = append(records, names)
	records = append(records, t.Rows...)
	df := dataframe.LoadRecords(records,
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues(nil),
	)
	if df.Err != nil {
		return df, fmt.Errorf("%s: %w", t.Name, df.Err)
	}
	return df, nil
}

// positional names n columns prefix0..prefixN-1, so frames never depend on
// source headers being unique or non-empty.
func positional(prefix string, n int) []string {
	names := make([]string, n)
	for i := range names {
		names[i] = prefix + strconv.Itoa(i)
	}
	return names
}

// DropValue removes every row holding a cell exactly equal to value and
// reports how many rows were removed. The table is modified in place.
func (t *Table) DropValue(value string) (int, error) {
	if t.Len() == 0 || len(t.Header) == 0 {
		return 0, nil
	}
	df, err := frame(t, positional("c", len(t.Header)))
	if err != nil {
		return 0, err
	}

	keep := func(el series.Element) bool { return el.String() != value }
	filters := make([]dataframe.F, len(t.Header))
	for j := range filters {
		filters[j] = dataframe.F{Colidx: j, Comparator: series.CompFunc, Comparando: keep}
	}
	kept := df.FilterAggregation(dataframe.And, filters...)
	if kept.Err != nil {
		return 0, fmt.Errorf("%s: drop %q: %w", t.Name, value, kept.Err)
	}

	rows := kept.Records()[1:]
	removed := t.Len() - len(rows)
	t.Rows = rows
	return removed, nil
}
