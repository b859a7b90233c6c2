package dataset

import "fmt"

// joinKey is the frame column name both sides of a join share.
const joinKey = "key"

// InnerJoin joins two tables on key. Output columns are all of left's
// followed by right's minus the key; rows follow left's order, and a left
// row matching several right rows yields one output row per match, in
// right's order. Rows whose key is absent on either side are dropped.
func InnerJoin(left, right *Table, key string) (*Table, error) {
	li, ok := left.Col(key)
	if !ok {
		return nil, fmt.Errorf("%s: %w %q", left.Name, ErrMissingColumn, key)
	}
	ri, ok := right.Col(key)
	if !ok {
		return nil, fmt.Errorf("%s: %w %q", right.Name, ErrMissingColumn, key)
	}

	header := append([]string(nil), left.Header...)
	for i, h := range right.Header {
		if i != ri {
			header = append(header, h)
		}
	}
	name := left.Name + "+" + right.Name
	if left.Len() == 0 || right.Len() == 0 {
		return NewTable(name, header, nil), nil
	}

	leftNames := positional("l", len(left.Header))
	leftNames[li] = joinKey
	rightNames := positional("r", len(right.Header))
	rightNames[ri] = joinKey

	lf, err := frame(left, leftNames)
	if err != nil {
		return nil, err
	}
	rf, err := frame(right, rightNames)
	if err != nil {
		return nil, err
	}
	joined := lf.InnerJoin(rf, joinKey)
	if joined.Err != nil {
		return nil, fmt.Errorf("join %s: %w", name, joined.Err)
	}

	// The frame puts the key first; move it back to its place in left.
	records := joined.Records()[1:]
	rows := make([][]string, len(records))
	for r, rec := range records {
		row := make([]string, 0, len(header))
		row = append(row, rec[1:li+1]...)
		row = append(row, rec[0])
		row = append(row, rec[li+1:]...)
		rows[r] = row
	}
	return NewTable(name, header, rows), nil
}
