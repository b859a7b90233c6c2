package cleaning

import (
	"errors"
	"fmt"
)

var (
	ErrBadTier         = errors.New("unparseable tier")
	ErrUnknownCategory = errors.New("unknown category")
	ErrBadDate         = errors.New("bad birth date")
	ErrBadNumber       = errors.New("bad number")
)

// CellError reports a value that could not be converted.
type CellError struct {
	CustomerID string
	Column     string
	Value      string
	Err        error
}

func (e *CellError) Error() string {
	return fmt.Sprintf("customer %s: column %q: value %q: %v", e.CustomerID, e.Column, e.Value, e.Err)
}

func (e *CellError) Unwrap() error { return e.Err }
