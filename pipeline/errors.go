package pipeline

import (
	"errors"
	"fmt"
)

// Stage names one step of Run.
type Stage string

const (
	StageLoad    Stage = "load"
	StageClean   Stage = "clean"
	StageExplore Stage = "explore"
	StageTrain   Stage = "train"
	StagePredict Stage = "predict"
)

// ErrNonNumeric is returned when a feature value is not a finite number.
var ErrNonNumeric = errors.New("non-numeric feature value")

// StageError wraps the failure that stopped Run.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

func stageErr(s Stage, err error) error {
	if err == nil {
		return nil
	}
	return &StageError{Stage: s, Err: err}
}
