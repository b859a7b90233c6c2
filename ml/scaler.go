package ml

import (
	"fmt"

	"github.com/ezoic/scigo/preprocessing"
	"gonum.org/v1/gonum/mat"
)

// StandardScaler is scigo's population-variance scaler, typed for the
// *mat.Dense matrices used here. Columns with a near-zero spread are only
// centred.
type StandardScaler struct {
	*preprocessing.StandardScaler
}

// NewStandardScaler centres and scales every column.
func NewStandardScaler() *StandardScaler {
	return &StandardScaler{preprocessing.NewStandardScaler(true, true)}
}

// Fit learns per-column mean and scale from X.
func (s *StandardScaler) Fit(X *mat.Dense) error {
	if X == nil || X.IsEmpty() {
		return fmt.Errorf("%w: no samples", ErrShape)
	}
	return s.StandardScaler.Fit(X)
}

// Transform returns a scaled copy of X using the fitted parameters.
func (s *StandardScaler) Transform(X *mat.Dense) (*mat.Dense, error) {
	if !s.IsFitted() {
		return nil, ErrNotFitted
	}
	if _, c := X.Dims(); c != s.NFeatures {
		return nil, fmt.Errorf("%w: %d columns, scaler fitted on %d", ErrShape, c, s.NFeatures)
	}
	Z, err := s.StandardScaler.Transform(X)
	if err != nil {
		return nil, err
	}
	if d, ok := Z.(*mat.Dense); ok {
		return d, nil
	}
	return mat.DenseCopyOf(Z), nil
}

// FitTransform fits on X and returns X scaled.
func (s *StandardScaler) FitTransform(X *mat.Dense) (*mat.Dense, error) {
	if err := s.Fit(X); err != nil {
		return nil, err
	}
	return s.Transform(X)
}

// TransformRow scales a single feature vector.
func (s *StandardScaler) TransformRow(x []float64) ([]float64, error) {
	if !s.IsFitted() {
		return nil, ErrNotFitted
	}
	if len(x) != s.NFeatures {
		return nil, fmt.Errorf("%w: %d features, scaler fitted on %d", ErrShape, len(x), s.NFeatures)
	}
	Z, err := s.Transform(mat.NewDense(1, len(x), append([]float64(nil), x...)))
	if err != nil {
		return nil, err
	}
	return Z.RawRowView(0), nil
}
