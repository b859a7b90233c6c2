// Package ml holds the regressors and model-selection tools of the charge
// model: a standard scaler, seeded train/test split and k-fold, a linear SGD
// regressor, CART trees with random-forest and gradient-boosting ensembles,
// regression metrics and a parallel grid search.
//
// Feature matrices are row-major *mat.Dense values, one row per patient.
package ml

import (
	"errors"
	"fmt"

	"github.com/valyala/fastrand"
	"gonum.org/v1/gonum/mat"
)

var (
	ErrNotFitted = errors.New("model not fitted")
	ErrShape     = errors.New("shape mismatch")
	ErrEmptyGrid = errors.New("empty parameter grid")
	ErrBadFolds  = errors.New("invalid number of folds")
)

// Regressor is a model predicting one float64 per feature row.
type Regressor interface {
	Fit(X *mat.Dense, y []float64) error
	Predict(X *mat.Dense) ([]float64, error)
}

// Score returns the R² of m's predictions on X against y.
func Score(m Regressor, X *mat.Dense, y []float64) (float64, error) {
	pred, err := m.Predict(X)
	if err != nil {
		return 0, err
	}
	return R2(y, pred)
}

func checkXY(X *mat.Dense, y []float64) (int, int, error) {
	if X == nil {
		return 0, 0, fmt.Errorf("%w: nil matrix", ErrShape)
	}
	r, c := X.Dims()
	if r != len(y) {
		return 0, 0, fmt.Errorf("%w: %d rows, %d targets", ErrShape, r, len(y))
	}
	if r == 0 {
		return 0, 0, fmt.Errorf("%w: no samples", ErrShape)
	}
	return r, c, nil
}

// rowViews returns the rows of X as slices sharing X's backing data.
func rowViews(X *mat.Dense) [][]float64 {
	r, _ := X.Dims()
	rows := make([][]float64, r)
	for i := range rows {
		rows[i] = X.RawRowView(i)
	}
	return rows
}

// SubsetRows copies the rows idx of X and y.
func SubsetRows(X *mat.Dense, y []float64, idx []int) (*mat.Dense, []float64) {
	var ys []float64
	if y != nil {
		ys = make([]float64, len(idx))
		for i, r := range idx {
			ys[i] = y[r]
		}
	}
	if len(idx) == 0 {
		// mat.NewDense panics on zero rows.
		return &mat.Dense{}, ys
	}
	_, c := X.Dims()
	sub := mat.NewDense(len(idx), c, nil)
	for i, r := range idx {
		sub.SetRow(i, X.RawRowView(r))
	}
	return sub, ys
}

// newRNG returns a generator for seed. fastrand treats a zero state as
// "unseeded" and draws a random one, so seeds are first mixed into a
// non-zero state.
func newRNG(seed uint64) *fastrand.RNG {
	z := splitmix64(seed)
	s := uint32(z ^ z>>32)
	if s == 0 {
		s = 0x9e3779b9
	}
	var rng fastrand.RNG
	rng.Seed(s)
	return &rng
}

// childSeed derives an independent seed for worker i.
func childSeed(seed uint64, i int) uint64 {
	return splitmix64(seed ^ splitmix64(uint64(i)+1))
}

func splitmix64(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ x>>30) * 0xbf58476d1ce4e5b9
	x = (x ^ x>>27) * 0x94d049bb133111eb
	return x ^ x>>31
}

// shuffle permutes idx in place (Fisher-Yates).
func shuffle(rng *fastrand.RNG, idx []int) {
	for i := len(idx) - 1; i > 0; i-- {
		j := int(rng.Uint32n(uint32(i + 1)))
		idx[i], idx[j] = idx[j], idx[i]
	}
}

func identity(n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return idx
}
