package ml

import (
	"fmt"

	"github.com/ezoic/scigo/metrics"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// vectors checks a target/prediction pair and wraps it for scigo.
func vectors(yTrue, yPred []float64) (*mat.VecDense, *mat.VecDense, error) {
	if len(yTrue) != len(yPred) {
		return nil, nil, fmt.Errorf("%w: %d targets, %d predictions", ErrShape, len(yTrue), len(yPred))
	}
	if len(yTrue) == 0 {
		return nil, nil, fmt.Errorf("%w: no samples", ErrShape)
	}
	return mat.NewVecDense(len(yTrue), yTrue), mat.NewVecDense(len(yPred), yPred), nil
}

// MAE is the mean absolute error.
func MAE(yTrue, yPred []float64) (float64, error) {
	t, p, err := vectors(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return metrics.MAE(t, p)
}

// MSE is the mean squared error.
func MSE(yTrue, yPred []float64) (float64, error) {
	t, p, err := vectors(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return metrics.MSE(t, p)
}

// RMSE is the square root of MSE.
func RMSE(yTrue, yPred []float64) (float64, error) {
	t, p, err := vectors(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return metrics.RMSE(t, p)
}

// R2 is the coefficient of determination 1 - SSres/SStot. A constant yTrue
// scores 1 on a perfect fit and 0 otherwise.
func R2(yTrue, yPred []float64) (float64, error) {
	t, p, err := vectors(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	if floats.Min(yTrue) == floats.Max(yTrue) {
		if floats.Equal(yTrue, yPred) {
			return 1, nil
		}
		return 0, nil
	}
	return metrics.R2Score(t, p)
}

// Metrics bundles the error measures reported for the linear model.
type Metrics struct {
	MAE  float64
	MSE  float64
	RMSE float64
}

// Evaluate computes MAE, MSE and RMSE together.
func Evaluate(yTrue, yPred []float64) (Metrics, error) {
	var m Metrics
	var err error
	if m.MAE, err = MAE(yTrue, yPred); err != nil {
		return Metrics{}, err
	}
	if m.MSE, err = MSE(yTrue, yPred); err != nil {
		return Metrics{}, err
	}
	if m.RMSE, err = RMSE(yTrue, yPred); err != nil {
		return Metrics{}, err
	}
	return m, nil
}
