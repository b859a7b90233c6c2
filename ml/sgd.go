package ml

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Penalty selects the regularisation term of SGDRegressor.
type Penalty string

const (
	PenaltyL2         Penalty = "l2"
	PenaltyL1         Penalty = "l1"
	PenaltyElasticNet Penalty = "elasticnet"
)

// Valid reports whether p is a known penalty.
func (p Penalty) Valid() bool {
	switch p {
	case PenaltyL2, PenaltyL1, PenaltyElasticNet:
		return true
	}
	return false
}

// ErrDiverged is returned when SGD weights stop being finite.
var ErrDiverged = errors.New("sgd diverged")

// SGDConfig holds the hyperparameters of SGDRegressor.
type SGDConfig struct {
	Alpha   float64
	Penalty Penalty
	// L1Ratio is the L1 share of the elastic-net penalty.
	L1Ratio float64
	// Learning rate eta = Eta0 / t^PowerT, t counting samples seen.
	Eta0   float64
	PowerT float64
	// Training stops after MaxIter epochs, or once NIterNoChange epochs in a
	// row fail to lower the best epoch loss by Tol·n.
	MaxIter       int
	Tol           float64
	NIterNoChange int
	Seed          uint64
}

// DefaultSGDConfig matches scikit-learn's SGDRegressor defaults.
func DefaultSGDConfig() SGDConfig {
	return SGDConfig{
		Alpha:         0.0001,
		Penalty:       PenaltyL2,
		L1Ratio:       0.15,
		Eta0:          0.01,
		PowerT:        0.25,
		MaxIter:       1000,
		Tol:           1e-3,
		NIterNoChange: 5,
	}
}

// SGDRegressor is a linear model fitted by stochastic gradient descent on
// the squared loss.
type SGDRegressor struct {
	Config SGDConfig

	Coef      []float64
	Intercept float64
	// Epochs is the number of passes Fit made.
	Epochs int
}

// NewSGDRegressor returns an unfitted regressor.
func NewSGDRegressor(cfg SGDConfig) *SGDRegressor {
	return &SGDRegressor{Config: cfg}
}

func (m *SGDRegressor) Fit(X *mat.Dense, y []float64) error {
	n, c, err := checkXY(X, y)
	if err != nil {
		return err
	}
	cfg := m.Config
	if !cfg.Penalty.Valid() {
		return fmt.Errorf("unknown penalty %q", cfg.Penalty)
	}

	l1Ratio := 0.0
	switch cfg.Penalty {
	case PenaltyL1:
		l1Ratio = 1
	case PenaltyElasticNet:
		l1Ratio = cfg.L1Ratio
	}

	rows := rowViews(X)
	w := make([]float64, c)
	var b float64

	// Cumulative L1 penalty (u) and the penalty each weight has absorbed (q),
	// for truncated-gradient soft-thresholding.
	var u float64
	q := make([]float64, c)

	rng := newRNG(cfg.Seed)
	order := identity(n)
	t := 1.0
	best := math.Inf(1)
	noImprove := 0

	m.Epochs = 0
	for epoch := 0; epoch < cfg.MaxIter; epoch++ {
		shuffle(rng, order)
		var sumLoss float64
		for _, i := range order {
			eta := cfg.Eta0 / math.Pow(t, cfg.PowerT)
			x := rows[i]

			p := floats.Dot(w, x) + b
			dloss := p - y[i]
			sumLoss += 0.5 * dloss * dloss
			dloss = math.Max(-1e12, math.Min(1e12, dloss))
			update := -eta * dloss

			if l1Ratio < 1 {
				floats.Scale(math.Max(0, 1-(1-l1Ratio)*eta*cfg.Alpha), w)
			}
			floats.AddScaled(w, update, x)
			b += update

			if l1Ratio > 0 {
				u += l1Ratio * eta * cfg.Alpha
				for j := range w {
					z := w[j]
					if z > 0 {
						w[j] = math.Max(0, z-(u+q[j]))
					} else if z < 0 {
						w[j] = math.Min(0, z+(u-q[j]))
					}
					q[j] += w[j] - z
				}
			}
			t++
		}
		m.Epochs++

		if math.IsNaN(sumLoss) || math.IsInf(sumLoss, 0) || math.IsNaN(b) {
			return fmt.Errorf("%w after %d epochs (alpha=%v, penalty=%s)", ErrDiverged, m.Epochs, cfg.Alpha, cfg.Penalty)
		}
		if cfg.Tol > 0 {
			if sumLoss > best-cfg.Tol*float64(n) {
				noImprove++
			} else {
				noImprove = 0
			}
			if sumLoss < best {
				best = sumLoss
			}
			if noImprove >= cfg.NIterNoChange {
				break
			}
		}
	}

	m.Coef, m.Intercept = w, b
	return nil
}

func (m *SGDRegressor) Predict(X *mat.Dense) ([]float64, error) {
	if m.Coef == nil {
		return nil, ErrNotFitted
	}
	r, c := X.Dims()
	if c != len(m.Coef) {
		return nil, fmt.Errorf("%w: %d features, model has %d", ErrShape, c, len(m.Coef))
	}
	out := make([]float64, r)
	for i := range out {
		out[i] = floats.Dot(m.Coef, X.RawRowView(i)) + m.Intercept
	}
	return out, nil
}

// PredictRow predicts a single feature vector.
func (m *SGDRegressor) PredictRow(x []float64) (float64, error) {
	if m.Coef == nil {
		return 0, ErrNotFitted
	}
	if len(x) != len(m.Coef) {
		return 0, fmt.Errorf("%w: %d features, model has %d", ErrShape, len(x), len(m.Coef))
	}
	return floats.Dot(m.Coef, x) + m.Intercept, nil
}
