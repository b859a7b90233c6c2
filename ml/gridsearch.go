package ml

import (
	"errors"
	"fmt"
	"math"

	"github.com/exascience/pargo/parallel"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// ParamGrid is the cartesian product of SGD alphas and penalties.
type ParamGrid struct {
	Alpha   []float64 `yaml:"alpha"`
	Penalty []Penalty `yaml:"penalty"`
}

// DefaultParamGrid is the grid searched for the linear model.
func DefaultParamGrid() ParamGrid {
	return ParamGrid{
		Alpha:   []float64{0.0001, 0.001, 0.01, 0.05, 0.1, 0.2, 0.3, 0.4, 0.5, 1.0, 10.0, 100, 500},
		Penalty: []Penalty{PenaltyL2, PenaltyL1, PenaltyElasticNet},
	}
}

// Params is one grid point.
type Params struct {
	Alpha   float64
	Penalty Penalty
}

func (p Params) String() string {
	return fmt.Sprintf("alpha=%v penalty=%s", p.Alpha, p.Penalty)
}

// Combinations enumerates the grid with alpha varying slowest.
func (g ParamGrid) Combinations() []Params {
	out := make([]Params, 0, len(g.Alpha)*len(g.Penalty))
	for _, a := range g.Alpha {
		for _, p := range g.Penalty {
			out = append(out, Params{Alpha: a, Penalty: p})
		}
	}
	return out
}

// GridResult is the cross-validated score of one grid point.
type GridResult struct {
	Params  Params
	FoldMAE []float64
	MeanMAE float64
}

// GridSearch picks the SGD hyperparameters minimising mean fold MAE.
type GridSearch struct {
	Grid  ParamGrid
	Folds int
	// Base supplies every SGD setting the grid does not vary.
	Base SGDConfig
}

// SearchResult is the outcome of GridSearch.Run.
type SearchResult struct {
	Best    Params
	BestMAE float64
	Results []GridResult
}

// Run cross-validates every grid point. Points are evaluated in parallel;
// ties on the mean MAE go to the earliest point in Combinations order.
func (g GridSearch) Run(X *mat.Dense, y []float64) (SearchResult, error) {
	n, _, err := checkXY(X, y)
	if err != nil {
		return SearchResult{}, err
	}
	combos := g.Grid.Combinations()
	if len(combos) == 0 {
		return SearchResult{}, ErrEmptyGrid
	}
	for _, c := range combos {
		if !c.Penalty.Valid() {
			return SearchResult{}, fmt.Errorf("grid: unknown penalty %q", c.Penalty)
		}
	}
	folds, err := KFold(n, g.Folds)
	if err != nil {
		return SearchResult{}, err
	}

	data := make([]foldData, len(folds))
	for i, f := range folds {
		data[i].trainX, data[i].trainY = SubsetRows(X, y, f.Train)
		data[i].valX, data[i].valY = SubsetRows(X, y, f.Validation)
	}

	results := make([]GridResult, len(combos))
	errs := make([]error, len(combos))
	parallel.Range(0, len(combos), batches(len(combos)), func(low, high int) {
		for i := low; i < high; i++ {
			cfg := g.Base
			cfg.Alpha, cfg.Penalty = combos[i].Alpha, combos[i].Penalty

			maes := make([]float64, len(data))
			for f, d := range data {
				mae, err := d.score(cfg)
				if err != nil {
					errs[i] = fmt.Errorf("%v fold %d: %w", combos[i], f, err)
					break
				}
				maes[f] = mae
			}
			results[i] = GridResult{Params: combos[i], FoldMAE: maes, MeanMAE: stat.Mean(maes, nil)}
		}
	})

	for _, err := range errs {
		if err != nil {
			return SearchResult{}, err
		}
	}

	best := 0
	for i := range results {
		if results[i].MeanMAE < results[best].MeanMAE {
			best = i
		}
	}
	return SearchResult{Best: results[best].Params, BestMAE: results[best].MeanMAE, Results: results}, nil
}

type foldData struct {
	trainX, valX *mat.Dense
	trainY, valY []float64
}

// score fits cfg on the training rows and returns the validation MAE. A
// diverging fit scores +Inf so the point just loses the search.
func (d foldData) score(cfg SGDConfig) (float64, error) {
	m := NewSGDRegressor(cfg)
	if err := m.Fit(d.trainX, d.trainY); err != nil {
		if errors.Is(err, ErrDiverged) {
			return math.Inf(1), nil
		}
		return 0, err
	}
	pred, err := m.Predict(d.valX)
	if err != nil {
		return 0, err
	}
	return MAE(d.valY, pred)
}
