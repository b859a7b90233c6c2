package ml

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// BoostingConfig holds the hyperparameters of GradientBoosting.
type BoostingConfig struct {
	NEstimators     int
	LearningRate    float64
	MaxDepth        int
	MinSamplesSplit int
	MinSamplesLeaf  int
	MaxFeatures     int
	Seed            uint64
}

// DefaultBoostingConfig matches scikit-learn's GradientBoostingRegressor
// defaults.
func DefaultBoostingConfig() BoostingConfig {
	return BoostingConfig{
		NEstimators:     100,
		LearningRate:    0.1,
		MaxDepth:        3,
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
	}
}

// GradientBoosting is a squared-loss gradient-boosted ensemble of shallow
// CART trees. Each stage fits the current residuals.
type GradientBoosting struct {
	Config BoostingConfig

	init     float64
	stages   []*regTree
	features int
}

func NewGradientBoosting(cfg BoostingConfig) *GradientBoosting {
	return &GradientBoosting{Config: cfg}
}

func (g *GradientBoosting) Fit(X *mat.Dense, y []float64) error {
	n, c, err := checkXY(X, y)
	if err != nil {
		return err
	}
	cfg := g.Config
	if cfg.NEstimators < 1 {
		return fmt.Errorf("boosting needs at least one stage, got %d", cfg.NEstimators)
	}
	if cfg.LearningRate <= 0 {
		return fmt.Errorf("learning rate must be positive, got %v", cfg.LearningRate)
	}

	rows := rowViews(X)
	params := treeParams{
		MaxDepth:        cfg.MaxDepth,
		MinSamplesSplit: cfg.MinSamplesSplit,
		MinSamplesLeaf:  cfg.MinSamplesLeaf,
		MaxFeatures:     cfg.MaxFeatures,
	}
	rng := newRNG(cfg.Seed)
	all := identity(n)

	g.init = stat.Mean(y, nil)
	pred := make([]float64, n)
	for i := range pred {
		pred[i] = g.init
	}
	residual := make([]float64, n)

	g.stages = make([]*regTree, 0, cfg.NEstimators)
	for m := 0; m < cfg.NEstimators; m++ {
		for i := range residual {
			residual[i] = y[i] - pred[i]
		}
		tree := buildTree(rows, residual, all, params, rng)
		for i, x := range rows {
			pred[i] += cfg.LearningRate * tree.predict(x)
		}
		g.stages = append(g.stages, tree)
	}
	g.features = c
	return nil
}

func (g *GradientBoosting) Predict(X *mat.Dense) ([]float64, error) {
	if g.stages == nil {
		return nil, ErrNotFitted
	}
	r, c := X.Dims()
	if c != g.features {
		return nil, fmt.Errorf("%w: %d features, model has %d", ErrShape, c, g.features)
	}
	out := make([]float64, r)
	for i := range out {
		out[i] = g.predictRow(X.RawRowView(i))
	}
	return out, nil
}

// PredictRow predicts a single feature vector.
func (g *GradientBoosting) PredictRow(x []float64) (float64, error) {
	if g.stages == nil {
		return 0, ErrNotFitted
	}
	if len(x) != g.features {
		return 0, fmt.Errorf("%w: %d features, model has %d", ErrShape, len(x), g.features)
	}
	return g.predictRow(x), nil
}

func (g *GradientBoosting) predictRow(x []float64) float64 {
	v := g.init
	for _, t := range g.stages {
		v += g.Config.LearningRate * t.predict(x)
	}
	return v
}
