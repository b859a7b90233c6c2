package ml

import (
	"fmt"
	"runtime"

	"github.com/exascience/pargo/parallel"
	"gonum.org/v1/gonum/mat"
)

// ForestConfig holds the hyperparameters of RandomForest.
type ForestConfig struct {
	NEstimators     int
	MaxDepth        int
	MinSamplesSplit int
	MinSamplesLeaf  int
	// MaxFeatures limits the features searched per split; 0 searches all.
	MaxFeatures int
	Seed        uint64
}

// DefaultForestConfig grows fully developed trees on every feature.
func DefaultForestConfig() ForestConfig {
	return ForestConfig{
		NEstimators:     100,
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
	}
}

// RandomForest averages CART trees fitted on bootstrap resamples.
type RandomForest struct {
	Config ForestConfig

	trees    []*regTree
	features int
}

func NewRandomForest(cfg ForestConfig) *RandomForest {
	return &RandomForest{Config: cfg}
}

// Fit builds the trees in parallel. Tree i draws its bootstrap sample from
// its own generator seeded with (Seed, i), so the model does not depend on
// scheduling.
func (f *RandomForest) Fit(X *mat.Dense, y []float64) error {
	n, c, err := checkXY(X, y)
	if err != nil {
		return err
	}
	if f.Config.NEstimators < 1 {
		return fmt.Errorf("forest needs at least one tree, got %d", f.Config.NEstimators)
	}

	rows := rowViews(X)
	params := treeParams{
		MaxDepth:        f.Config.MaxDepth,
		MinSamplesSplit: f.Config.MinSamplesSplit,
		MinSamplesLeaf:  f.Config.MinSamplesLeaf,
		MaxFeatures:     f.Config.MaxFeatures,
	}

	trees := make([]*regTree, f.Config.NEstimators)
	parallel.Range(0, len(trees), batches(len(trees)), func(low, high int) {
		for i := low; i < high; i++ {
			rng := newRNG(childSeed(f.Config.Seed, i))
			sample := make([]int, n)
			for k := range sample {
				sample[k] = int(rng.Uint32n(uint32(n)))
			}
			trees[i] = buildTree(rows, y, sample, params, rng)
		}
	})

	f.trees, f.features = trees, c
	return nil
}

func (f *RandomForest) Predict(X *mat.Dense) ([]float64, error) {
	if f.trees == nil {
		return nil, ErrNotFitted
	}
	r, c := X.Dims()
	if c != f.features {
		return nil, fmt.Errorf("%w: %d features, model has %d", ErrShape, c, f.features)
	}
	out := make([]float64, r)
	for i := range out {
		out[i] = f.predictRow(X.RawRowView(i))
	}
	return out, nil
}

// PredictRow predicts a single feature vector.
func (f *RandomForest) PredictRow(x []float64) (float64, error) {
	if f.trees == nil {
		return 0, ErrNotFitted
	}
	if len(x) != f.features {
		return 0, fmt.Errorf("%w: %d features, model has %d", ErrShape, len(x), f.features)
	}
	return f.predictRow(x), nil
}

func (f *RandomForest) predictRow(x []float64) float64 {
	var sum float64
	for _, t := range f.trees {
		sum += t.predict(x)
	}
	return sum / float64(len(f.trees))
}

// batches picks the number of parallel.Range batches for n work items.
func batches(n int) int {
	return max(1, min(n, runtime.GOMAXPROCS(0)))
}
