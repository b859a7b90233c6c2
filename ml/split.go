package ml

import (
	"fmt"
	"math"
)

// Split is a partition of sample indices.
type Split struct {
	Train []int
	Test  []int
}

// TrainTestSplit shuffles 0..n-1 with seed and puts the first
// ceil(testSize·n) indices in Test, the rest in Train.
func TrainTestSplit(n int, testSize float64, seed uint64) (Split, error) {
	if testSize <= 0 || testSize >= 1 {
		return Split{}, fmt.Errorf("test size %v outside (0, 1)", testSize)
	}
	nTest := int(math.Ceil(testSize * float64(n)))
	if n < 2 || nTest >= n {
		return Split{}, fmt.Errorf("%w: cannot split %d samples with test size %v", ErrShape, n, testSize)
	}

	perm := identity(n)
	shuffle(newRNG(seed), perm)
	return Split{Train: perm[nTest:], Test: perm[:nTest]}, nil
}

// Fold is one cross-validation round.
type Fold struct {
	Train      []int
	Validation []int
}

// KFold splits 0..n-1 into k contiguous validation folds without
// shuffling. The first n%k folds hold one extra sample.
func KFold(n, k int) ([]Fold, error) {
	if k < 2 || k > n {
		return nil, fmt.Errorf("%w: %d folds for %d samples", ErrBadFolds, k, n)
	}
	folds := make([]Fold, k)
	start := 0
	for f := range folds {
		size := n / k
		if f < n%k {
			size++
		}
		end := start + size

		train := make([]int, 0, n-size)
		for i := 0; i < start; i++ {
			train = append(train, i)
		}
		for i := end; i < n; i++ {
			train = append(train, i)
		}
		val := make([]int, 0, size)
		for i := start; i < end; i++ {
			val = append(val, i)
		}
		folds[f] = Fold{Train: train, Validation: val}
		start = end
	}
	return folds, nil
}
