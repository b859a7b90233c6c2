package explore

import (
	"errors"
	"fmt"
	"io"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"
)

// ErrFriedmanInput is returned for sample sets the Friedman test cannot rank.
var ErrFriedmanInput = errors.New("friedman: invalid samples")

// FriedmanResult is the outcome of a Friedman chi-square test.
type FriedmanResult struct {
	Statistic float64
	PValue    float64
	Samples   int // k
	Blocks    int // n
}

// Friedman runs the Friedman test for repeated samples. Each argument is one
// treatment; element i of every sample belongs to block i. Ties inside a
// block take their average rank and the statistic is tie-corrected.
func Friedman(samples ...[]float64) (FriedmanResult, error) {
	k := len(samples)
	if k < 3 {
		return FriedmanResult{}, fmt.Errorf("%w: need at least 3 samples, got %d", ErrFriedmanInput, k)
	}
	n := len(samples[0])
	if n == 0 {
		return FriedmanResult{}, fmt.Errorf("%w: empty samples", ErrFriedmanInput)
	}
	for j, s := range samples {
		if len(s) != n {
			return FriedmanResult{}, fmt.Errorf("%w: sample %d has %d values, want %d", ErrFriedmanInput, j, len(s), n)
		}
	}

	rankSums := make([]float64, k)
	block := make([]float64, k)
	order := make([]int, k)
	var ties float64
	for i := 0; i < n; i++ {
		for j := range samples {
			block[j] = samples[j][i]
		}
		if floats.HasNaN(block) {
			return FriedmanResult{}, fmt.Errorf("%w: NaN in block %d", ErrFriedmanInput, i)
		}
		floats.Argsort(block, order)

		// block is now sorted; walk groups of equal values.
		for lo := 0; lo < k; {
			hi := lo + 1
			for hi < k && block[hi] == block[lo] {
				hi++
			}
			rank := float64(lo+hi+1) / 2
			for _, j := range order[lo:hi] {
				rankSums[j] += rank
			}
			if t := float64(hi - lo); t > 1 {
				ties += t*t*t - t
			}
			lo = hi
		}
	}

	kf, nf := float64(k), float64(n)
	c := 1 - ties/(kf*(kf*kf-1)*nf)
	if c <= 0 {
		return FriedmanResult{}, fmt.Errorf("%w: every block is fully tied", ErrFriedmanInput)
	}
	ssbn := floats.Dot(rankSums, rankSums)
	chisq := (12/(kf*nf*(kf+1))*ssbn - 3*nf*(kf+1)) / c
	chisq = math.Max(chisq, 0)

	p := distuv.ChiSquared{K: kf - 1}.Survival(chisq)
	return FriedmanResult{Statistic: chisq, PValue: p, Samples: k, Blocks: n}, nil
}

// Significance is the p-value threshold of HypothesisTest.
const Significance = 0.05

// HypothesisSamples are the figures the charge-comparison test is run on:
// one mean charge each for three patient groups. A single block makes the
// statistic depend only on their ordering.
var HypothesisSamples = [][]float64{{32097.43}, {7168.76}, {10676.83}}

// Verdict phrases the test outcome at the Significance level.
func (r FriedmanResult) Verdict() string {
	if r.PValue > Significance {
		return "Probably the same distribution"
	}
	return "Probably different distributions"
}

// HypothesisTest runs the Friedman test on HypothesisSamples and prints the
// statistic line and verdict to w.
func HypothesisTest(w io.Writer) (FriedmanResult, error) {
	res, err := Friedman(HypothesisSamples...)
	if err != nil {
		return res, err
	}
	fmt.Fprintf(w, "stat=%.3f, p=%.3f\n", res.Statistic, res.PValue)
	fmt.Fprintln(w, res.Verdict())
	return res, nil
}
