package ml

import (
	"sort"

	"github.com/valyala/fastrand"
)

// minSplitGap is the smallest feature difference that separates two
// samples; closer values are treated as equal.
const minSplitGap = 1e-7

// treeParams bounds tree growth. Zero MaxDepth means unlimited; zero
// MaxFeatures means every feature is searched at each split.
type treeParams struct {
	MaxDepth        int
	MinSamplesSplit int
	MinSamplesLeaf  int
	MaxFeatures     int
}

type treeNode struct {
	feature     int // -1 for a leaf
	threshold   float64
	left, right int
	value       float64
}

// regTree is a fitted CART regression tree over squared error.
type regTree struct {
	nodes []treeNode
}

func (t *regTree) predict(x []float64) float64 {
	n := &t.nodes[0]
	for n.feature >= 0 {
		if x[n.feature] <= n.threshold {
			n = &t.nodes[n.left]
		} else {
			n = &t.nodes[n.right]
		}
	}
	return n.value
}

// depth returns the length of the longest root-to-leaf path.
func (t *regTree) depth() int {
	var walk func(i int) int
	walk = func(i int) int {
		n := t.nodes[i]
		if n.feature < 0 {
			return 0
		}
		return 1 + max(walk(n.left), walk(n.right))
	}
	return walk(0)
}

type treeBuilder struct {
	rows   [][]float64
	y      []float64
	params treeParams
	rng    *fastrand.RNG
	nodes  []treeNode

	features []int
	keys     []float64
}

// buildTree grows a tree on the samples idx (repeats allowed, as produced by
// bootstrapping). rng only matters when MaxFeatures restricts the search.
func buildTree(rows [][]float64, y []float64, idx []int, p treeParams, rng *fastrand.RNG) *regTree {
	if p.MinSamplesSplit < 2 {
		p.MinSamplesSplit = 2
	}
	if p.MinSamplesLeaf < 1 {
		p.MinSamplesLeaf = 1
	}
	nf := len(rows[0])
	b := &treeBuilder{rows: rows, y: y, params: p, rng: rng, features: identity(nf)}
	work := append([]int(nil), idx...)
	b.grow(work, 0)
	return &regTree{nodes: b.nodes}
}

func (b *treeBuilder) grow(idx []int, depth int) int {
	var sum, sumSq float64
	for _, i := range idx {
		sum += b.y[i]
		sumSq += b.y[i] * b.y[i]
	}
	n := float64(len(idx))
	me := len(b.nodes)
	b.nodes = append(b.nodes, treeNode{feature: -1, value: sum / n})

	if len(idx) < b.params.MinSamplesSplit ||
		len(idx) < 2*b.params.MinSamplesLeaf ||
		(b.params.MaxDepth > 0 && depth >= b.params.MaxDepth) ||
		sumSq-sum*sum/n <= 1e-12*max(1, sumSq) {
		return me
	}

	feature, threshold, pos, ok := b.bestSplit(idx, sum)
	if !ok {
		return me
	}

	left := make([]int, 0, pos)
	right := make([]int, 0, len(idx)-pos)
	for _, i := range idx {
		if b.rows[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	l := b.grow(left, depth+1)
	r := b.grow(right, depth+1)
	b.nodes[me] = treeNode{feature: feature, threshold: threshold, left: l, right: r}
	return me
}

// bestSplit finds the split maximising sumL²/nL + sumR²/nR, which is
// equivalent to minimising the children's summed squared error.
func (b *treeBuilder) bestSplit(idx []int, total float64) (feature int, threshold float64, pos int, ok bool) {
	minLeaf := b.params.MinSamplesLeaf
	n := len(idx)

	features := b.features
	if mf := b.params.MaxFeatures; mf > 0 && mf < len(features) {
		// Partial Fisher-Yates: the first mf entries become a random subset.
		for i := 0; i < mf; i++ {
			j := i + int(b.rng.Uint32n(uint32(len(features)-i)))
			features[i], features[j] = features[j], features[i]
		}
		features = features[:mf]
	}

	if cap(b.keys) < n {
		b.keys = make([]float64, n)
	}
	best := total * total / float64(n)
	found := false

	for _, f := range features {
		sort.Slice(idx, func(a, c int) bool { return b.rows[idx[a]][f] < b.rows[idx[c]][f] })
		keys := b.keys[:n]
		for k, i := range idx {
			keys[k] = b.rows[i][f]
		}
		if keys[n-1] <= keys[0]+minSplitGap {
			continue
		}

		var sumL float64
		for k := 0; k < n-1; k++ {
			sumL += b.y[idx[k]]
			nl := k + 1
			if nl < minLeaf {
				continue
			}
			if n-nl < minLeaf {
				break
			}
			if keys[k+1] <= keys[k]+minSplitGap {
				continue
			}
			sumR := total - sumL
			gain := sumL*sumL/float64(nl) + sumR*sumR/float64(n-nl)
			if gain > best {
				best = gain
				feature = f
				threshold = keys[k]/2 + keys[k+1]/2
				if threshold >= keys[k+1] {
					threshold = keys[k]
				}
				pos = nl
				found = true
			}
		}
	}
	return feature, threshold, pos, found
}
