package model

import (
	"math"
	"math/rand"
	"sort"
)

// DecisionTreeRegressor is a CART regression tree splitting on squared
// error.
type DecisionTreeRegressor struct {
	MaxDepth        int // 0 => no limit
	MinSamplesSplit int
	MinSamplesLeaf  int
	MaxFeatures     int // 0 => every feature is tried at each node

	root        *treeNode
	nFeatures   int
	importances []float64 // raw squared-error decrease per feature
	rnd         *rand.Rand
}

type treeNode struct {
	isLeaf    bool
	feature   int
	threshold float64 // x <= threshold goes left
	left      *treeNode
	right     *treeNode
	n         int
	value     float64
}

// TreeOption configures a DecisionTreeRegressor.
type TreeOption func(*DecisionTreeRegressor)

func WithMaxDepth(d int) TreeOption { return func(t *DecisionTreeRegressor) { t.MaxDepth = d } }
func WithMinSamplesSplit(n int) TreeOption {
	return func(t *DecisionTreeRegressor) { t.MinSamplesSplit = n }
}
func WithMinSamplesLeaf(n int) TreeOption {
	return func(t *DecisionTreeRegressor) { t.MinSamplesLeaf = n }
}
func WithMaxFeatures(k int) TreeOption { return func(t *DecisionTreeRegressor) { t.MaxFeatures = k } }

// NewDecisionTreeRegressor draws feature subsets from rnd. A nil rnd gets a
// fixed-seed source so results stay reproducible.
func NewDecisionTreeRegressor(rnd *rand.Rand, opts ...TreeOption) *DecisionTreeRegressor {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(0))
	}
	t := &DecisionTreeRegressor{
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
		rnd:             rnd,
	}
	for _, o := range opts {
		o(t)
	}
	if t.MinSamplesSplit < 2 {
		t.MinSamplesSplit = 2
	}
	if t.MinSamplesLeaf < 1 {
		t.MinSamplesLeaf = 1
	}
	return t
}

// Fit grows the tree on every row of X.
func (t *DecisionTreeRegressor) Fit(X [][]float64, y []float64) error {
	idx := make([]int, len(X))
	for i := range idx {
		idx[i] = i
	}
	return t.fitIndices(X, y, idx)
}

// fitIndices grows the tree on the rows listed in idx, repeats allowed.
func (t *DecisionTreeRegressor) fitIndices(X [][]float64, y []float64, idx []int) error {
	p, err := checkXY(X, y)
	if err != nil {
		return err
	}
	if len(idx) == 0 {
		return ErrEmptyInput
	}
	t.nFeatures = p
	t.importances = make([]float64, p)
	t.root = t.buildNode(X, y, idx, 0)
	return nil
}

// Predict returns one value per row. An unfitted tree yields nil.
func (t *DecisionTreeRegressor) Predict(X [][]float64) []float64 {
	if t.root == nil {
		return nil
	}
	out := make([]float64, len(X))
	for i, row := range X {
		out[i] = t.predictSingle(row)
	}
	return out
}

func (t *DecisionTreeRegressor) predictSingle(x []float64) float64 {
	node := t.root
	for !node.isLeaf {
		if x[node.feature] <= node.threshold {
			node = node.left
		} else {
			node = node.right
		}
	}
	return node.value
}

// FeatureImportances returns the squared-error decrease per feature,
// normalised to sum to 1. A tree that never split returns zeros.
func (t *DecisionTreeRegressor) FeatureImportances() []float64 {
	out := make([]float64, len(t.importances))
	total := 0.0
	for _, v := range t.importances {
		total += v
	}
	if total <= 0 {
		return out
	}
	for i, v := range t.importances {
		out[i] = v / total
	}
	return out
}

// Depth is the length of the longest root-to-leaf path.
func (t *DecisionTreeRegressor) Depth() int { return nodeDepth(t.root) }

func nodeDepth(n *treeNode) int {
	if n == nil || n.isLeaf {
		return 0
	}
	return 1 + max(nodeDepth(n.left), nodeDepth(n.right))
}

// valuePair is a feature value with its target.
type valuePair struct {
	v float64
	y float64
}

type split struct {
	feature   int
	threshold float64
	sse       float64
}

func (t *DecisionTreeRegressor) buildNode(X [][]float64, y []float64, idx []int, depth int) *treeNode {
	n := len(idx)
	sum, sumSq := 0.0, 0.0
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, i := range idx {
		sum += y[i]
		sumSq += y[i] * y[i]
		lo = math.Min(lo, y[i])
		hi = math.Max(hi, y[i])
	}
	node := &treeNode{isLeaf: true, n: n, value: sum / float64(n)}

	if lo == hi || n < t.MinSamplesSplit || n < 2*t.MinSamplesLeaf {
		return node
	}
	if t.MaxDepth > 0 && depth >= t.MaxDepth {
		return node
	}

	parentSSE := sumSq - sum*sum/float64(n)
	best, found := t.bestSplit(X, y, idx, sum, sumSq)
	if !found {
		return node
	}

	if gain := parentSSE - best.sse; gain > 0 {
		t.importances[best.feature] += gain
	}

	var left, right []int
	for _, i := range idx {
		if X[i][best.feature] <= best.threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	node.isLeaf = false
	node.feature = best.feature
	node.threshold = best.threshold
	node.left = t.buildNode(X, y, left, depth+1)
	node.right = t.buildNode(X, y, right, depth+1)
	return node
}

// bestSplit visits features in random order. Constant features do not
// count towards MaxFeatures, and the search continues past MaxFeatures
// until some valid split exists.
func (t *DecisionTreeRegressor) bestSplit(X [][]float64, y []float64, idx []int, sum, sumSq float64) (split, bool) {
	k := t.MaxFeatures
	if k <= 0 || k > t.nFeatures {
		k = t.nFeatures
	}
	order := t.rnd.Perm(t.nFeatures)

	best := split{feature: -1, sse: math.Inf(1)}
	pairs := make([]valuePair, len(idx))
	visited := 0
	for _, f := range order {
		if visited >= k && best.feature >= 0 {
			break
		}
		for j, i := range idx {
			pairs[j] = valuePair{v: X[i][f], y: y[i]}
		}
		sort.Slice(pairs, func(a, b int) bool { return pairs[a].v < pairs[b].v })
		if pairs[0].v == pairs[len(pairs)-1].v {
			continue
		}
		visited++
		if s, ok := t.bestSplitForFeature(pairs, f, sum, sumSq); ok && s.sse < best.sse {
			best = s
		}
	}
	return best, best.feature >= 0
}

// bestSplitForFeature scans the sorted pairs with running sums.
func (t *DecisionTreeRegressor) bestSplitForFeature(pairs []valuePair, f int, sum, sumSq float64) (split, bool) {
	n := len(pairs)
	best := split{feature: -1, sse: math.Inf(1)}
	leftSum, leftSq := 0.0, 0.0
	for s := 1; s < n; s++ {
		leftSum += pairs[s-1].y
		leftSq += pairs[s-1].y * pairs[s-1].y
		if pairs[s].v == pairs[s-1].v {
			continue
		}
		nl, nr := float64(s), float64(n-s)
		if s < t.MinSamplesLeaf || n-s < t.MinSamplesLeaf {
			continue
		}
		rightSum := sum - leftSum
		sse := (leftSq - leftSum*leftSum/nl) + (sumSq - leftSq - rightSum*rightSum/nr)
		if sse < best.sse {
			thr := (pairs[s-1].v + pairs[s].v) / 2
			if thr >= pairs[s].v {
				thr = pairs[s-1].v
			}
			best = split{feature: f, threshold: thr, sse: sse}
		}
	}
	return best, best.feature >= 0
}
