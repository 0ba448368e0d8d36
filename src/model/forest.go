package model

import (
	"math"
	"math/rand"
	"runtime"
	"sync"
)

// RandomForestRegressor averages bootstrapped regression trees.
type RandomForestRegressor struct {
	NEstimators     int
	MaxDepth        int
	MinSamplesSplit int
	MinSamplesLeaf  int
	MaxFeatures     int // 0 => ceil(p/3)
	Bootstrap       bool

	Trees     []*DecisionTreeRegressor
	nFeatures int
	rnd       *rand.Rand
}

// RandomForestOption configures a RandomForestRegressor.
type RandomForestOption func(*RandomForestRegressor)

func WithNEstimators(n int) RandomForestOption {
	return func(rf *RandomForestRegressor) { rf.NEstimators = n }
}
func WithBootstrap(b bool) RandomForestOption {
	return func(rf *RandomForestRegressor) { rf.Bootstrap = b }
}
func WithForestMaxDepth(d int) RandomForestOption {
	return func(rf *RandomForestRegressor) { rf.MaxDepth = d }
}
func WithForestMinSamplesSplit(n int) RandomForestOption {
	return func(rf *RandomForestRegressor) { rf.MinSamplesSplit = n }
}
func WithForestMinSamplesLeaf(n int) RandomForestOption {
	return func(rf *RandomForestRegressor) { rf.MinSamplesLeaf = n }
}
func WithForestMaxFeatures(k int) RandomForestOption {
	return func(rf *RandomForestRegressor) { rf.MaxFeatures = k }
}

// NewRandomForestRegressor takes every random draw from rnd, so the same
// seed and data give the same forest.
func NewRandomForestRegressor(rnd *rand.Rand, opts ...RandomForestOption) *RandomForestRegressor {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(0))
	}
	rf := &RandomForestRegressor{
		NEstimators:     100,
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
		Bootstrap:       true,
		rnd:             rnd,
	}
	for _, o := range opts {
		o(rf)
	}
	return rf
}

// featuresPerSplit resolves MaxFeatures against p.
func (rf *RandomForestRegressor) featuresPerSplit(p int) int {
	k := rf.MaxFeatures
	if k <= 0 {
		k = int(math.Ceil(float64(p) / 3))
	}
	return max(1, min(k, p))
}

// Fit trains the trees on a bounded worker pool. Per-tree seeds are drawn
// up front in tree order, and each result lands in its own slot.
func (rf *RandomForestRegressor) Fit(X [][]float64, y []float64) error {
	p, err := checkXY(X, y)
	if err != nil {
		return err
	}
	if rf.NEstimators <= 0 {
		rf.NEstimators = 1
	}
	n := len(X)
	k := rf.featuresPerSplit(p)

	seeds := make([]int64, rf.NEstimators)
	for i := range seeds {
		seeds[i] = rf.rnd.Int63()
	}

	trees := make([]*DecisionTreeRegressor, rf.NEstimators)
	errs := make([]error, rf.NEstimators)
	jobs := make(chan int)
	var wg sync.WaitGroup

	workers := min(runtime.GOMAXPROCS(0), rf.NEstimators)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				treeRand := rand.New(rand.NewSource(seeds[idx]))

				sampleIndices := make([]int, n)
				for j := 0; j < n; j++ {
					if rf.Bootstrap {
						sampleIndices[j] = treeRand.Intn(n)
					} else {
						sampleIndices[j] = j
					}
				}

				tree := NewDecisionTreeRegressor(treeRand,
					WithMaxDepth(rf.MaxDepth),
					WithMinSamplesSplit(rf.MinSamplesSplit),
					WithMinSamplesLeaf(rf.MinSamplesLeaf),
					WithMaxFeatures(k),
				)
				errs[idx] = tree.fitIndices(X, y, sampleIndices)
				trees[idx] = tree
			}
		}()
	}
	for i := 0; i < rf.NEstimators; i++ {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	rf.Trees = trees
	rf.nFeatures = p
	return nil
}

// Predict returns the mean tree prediction per row, summed in tree order.
// An unfitted forest yields nil.
func (rf *RandomForestRegressor) Predict(X [][]float64) []float64 {
	if len(rf.Trees) == 0 {
		return nil
	}
	all := make([][]float64, len(rf.Trees))
	var wg sync.WaitGroup
	for i, tree := range rf.Trees {
		wg.Add(1)
		go func(i int, t *DecisionTreeRegressor) {
			defer wg.Done()
			all[i] = t.Predict(X)
		}(i, tree)
	}
	wg.Wait()

	out := make([]float64, len(X))
	for _, preds := range all {
		for j, v := range preds {
			out[j] += v
		}
	}
	for j := range out {
		out[j] /= float64(len(rf.Trees))
	}
	return out
}

// FeatureImportances averages the normalised importances of every tree that
// split at least once, then renormalises to sum to 1.
func (rf *RandomForestRegressor) FeatureImportances() ([]float64, error) {
	if len(rf.Trees) == 0 {
		return nil, ErrNotFitted
	}
	out := make([]float64, rf.nFeatures)
	used := 0
	for _, t := range rf.Trees {
		if t.root == nil || t.root.isLeaf {
			continue
		}
		for i, v := range t.FeatureImportances() {
			out[i] += v
		}
		used++
	}
	if used == 0 {
		return out, nil
	}
	total := 0.0
	for _, v := range out {
		total += v
	}
	if total > 0 {
		for i := range out {
			out[i] /= total
		}
	}
	return out, nil
}

// NumFeatures is the column count seen at fit time.
func (rf *RandomForestRegressor) NumFeatures() int { return rf.nFeatures }
