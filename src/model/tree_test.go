package model

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTreeStepFunction(t *testing.T) {
	X := [][]float64{{0, 7}, {1, 7}, {2, 7}, {3, 7}}
	y := []float64{1, 1, 5, 5}

	tree := NewDecisionTreeRegressor(nil)
	require.NoError(t, tree.Fit(X, y))

	assert.Equal(t, []float64{1, 5}, tree.Predict([][]float64{{0.5, 0}, {2.5, 0}}))
	assert.Equal(t, []float64{1, 0}, tree.FeatureImportances())
	assert.Equal(t, 1, tree.Depth())
}

func TestTreeMaxDepth(t *testing.T) {
	rnd := rand.New(rand.NewSource(3))
	X := make([][]float64, 64)
	y := make([]float64, 64)
	for i := range X {
		X[i] = []float64{float64(i), rnd.Float64()}
		y[i] = float64(i * i)
	}

	tree := NewDecisionTreeRegressor(rnd, WithMaxDepth(3))
	require.NoError(t, tree.Fit(X, y))
	assert.LessOrEqual(t, tree.Depth(), 3)
}

func TestTreeMinSamplesLeaf(t *testing.T) {
	X := [][]float64{{0}, {1}, {2}, {3}, {4}}
	y := []float64{0, 0, 0, 0, 100}

	tree := NewDecisionTreeRegressor(nil, WithMinSamplesLeaf(2))
	require.NoError(t, tree.Fit(X, y))

	// the outlier cannot sit alone in a leaf
	pred := tree.Predict([][]float64{{4}})
	assert.InDelta(t, 50.0, pred[0], 1e-9)
}

func TestTreeConstantTarget(t *testing.T) {
	tree := NewDecisionTreeRegressor(nil)
	require.NoError(t, tree.Fit([][]float64{{1}, {2}, {3}}, []float64{4, 4, 4}))
	assert.Equal(t, 0, tree.Depth())
	assert.Equal(t, []float64{0}, tree.FeatureImportances())
}

func TestTreeRejectsBadInput(t *testing.T) {
	tree := NewDecisionTreeRegressor(nil)
	assert.ErrorIs(t, tree.Fit(nil, nil), ErrEmptyInput)
	assert.Error(t, tree.Fit([][]float64{{1}, {2}}, []float64{1}))
	assert.Error(t, tree.Fit([][]float64{{1}, {2, 3}}, []float64{1, 2}))
	assert.Nil(t, NewDecisionTreeRegressor(nil).Predict([][]float64{{1}}))
}
