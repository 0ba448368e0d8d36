package model

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func linearData(n int, seed int64) ([][]float64, []float64) {
	rnd := rand.New(rand.NewSource(seed))
	X := make([][]float64, n)
	y := make([]float64, n)
	for i := range X {
		x0 := rnd.Float64() * 10
		X[i] = []float64{x0, rnd.Float64(), rnd.Float64()}
		y[i] = 3 * x0
	}
	return X, y
}

func TestForestIsReproducible(t *testing.T) {
	X, y := linearData(200, 1)

	a := NewRandomForestRegressor(rand.New(rand.NewSource(42)), WithNEstimators(20))
	b := NewRandomForestRegressor(rand.New(rand.NewSource(42)), WithNEstimators(20))
	require.NoError(t, a.Fit(X, y))
	require.NoError(t, b.Fit(X, y))

	assert.Equal(t, a.Predict(X), b.Predict(X))

	ia, err := a.FeatureImportances()
	require.NoError(t, err)
	ib, err := b.FeatureImportances()
	require.NoError(t, err)
	assert.Equal(t, ia, ib)
}

func TestForestImportances(t *testing.T) {
	X, y := linearData(300, 2)

	rf := NewRandomForestRegressor(rand.New(rand.NewSource(7)), WithNEstimators(30))
	require.NoError(t, rf.Fit(X, y))

	imp, err := rf.FeatureImportances()
	require.NoError(t, err)
	require.Len(t, imp, 3)

	sum := 0.0
	for _, v := range imp {
		sum += v
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
	assert.Greater(t, imp[0], imp[1])
	assert.Greater(t, imp[0], imp[2])
}

func TestForestFitsSignal(t *testing.T) {
	X, y := linearData(400, 3)
	train, test, err := TrainTestSplit(len(X), 0.2, rand.New(rand.NewSource(5)))
	require.NoError(t, err)

	rf := NewRandomForestRegressor(rand.New(rand.NewSource(5)), WithNEstimators(25), WithForestMaxFeatures(3))
	require.NoError(t, rf.Fit(Rows(X, train), Values(y, train)))

	m, err := Evaluate(rf, Rows(X, test), Values(y, test))
	require.NoError(t, err)
	assert.Greater(t, m.R2, 0.9)
	assert.Equal(t, len(test), m.N)
}

func TestForestFeaturesPerSplit(t *testing.T) {
	rf := NewRandomForestRegressor(nil)
	assert.Equal(t, 4, rf.featuresPerSplit(10))
	assert.Equal(t, 1, rf.featuresPerSplit(1))

	rf.MaxFeatures = 50
	assert.Equal(t, 10, rf.featuresPerSplit(10))
}

func TestForestNotFitted(t *testing.T) {
	rf := NewRandomForestRegressor(nil)
	assert.Nil(t, rf.Predict([][]float64{{1}}))

	_, err := rf.FeatureImportances()
	assert.ErrorIs(t, err, ErrNotFitted)

	_, err = Evaluate(rf, [][]float64{{1}}, []float64{1})
	assert.ErrorIs(t, err, ErrNotFitted)
}
