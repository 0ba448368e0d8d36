package model

import (
	"fmt"
	"math"
	"math/rand"
)

// TrainTestSplit shuffles 0..n-1 with rnd and holds out ceil(n*testRatio)
// indices.
func TrainTestSplit(n int, testRatio float64, rnd *rand.Rand) (train, test []int, err error) {
	if testRatio <= 0 || testRatio >= 1 {
		return nil, nil, fmt.Errorf("model: test ratio %v outside (0,1)", testRatio)
	}
	nTest := int(math.Ceil(float64(n) * testRatio))
	if nTest < 1 || n-nTest < 1 {
		return nil, nil, fmt.Errorf("model: %d rows cannot be split with test ratio %v", n, testRatio)
	}
	perm := rnd.Perm(n)
	return perm[nTest:], perm[:nTest], nil
}

// Rows picks X rows by index.
func Rows(X [][]float64, idx []int) [][]float64 {
	out := make([][]float64, len(idx))
	for i, j := range idx {
		out[i] = X[j]
	}
	return out
}

// Values picks y values by index.
func Values(y []float64, idx []int) []float64 {
	out := make([]float64, len(idx))
	for i, j := range idx {
		out[i] = y[j]
	}
	return out
}
