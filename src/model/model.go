package model

import "errors"

var (
	ErrNotFitted  = errors.New("model: not fitted")
	ErrEmptyInput = errors.New("model: empty input")
)

// Regressor is a supervised model with a continuous target.
type Regressor interface {
	Fit(X [][]float64, y []float64) error
	Predict(X [][]float64) []float64
}

// checkXY validates shapes and returns the feature count.
func checkXY(X [][]float64, y []float64) (int, error) {
	if len(X) == 0 {
		return 0, ErrEmptyInput
	}
	if len(y) != len(X) {
		return 0, errors.New("model: X and y length mismatch")
	}
	p := len(X[0])
	if p == 0 {
		return 0, ErrEmptyInput
	}
	for i := range X {
		if len(X[i]) != p {
			return 0, errors.New("model: inconsistent number of features in X rows")
		}
	}
	return p, nil
}
