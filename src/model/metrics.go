package model

import (
	"fmt"
	"math"
)

func MSE(yTrue, yPred []float64) float64 {
	n := float64(len(yTrue))
	s := 0.0
	for i := range yTrue {
		d := yPred[i] - yTrue[i]
		s += d * d
	}
	return s / n
}

func MAE(yTrue, yPred []float64) float64 {
	n := float64(len(yTrue))
	s := 0.0
	for i := range yTrue {
		s += math.Abs(yPred[i] - yTrue[i])
	}
	return s / n
}

func RMSE(yTrue, yPred []float64) float64 { return math.Sqrt(MSE(yTrue, yPred)) }

// R2 is the coefficient of determination. A constant target has no
// variance to explain: a perfect prediction scores 1, anything else 0.
func R2(yTrue, yPred []float64) float64 {
	m := 0.0
	for _, v := range yTrue {
		m += v
	}
	m /= float64(len(yTrue))
	ssTot := 0.0
	ssRes := 0.0
	for i := range yTrue {
		d := yTrue[i] - m
		ssTot += d * d
		r := yTrue[i] - yPred[i]
		ssRes += r * r
	}
	if ssTot == 0 {
		if ssRes == 0 {
			return 1
		}
		return 0
	}
	return 1 - ssRes/ssTot
}

// EvaluationMetrics are computed on rows never seen during fit.
type EvaluationMetrics struct {
	R2   float64
	MAE  float64
	MSE  float64
	RMSE float64
	N    int
}

func (m EvaluationMetrics) String() string {
	return fmt.Sprintf("R2=%.4f MAE=%.2f RMSE=%.2f n=%d", m.R2, m.MAE, m.RMSE, m.N)
}

// Evaluate scores m on the held-out rows X, y.
func Evaluate(m Regressor, X [][]float64, y []float64) (EvaluationMetrics, error) {
	if len(X) == 0 || len(y) == 0 {
		return EvaluationMetrics{}, ErrEmptyInput
	}
	if len(X) != len(y) {
		return EvaluationMetrics{}, fmt.Errorf("model: %d rows but %d targets", len(X), len(y))
	}
	pred := m.Predict(X)
	if pred == nil {
		return EvaluationMetrics{}, ErrNotFitted
	}
	return EvaluationMetrics{
		R2:   R2(y, pred),
		MAE:  MAE(y, pred),
		MSE:  MSE(y, pred),
		RMSE: RMSE(y, pred),
		N:    len(y),
	}, nil
}
