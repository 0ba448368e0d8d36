package model

import "math/rand"

// TrainingConfig holds the split and forest hyperparameters.
type TrainingConfig struct {
	TestRatio       float64
	NEstimators     int
	MaxDepth        int
	MinSamplesSplit int
	MinSamplesLeaf  int
	MaxFeatures     int
	RandomSeed      int64
}

func DefaultTrainingConfig() TrainingConfig {
	return TrainingConfig{
		TestRatio:       0.2,
		NEstimators:     100,
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
		RandomSeed:      42,
	}
}

// Trainer owns the one random source of a run. Split and Fit draw from it
// in call order.
type Trainer struct {
	Config TrainingConfig
	Rand   *rand.Rand
}

// NewTrainer seeds a source from cfg.RandomSeed when rnd is nil.
func NewTrainer(cfg TrainingConfig, rnd *rand.Rand) *Trainer {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(cfg.RandomSeed))
	}
	return &Trainer{Config: cfg, Rand: rnd}
}

func (t *Trainer) Split(n int) (train, test []int, err error) {
	return TrainTestSplit(n, t.Config.TestRatio, t.Rand)
}

// Fit trains a forest on X, y.
func (t *Trainer) Fit(X [][]float64, y []float64) (*RandomForestRegressor, error) {
	rf := NewRandomForestRegressor(t.Rand,
		WithNEstimators(t.Config.NEstimators),
		WithForestMaxDepth(t.Config.MaxDepth),
		WithForestMinSamplesSplit(t.Config.MinSamplesSplit),
		WithForestMinSamplesLeaf(t.Config.MinSamplesLeaf),
		WithForestMaxFeatures(t.Config.MaxFeatures),
	)
	if err := rf.Fit(X, y); err != nil {
		return nil, err
	}
	return rf, nil
}
