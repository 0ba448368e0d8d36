package processor

import (
	"fmt"
	"math"

	"PricingIntelligence/src/model"

	"github.com/go-gota/gota/dataframe"
)

// TrainedModel is a fitted forest bound to the matrix layout it was trained
// on.
type TrainedModel struct {
	builder *MatrixBuilder
	forest  *model.RandomForestRegressor
}

// Predict encodes df with the fit-time layout and averages the trees.
// Categories unseen at fit time are ignored.
func (m *TrainedModel) Predict(df dataframe.DataFrame) ([]float64, error) {
	if m == nil || m.forest == nil {
		return nil, model.ErrNotFitted
	}
	X, err := m.builder.Transform(df)
	if err != nil {
		return nil, err
	}
	return m.forest.Predict(X), nil
}

func (m *TrainedModel) FeatureNames() []string { return m.builder.FeatureNames() }

func (m *TrainedModel) NumColumns() int { return m.builder.NumColumns() }

func (m *TrainedModel) Forest() *model.RandomForestRegressor { return m.forest }

// ModelResult is the output of TrainModel.
type ModelResult struct {
	Model       *TrainedModel
	Importances []model.FeatureImportance
	Metrics     model.EvaluationMetrics
	TrainRows   int
	TestRows    int
}

// TrainModel splits the feature table, fits the matrix layout on the
// training rows only, grows the forest and scores it on the held-out rows.
func TrainModel(df dataframe.DataFrame, fs FeatureSet, target string, trainer *model.Trainer) (*ModelResult, error) {
	if err := fs.validate(target); err != nil {
		return nil, err
	}
	y, err := floatColumn(df, target)
	if err != nil {
		return nil, err
	}
	for i, v := range y {
		if math.IsNaN(v) {
			return nil, fmt.Errorf("target %s missing at row %d", target, i)
		}
	}

	trainIdx, testIdx, err := trainer.Split(df.Nrow())
	if err != nil {
		return nil, err
	}
	trainDF := df.Subset(trainIdx)
	testDF := df.Subset(testIdx)
	if trainDF.Err != nil {
		return nil, trainDF.Err
	}
	if testDF.Err != nil {
		return nil, testDF.Err
	}

	builder := NewMatrixBuilder(fs)
	Xtrain, err := builder.FitTransform(trainDF)
	if err != nil {
		return nil, fmt.Errorf("build training matrix: %w", err)
	}
	Xtest, err := builder.Transform(testDF)
	if err != nil {
		return nil, fmt.Errorf("build test matrix: %w", err)
	}

	forest, err := trainer.Fit(Xtrain, model.Values(y, trainIdx))
	if err != nil {
		return nil, fmt.Errorf("fit forest: %w", err)
	}

	scores, err := forest.FeatureImportances()
	if err != nil {
		return nil, err
	}
	importances, err := model.RankImportances(builder.FeatureNames(), scores)
	if err != nil {
		return nil, err
	}

	metrics, err := model.Evaluate(forest, Xtest, model.Values(y, testIdx))
	if err != nil {
		return nil, err
	}

	return &ModelResult{
		Model:       &TrainedModel{builder: builder, forest: forest},
		Importances: importances,
		Metrics:     metrics,
		TrainRows:   len(trainIdx),
		TestRows:    len(testIdx),
	}, nil
}
