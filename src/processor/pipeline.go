package processor

import (
	"fmt"
	"time"

	"PricingIntelligence/src/config"
	"PricingIntelligence/src/metrics"
	"PricingIntelligence/src/model"
	"PricingIntelligence/src/storage"

	"github.com/go-gota/gota/dataframe"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Overview is the shape and summary statistics of a table.
type Overview struct {
	Rows    int
	Cols    int
	Columns []string
	Summary dataframe.DataFrame
}

// Summarize describes df.
func Summarize(df dataframe.DataFrame) Overview {
	return Overview{
		Rows:    df.Nrow(),
		Cols:    df.Ncol(),
		Columns: df.Names(),
		Summary: df.Describe(),
	}
}

// RunOptions configures one pipeline run.
type RunOptions struct {
	Features    FeatureSet
	Target      string
	Training    model.TrainingConfig
	SampleRoute string
	TopRoutes   int
}

func DefaultRunOptions() RunOptions {
	mc := config.DefaultModelConfig()
	return OptionsFromConfig(&mc)
}

// OptionsFromConfig maps modelconfig.json onto run options.
func OptionsFromConfig(mc *config.ModelConfig) RunOptions {
	return RunOptions{
		Features: FeatureSet{Categorical: mc.Categorical, Numeric: mc.Numeric},
		Target:   mc.Target,
		Training: model.TrainingConfig{
			TestRatio:       mc.TestRatio,
			NEstimators:     mc.NEstimators,
			MaxDepth:        mc.MaxDepth,
			MinSamplesSplit: mc.MinSamplesSplit,
			MinSamplesLeaf:  mc.MinSamplesLeaf,
			MaxFeatures:     mc.MaxFeatures,
			RandomSeed:      mc.RandomSeed,
		},
		SampleRoute: mc.SampleRoute,
		TopRoutes:   mc.Display.TopRoutes,
	}
}

// RunResult is everything a run hands to reporting.
type RunResult struct {
	RunID     string
	StartedAt time.Time
	Elapsed   time.Duration
	Raw       Overview
	Features  dataframe.DataFrame
	Dropped   int
	Analysis  *Analysis
	Model     *ModelResult
}

type stage struct {
	name string
	fn   func(dataframe.DataFrame) (dataframe.DataFrame, error)
}

// Preprocess turns the raw fare table into the feature table. It works on
// a copy, and the stages run in a fixed order, each reading only columns
// produced before it. It returns the number of rows dropped by the stops
// and route policy.
func Preprocess(raw dataframe.DataFrame, logger *storage.Logger, collector *metrics.Collector) (dataframe.DataFrame, int, error) {
	if err := requireColumns(raw, RequiredColumns...); err != nil {
		return raw, 0, err
	}
	if raw.Nrow() == 0 {
		return raw, 0, ErrNoRows
	}

	dropped := 0
	stages := []stage{
		{"price", ParsePrice},
		{"datetime", ExtractDateTime},
		{"duration", ExtractDuration},
		{"stops", func(df dataframe.DataFrame) (dataframe.DataFrame, error) {
			out, n, err := NormalizeStops(df)
			dropped = n
			return out, err
		}},
		{"benchmark", AddBenchmarks},
		{"bucket", AddTimeBuckets},
	}

	df := raw.Copy()
	for _, s := range stages {
		start := time.Now()
		var err error
		df, err = s.fn(df)
		collector.ObserveStage(s.name, time.Since(start))
		if err != nil {
			return df, dropped, fmt.Errorf("%s stage: %w", s.name, err)
		}
	}

	if dropped > 0 {
		logger.Warning("rows excluded by stops/route policy",
			zap.Int("dropped", dropped),
			zap.Int("remaining", df.Nrow()))
	}
	return df, dropped, nil
}

// Run executes parse, normalize, aggregate, bucketize, analyse, build the
// matrix, split, fit and evaluate, aborting on the first error.
func Run(raw dataframe.DataFrame, opts RunOptions, logger *storage.Logger, collector *metrics.Collector) (*RunResult, error) {
	res := &RunResult{
		RunID:     uuid.New().String(),
		StartedAt: time.Now(),
		Raw:       Summarize(raw),
	}
	runID := zap.String("run_id", res.RunID)
	logger.Info("pipeline run started", runID, zap.Int("rows", raw.Nrow()))

	fail := func(err error) (*RunResult, error) {
		logger.Error("pipeline run failed", runID, zap.Error(err))
		collector.RecordRun("failure")
		return nil, err
	}

	features, dropped, err := Preprocess(raw, logger, collector)
	if err != nil {
		return fail(err)
	}
	res.Features = features
	res.Dropped = dropped
	collector.RecordRows(raw.Nrow(), dropped)

	start := time.Now()
	res.Analysis, err = Analyze(features, opts.SampleRoute, opts.TopRoutes)
	collector.ObserveStage("analysis", time.Since(start))
	if err != nil {
		return fail(fmt.Errorf("analysis: %w", err))
	}

	start = time.Now()
	trainer := model.NewTrainer(opts.Training, nil)
	res.Model, err = TrainModel(features, opts.Features, opts.Target, trainer)
	collector.ObserveStage("model", time.Since(start))
	if err != nil {
		return fail(fmt.Errorf("model: %w", err))
	}

	importances := make(map[string]float64, len(res.Model.Importances))
	for _, fi := range res.Model.Importances {
		importances[fi.Feature] = fi.Importance
	}
	collector.RecordModel(res.Model.Metrics.R2, res.Model.Metrics.MAE, importances)
	collector.RecordRun("success")

	res.Elapsed = time.Since(res.StartedAt)
	logger.Info("pipeline run finished", runID,
		zap.Int("rows", features.Nrow()),
		zap.Int("columns", res.Model.Model.NumColumns()),
		zap.Float64("r2", res.Model.Metrics.R2),
		zap.Float64("mae", res.Model.Metrics.MAE),
		zap.Duration("elapsed", res.Elapsed))
	return res, nil
}
