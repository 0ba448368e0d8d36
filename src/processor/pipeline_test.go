package processor

import (
	"math"
	"testing"

	"PricingIntelligence/src/metrics"

	"github.com/go-gota/gota/dataframe"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOptions() RunOptions {
	opts := DefaultRunOptions()
	opts.Training.NEstimators = 30
	return opts
}

func TestRunEndToEnd(t *testing.T) {
	raw := RecordsToDataFrame(syntheticRecords(1000, 11))
	collector := metrics.NewCollector()

	res, err := Run(raw, testOptions(), nil, collector)
	require.NoError(t, err)

	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, 1000, res.Raw.Rows)
	assert.Equal(t, 0, res.Dropped)
	assert.Equal(t, 800, res.Model.TrainRows)
	assert.Equal(t, 200, res.Model.TestRows)

	m := res.Model.Metrics
	assert.False(t, math.IsNaN(m.R2) || math.IsInf(m.R2, 0))
	assert.False(t, math.IsNaN(m.MAE) || math.IsInf(m.MAE, 0))
	assert.Greater(t, m.R2, 0.5)

	sum := 0.0
	for i, fi := range res.Model.Importances {
		sum += fi.Importance
		if i > 0 {
			assert.GreaterOrEqual(t, res.Model.Importances[i-1].Importance, fi.Importance)
		}
	}
	assert.InDelta(t, 1.0, sum, 1e-6)
	assert.Len(t, res.Model.Importances, res.Model.Model.NumColumns())
	// 5 airlines, 3 sources, 3 destinations, 4 buckets, 4 numeric
	assert.Equal(t, 19, res.Model.Model.NumColumns())

	assert.Equal(t, 1000.0, testutil.ToFloat64(collector.RowsLoaded))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.RunsTotal.WithLabelValues("success")))
	assert.Equal(t, m.R2, testutil.ToFloat64(collector.ModelR2))
}

func TestRunIsReproducible(t *testing.T) {
	raw := RecordsToDataFrame(syntheticRecords(300, 5))

	a, err := Run(raw, testOptions(), nil, nil)
	require.NoError(t, err)
	b, err := Run(raw, testOptions(), nil, nil)
	require.NoError(t, err)

	assert.Equal(t, a.Model.Metrics, b.Model.Metrics)
	assert.Equal(t, a.Model.Importances, b.Model.Importances)
	assert.NotEqual(t, a.RunID, b.RunID)
}

func TestTrainedModelPredictUnseenCategory(t *testing.T) {
	records := syntheticRecords(300, 6)
	res, err := Run(RecordsToDataFrame(records), testOptions(), nil, nil)
	require.NoError(t, err)

	fresh := records[:2]
	fresh[1].Airline = "Vistara"
	df, _, err := Preprocess(RecordsToDataFrame(fresh), nil, nil)
	require.NoError(t, err)

	pred, err := res.Model.Model.Predict(df)
	require.NoError(t, err)
	require.Len(t, pred, 2)
	for _, p := range pred {
		assert.False(t, math.IsNaN(p))
	}
}

func TestRunFailureIsCounted(t *testing.T) {
	bad := loadRaw([]string{"IndiGo", "soon", "BLR", "DEL", "BLR → DEL", "22:20", "01:10", "2h", "non-stop", "1"})
	collector := metrics.NewCollector()

	_, err := Run(bad, testOptions(), nil, collector)
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, ColDateOfJourney, pe.Field)
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.RunsTotal.WithLabelValues("failure")))
}

func TestSummarize(t *testing.T) {
	df := RecordsToDataFrame(syntheticRecords(10, 1))
	ov := Summarize(df)
	assert.Equal(t, 10, ov.Rows)
	assert.Equal(t, df.Ncol(), ov.Cols)
	assert.Contains(t, ov.Columns, ColPrice)
	assert.IsType(t, dataframe.DataFrame{}, ov.Summary)
	assert.Greater(t, ov.Summary.Nrow(), 0)
}
