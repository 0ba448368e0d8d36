package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorRecords(t *testing.T) {
	c := NewCollector()

	c.RecordRows(100, 4)
	c.RecordRows(50, 1)
	c.RecordRun("success")
	c.RecordModel(0.87, 1234.5, map[string]float64{"Airline_Jet Airways": 0.3})
	c.ObserveStage("fit", 150*time.Millisecond)

	assert.Equal(t, 150.0, testutil.ToFloat64(c.RowsLoaded))
	assert.Equal(t, 5.0, testutil.ToFloat64(c.RowsDropped))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.RunsTotal.WithLabelValues("success")))
	assert.Equal(t, 0.87, testutil.ToFloat64(c.ModelR2))
	assert.Equal(t, 0.3, testutil.ToFloat64(c.FeatureImportance.WithLabelValues("Airline_Jet Airways")))
	assert.Equal(t, 1, testutil.CollectAndCount(c.StageDuration))
}

func TestCollectorHandler(t *testing.T) {
	c := NewCollector()
	c.RecordRun("failure")

	srv := httptest.NewServer(c.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), `fare_pipeline_runs_total{status="failure"} 1`)
}

func TestNilCollector(t *testing.T) {
	var c *Collector
	assert.NotPanics(t, func() {
		c.RecordRows(1, 1)
		c.RecordRun("success")
		c.RecordModel(1, 1, nil)
		c.ObserveStage("parse", time.Second)
	})
}
