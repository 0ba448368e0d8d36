package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds the pipeline metrics on its own registry. A nil
// *Collector records nothing.
type Collector struct {
	registry *prometheus.Registry

	RowsLoaded        prometheus.Counter
	RowsDropped       prometheus.Counter
	StageDuration     *prometheus.HistogramVec
	RunsTotal         *prometheus.CounterVec
	ModelR2           prometheus.Gauge
	ModelMAE          prometheus.Gauge
	FeatureImportance *prometheus.GaugeVec
	LastRunTimestamp  prometheus.Gauge
}

func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),

		RowsLoaded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fare_pipeline_rows_loaded_total",
			Help: "Raw fare rows read into the pipeline",
		}),
		RowsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fare_pipeline_rows_dropped_total",
			Help: "Rows excluded for an unparsable stop count or a missing route",
		}),
		StageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fare_pipeline_stage_duration_seconds",
				Help:    "Duration of each pipeline stage in seconds",
				Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
			},
			[]string{"stage"},
		),
		RunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fare_pipeline_runs_total",
				Help: "Pipeline runs by outcome",
			},
			[]string{"status"},
		),
		ModelR2: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "fare_model_r2",
			Help: "Held-out R2 of the last trained model",
		}),
		ModelMAE: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "fare_model_mae",
			Help: "Held-out mean absolute error of the last trained model",
		}),
		FeatureImportance: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "fare_model_feature_importance",
				Help: "Importance of each expanded feature in the last model",
			},
			[]string{"feature"},
		),
		LastRunTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "fare_pipeline_last_run_timestamp_seconds",
			Help: "Unix time of the last finished run",
		}),
	}

	c.registry.MustRegister(
		c.RowsLoaded,
		c.RowsDropped,
		c.StageDuration,
		c.RunsTotal,
		c.ModelR2,
		c.ModelMAE,
		c.FeatureImportance,
		c.LastRunTimestamp,
	)
	return c
}

func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// Handler serves the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func (c *Collector) ObserveStage(stage string, d time.Duration) {
	if c == nil {
		return
	}
	c.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (c *Collector) RecordRows(loaded, dropped int) {
	if c == nil {
		return
	}
	c.RowsLoaded.Add(float64(loaded))
	c.RowsDropped.Add(float64(dropped))
}

// RecordModel replaces the model gauges. importances is keyed by feature
// name.
func (c *Collector) RecordModel(r2, mae float64, importances map[string]float64) {
	if c == nil {
		return
	}
	c.ModelR2.Set(r2)
	c.ModelMAE.Set(mae)
	c.FeatureImportance.Reset()
	for name, v := range importances {
		c.FeatureImportance.WithLabelValues(name).Set(v)
	}
}

// RecordRun counts a finished run with status "success" or "failure".
func (c *Collector) RecordRun(status string) {
	if c == nil {
		return
	}
	c.RunsTotal.WithLabelValues(status).Inc()
	c.LastRunTimestamp.SetToCurrentTime()
}
