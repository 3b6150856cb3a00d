package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	cyclesTotal    prometheus.Counter
	forecastsTotal *prometheus.CounterVec
	errorsTotal    *prometheus.CounterVec
	trainDuration  *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		cyclesTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "fincast_scheduler_cycles_total",
				Help: "Total number of scheduler poll cycles",
			},
		),
		forecastsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fincast_forecasts_persisted_total",
				Help: "Total number of forecasts persisted",
			},
			[]string{"symbol"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fincast_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		trainDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fincast_training_duration_seconds",
				Help:    "Duration of per-horizon model training in seconds",
				Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
			},
			[]string{"symbol", "horizon"},
		),
	}
}

// RecordCycle counts a completed scheduler poll cycle.
func (r *Recorder) RecordCycle() {
	r.cyclesTotal.Inc()
}

// RecordForecasts counts forecasts persisted for a symbol.
func (r *Recorder) RecordForecasts(symbol string, n int) {
	r.forecastsTotal.WithLabelValues(symbol).Add(float64(n))
}

// RecordTraining records one horizon's training duration.
func (r *Recorder) RecordTraining(symbol string, horizon int, d time.Duration) {
	r.trainDuration.WithLabelValues(symbol, strconv.Itoa(horizon)).Observe(d.Seconds())
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}
