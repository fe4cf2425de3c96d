package catalog

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type StoreMetrics struct {
	Duration  *prometheus.HistogramVec
	Errors    *prometheus.CounterVec
	Generated *prometheus.CounterVec
}

func NewStoreMetrics(reg prometheus.Registerer) *StoreMetrics {
	m := &StoreMetrics{
		Duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "catalog_store_operation_duration_seconds",
				Help:    "Store operation latency including time spent waiting for the access gate",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"op"},
		),
		Errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_store_operation_errors_total",
				Help: "Failed store operations",
			},
			[]string{"op"},
		),
		Generated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_generated_products_total",
				Help: "Synthetic product inserts by outcome",
			},
			[]string{"outcome"},
		),
	}

	reg.MustRegister(m.Duration, m.Errors, m.Generated)
	return m
}

func (m *StoreMetrics) observe(op string, start time.Time, err error) {
	if m == nil {
		return
	}
	m.Duration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		m.Errors.WithLabelValues(op).Inc()
	}
}

func (m *StoreMetrics) generated(res GenerateResult) {
	if m == nil {
		return
	}
	m.Generated.WithLabelValues("inserted").Add(float64(res.Inserted))
	m.Generated.WithLabelValues("failed").Add(float64(res.Failed))
}
