package metrics

import "github.com/prometheus/client_golang/prometheus"

// AvailabilityMetrics exposes counters/histograms for the slot pipeline.
type AvailabilityMetrics struct {
	cacheTotal       *prometheus.CounterVec
	computeSeconds   *prometheus.HistogramVec
	heatmapDayErrors prometheus.Counter
	redemptionsTotal *prometheus.CounterVec
}

func NewAvailabilityMetrics(reg prometheus.Registerer) *AvailabilityMetrics {
	m := &AvailabilityMetrics{
		cacheTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "availability",
			Name:      "cache_requests_total",
			Help:      "Availability cache lookups by query kind and outcome",
		}, []string{"query", "outcome"}),
		computeSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "clinic",
			Subsystem: "availability",
			Name:      "compute_seconds",
			Help:      "Latency of uncached availability computations",
			Buckets:   prometheus.DefBuckets,
		}, []string{"query"}),
		heatmapDayErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "availability",
			Name:      "heatmap_day_errors_total",
			Help:      "Heatmap days that failed to compute",
		}),
		redemptionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "continuation",
			Name:      "redemptions_total",
			Help:      "Continuation token redemption attempts by outcome",
		}, []string{"outcome"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.cacheTotal, m.computeSeconds, m.heatmapDayErrors, m.redemptionsTotal)
	return m
}

func (m *AvailabilityMetrics) ObserveCache(query string, hit bool) {
	if m == nil {
		return
	}
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	m.cacheTotal.WithLabelValues(query, outcome).Inc()
}

func (m *AvailabilityMetrics) ObserveCompute(query string, seconds float64) {
	if m == nil {
		return
	}
	m.computeSeconds.WithLabelValues(query).Observe(seconds)
}

func (m *AvailabilityMetrics) ObserveHeatmapDayError() {
	if m == nil {
		return
	}
	m.heatmapDayErrors.Inc()
}

func (m *AvailabilityMetrics) ObserveRedemption(outcome string) {
	if m == nil {
		return
	}
	m.redemptionsTotal.WithLabelValues(outcome).Inc()
}
