package haw

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics bundles the Prometheus instrumentation a RwWheel reports,
// constructed with promauto.With(reg) the way frostdb.newTable builds its
// own tableMetrics.
type Metrics struct {
	ticksTotal             prometheus.Counter
	rotationsTotal         *prometheus.CounterVec
	insertLateTotal        prometheus.Counter
	insertOverflowTotal    prometheus.Counter
	combineRangeDuration   *prometheus.HistogramVec
	combineRangeCost       prometheus.Histogram
	windowFiresTotal       prometheus.Counter
}

// NewMetrics registers and returns a Metrics for one Haw instance. reg may
// be nil, in which case a private registry is used and nothing is
// exported — still safe to call unconditionally.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	return &Metrics{
		ticksTotal: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "haw_ticks_total",
			Help: "Number of one-second ticks processed.",
		}),
		rotationsTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "haw_rotations_total",
			Help: "Number of full wheel rotations, by granularity.",
		}, []string{"granularity"}),
		insertLateTotal: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "haw_insert_late_total",
			Help: "Number of inserts rejected as late (timestamp before watermark).",
		}),
		insertOverflowTotal: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "haw_insert_overflow_total",
			Help: "Number of inserts rejected as overflowing the write-ahead buffer.",
		}),
		combineRangeDuration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "haw_combine_range_duration_seconds",
			Help:    "Wall-clock duration of combine_range calls, by chosen plan kind.",
			Buckets: prometheus.ExponentialBuckets(0.000001, 4, 12),
		}, []string{"plan"}),
		combineRangeCost: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Name:    "haw_combine_range_cost",
			Help:    "Planner-estimated combine-operation cost of executed combine_range calls.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 20),
		}),
		windowFiresTotal: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "haw_window_fires_total",
			Help: "Number of sliding-window results emitted.",
		}),
	}
}

func (m *Metrics) observeTick() {
	if m == nil {
		return
	}
	m.ticksTotal.Inc()
}

func (m *Metrics) observeRotation(granularity string) {
	if m == nil {
		return
	}
	m.rotationsTotal.WithLabelValues(granularity).Inc()
}

func (m *Metrics) observeLate() {
	if m == nil {
		return
	}
	m.insertLateTotal.Inc()
}

func (m *Metrics) observeOverflow() {
	if m == nil {
		return
	}
	m.insertOverflowTotal.Inc()
}

func (m *Metrics) observeCombineRange(planKind string, seconds float64, cost int64) {
	if m == nil {
		return
	}
	m.combineRangeDuration.WithLabelValues(planKind).Observe(seconds)
	m.combineRangeCost.Observe(float64(cost))
}

func (m *Metrics) observeWindowFire() {
	if m == nil {
		return
	}
	m.windowFiresTotal.Inc()
}
