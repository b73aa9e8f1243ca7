package metrics

import (
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// RefreshMetrics tracks the periodic summary status refresh.
type RefreshMetrics struct {
	refreshRuns     *prometheus.CounterVec
	statusChanges   prometheus.Counter
	refreshDuration prometheus.Histogram
	activeSummaries prometheus.Gauge
}

var (
	refreshMetricsOnce sync.Once
	refreshMetrics     *RefreshMetrics
)

func Refresh() *RefreshMetrics {
	return RefreshWithConfig(Config{})
}

func RefreshWithConfig(cfg Config) *RefreshMetrics {
	refreshMetricsOnce.Do(func() {
		refreshMetrics = newRefreshMetrics(prometheus.DefaultRegisterer, cfg)
	})
	return refreshMetrics
}

func ResetRefreshMetricsForTest() {
	refreshMetricsOnce = sync.Once{}
	refreshMetrics = nil
}

func newRefreshMetrics(registerer prometheus.Registerer, cfg Config) *RefreshMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "novaflow"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}

	constLabels := prometheus.Labels{
		"service": serviceName,
		"env":     environment,
	}

	refreshRuns := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        "novaflow_summary_refresh_runs_total",
			Help:        "Total periodic summary refresh runs.",
			ConstLabels: constLabels,
		},
		[]string{"result"}, // success | failed
	)

	statusChanges := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name:        "novaflow_summary_status_changes_total",
			Help:        "Total summary status transitions applied by the refresher.",
			ConstLabels: constLabels,
		},
	)

	refreshDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:        "novaflow_summary_refresh_duration_seconds",
			Help:        "Duration of a full summary refresh pass.",
			Buckets:     []float64{0.1, 0.5, 1, 5, 15, 60, 300},
			ConstLabels: constLabels,
		},
	)

	activeSummaries := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name:        "novaflow_summary_active_total",
			Help:        "Number of summaries in a non-terminal status.",
			ConstLabels: constLabels,
		},
	)

	registerer.MustRegister(
		refreshRuns,
		statusChanges,
		refreshDuration,
		activeSummaries,
	)

	return &RefreshMetrics{
		refreshRuns:     refreshRuns,
		statusChanges:   statusChanges,
		refreshDuration: refreshDuration,
		activeSummaries: activeSummaries,
	}
}

func (m *RefreshMetrics) IncRun(result string) {
	if m == nil {
		return
	}
	m.refreshRuns.WithLabelValues(result).Inc()
}

func (m *RefreshMetrics) AddStatusChanges(count int) {
	if m == nil || count <= 0 {
		return
	}
	m.statusChanges.Add(float64(count))
}

func (m *RefreshMetrics) ObserveDuration(took time.Duration) {
	if m == nil {
		return
	}
	m.refreshDuration.Observe(took.Seconds())
}

func (m *RefreshMetrics) SetActiveSummaries(count int) {
	if m == nil {
		return
	}
	if count < 0 {
		count = 0
	}
	m.activeSummaries.Set(float64(count))
}
