package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// WidgetMetrics records timing and degradation of dashboard widgets.
type WidgetMetrics struct {
	duration *prometheus.HistogramVec
	degraded *prometheus.CounterVec
}

// NewWidgetMetrics registers the widget metrics on the provided registerer.
func NewWidgetMetrics(reg prometheus.Registerer) *WidgetMetrics {
	if reg == nil {
		return &WidgetMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dashboard_widget_duration_seconds",
		Help:    "Time spent computing a dashboard widget.",
		Buckets: prometheus.DefBuckets,
	}, []string{"widget"})
	degraded := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dashboard_widget_degraded_total",
		Help: "Widgets served with a neutral value because a store read failed.",
	}, []string{"widget"})
	reg.MustRegister(duration, degraded)
	return &WidgetMetrics{
		duration: duration,
		degraded: degraded,
	}
}

// ObserveDuration records how long the named widget took.
func (m *WidgetMetrics) ObserveDuration(widget string, d time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(widget)).Observe(d.Seconds())
}

// IncDegraded counts a widget that fell back to its neutral value.
func (m *WidgetMetrics) IncDegraded(widget string) {
	if m == nil || m.degraded == nil {
		return
	}
	m.degraded.WithLabelValues(normalizeLabel(widget)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
