package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestWidgetMetricsExportsCounterAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewWidgetMetrics(reg)
	metrics.ObserveDuration("total_revenue", 250*time.Millisecond)
	metrics.IncDegraded("active_users")
	metrics.IncDegraded("active_users")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "dashboard_widget_degraded_total", "widget", "active_users"); err != nil {
		t.Fatalf("fetch degraded: %v", err)
	} else if got != 2 {
		t.Fatalf("expected degraded=2, got %f", got)
	}

	if got, err := fetchHistogramSum(mfs, "dashboard_widget_duration_seconds", "widget", "total_revenue"); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}
}

func TestAuthMetricsCountsOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewAuthMetrics(reg)
	metrics.IncLogin("forbidden")
	metrics.IncGateRedirect("")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, err := fetchCounterValue(mfs, "admin_login_attempts_total", "outcome", "forbidden"); err != nil || got != 1 {
		t.Fatalf("expected forbidden=1, got %f (%v)", got, err)
	}
	if got, err := fetchCounterValue(mfs, "admin_gate_redirects_total", "reason", "unknown"); err != nil || got != 1 {
		t.Fatalf("expected unknown=1, got %f (%v)", got, err)
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var widgets *WidgetMetrics
	widgets.ObserveDuration("x", time.Second)
	widgets.IncDegraded("x")

	unregistered := NewWidgetMetrics(nil)
	unregistered.IncDegraded("x")

	var auth *AuthMetrics
	auth.IncLogin("success")
	NewAuthMetrics(nil).IncGateRedirect("missing")
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("histogram %q missing label %s=%s", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}
