package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestCartSyncMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewCartSyncMetrics(reg)
	backend := "remote"
	metrics.ObserveLoadDuration(backend, 250*time.Millisecond)
	metrics.IncLoad(backend, "ok")
	metrics.IncSave(backend, "error")
	metrics.IncCheckout("ok")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "cart_loads_total", "backend", backend); err != nil {
		t.Fatalf("fetch loads: %v", err)
	} else if got != 1 {
		t.Fatalf("expected loads=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "cart_saves_total", "backend", backend); err != nil {
		t.Fatalf("fetch saves: %v", err)
	} else if got != 1 {
		t.Fatalf("expected saves=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "checkouts_total", "result", "ok"); err != nil {
		t.Fatalf("fetch checkouts: %v", err)
	} else if got != 1 {
		t.Fatalf("expected checkouts=1, got %f", got)
	}

	if got, err := fetchHistogramSum(mfs, "cart_load_duration_seconds", "backend", backend); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}
}

func TestCartSyncMetricsNilSafe(t *testing.T) {
	var metrics *CartSyncMetrics
	metrics.IncLoad("local", "ok")
	metrics.IncSave("local", "ok")
	metrics.IncCheckout("ok")
	metrics.ObserveLoadDuration("local", time.Second)

	unregistered := NewCartSyncMetrics(nil)
	unregistered.IncLoad("local", "ok")
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
