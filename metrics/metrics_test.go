package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func deliveryGauge(t *testing.T) float64 {
	t.Helper()
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatal(err)
	}
	for _, mf := range families {
		if mf.GetName() == "fedb_delivery_workers_running" {
			return mf.GetMetric()[0].GetGauge().GetValue()
		}
	}
	t.Fatal("delivery gauge not registered")
	return 0
}

func TestDeliveryPoolGauge(t *testing.T) {
	SetDeliveryPool(func() int { return 3 })
	if got := deliveryGauge(t); got != 3 {
		t.Fatalf("expected 3, got %v", got)
	}
	SetDeliveryPool(func() int { return 1 })
	if got := deliveryGauge(t); got != 1 {
		t.Fatalf("expected 1, got %v", got)
	}
}
