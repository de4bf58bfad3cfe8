package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestNewGaugeVecIsRegisteredAndScraped(t *testing.T) {
	exporter := NewPrometheusExporter()
	gauge := exporter.NewGaugeVec(prometheus.GaugeOpts{Name: "steward_test_gauge"}, []string{"task"})
	gauge.WithLabelValues("epoch_maintenance").Set(3)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	exporter.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "steward_test_gauge") {
		t.Fatalf("expected scrape output to contain the registered gauge, got: %s", rec.Body.String())
	}
}

func TestMustRegisterPanicsOnDuplicate(t *testing.T) {
	exporter := NewPrometheusExporter()
	exporter.NewCounter(prometheus.CounterOpts{Name: "steward_test_counter"})

	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic when registering a duplicate collector")
		}
	}()
	exporter.NewCounter(prometheus.CounterOpts{Name: "steward_test_counter"})
}
