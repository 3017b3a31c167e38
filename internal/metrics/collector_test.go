package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/shapestone/shape-csvchunk/internal/config"
	"github.com/shapestone/shape-csvchunk/pkg/csv"
)

func testConfig() config.MetricsConfig {
	return config.MetricsConfig{Enabled: true, Namespace: "test", Path: "/metrics"}
}

func TestCollector_RecordDocument(t *testing.T) {
	c := NewCollector(testConfig(), nil)

	warnings := []csv.Warning{
		{Kind: csv.DelimiterNotEscaped},
		{Kind: csv.DelimiterNotEscaped},
		{Kind: csv.DelimiterNotTerminated},
	}
	c.RecordDocument("api", 10, 256, nil, time.Millisecond, nil)
	c.RecordDocument("api", 4, 64, warnings, time.Millisecond, nil)
	c.RecordDocument("watch", 0, 12, nil, time.Millisecond, errors.New("read failed"))

	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"clean documents", testutil.ToFloat64(c.documentsTotal.WithLabelValues("api", StatusClean)), 1},
		{"documents with warnings", testutil.ToFloat64(c.documentsTotal.WithLabelValues("api", StatusWarnings)), 1},
		{"failed documents", testutil.ToFloat64(c.documentsTotal.WithLabelValues("watch", StatusFailed)), 1},
		{"records", testutil.ToFloat64(c.recordsTotal.WithLabelValues("api")), 14},
		{"bytes", testutil.ToFloat64(c.bytesTotal.WithLabelValues("api")), 320},
		{"not escaped", testutil.ToFloat64(c.warningsTotal.WithLabelValues("api", string(csv.DelimiterNotEscaped))), 2},
		{"not terminated", testutil.ToFloat64(c.warningsTotal.WithLabelValues("api", string(csv.DelimiterNotTerminated))), 1},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
		}
	}

	if n := testutil.CollectAndCount(c.parseDuration); n != 2 {
		t.Errorf("parse duration series = %d, want 2", n)
	}
}

func TestCollector_Disabled(t *testing.T) {
	cfg := testConfig()
	cfg.Enabled = false
	c := NewCollector(cfg, nil)

	c.RecordDocument("api", 10, 256, nil, time.Millisecond, nil)
	c.ObserveRequest("/v1/parse", http.MethodPost, http.StatusOK, time.Millisecond)

	if n := testutil.CollectAndCount(c.documentsTotal); n != 0 {
		t.Errorf("disabled collector recorded %d document series", n)
	}
	if n := testutil.CollectAndCount(c.requestsTotal); n != 0 {
		t.Errorf("disabled collector recorded %d request series", n)
	}
}

func TestCollector_NilIsDisabled(t *testing.T) {
	var c *Collector
	if c.Enabled() {
		t.Fatal("nil collector enabled")
	}
	c.RecordDocument("api", 1, 1, nil, 0, nil)
	c.ObserveRequest("/", http.MethodGet, http.StatusOK, 0)
}

func TestCollector_Handler(t *testing.T) {
	c := NewCollector(testConfig(), nil)
	c.ObserveRequest("/v1/parse", http.MethodPost, http.StatusOK, 5*time.Millisecond)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), `test_http_requests_total{code="200",method="POST",route="/v1/parse"} 1`) {
		t.Errorf("request counter missing from exposition:\n%s", body)
	}
}
