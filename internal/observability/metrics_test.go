package observability

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/rs/zerolog"
)

func TestRegisterMetricsAndRecordersAreSafe(t *testing.T) {
	RegisterMetrics()
	RegisterMetrics()

	before := metricValue(t, groupsTotal.WithLabelValues("exhausted"))
	RecordGroup("exhausted", 32, 16, time.Millisecond)
	if got := metricValue(t, groupsTotal.WithLabelValues("exhausted")); got != before+1 {
		t.Fatalf("groups_total not incremented: %v -> %v", before, got)
	}

	RecordMessage("Tread", "exhausted")
	if got := metricValue(t, messagesTotal.WithLabelValues("Tread", "exhausted")); got < 1 {
		t.Fatalf("messages_total not incremented: %v", got)
	}
}

func TestConnectionGauge(t *testing.T) {
	base := metricValue(t, connectionsActive)
	ConnectionOpened()
	ConnectionOpened()
	ConnectionClosed()
	if got := metricValue(t, connectionsActive); got != base+1 {
		t.Fatalf("connections_active=%v want %v", got, base+1)
	}
	ConnectionClosed()
}

func TestAdminMiddlewareRecords(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestLogger(zerolog.Nop()), RequestMetricsMiddleware())
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d", rec.Code)
	}
	if got := metricValue(t, adminRequests.WithLabelValues("GET", "/health", "200")); got < 1 {
		t.Fatalf("admin requests not recorded: %v", got)
	}
}

func TestGroupSpanWithNoopProvider(t *testing.T) {
	ctx, span := StartGroupSpan(context.Background(), 1, "pipe", 12)
	if ctx == nil {
		t.Fatalf("nil context")
	}
	span.End(1, 1, "exhausted", 8, nil)

	_, span = StartGroupSpan(context.Background(), 2, "pipe", 0)
	span.End(0, 0, "malformed", 0, errors.New("bad rune encountered"))
}

func metricValue(t *testing.T, c prometheus.Metric) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("write metric: %v", err)
	}
	if m.Counter != nil {
		return m.GetCounter().GetValue()
	}
	return m.GetGauge().GetValue()
}
