package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func scrape(t *testing.T, h http.Handler) string {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return string(body)
}

func TestMetrics(t *testing.T) {
	logger := zap.NewNop()
	m := New(logger, nil)

	// Test counter increment
	m.IncrementCounter("tts_synthesis_total", "success")

	// Test gauge set
	m.SetGauge("tts_voices_available", 12)

	// Test histogram observe
	m.ObserveHistogram("tts_synthesis_duration_seconds", 1.5)

	// Test high-level methods
	m.RecordSynthesis(false, 2*time.Second)
	m.RecordCatalogLoad("cache", true)
	m.RecordHTTPRequest("/api/tts", http.StatusOK, 30*time.Millisecond)
	m.RecordBotMessage("text")

	body := scrape(t, m.Handler())
	assert.Contains(t, body, `tts_synthesis_total{status="success"} 1`)
	assert.Contains(t, body, `tts_synthesis_total{status="failed"} 1`)
	assert.Contains(t, body, `tts_voices_available 12`)
	assert.Contains(t, body, `tts_catalog_loads_total{source="cache",status="success"} 1`)
	assert.Contains(t, body, `http_requests_total{route="/api/tts",status="200"} 1`)
	assert.Contains(t, body, `bot_messages_total{type="text"} 1`)
	assert.Contains(t, body, `tts_synthesis_duration_seconds_count 2`)
}

func TestUnknownMetricIsIgnored(t *testing.T) {
	m := New(zap.NewNop(), nil)

	m.IncrementCounter("nope")
	m.SetGauge("nope", 1)
	m.ObserveHistogram("nope", 1)

	assert.NotContains(t, scrape(t, m.Handler()), "nope")
}

func TestSeparateRegistries(t *testing.T) {
	// Два экземпляра не должны конфликтовать при регистрации
	a := New(zap.NewNop(), NewRegistry())
	b := New(zap.NewNop(), NewRegistry())

	a.SetVoicesAvailable(3)
	b.SetVoicesAvailable(7)

	assert.Contains(t, scrape(t, a.Handler()), "tts_voices_available 3")
	assert.Contains(t, scrape(t, b.Handler()), "tts_voices_available 7")
	assert.Contains(t, scrape(t, a.Handler()), "go_goroutines")
}

func TestHealthHandler(t *testing.T) {
	h := NewHandler(New(zap.NewNop(), nil), zap.NewNop())

	rec := httptest.NewRecorder()
	h.HealthHandler(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"status":"ok","service":"nano-tts"}`, rec.Body.String())
}
