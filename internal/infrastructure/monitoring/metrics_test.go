package monitoring

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordBridgeRequest("log", "", time.Millisecond)
		m.RecordClientCall("log", "timeout", time.Millisecond)
		m.IncDuplicate()
		m.BridgeStarted()
		m.BridgeFinished()
		m.SetClientPending(3)
		m.IncWSConnections()
		m.RecordHTTPRequest("GET", "/", "200", time.Millisecond)
	})
	assert.Equal(t, Snapshot{}, m.Snapshot())
}

func TestRecording(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.RecordBridgeRequest("storage.get", "", time.Millisecond)
	m.RecordBridgeRequest("storage.get", "unauthorized", time.Millisecond)
	m.IncDuplicate()
	m.RecordClientCall("storage.get", "timeout", time.Second)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.BridgeRequests.WithLabelValues("storage.get", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BridgeRequests.WithLabelValues("storage.get", "unauthorized")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BridgeDuplicates))

	snap := m.Snapshot()
	assert.Equal(t, int64(2), snap.BridgeRequests)
	assert.Equal(t, int64(1), snap.BridgeErrors)
	assert.Equal(t, int64(1), snap.Duplicates)
	assert.Equal(t, int64(1), snap.ClientTimeouts)

	families, err := reg.Gather()
	require.NoError(t, err)
	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["worldbridge_uptime_seconds"])

	// Separate registries do not collide
	assert.NotPanics(t, func() { NewMetrics(nil) })
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewMetrics(nil)

	router := gin.New()
	router.Use(Middleware(m))
	router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "/health", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "unmatched", "404")))
}
