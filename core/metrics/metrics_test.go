package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New()
	m.ObserveUpdate("message")
	m.ObserveUpdate("message")
	m.ObserveTransition("idle", "new.departure_point")
	m.ObserveTransition("idle", "idle")
	m.ObserveOutcome("prompt")
	m.ObserveMessage(true)
	m.ObserveHandler("text", "ok", 20*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Updates.WithLabelValues("message")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.Transitions))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Messages.WithLabelValues("yes")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.HandlerDuration))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveUpdate("message")
		m.ObserveTransition("a", "b")
		m.ObserveOutcome("x")
		m.ObserveMessage(false)
		m.ObserveHandler("h", "ok", time.Second)
	})
}

func TestHandlerExposesRegistry(t *testing.T) {
	m := New()
	m.ObserveOutcome("saved")
	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `triplog_outcomes_total{kind="saved"} 1`)
}
