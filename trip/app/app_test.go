package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/m3rciful/triplog/core/config"
	"github.com/m3rciful/triplog/core/metrics"
)

func TestMetricsRunnerStopWithoutStart(t *testing.T) {
	r := newMetricsRunner(metrics.New(), config.MetricsConfig{Listen: "127.0.0.1:0", Path: "/metrics"})

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	begin := time.Now()
	r.stop(ctx)
	assert.Less(t, time.Since(begin), time.Second)
	assert.NoError(t, ctx.Err())
}

func TestMetricsRunnerStartStop(t *testing.T) {
	r := newMetricsRunner(metrics.New(), config.MetricsConfig{Listen: "127.0.0.1:0", Path: "/metrics"})
	r.start(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	r.stop(ctx)

	select {
	case <-r.done:
	default:
		t.Fatal("metrics server still running after stop")
	}
}
