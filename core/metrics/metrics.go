// Package metrics exposes Prometheus counters for the bot and serves them
// over HTTP.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/m3rciful/triplog/core/config"
	"github.com/m3rciful/triplog/core/logger"
)

// Metrics groups the collectors registered on one registry.
type Metrics struct {
	Registry *prometheus.Registry

	Updates         *prometheus.CounterVec
	Transitions     *prometheus.CounterVec
	Outcomes        *prometheus.CounterVec
	Messages        *prometheus.CounterVec
	HandlerDuration *prometheus.HistogramVec
}

// New registers every collector on a fresh registry, together with the Go
// runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		Updates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "triplog_updates_total",
			Help: "Inbound Telegram updates by kind.",
		}, []string{"kind"}),
		Transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "triplog_transitions_total",
			Help: "Session state transitions.",
		}, []string{"from", "to"}),
		Outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "triplog_outcomes_total",
			Help: "Engine outcomes by kind.",
		}, []string{"kind"}),
		Messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "triplog_messages_sent_total",
			Help: "Outgoing messages by keyboard presence.",
		}, []string{"keyboard"}),
		HandlerDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "triplog_handler_duration_seconds",
			Help:    "Update handling latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"handler", "status"}),
	}
	m.Registry.MustRegister(
		m.Updates,
		m.Transitions,
		m.Outcomes,
		m.Messages,
		m.HandlerDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveUpdate counts an inbound update.
func (m *Metrics) ObserveUpdate(kind string) {
	if m == nil {
		return
	}
	m.Updates.WithLabelValues(kind).Inc()
}

// ObserveTransition counts a state change. Unchanged states are ignored.
func (m *Metrics) ObserveTransition(from, to string) {
	if m == nil || from == to {
		return
	}
	m.Transitions.WithLabelValues(from, to).Inc()
}

// ObserveOutcome counts an engine outcome.
func (m *Metrics) ObserveOutcome(kind string) {
	if m == nil {
		return
	}
	m.Outcomes.WithLabelValues(kind).Inc()
}

// ObserveMessage counts an outgoing message.
func (m *Metrics) ObserveMessage(keyboard bool) {
	if m == nil {
		return
	}
	label := "no"
	if keyboard {
		label = "yes"
	}
	m.Messages.WithLabelValues(label).Inc()
}

// ObserveHandler records handler latency.
func (m *Metrics) ObserveHandler(handler, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.HandlerDuration.WithLabelValues(handler, status).Observe(d.Seconds())
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// Serve exposes the registry on cfg.Listen until ctx is cancelled. It is a
// no-op when no listen address is configured.
func (m *Metrics) Serve(ctx context.Context, cfg config.MetricsConfig) error {
	if cfg.Listen == "" {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle(cfg.Path, m.Handler())
	srv := &http.Server{Addr: cfg.Listen, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		logger.Info(ctx, logger.CompMetrics, "metrics.listen",
			slog.String("addr", cfg.Listen),
			slog.String("path", cfg.Path),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err, ok := <-errCh:
		if !ok {
			return nil
		}
		logger.Error(ctx, logger.CompMetrics, "metrics.listen",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
		return err
	}
}
