// Package metrics provides Prometheus metrics for the bot.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Metrics holds all Prometheus collectors used by the bot.
type Metrics struct {
	MessagesStored     prometheus.Counter
	CompletionsTotal   *prometheus.CounterVec
	CompletionDuration prometheus.Histogram
	ChainsTracked      prometheus.Gauge
}

// New creates the collectors and registers them with reg. A nil reg
// leaves them unregistered, which tests use to avoid collisions on the
// default registry.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		MessagesStored: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "prismbot_messages_stored_total",
			Help: "Total number of messages written to chat history",
		}),
		CompletionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "prismbot_completions_total",
			Help: "Total number of LLM completion calls",
		}, []string{"status"}),
		CompletionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "prismbot_completion_duration_seconds",
			Help:    "Duration of LLM completion calls in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		ChainsTracked: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "prismbot_conversation_chains_tracked",
			Help: "Number of conversation chain keys currently tracked",
		}),
	}

	if reg != nil {
		reg.MustRegister(m.MessagesStored, m.CompletionsTotal, m.CompletionDuration, m.ChainsTracked)
	}
	return m
}

// ObserveCompletion records one completion call.
func (m *Metrics) ObserveCompletion(status string, duration time.Duration) {
	m.CompletionsTotal.WithLabelValues(status).Inc()
	m.CompletionDuration.Observe(duration.Seconds())
}

// Serve exposes /metrics on addr in a background goroutine.
func Serve(addr string, log zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	go func() {
		log.Info().Str("addr", addr).Msg("serving metrics")
		if err := http.ListenAndServe(addr, mux); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("metrics server failed")
		}
	}()
}
