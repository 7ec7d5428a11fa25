// Package telemetry provides Prometheus metrics, tracing and correlation-id aware logging helpers.
package telemetry

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once sync.Once

	FetchesTotal       *prometheus.CounterVec
	FetchDuration      *prometheus.HistogramVec
	ResolutionsTotal   *prometheus.CounterVec
	IndexCacheTotal    *prometheus.CounterVec
	WebhookEventsTotal *prometheus.CounterVec
)

// Init registers metrics (idempotent).
func Init() {
	once.Do(func() {
		FetchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{Name: "keibabot_fetches_total", Help: "Outbound page fetches by site and status"}, []string{"site", "status"})
		FetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{Name: "keibabot_fetch_duration_seconds", Help: "Outbound page fetch duration seconds", Buckets: prometheus.DefBuckets}, []string{"site"})
		ResolutionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{Name: "keibabot_resolutions_total", Help: "Race resolutions by strategy and outcome"}, []string{"strategy", "outcome"})
		IndexCacheTotal = promauto.NewCounterVec(prometheus.CounterOpts{Name: "keibabot_index_cache_total", Help: "Target index cache lookups by result"}, []string{"result"})
		WebhookEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{Name: "keibabot_webhook_events_total", Help: "Webhook events handled by kind"}, []string{"kind"})
	})
}

// ObserveFetch records one outbound fetch. status is the HTTP status, or 0 for transport errors.
func ObserveFetch(site string, status int, d time.Duration) {
	if FetchesTotal == nil {
		return
	}
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	FetchesTotal.WithLabelValues(site, label).Inc()
	FetchDuration.WithLabelValues(site).Observe(d.Seconds())
}

// CountResolution records a resolution outcome: the matching tier, or "miss".
func CountResolution(strategy, outcome string) {
	if ResolutionsTotal != nil {
		ResolutionsTotal.WithLabelValues(strategy, outcome).Inc()
	}
}

// CountIndexCache records a lookup result: "hit", "miss", "uncacheable" or
// "failed_earlier" (a transport failure already seen in the same action).
func CountIndexCache(result string) {
	if IndexCacheTotal != nil {
		IndexCacheTotal.WithLabelValues(result).Inc()
	}
}

// CountWebhookEvent records one handled event.
func CountWebhookEvent(kind string) {
	if WebhookEventsTotal != nil {
		WebhookEventsTotal.WithLabelValues(kind).Inc()
	}
}

// Correlation ID helpers ----------------------------------------------------
type corrKeyType struct{}

var corrKey corrKeyType

// WithCorrelation returns a new context embedding the correlation id.
func WithCorrelation(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, corrKey, id)
}

// GetCorrelation returns correlation id or empty string.
func GetCorrelation(ctx context.Context) string {
	if s, ok := ctx.Value(corrKey).(string); ok {
		return s
	}
	return ""
}

// LoggerWithCorr returns a logger with corr attribute if present.
func LoggerWithCorr(ctx context.Context) *slog.Logger {
	if id := GetCorrelation(ctx); id != "" {
		return slog.Default().With(slog.String("corr", id))
	}
	return slog.Default()
}
