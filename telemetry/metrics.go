// Package telemetry provides Prometheus metrics and correlation-id aware logging helpers.
package telemetry

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Counters
	Cycles        = promauto.NewCounter(prometheus.CounterOpts{Name: "presence_cycles_total", Help: "Number of poll cycles started"})
	CycleFailures = promauto.NewCounter(prometheus.CounterOpts{Name: "presence_cycle_failures_total", Help: "Number of poll cycles that failed"})
	FetchFailures = promauto.NewCounter(prometheus.CounterOpts{Name: "presence_fetch_failures_total", Help: "Number of attendance feed fetch failures"})
	PostsSent     = promauto.NewCounter(prometheus.CounterOpts{Name: "presence_posts_sent_total", Help: "Number of new channel messages posted"})
	CaptionEdits  = promauto.NewCounter(prometheus.CounterOpts{Name: "presence_caption_edits_total", Help: "Number of successful caption patches on the live message"})
	EditFallbacks = promauto.NewCounter(prometheus.CounterOpts{Name: "presence_edit_fallbacks_total", Help: "Number of caption edits that fell back to a fresh post"})

	PortraitCacheHits   = promauto.NewCounter(prometheus.CounterOpts{Name: "presence_portrait_cache_hits_total", Help: "Portrait cache hits"})
	PortraitCacheMisses = promauto.NewCounter(prometheus.CounterOpts{Name: "presence_portrait_cache_misses_total", Help: "Portrait cache misses"})
	PortraitFailures    = promauto.NewCounter(prometheus.CounterOpts{Name: "presence_portrait_failures_total", Help: "Portraits skipped because fetch or decode failed"})

	// Histograms (seconds)
	CycleDuration  = promauto.NewHistogram(prometheus.HistogramOpts{Name: "presence_cycle_duration_seconds", Help: "Full poll cycle duration seconds", Buckets: prometheus.DefBuckets})
	RenderDuration = promauto.NewHistogram(prometheus.HistogramOpts{Name: "presence_render_duration_seconds", Help: "Presence image render duration seconds", Buckets: prometheus.DefBuckets})

	// Gauges
	PresentMembersGauge = promauto.NewGauge(prometheus.GaugeOpts{Name: "presence_present_members", Help: "Present member count from the latest snapshot"})
)

// SetPresentMembers records the present count of the latest snapshot.
func SetPresentMembers(n int) { PresentMembersGauge.Set(float64(n)) }

// TimeFunc measures the duration of fn and records in observer if non-nil.
func TimeFunc(obs prometheus.Observer, fn func()) time.Duration {
	start := time.Now()
	fn()
	d := time.Since(start)
	if obs != nil {
		obs.Observe(d.Seconds())
	}
	return d
}

// Correlation ID helpers ----------------------------------------------------
type corrKeyType struct{}

var corrKey corrKeyType

// WithCorrelation returns a new context embedding correlation id (if absent) and the id.
func WithCorrelation(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, corrKey, id)
}

// GetCorrelation returns correlation id or empty string.
func GetCorrelation(ctx context.Context) string {
	v := ctx.Value(corrKey)
	if s, ok := v.(string); ok {
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
