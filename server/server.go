// Package server exposes the observability HTTP surface: liveness, a small
// JSON status of the poll loop, and Prometheus metrics. It injects
// correlation IDs into request contexts for consistent logging.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/plenumwatch/knesset-presence/bot"
	"github.com/plenumwatch/knesset-presence/telemetry"
)

// StatusFunc reports the bot's current loop status.
type StatusFunc func() bot.Status

// NewMux returns the HTTP handler with all routes.
func NewMux(status StatusFunc) http.Handler {
	mux := http.NewServeMux()

	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(status()); err != nil {
			slog.Warn("status encode failed", slog.Any("err", err), slog.String("component", "http"))
		}
	})

	// Correlation ID injector: reuse the header if provided, else generate.
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		corr := r.Header.Get("X-Correlation-ID")
		if corr == "" {
			corr = uuid.New().String()
		}
		ctx := telemetry.WithCorrelation(r.Context(), corr)
		w.Header().Set("X-Correlation-ID", corr)
		telemetry.LoggerWithCorr(ctx).Debug("request",
			slog.String("method", r.Method), slog.String("path", r.URL.Path), slog.String("component", "http"))
		mux.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Start runs the HTTP server and shuts down gracefully on context cancellation.
func Start(ctx context.Context, addr string, status StatusFunc) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      NewMux(status),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("http server shutdown error", slog.Any("err", err))
		}
	}()

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("http server error", slog.Any("err", err))
		return err
	}
	return nil
}
