// Command knesset-presence is the plenum attendance bot. It:
//   - Loads configuration and initializes structured logging.
//   - Polls the Knesset attendance feed at a fixed interval.
//   - Posts a presence grid image to a Telegram channel on changes and
//     patches the caption of the live message otherwise.
//   - Exposes a minimal HTTP server with /healthz, /status, and /metrics.
//
// Shutdown is graceful on SIGINT/SIGTERM; the process exits nonzero when the
// consecutive-failure ceiling is hit.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/plenumwatch/knesset-presence/bot"
	"github.com/plenumwatch/knesset-presence/config"
	"github.com/plenumwatch/knesset-presence/knessetapi"
	"github.com/plenumwatch/knesset-presence/render"
	"github.com/plenumwatch/knesset-presence/server"
	"github.com/plenumwatch/knesset-presence/state"
	"github.com/plenumwatch/knesset-presence/summary"
	"github.com/plenumwatch/knesset-presence/telegramapi"
	"github.com/plenumwatch/knesset-presence/telemetry"
)

func main() {
	// Load .env file if present (local dev convenience only; production relies on real env)
	_ = godotenv.Load(".env")

	// Configure logging (level + format). Defaults: level=info, format=text.
	lvl := slog.LevelInfo
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	case "info", "":
		// keep default
	default:
		tmp := slog.New(slog.NewTextHandler(os.Stdout, nil))
		tmp.Warn("unknown LOG_LEVEL, using info", slog.String("value", os.Getenv("LOG_LEVEL")))
	}
	var handler slog.Handler
	if strings.ToLower(os.Getenv("LOG_FORMAT")) == "json" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	}
	slog.SetDefault(slog.New(handler))

	// Config
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", slog.Any("err", err))
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("config invalid", slog.Any("err", err))
		os.Exit(1)
	}

	// Initialize OpenTelemetry tracing (optional; requires OTEL_EXPORTER_OTLP_ENDPOINT)
	shutdown, err := telemetry.InitTracing("knesset-presence", "1.0.0")
	if err != nil {
		slog.Error("tracing initialization failed", slog.Any("err", err))
		os.Exit(1)
	}
	defer shutdown()

	composer, err := render.NewComposer(cfg.FontPath, cfg.CacheDir, render.NewHTTPFetcher())
	if err != nil {
		slog.Error("composer init failed", slog.Any("err", err))
		os.Exit(1)
	}

	b := bot.New(
		knessetapi.NewClient(cfg.KnessetAPIURL),
		telegramapi.NewClient(cfg.TelegramToken, cfg.ChannelID),
		composer,
		summary.NewFormatter(),
		state.NewStore(cfg.StateFile),
		bot.Options{PollInterval: cfg.PollInterval, MaxConsecutiveFailures: cfg.MaxConsecutiveFailures},
	)

	// Root context with graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// HTTP server (health/status/metrics)
	if cfg.HTTPAddr != "off" {
		go func() {
			if err := server.Start(ctx, cfg.HTTPAddr, b.Status); err != nil {
				slog.Error("http server exited with error", slog.Any("err", err))
			}
		}()
	}

	if err := b.Run(ctx); err != nil {
		slog.Error("presence bot stopped with error", slog.Any("err", err))
		os.Exit(1)
	}
	slog.Info("shutting down")
}
