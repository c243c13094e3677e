// cmd/scanserver — Taiwan equity screening server.
//
// Wires the full stack: TWSE/FinMind market data behind a Redis
// read-through cache, the strategy scanner, the SQLite-journaled
// portfolio session, and the REST/WebSocket gateway. Prometheus metrics
// and health checks run on a separate listener.
//
// Config (env vars, .env merged when present):
//
//	LISTEN_ADDR        — API/WS listen address       (default: ":8080")
//	METRICS_ADDR       — metrics/health address      (default: ":9090")
//	REDIS_ADDR         — bar cache Redis             (default: "localhost:6379")
//	SQLITE_PATH        — trade/watchlist journal     (default: "data/journal.db")
//	DATA_API_BASE_URL  — bar data API base URL
//	FLOW_API_BASE_URL  — institutional flow API; empty disables the capability
//	BENCHMARK_SYMBOL   — market regime benchmark  (default: "0050.TW"; empty disables the gate)
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"twscreener/config"
	"twscreener/internal/gateway"
	"twscreener/internal/logger"
	"twscreener/internal/marketdata/cache"
	"twscreener/internal/marketdata/twse"
	"twscreener/internal/metrics"
	"twscreener/internal/model"
	"twscreener/internal/notification"
	"twscreener/internal/scanner"
	"twscreener/internal/session"
	"twscreener/internal/store/sqlite"
	"twscreener/internal/strategy"
)

func main() {
	cfg := config.Load()
	log := logger.Init("scanserver", slog.LevelInfo)
	log.Info("starting scanserver")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	met := metrics.NewMetrics()
	health := metrics.NewHealthStatus()

	// Redis is optional: the bar cache degrades to direct fetches.
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	pingCtx, pingCancel := context.WithTimeout(ctx, 3*time.Second)
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		log.Warn("redis unavailable, bar caching disabled", slog.String("addr", cfg.RedisAddr), slog.Any("error", err))
		rdb.Close()
		rdb = nil
	} else {
		log.Info("redis connected", slog.String("addr", cfg.RedisAddr))
	}
	pingCancel()

	upstream := twse.NewClient(twse.Config{
		BaseURL: cfg.DataAPIBaseURL,
		Token:   cfg.DataAPIToken,
	}, log)
	bars := cache.New(upstream, rdb, cache.Config{
		TTL: time.Duration(cfg.BarCacheTTLMin) * time.Minute,
	}, met, log)
	defer bars.Close()

	if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o755); err != nil {
		log.Error("journal directory creation failed", slog.Any("error", err))
		os.Exit(1)
	}
	journal, err := sqlite.Open(cfg.SQLitePath)
	if err != nil {
		log.Error("journal open failed", slog.String("path", cfg.SQLitePath), slog.Any("error", err))
		os.Exit(1)
	}
	defer journal.Close()

	// Institutional flow is an optional capability keyed off its base URL.
	var flowSrc model.FlowSource
	if cfg.FlowAPIBaseURL != "" {
		flowSrc = twse.NewClient(twse.Config{
			BaseURL: cfg.FlowAPIBaseURL,
			Token:   cfg.DataAPIToken,
		}, log)
	}
	health.SetFlowEnabled(flowSrc != nil)

	sess, err := session.New(session.Options{
		Journal:    journal,
		FlowSource: flowSrc,
		Logger:     log,
	})
	if err != nil {
		log.Error("session restore failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer sess.Close()

	sc := scanner.New(bars, scanner.Config{
		Workers:      cfg.ScanWorkers,
		MaxSymbols:   cfg.ScanMaxSymbols,
		LookbackDays: cfg.ScanLookbackDay,
		MinAvgVolume: cfg.MinAvgVolume,
		Params: strategy.Params{
			RSIOversold:         cfg.RSIOversold,
			VolumeWeight:        cfg.VolumeWeight,
			BreakoutVolumeRatio: cfg.BreakoutVolumeRatio,
		},
	}, log)

	notify := buildNotifier(cfg, log)

	hub := gateway.NewHub(log, met)
	go hub.StartMarketStatusBroadcast(ctx, 30*time.Second)

	health.StartLivenessChecker(ctx, rdb, journal.DB(), 15*time.Second)
	metricsSrv := metrics.NewServer(cfg.MetricsAddr, health)
	metricsSrv.Start()

	srv := gateway.NewServer(sc, sess, bars, hub, gateway.ServerOptions{
		Metrics:   met,
		Health:    health,
		Notifier:  notify,
		Benchmark: cfg.BenchmarkSymbol,
		Logger:    log,
	})
	httpSrv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: srv.Routes(),
	}
	go func() {
		log.Info("api server listening", slog.String("addr", cfg.ListenAddr))
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("api server failed", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	httpSrv.Shutdown(shutdownCtx)
	metricsSrv.Stop(shutdownCtx)
	if rdb != nil {
		rdb.Close()
	}
	log.Info("shutdown complete")
}

// buildNotifier assembles the alert fan-out from config. With nothing
// configured the gateway falls back to log-only alerts.
func buildNotifier(cfg *config.Config, log *slog.Logger) notification.Notifier {
	var backends []notification.Notifier
	if cfg.WebhookURL != "" {
		backends = append(backends, notification.NewWebhookNotifier(cfg.WebhookURL))
		log.Info("webhook alerts enabled")
	}
	if cfg.TelegramToken != "" && cfg.TelegramChatID != "" {
		backends = append(backends, notification.NewTelegramNotifier(cfg.TelegramToken, cfg.TelegramChatID))
		log.Info("telegram alerts enabled")
	}
	switch len(backends) {
	case 0:
		return nil
	case 1:
		return backends[0]
	default:
		return notification.NewMulti(backends...)
	}
}
