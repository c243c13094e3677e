// Package metrics exposes Prometheus metrics and a health endpoint for
// the screening engine.
package metrics

import (
	"context"
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the screening engine.
type Metrics struct {
	ScansTotal     *prometheus.CounterVec // labels: mode
	ScanDur        prometheus.Histogram
	SymbolsScanned prometheus.Counter
	SymbolsSkipped *prometheus.CounterVec // labels: reason

	FetchDur        prometheus.Histogram
	CacheHits       prometheus.Counter
	CacheMisses     prometheus.Counter
	BarSourceErrors prometheus.Counter

	// 0=closed, 1=open, 2=half-open
	BreakerState prometheus.Gauge
	BreakerTrips prometheus.Counter

	TradesApplied  *prometheus.CounterVec // labels: side
	TradesRejected prometheus.Counter
	OpenPositions  prometheus.Gauge

	FlowSwitches *prometheus.CounterVec // labels: kind

	WSClients  prometheus.Gauge
	WSMessages prometheus.Counter

	MarketState prometheus.Gauge // 0=closed, 1=open
}

// NewMetrics registers and returns all Prometheus metrics.
func NewMetrics() *Metrics {
	m := &Metrics{
		ScansTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "screener_scans_total",
			Help: "Total scans executed (by strategy mode)",
		}, []string{"mode"}),
		ScanDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "screener_scan_duration_seconds",
			Help:    "End-to-end scan latency",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		SymbolsScanned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "screener_symbols_scanned_total",
			Help: "Total symbols evaluated across all scans",
		}),
		SymbolsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "screener_symbols_skipped_total",
			Help: "Symbols skipped during scans (by reason)",
		}, []string{"reason"}),

		FetchDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "screener_bar_fetch_duration_seconds",
			Help:    "Bar series fetch latency (cache or upstream)",
			Buckets: prometheus.DefBuckets,
		}),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "screener_bar_cache_hits_total",
			Help: "Bar series served from the Redis cache",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "screener_bar_cache_misses_total",
			Help: "Bar series fetched from the upstream source",
		}),
		BarSourceErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "screener_bar_source_errors_total",
			Help: "Upstream bar source failures",
		}),

		BreakerState: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "screener_bar_source_breaker_state",
			Help: "Bar source circuit breaker state (0=closed, 1=open, 2=half-open)",
		}),
		BreakerTrips: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "screener_bar_source_breaker_trips_total",
			Help: "Times the bar source breaker opened",
		}),

		TradesApplied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "screener_trades_applied_total",
			Help: "Trades applied to the ledger (by side)",
		}, []string{"side"}),
		TradesRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "screener_trades_rejected_total",
			Help: "Trades rejected by the ledger",
		}),
		OpenPositions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "screener_open_positions",
			Help: "Currently open positions",
		}),

		FlowSwitches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "screener_flow_switches_total",
			Help: "Institutional flow direction changes detected (by kind)",
		}, []string{"kind"}),

		WSClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "screener_ws_clients",
			Help: "Connected WebSocket clients",
		}),
		WSMessages: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "screener_ws_messages_total",
			Help: "WebSocket messages broadcast",
		}),

		MarketState: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "screener_market_state",
			Help: "TWSE session state (0=closed, 1=open)",
		}),
	}

	prometheus.MustRegister(
		m.ScansTotal, m.ScanDur, m.SymbolsScanned, m.SymbolsSkipped,
		m.FetchDur, m.CacheHits, m.CacheMisses, m.BarSourceErrors,
		m.BreakerState, m.BreakerTrips,
		m.TradesApplied, m.TradesRejected, m.OpenPositions,
		m.FlowSwitches,
		m.WSClients, m.WSMessages,
		m.MarketState,
	)
	return m
}

// HealthStatus tracks dependency health for the /healthz endpoint.
type HealthStatus struct {
	mu sync.RWMutex

	RedisConnected bool
	SQLiteOK       bool
	FlowEnabled    bool
	LastScanAt     time.Time

	RedisLatencyMs  float64
	SQLiteLatencyMs float64
	LastCheckAt     time.Time
	StartedAt       time.Time
}

// NewHealthStatus returns a default health status.
func NewHealthStatus() *HealthStatus {
	return &HealthStatus{StartedAt: time.Now()}
}

func (h *HealthStatus) SetFlowEnabled(v bool) {
	h.mu.Lock()
	h.FlowEnabled = v
	h.mu.Unlock()
}

func (h *HealthStatus) SetLastScanAt(t time.Time) {
	h.mu.Lock()
	h.LastScanAt = t
	h.mu.Unlock()
}

// LastScan returns the timestamp of the most recent completed scan.
func (h *HealthStatus) LastScan() time.Time {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.LastScanAt
}

// CheckRedis pings Redis and records latency + connectivity.
func (h *HealthStatus) CheckRedis(ctx context.Context, rdb *goredis.Client) {
	start := time.Now()
	err := rdb.Ping(ctx).Err()
	latency := time.Since(start)

	h.mu.Lock()
	h.RedisConnected = err == nil
	h.RedisLatencyMs = float64(latency.Microseconds()) / 1000.0
	h.LastCheckAt = time.Now()
	h.mu.Unlock()
}

// CheckSQLite pings the journal database and records latency + health.
func (h *HealthStatus) CheckSQLite(ctx context.Context, db *sql.DB) {
	start := time.Now()
	err := db.PingContext(ctx)
	latency := time.Since(start)

	h.mu.Lock()
	h.SQLiteOK = err == nil
	h.SQLiteLatencyMs = float64(latency.Microseconds()) / 1000.0
	h.LastCheckAt = time.Now()
	h.mu.Unlock()
}

// StartLivenessChecker runs periodic dependency checks.
func (h *HealthStatus) StartLivenessChecker(ctx context.Context, rdb *goredis.Client, sqlDB *sql.DB, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				probeCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
				if rdb != nil {
					h.CheckRedis(probeCtx, rdb)
				}
				if sqlDB != nil {
					h.CheckSQLite(probeCtx, sqlDB)
				}
				cancel()
			}
		}
	}()
}

// ServeHTTP handles the /healthz endpoint.
func (h *HealthStatus) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	overallStatus := "healthy"
	httpCode := http.StatusOK
	if !h.RedisConnected || !h.SQLiteOK {
		overallStatus = "degraded"
		httpCode = http.StatusServiceUnavailable
	}
	if !h.RedisConnected && !h.SQLiteOK {
		overallStatus = "unhealthy"
	}

	lastScan := ""
	if !h.LastScanAt.IsZero() {
		lastScan = h.LastScanAt.Format(time.RFC3339)
	}

	status := struct {
		Status          string  `json:"status"`
		Uptime          string  `json:"uptime"`
		RedisConnected  bool    `json:"redis_connected"`
		RedisLatencyMs  float64 `json:"redis_latency_ms"`
		SQLiteOK        bool    `json:"sqlite_ok"`
		SQLiteLatencyMs float64 `json:"sqlite_latency_ms"`
		FlowEnabled     bool    `json:"flow_enabled"`
		LastScanAt      string  `json:"last_scan_at"`
		LastCheckAt     string  `json:"last_check_at"`
	}{
		Status:          overallStatus,
		Uptime:          time.Since(h.StartedAt).Round(time.Second).String(),
		RedisConnected:  h.RedisConnected,
		RedisLatencyMs:  h.RedisLatencyMs,
		SQLiteOK:        h.SQLiteOK,
		SQLiteLatencyMs: h.SQLiteLatencyMs,
		FlowEnabled:     h.FlowEnabled,
		LastScanAt:      lastScan,
		LastCheckAt:     h.LastCheckAt.Format(time.RFC3339),
	}

	w.Header().Set("Content-Type", "application/json")
	if httpCode != http.StatusOK {
		w.WriteHeader(httpCode)
	}
	json.NewEncoder(w).Encode(status)
}

// Server runs an HTTP server exposing /metrics and /healthz.
type Server struct {
	health *HealthStatus
	addr   string
	srv    *http.Server
}

// NewServer creates a metrics and health server.
func NewServer(addr string, health *HealthStatus) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", health.ServeHTTP)

	return &Server{
		health: health,
		addr:   addr,
		srv: &http.Server{
			Addr:    addr,
			Handler: mux,
		},
	}
}

// Start launches the HTTP server in a goroutine.
func (s *Server) Start() {
	go func() {
		log.Printf("[metrics] server listening on %s", s.addr)
		if err := s.srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Printf("[metrics] server error: %v", err)
		}
	}()
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) {
	s.srv.Shutdown(ctx)
}
