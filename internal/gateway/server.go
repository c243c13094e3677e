package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"twscreener/internal/chips"
	"twscreener/internal/indicator"
	"twscreener/internal/ledger"
	"twscreener/internal/logger"
	"twscreener/internal/markethours"
	"twscreener/internal/metrics"
	"twscreener/internal/model"
	"twscreener/internal/notification"
	"twscreener/internal/scanner"
	"twscreener/internal/session"
	"twscreener/internal/strategy"
)

// Server wires the screening engine to HTTP.
type Server struct {
	scanner   *scanner.Scanner
	sess      *session.Session
	bars      model.BarSource
	hub       *Hub
	met       *metrics.Metrics
	health    *metrics.HealthStatus
	notify    notification.Notifier
	benchmark string
	log       *slog.Logger
}

// ServerOptions configure the REST/WS server. All fields are optional.
type ServerOptions struct {
	Metrics  *metrics.Metrics
	Health   *metrics.HealthStatus
	Notifier notification.Notifier

	// Benchmark is the index proxy symbol the market regime gate runs
	// over. Empty disables the gate: scans run unconditionally.
	Benchmark string

	Logger *slog.Logger
}

// NewServer creates the REST/WS server.
func NewServer(sc *scanner.Scanner, sess *session.Session, bars model.BarSource, hub *Hub, opts ServerOptions) *Server {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	notify := opts.Notifier
	if notify == nil {
		notify = notification.NewLogNotifier(log)
	}
	return &Server{
		scanner:   sc,
		sess:      sess,
		bars:      bars,
		hub:       hub,
		met:       opts.Metrics,
		health:    opts.Health,
		notify:    notify,
		benchmark: opts.Benchmark,
		log:       log,
	}
}

// SetCORS sets CORS headers for REST endpoints.
func SetCORS(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
}

// Routes builds the HTTP mux.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/v1/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	mux.HandleFunc("/api/sectors", s.handleSectors)
	mux.HandleFunc("/api/scan", s.handleScan)
	mux.HandleFunc("/api/positions", s.handlePositions)
	mux.HandleFunc("/api/pnl", s.handlePnL)
	mux.HandleFunc("/api/trades", s.handleTrades)
	mux.HandleFunc("/api/realized", s.handleRealized)
	mux.HandleFunc("/api/watchlist", s.handleWatchlist)
	mux.HandleFunc("/api/flow", s.handleFlow)
	mux.HandleFunc("/api/regime", s.handleRegime)
	mux.HandleFunc("/api/market", s.handleMarket)
	mux.HandleFunc("/ws", s.hub.HandleWS)

	return mux
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if code != http.StatusOK {
		w.WriteHeader(code)
	}
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func preflight(w http.ResponseWriter, r *http.Request) bool {
	SetCORS(w)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return true
	}
	return false
}

func (s *Server) handleSectors(w http.ResponseWriter, r *http.Request) {
	if preflight(w, r) {
		return
	}
	type sectorInfo struct {
		Name    string            `json:"name"`
		Symbols []model.StockInfo `json:"symbols"`
	}
	sectors := model.Sectors()
	out := make([]sectorInfo, 0, len(sectors))
	for _, name := range sectors {
		out = append(out, sectorInfo{Name: name, Symbols: model.StocksBySector(name)})
	}
	writeJSON(w, http.StatusOK, out)
}

type scanRequest struct {
	Sector     string   `json:"sector"`
	Symbols    []string `json:"symbols"`
	Mode       string   `json:"mode"`
	MaxResults int      `json:"max_results"`
}

// scanResponse annotates a scan result with the market regime verdict
// when the gate is configured.
type scanResponse struct {
	*scanner.Result
	Regime *strategy.RegimeCall `json:"regime,omitempty"`
}

// marketRegime runs the gate over the configured benchmark. Nil when no
// benchmark is configured; an unjudgeable market (fetch failure, short
// history) comes back as RegimeUnknown with the long side closed.
func (s *Server) marketRegime(ctx context.Context) *strategy.RegimeCall {
	if s.benchmark == "" {
		return nil
	}
	series, err := s.bars.FetchBars(ctx, s.benchmark, 365)
	if err != nil {
		s.log.Warn("benchmark fetch failed", slog.String("symbol", s.benchmark), slog.Any("error", err))
		return &strategy.RegimeCall{Regime: strategy.RegimeUnknown, Reason: "benchmark data unavailable"}
	}
	snap, err := indicator.Compute(series)
	if err != nil {
		return &strategy.RegimeCall{Regime: strategy.RegimeUnknown, Reason: "benchmark history too short"}
	}
	call := strategy.EvaluateRegime(snap)
	return &call
}

func (s *Server) handleRegime(w http.ResponseWriter, r *http.Request) {
	if preflight(w, r) {
		return
	}
	call := s.marketRegime(r.Context())
	if call == nil {
		writeError(w, http.StatusServiceUnavailable, "market regime gate disabled")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"benchmark": s.benchmark,
		"regime":    call,
	})
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	if preflight(w, r) {
		return
	}
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}

	var req scanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	symbols := req.Symbols
	if len(symbols) == 0 {
		if req.Sector != "" {
			symbols = model.SymbolsBySector(req.Sector)
			if len(symbols) == 0 {
				writeError(w, http.StatusBadRequest, "unknown sector")
				return
			}
		} else {
			symbols = model.AllSymbols()
		}
	}

	mode := strategy.Mode(req.Mode)
	ctx := logger.WithScanID(r.Context(), logger.GenerateScanID(req.Mode, time.Now()))

	// Layer-1 market gate: with the long side closed no scan runs.
	regime := s.marketRegime(ctx)
	if regime != nil && !regime.AllowLong {
		if !mode.Valid() {
			writeError(w, http.StatusBadRequest, "unknown strategy mode")
			return
		}
		s.log.Info("scan blocked by market regime", slog.String("regime", string(regime.Regime)))
		writeJSON(w, http.StatusOK, scanResponse{
			Result: &scanner.Result{Mode: mode},
			Regime: regime,
		})
		return
	}

	start := time.Now()
	res, err := s.scanner.Scan(ctx, symbols, mode, req.MaxResults)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			writeError(w, http.StatusRequestTimeout, "scan aborted")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if s.met != nil {
		s.met.ScansTotal.WithLabelValues(string(mode)).Inc()
		s.met.ScanDur.Observe(time.Since(start).Seconds())
		s.met.SymbolsScanned.Add(float64(res.Scanned))
		for _, skip := range res.Skipped {
			s.met.SymbolsSkipped.WithLabelValues(skip.Reason).Inc()
		}
	}
	if s.health != nil {
		s.health.SetLastScanAt(time.Now())
	}

	out := scanResponse{Result: res, Regime: regime}
	s.hub.Broadcast(EventScanResult, out)
	if len(res.Ranked) > 0 {
		if err := s.notify.Send(r.Context(), notification.SignalAlert(mode.String(), res.Ranked[0])); err != nil {
			s.log.Warn("signal alert failed", slog.Any("error", err))
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handlePositions(w http.ResponseWriter, r *http.Request) {
	if preflight(w, r) {
		return
	}
	writeJSON(w, http.StatusOK, s.sess.Ledger.Positions())
}

type pnlRequest struct {
	Prices map[string]decimal.Decimal `json:"prices"`
}

// handlePnL marks the portfolio to market. POST supplies explicit
// prices; GET pulls the latest close per open position from the bar
// source (missing prices simply contribute nothing).
func (s *Server) handlePnL(w http.ResponseWriter, r *http.Request) {
	if preflight(w, r) {
		return
	}

	var prices map[string]decimal.Decimal
	switch r.Method {
	case http.MethodPost:
		var req pnlRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON")
			return
		}
		prices = req.Prices
	case http.MethodGet:
		prices = s.latestPrices(r.Context())
	default:
		writeError(w, http.StatusMethodNotAllowed, "GET or POST required")
		return
	}

	type positionView struct {
		ledger.Position
		Price      *decimal.Decimal `json:"price,omitempty"`
		Unrealized *decimal.Decimal `json:"unrealized,omitempty"`
	}
	positions := s.sess.Ledger.Positions()
	views := make([]positionView, len(positions))
	for i, p := range positions {
		views[i] = positionView{Position: p}
		if price, ok := prices[p.Symbol]; ok {
			upnl := p.UnrealizedPnL(price)
			views[i].Price = &price
			views[i].Unrealized = &upnl
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"summary":   s.sess.Ledger.Summarize(prices),
		"positions": views,
	})
}

// latestPrices fetches the latest close for each open position. Fetch
// failures leave the symbol unpriced.
func (s *Server) latestPrices(ctx context.Context) map[string]decimal.Decimal {
	positions := s.sess.Ledger.Positions()
	prices := make(map[string]decimal.Decimal, len(positions))
	for _, p := range positions {
		fctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		series, err := s.bars.FetchBars(fctx, p.Symbol, 10)
		cancel()
		if err != nil || series.Len() == 0 {
			s.log.Warn("price fetch failed", slog.String("symbol", p.Symbol))
			continue
		}
		prices[p.Symbol] = decimal.NewFromFloat(series.Last().Close)
	}
	return prices
}

type tradeRequest struct {
	Symbol   string          `json:"symbol"`
	Side     string          `json:"side"`
	Quantity int64           `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

func (s *Server) handleTrades(w http.ResponseWriter, r *http.Request) {
	if preflight(w, r) {
		return
	}
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, s.sess.Ledger.Trades())
	case http.MethodPost:
		var req tradeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON")
			return
		}
		pos, pnl, err := s.sess.ApplyTrade(ledger.Trade{
			Symbol:    req.Symbol,
			Side:      ledger.Side(req.Side),
			Quantity:  req.Quantity,
			Price:     req.Price,
			Timestamp: time.Now(),
		})
		if err != nil {
			if s.met != nil {
				s.met.TradesRejected.Inc()
			}
			code := http.StatusBadRequest
			if errors.Is(err, ledger.ErrInsufficientPosition) {
				code = http.StatusConflict
			}
			writeError(w, code, err.Error())
			return
		}
		if s.met != nil {
			s.met.TradesApplied.WithLabelValues(req.Side).Inc()
			s.met.OpenPositions.Set(float64(len(s.sess.Ledger.Positions())))
		}
		s.hub.Broadcast(EventPortfolio, s.sess.Ledger.Positions())
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"position": pos,
			"realized": pnl,
		})
	default:
		writeError(w, http.StatusMethodNotAllowed, "GET or POST required")
	}
}

func (s *Server) handleRealized(w http.ResponseWriter, r *http.Request) {
	if preflight(w, r) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"records": s.sess.Ledger.Realized(),
		"closed":  s.sess.Ledger.Closed(),
		"total":   s.sess.Ledger.TotalRealizedPnL(),
	})
}

func (s *Server) handleWatchlist(w http.ResponseWriter, r *http.Request) {
	if preflight(w, r) {
		return
	}
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, s.sess.Watchlist.List())
	case http.MethodPost:
		var req struct {
			Symbol string `json:"symbol"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON")
			return
		}
		entry, err := s.sess.Watch(req.Symbol)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.hub.Broadcast(EventWatchlist, s.sess.Watchlist.List())
		writeJSON(w, http.StatusOK, entry)
	case http.MethodDelete:
		symbol := r.URL.Query().Get("symbol")
		if symbol == "" {
			writeError(w, http.StatusBadRequest, "symbol query parameter required")
			return
		}
		removed := s.sess.Unwatch(symbol)
		s.hub.Broadcast(EventWatchlist, s.sess.Watchlist.List())
		writeJSON(w, http.StatusOK, map[string]bool{"removed": removed})
	default:
		writeError(w, http.StatusMethodNotAllowed, "GET, POST or DELETE required")
	}
}

func (s *Server) handleFlow(w http.ResponseWriter, r *http.Request) {
	if preflight(w, r) {
		return
	}
	if !s.sess.Flow.Enabled() {
		writeError(w, http.StatusServiceUnavailable, "institutional flow capability disabled")
		return
	}

	symbol := r.URL.Query().Get("symbol")
	if symbol == "" {
		writeError(w, http.StatusBadRequest, "symbol query parameter required")
		return
	}
	days := 30
	if d := r.URL.Query().Get("days"); d != "" {
		if n, err := strconv.Atoi(d); err == nil && n > 0 {
			days = n
		}
	}

	to := time.Now()
	entries, err := s.sess.Flow.Flow(r.Context(), symbol, to.AddDate(0, 0, -days), to)
	if err != nil {
		if errors.Is(err, model.ErrInvalidSymbol) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	evt, err := s.sess.Flow.CheckSwitch(r.Context(), symbol, days)
	if err == nil && evt != nil {
		if s.met != nil {
			s.met.FlowSwitches.WithLabelValues(string(evt.Kind)).Inc()
		}
		s.hub.Broadcast(EventFlowSwitch, evt)
		if nerr := s.notify.Send(r.Context(), notification.FlowSwitchAlert(*evt)); nerr != nil {
			s.log.Warn("flow alert failed", slog.Any("error", nerr))
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"symbol":       model.NormalizeSymbol(symbol),
		"entries":      entries,
		"five_day_net": chips.FiveDayNet(entries),
		"switch":       evt,
	})
}

func (s *Server) handleMarket(w http.ResponseWriter, r *http.Request) {
	if preflight(w, r) {
		return
	}
	now := time.Now()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"open":      markethours.IsMarketOpen(now),
		"status":    markethours.StatusString(now),
		"next_open": markethours.NextOpen(now),
	})
}
