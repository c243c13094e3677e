// Package scanner runs a strategy mode across a symbol universe.
//
// Fetches are network-bound and issued through a bounded worker pool;
// scoring and ranking are purely computational. Results are collected and
// re-sorted, never streamed in fetch-completion order, so output is
// deterministic for identical input data regardless of scheduling.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"twscreener/internal/indicator"
	"twscreener/internal/model"
	"twscreener/internal/strategy"
)

// Skip reasons surfaced alongside scan results.
const (
	SkipInvalidSymbol   = "invalid_symbol"
	SkipDataUnavailable = "data_unavailable"
	SkipMalformedBars   = "malformed_bar_data"
	SkipNoData          = "no_data"
	SkipLowLiquidity    = "liquidity_below_floor"
	SkipScanCap         = "scan_cap_exceeded"
)

// Config tunes a Scanner.
type Config struct {
	Workers      int     // parallel fetches (default 4)
	MaxSymbols   int     // per-invocation cap protecting the rate-limited source (default 50)
	LookbackDays int     // bar history requested per symbol (default 365)
	MinAvgVolume float64 // liquidity floor on 20-session average volume; 0 disables

	Params strategy.Params
}

func (c Config) withDefaults() Config {
	if c.Workers <= 0 {
		c.Workers = 4
	}
	if c.MaxSymbols <= 0 {
		c.MaxSymbols = 50
	}
	if c.LookbackDays <= 0 {
		c.LookbackDays = 365
	}
	if c.Params == (strategy.Params{}) {
		c.Params = strategy.DefaultParams()
	}
	return c
}

// Result is a completed scan: qualifying symbols in final rank order plus
// the skip records for everything that was dropped.
type Result struct {
	Mode    strategy.Mode        `json:"mode"`
	Ranked  []model.ScoredSymbol `json:"ranked"`
	Skipped []model.SkipRecord   `json:"skipped"`
	Scanned int                  `json:"scanned"` // symbols actually evaluated
}

// Scanner scores a symbol universe against one strategy mode per scan.
// Stateless across scans; a BarSeries lives only for the scan that
// fetched it.
type Scanner struct {
	src model.BarSource
	cfg Config
	log *slog.Logger
}

// New creates a Scanner over the given bar source.
func New(src model.BarSource, cfg Config, log *slog.Logger) *Scanner {
	if log == nil {
		log = slog.Default()
	}
	return &Scanner{src: src, cfg: cfg.withDefaults(), log: log}
}

// Scan evaluates the symbol set under mode and returns ranked qualifying
// symbols, truncated to maxResults AFTER full ranking (maxResults <= 0
// means no truncation). Per-symbol failures are isolated into skip
// records; only cancellation or an invalid mode fails the scan itself.
func (s *Scanner) Scan(ctx context.Context, symbols []string, mode strategy.Mode, maxResults int) (*Result, error) {
	if !mode.Valid() {
		return nil, fmt.Errorf("scanner: unknown strategy mode %q", string(mode))
	}

	var skipped []model.SkipRecord

	// Input boundary: normalize, validate, and dedupe before any fetch.
	seen := make(map[string]bool, len(symbols))
	accepted := make([]string, 0, len(symbols))
	for _, raw := range symbols {
		sym := model.NormalizeSymbol(raw)
		if err := model.ValidateSymbol(sym); err != nil {
			skipped = append(skipped, model.SkipRecord{Symbol: raw, Reason: SkipInvalidSymbol})
			continue
		}
		if seen[sym] {
			continue
		}
		seen[sym] = true
		accepted = append(accepted, sym)
	}

	// Resource-protection cap against the rate-limited data source.
	if len(accepted) > s.cfg.MaxSymbols {
		for _, sym := range accepted[s.cfg.MaxSymbols:] {
			skipped = append(skipped, model.SkipRecord{Symbol: sym, Reason: SkipScanCap})
		}
		accepted = accepted[:s.cfg.MaxSymbols]
	}

	var (
		mu     sync.Mutex
		scored []model.ScoredSymbol
		wg     sync.WaitGroup
	)
	jobs := make(chan string)

	workers := s.cfg.Workers
	if workers > len(accepted) && len(accepted) > 0 {
		workers = len(accepted)
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for sym := range jobs {
				sc, skip := s.evaluateSymbol(ctx, sym, mode)
				mu.Lock()
				if skip != nil {
					skipped = append(skipped, *skip)
				} else {
					scored = append(scored, *sc)
				}
				mu.Unlock()
			}
		}()
	}

feed:
	for _, sym := range accepted {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- sym:
		}
	}
	close(jobs)
	wg.Wait()

	// Aborted scans discard partial results outright.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// All qualifying candidates are ranked before any truncation.
	ranked := make([]model.ScoredSymbol, 0, len(scored))
	for _, sc := range scored {
		if sc.Signal {
			ranked = append(ranked, sc)
		}
	}
	strategy.Rank(ranked)
	if maxResults > 0 && len(ranked) > maxResults {
		ranked = ranked[:maxResults]
	}

	// Stable skip ordering for callers and tests.
	sort.Slice(skipped, func(i, j int) bool { return skipped[i].Symbol < skipped[j].Symbol })

	s.log.Info("scan complete",
		slog.String("mode", mode.String()),
		slog.Int("scanned", len(scored)),
		slog.Int("qualified", len(ranked)),
		slog.Int("skipped", len(skipped)),
	)

	return &Result{
		Mode:    mode,
		Ranked:  ranked,
		Skipped: skipped,
		Scanned: len(scored),
	}, nil
}

// evaluateSymbol runs the fetch → validate → compute → score pipeline for
// one symbol. Failures come back as a skip record, never an error: a bad
// symbol must not sink the scan.
func (s *Scanner) evaluateSymbol(ctx context.Context, sym string, mode strategy.Mode) (*model.ScoredSymbol, *model.SkipRecord) {
	series, err := s.src.FetchBars(ctx, sym, s.cfg.LookbackDays)
	if err != nil {
		reason := SkipDataUnavailable
		if !errors.Is(err, model.ErrDataUnavailable) {
			reason = fmt.Sprintf("fetch_error: %v", err)
		}
		s.log.Warn("symbol skipped", slog.String("symbol", sym), slog.String("reason", reason))
		return nil, &model.SkipRecord{Symbol: sym, Reason: reason}
	}
	if err := series.Validate(); err != nil {
		s.log.Warn("symbol skipped", slog.String("symbol", sym), slog.String("reason", SkipMalformedBars))
		return nil, &model.SkipRecord{Symbol: sym, Reason: SkipMalformedBars}
	}
	if series.Len() == 0 {
		return nil, &model.SkipRecord{Symbol: sym, Reason: SkipNoData}
	}

	if s.cfg.MinAvgVolume > 0 && trailingAvgVolume(series, indicator.VolumeWindow) < s.cfg.MinAvgVolume {
		return nil, &model.SkipRecord{Symbol: sym, Reason: SkipLowLiquidity}
	}

	snap, err := indicator.Compute(series)
	if err != nil {
		return nil, &model.SkipRecord{Symbol: sym, Reason: SkipNoData}
	}

	sc, err := strategy.Evaluate(snap, mode, s.cfg.Params)
	if err != nil {
		// Mode validity is checked up front; this is unreachable in practice.
		return nil, &model.SkipRecord{Symbol: sym, Reason: err.Error()}
	}
	return &sc, nil
}

// trailingAvgVolume averages the last n session volumes (fewer if the
// series is shorter).
func trailingAvgVolume(series *model.BarSeries, n int) float64 {
	bars := series.Bars
	if len(bars) < n {
		n = len(bars)
	}
	if n == 0 {
		return 0
	}
	var sum float64
	for _, b := range bars[len(bars)-n:] {
		sum += float64(b.Volume)
	}
	return sum / float64(n)
}
