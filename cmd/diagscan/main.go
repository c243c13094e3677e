// cmd/diagscan — per-symbol diagnostic sweep of the screening universe.
//
// Walks every sector and symbol, fetches bars straight from the data API
// (no cache, no Redis), and reports per-symbol whether the strategy mode
// qualified it and why not otherwise. Output is a JSON array on stdout
// so results pipe cleanly into jq.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"twscreener/config"
	"twscreener/internal/indicator"
	"twscreener/internal/logger"
	"twscreener/internal/marketdata/twse"
	"twscreener/internal/model"
	"twscreener/internal/strategy"
)

// record is one symbol's diagnostic outcome.
type record struct {
	Sector string   `json:"sector"`
	Symbol string   `json:"symbol"`
	Name   string   `json:"name"`
	Rows   int      `json:"rows"`
	Passed bool     `json:"passed"`
	Score  *float64 `json:"score,omitempty"`
	VolR   *float64 `json:"vol_ratio,omitempty"`
	Reason string   `json:"reason,omitempty"`
}

func main() {
	mode := flag.String("mode", "B", "strategy mode (A, B, or C)")
	sector := flag.String("sector", "", "limit to one sector (default: all)")
	lookback := flag.Int("lookback", 365, "bar history in days")
	pretty := flag.Bool("pretty", true, "indent JSON output")
	flag.Parse()

	cfg := config.Load()
	log := logger.Init("diagscan", slog.LevelWarn)

	m := strategy.Mode(*mode)
	if !m.Valid() {
		fmt.Fprintf(os.Stderr, "unknown strategy mode %q\n", *mode)
		os.Exit(2)
	}

	sectors := model.Sectors()
	if *sector != "" {
		sectors = []string{*sector}
	}

	client := twse.NewClient(twse.Config{
		BaseURL: cfg.DataAPIBaseURL,
		Token:   cfg.DataAPIToken,
	}, log)
	defer client.Close()

	params := strategy.Params{
		RSIOversold:         cfg.RSIOversold,
		VolumeWeight:        cfg.VolumeWeight,
		BreakoutVolumeRatio: cfg.BreakoutVolumeRatio,
	}

	ctx := context.Background()
	var results []record
	for _, sec := range sectors {
		stocks := model.StocksBySector(sec)
		if len(stocks) == 0 {
			results = append(results, record{Sector: sec, Reason: "no_symbols_in_sector"})
			continue
		}
		for _, info := range stocks {
			results = append(results, diagnose(ctx, client, sec, info, m, params, *lookback))
		}
	}

	enc := json.NewEncoder(os.Stdout)
	if *pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(results); err != nil {
		fmt.Fprintf(os.Stderr, "encode failed: %v\n", err)
		os.Exit(1)
	}
}

// diagnose runs the full fetch → validate → score pipeline for one
// symbol, recording where it fell out.
func diagnose(ctx context.Context, src model.BarSource, sector string, info model.StockInfo, mode strategy.Mode, params strategy.Params, lookback int) record {
	rec := record{Sector: sector, Symbol: info.Symbol, Name: info.Name}

	fctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	series, err := src.FetchBars(fctx, info.Symbol, lookback)
	if err != nil {
		rec.Reason = fmt.Sprintf("fetch_error: %v", err)
		return rec
	}
	rec.Rows = series.Len()

	if err := series.Validate(); err != nil {
		rec.Reason = fmt.Sprintf("malformed_bars: %v", err)
		return rec
	}

	snap, err := indicator.Compute(series)
	if err != nil {
		rec.Reason = "too_few_rows_for_indicators"
		return rec
	}

	scored, err := strategy.Evaluate(snap, mode, params)
	if err != nil {
		rec.Reason = err.Error()
		return rec
	}

	rec.Passed = scored.Signal
	if scored.Signal {
		rec.Score = &scored.Score
		if scored.Snapshot.VolumeRatio.Ready {
			vr := scored.Snapshot.VolumeRatio.Value
			rec.VolR = &vr
		}
	} else {
		rec.Reason = "filtered_out"
	}
	return rec
}
