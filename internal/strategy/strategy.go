// Package strategy evaluates screening modes against indicator snapshots.
//
// Each mode is a fixed rule set: a signal predicate (does this symbol
// currently qualify) and a scoring function (rank strength). Both are
// looked up from a per-mode table rather than branched inline, so the
// scanner stays mode-agnostic.
package strategy

import (
	"fmt"
	"math"

	"twscreener/internal/model"
)

// Mode selects one screening rule set per scan.
type Mode string

const (
	// ModeOversoldRebound looks for deeply oversold symbols starting to
	// bounce: RSI below the oversold level with the close back above MA5.
	ModeOversoldRebound Mode = "A"

	// ModeStrongBreakout looks for closes crossing above MA20 on heavy
	// volume.
	ModeStrongBreakout Mode = "B"

	// ModeSteadyTrend looks for established uptrends with non-deteriorating
	// momentum, intentionally excluding volatile sharp movers.
	ModeSteadyTrend Mode = "C"
)

// Valid reports whether m names a known mode.
func (m Mode) Valid() bool {
	_, ok := rules[m]
	return ok
}

func (m Mode) String() string {
	switch m {
	case ModeOversoldRebound:
		return "A/OversoldRebound"
	case ModeStrongBreakout:
		return "B/StrongBreakout"
	case ModeSteadyTrend:
		return "C/SteadyTrend"
	default:
		return string(m)
	}
}

// Params holds the tunable thresholds shared by all modes. The true tuned
// values are a research question; these carry the working defaults and are
// populated from configuration, never hardcoded at call sites.
type Params struct {
	// RSIOversold is Mode A's oversold level (default 30).
	RSIOversold float64

	// VolumeWeight scales the volume-ratio contribution to Mode A's score
	// (default 1.0).
	VolumeWeight float64

	// BreakoutVolumeRatio is Mode B's minimum volume multiple (default 1.5).
	BreakoutVolumeRatio float64
}

// DefaultParams returns the stated default thresholds.
func DefaultParams() Params {
	return Params{
		RSIOversold:         30,
		VolumeWeight:        1.0,
		BreakoutVolumeRatio: 1.5,
	}
}

// rule pairs a mode's required indicators with its predicate and score.
type rule struct {
	// available reports whether every indicator the mode reads is ready.
	available func(s model.Snapshot) bool
	signal    func(s model.Snapshot, p Params) bool
	score     func(s model.Snapshot, p Params) float64
}

var rules = map[Mode]rule{
	ModeOversoldRebound: {
		available: func(s model.Snapshot) bool {
			return s.RSI14.Ready && s.MA5.Ready && s.VolumeRatio.Ready
		},
		signal: func(s model.Snapshot, p Params) bool {
			return s.RSI14.Value < p.RSIOversold && s.Close > s.MA5.Value
		},
		score: func(s model.Snapshot, p Params) float64 {
			// Deeper oversold plus confirming volume ranks higher.
			return (p.RSIOversold - s.RSI14.Value) + s.VolumeRatio.Value*p.VolumeWeight
		},
	},
	ModeStrongBreakout: {
		available: func(s model.Snapshot) bool {
			return s.MA20.Ready && s.PrevMA20.Ready && s.VolumeRatio.Ready
		},
		signal: func(s model.Snapshot, p Params) bool {
			crossed := s.PrevClose <= s.PrevMA20.Value && s.Close > s.MA20.Value
			return crossed && s.VolumeRatio.Value >= p.BreakoutVolumeRatio
		},
		score: func(s model.Snapshot, p Params) float64 {
			// Breakout strength scaled by volume confirmation.
			return (s.Close/s.MA20.Value - 1) * s.VolumeRatio.Value
		},
	},
	ModeSteadyTrend: {
		available: func(s model.Snapshot) bool {
			return s.MA20.Ready && s.MA60.Ready && s.MACDHist.Ready
		},
		signal: func(s model.Snapshot, p Params) bool {
			return s.Close > s.MA60.Value &&
				s.MA20.Value > s.MA60.Value &&
				s.MACDHist.Value >= 0
		},
		score: func(s model.Snapshot, p Params) float64 {
			return s.MA20.Value/s.MA60.Value - 1
		},
	},
}

// Evaluate scores one snapshot under the given mode. A snapshot missing
// any indicator the mode requires is excluded from signal consideration
// (signal=false, lowest possible score) rather than treated as an error.
func Evaluate(snap model.Snapshot, mode Mode, p Params) (model.ScoredSymbol, error) {
	r, ok := rules[mode]
	if !ok {
		return model.ScoredSymbol{}, fmt.Errorf("strategy: unknown mode %q", string(mode))
	}

	out := model.ScoredSymbol{
		Symbol:   snap.Symbol,
		Name:     model.StockName(snap.Symbol),
		Snapshot: snap,
		Score:    math.Inf(-1),
	}
	if !r.available(snap) {
		return out, nil
	}
	if !r.signal(snap, p) {
		return out, nil
	}
	out.Signal = true
	out.Score = r.score(snap, p)
	return out, nil
}
