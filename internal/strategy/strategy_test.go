package strategy

import (
	"math"
	"testing"

	"twscreener/internal/model"
)

func ready(v float64) model.IndicatorValue {
	return model.IndicatorValue{Value: v, Ready: true}
}

func fullSnapshot(symbol string) model.Snapshot {
	return model.Snapshot{
		Symbol:      symbol,
		Close:       105,
		PrevClose:   100,
		MA5:         ready(102),
		MA20:        ready(101),
		MA60:        ready(95),
		PrevMA20:    ready(101),
		RSI14:       ready(55),
		MACD:        ready(0.8),
		MACDSignal:  ready(0.5),
		MACDHist:    ready(0.3),
		K:           ready(60),
		D:           ready(55),
		J:           ready(70),
		VolumeRatio: ready(2.0),
	}
}

func TestEvaluate_UnknownMode(t *testing.T) {
	if _, err := Evaluate(fullSnapshot("2330.TW"), Mode("X"), DefaultParams()); err == nil {
		t.Fatal("expected error for unknown mode")
	}
}

func TestModeA_OversoldRebound(t *testing.T) {
	p := DefaultParams()

	snap := fullSnapshot("2330.TW")
	snap.RSI14 = ready(22)
	snap.MA5 = ready(100)
	snap.Close = 101 // bounce above MA5
	snap.VolumeRatio = ready(1.8)

	got, err := Evaluate(snap, ModeOversoldRebound, p)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Signal {
		t.Fatal("RSI 22 with close above MA5 should signal")
	}
	want := (30 - 22) + 1.8*1.0
	if math.Abs(got.Score-want) > 1e-9 {
		t.Errorf("score = %.4f, want %.4f", got.Score, want)
	}

	// Close below MA5: oversold but no bounce yet
	snap.Close = 99
	got, _ = Evaluate(snap, ModeOversoldRebound, p)
	if got.Signal {
		t.Error("close below MA5 must not signal")
	}

	// RSI at the threshold is not oversold
	snap.Close = 101
	snap.RSI14 = ready(30)
	got, _ = Evaluate(snap, ModeOversoldRebound, p)
	if got.Signal {
		t.Error("RSI exactly at the oversold level must not signal")
	}
}

func TestModeB_StrongBreakout(t *testing.T) {
	p := DefaultParams()

	snap := fullSnapshot("2603.TW")
	snap.PrevClose = 100
	snap.PrevMA20 = ready(100.5) // yesterday: below MA20
	snap.Close = 103
	snap.MA20 = ready(101) // today: above MA20
	snap.VolumeRatio = ready(2.0)

	got, err := Evaluate(snap, ModeStrongBreakout, p)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Signal {
		t.Fatal("cross above MA20 on 2x volume should signal")
	}
	want := (103.0/101.0 - 1) * 2.0
	if math.Abs(got.Score-want) > 1e-9 {
		t.Errorf("score = %.6f, want %.6f", got.Score, want)
	}

	// No cross: already above MA20 yesterday
	snap.PrevClose = 102
	snap.PrevMA20 = ready(100)
	got, _ = Evaluate(snap, ModeStrongBreakout, p)
	if got.Signal {
		t.Error("no crossover must not signal")
	}

	// Cross without volume confirmation
	snap.PrevClose = 100
	snap.PrevMA20 = ready(100.5)
	snap.VolumeRatio = ready(1.2)
	got, _ = Evaluate(snap, ModeStrongBreakout, p)
	if got.Signal {
		t.Error("volume ratio below the breakout multiple must not signal")
	}
}

func TestModeC_SteadyTrend(t *testing.T) {
	p := DefaultParams()

	snap := fullSnapshot("2317.TW")
	snap.Close = 110
	snap.MA20 = ready(105)
	snap.MA60 = ready(100)
	snap.MACDHist = ready(0.0) // non-deteriorating momentum is enough

	got, err := Evaluate(snap, ModeSteadyTrend, p)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Signal {
		t.Fatal("established uptrend should signal")
	}
	want := 105.0/100.0 - 1
	if math.Abs(got.Score-want) > 1e-9 {
		t.Errorf("score = %.6f, want %.6f", got.Score, want)
	}

	snap.MACDHist = ready(-0.1)
	got, _ = Evaluate(snap, ModeSteadyTrend, p)
	if got.Signal {
		t.Error("negative MACD histogram must not signal")
	}
}

func TestEvaluate_MissingRequiredIndicatorExcludes(t *testing.T) {
	p := DefaultParams()

	snap := fullSnapshot("2330.TW")
	snap.RSI14 = model.IndicatorValue{} // unavailable

	got, err := Evaluate(snap, ModeOversoldRebound, p)
	if err != nil {
		t.Fatalf("unavailable indicator must not error: %v", err)
	}
	if got.Signal {
		t.Error("missing required indicator must exclude the symbol")
	}
	if !math.IsInf(got.Score, -1) {
		t.Errorf("excluded symbol should carry the lowest score, got %.4f", got.Score)
	}
}

func TestRank_TotalOrder(t *testing.T) {
	mk := func(sym string, score, volr float64) model.ScoredSymbol {
		return model.ScoredSymbol{
			Symbol: sym,
			Signal: true,
			Score:  score,
			Snapshot: model.Snapshot{
				Symbol:      sym,
				VolumeRatio: ready(volr),
			},
		}
	}

	scored := []model.ScoredSymbol{
		mk("2610.TW", 1.0, 1.0),
		mk("2330.TW", 2.0, 1.0),
		mk("2609.TW", 1.0, 3.0), // same score, higher volume ratio
		mk("1101.TW", 1.0, 1.0), // full tie with 2610 — symbol order decides
	}
	Rank(scored)

	wantOrder := []string{"2330.TW", "2609.TW", "1101.TW", "2610.TW"}
	for i, want := range wantOrder {
		if scored[i].Symbol != want {
			t.Fatalf("rank %d = %s, want %s", i, scored[i].Symbol, want)
		}
	}

	for i := 1; i < len(scored); i++ {
		if scored[i-1].Score < scored[i].Score {
			t.Fatal("ranking is not ordered by descending score")
		}
	}
}
