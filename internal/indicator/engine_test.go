package indicator

import (
	"testing"

	"twscreener/internal/model"
)

func makeSeries(closes []float64, volume int64) *model.BarSeries {
	bars := make([]model.Bar, len(closes))
	for i, c := range closes {
		bars[i] = model.Bar{
			Symbol: "2330.TW",
			Date:   sessionDate(i),
			Open:   c, High: c + 1, Low: c - 1, Close: c,
			Volume: volume,
		}
	}
	return &model.BarSeries{Symbol: "2330.TW", Bars: bars}
}

func TestCompute_EmptySeries(t *testing.T) {
	if _, err := Compute(&model.BarSeries{Symbol: "2330.TW"}); err == nil {
		t.Fatal("expected error for empty series")
	}
}

func TestCompute_ShortHistoryFlagsUnavailable(t *testing.T) {
	// 13 rising bars: MA5 and KDJ are computable, RSI14/MA20/MA60/MACD
	// and the volume ratio are not. Unavailable fields must be flagged,
	// never defaulted to a number.
	closes := make([]float64, 13)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	snap, err := Compute(makeSeries(closes, 1000))
	if err != nil {
		t.Fatal(err)
	}

	if snap.RSI14.Ready {
		t.Error("RSI14 must be unavailable with 13 bars")
	}
	if snap.RSI14.Value != 0 {
		t.Error("unavailable RSI14 must not carry a partial value")
	}
	if !snap.MA5.Ready {
		t.Error("MA5 should be available with 13 bars")
	}
	if snap.MA20.Ready || snap.MA60.Ready {
		t.Error("MA20/MA60 must be unavailable with 13 bars")
	}
	if snap.MACD.Ready || snap.MACDSignal.Ready || snap.MACDHist.Ready {
		t.Error("MACD set must be unavailable with 13 bars")
	}
	if !snap.K.Ready {
		t.Error("KDJ should be available with 13 bars")
	}
	if snap.VolumeRatio.Ready {
		t.Error("volume ratio must be unavailable with 13 bars")
	}
}

func TestCompute_MAEqualsMeanOfLastN(t *testing.T) {
	closes := []float64{
		101.5, 99, 103, 104.5, 98, 97.5, 105, 110, 108, 102,
		101, 99.5, 100, 106, 107, 103.5, 104, 109, 111, 112,
		113, 108.5, 107, 110.5, 114,
	}
	snap, err := Compute(makeSeries(closes, 1000))
	if err != nil {
		t.Fatal(err)
	}
	if !snap.MA20.Ready {
		t.Fatal("MA20 should be ready with 25 bars")
	}
	sum := 0.0
	for _, c := range closes[len(closes)-20:] {
		sum += c
	}
	assertClose(t, "MA20 mean property", snap.MA20.Value, sum/20, 1e-9)

	// PrevMA20 is the mean of the 20 closes ending at the prior bar
	sumPrev := 0.0
	for _, c := range closes[len(closes)-21 : len(closes)-1] {
		sumPrev += c
	}
	if !snap.PrevMA20.Ready {
		t.Fatal("PrevMA20 should be ready with 25 bars")
	}
	assertClose(t, "PrevMA20 mean property", snap.PrevMA20.Value, sumPrev/20, 1e-9)
}

func TestCompute_PrevClose(t *testing.T) {
	snap, err := Compute(makeSeries([]float64{100, 102, 104}, 1000))
	if err != nil {
		t.Fatal(err)
	}
	if snap.Close != 104 || snap.PrevClose != 102 {
		t.Errorf("close/prevClose = %.1f/%.1f, want 104/102", snap.Close, snap.PrevClose)
	}
}

func TestCompute_FullHistoryAllReady(t *testing.T) {
	closes := make([]float64, 80)
	for i := range closes {
		closes[i] = 100 + float64(i%7) - float64(i%3)
	}
	snap, err := Compute(makeSeries(closes, 5000))
	if err != nil {
		t.Fatal(err)
	}
	for label, v := range map[string]model.IndicatorValue{
		"MA5": snap.MA5, "MA20": snap.MA20, "MA60": snap.MA60,
		"PrevMA20": snap.PrevMA20, "RSI14": snap.RSI14,
		"MACD": snap.MACD, "MACDSignal": snap.MACDSignal, "MACDHist": snap.MACDHist,
		"K": snap.K, "D": snap.D, "J": snap.J,
		"VolumeRatio": snap.VolumeRatio, "MA60Slope": snap.MA60Slope,
	} {
		if !v.Ready {
			t.Errorf("%s should be ready with 80 bars", label)
		}
	}
}

func TestCompute_MA60Slope(t *testing.T) {
	// Steady +1/day closes: once warm, each session lifts MA60 by exactly
	// 1, so the five-day mean change is 1.
	closes := make([]float64, 70)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	snap, err := Compute(makeSeries(closes, 1000))
	if err != nil {
		t.Fatal(err)
	}
	if !snap.MA60Slope.Ready {
		t.Fatal("MA60 slope should be ready with 70 bars")
	}
	assertClose(t, "MA60 slope in steady uptrend", snap.MA60Slope.Value, 1.0, 1e-9)

	// 64 bars give only five MA60 readings: four diffs, not five.
	snap, err = Compute(makeSeries(closes[:64], 1000))
	if err != nil {
		t.Fatal(err)
	}
	if snap.MA60Slope.Ready {
		t.Error("MA60 slope must be unavailable with 64 bars")
	}
}
