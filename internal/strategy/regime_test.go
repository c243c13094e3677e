package strategy

import (
	"testing"

	"twscreener/internal/model"
)

func benchSnapshot(close, ma20, ma60, slope float64) model.Snapshot {
	return model.Snapshot{
		Symbol:    "0050.TW",
		Close:     close,
		MA20:      ready(ma20),
		MA60:      ready(ma60),
		MA60Slope: ready(slope),
	}
}

func TestEvaluateRegime(t *testing.T) {
	cases := []struct {
		name      string
		snap      model.Snapshot
		regime    Regime
		allowLong bool
	}{
		{
			name:      "bull when above rising MA60 with MA20 confirming",
			snap:      benchSnapshot(110, 105, 100, 0.2),
			regime:    RegimeBull,
			allowLong: true,
		},
		{
			name:      "neutral when above MA60 but MA60 flat",
			snap:      benchSnapshot(110, 105, 100, 0),
			regime:    RegimeNeutral,
			allowLong: true,
		},
		{
			name:      "neutral when above MA60 but MA20 below it",
			snap:      benchSnapshot(101, 98, 100, 0.2),
			regime:    RegimeNeutral,
			allowLong: true,
		},
		{
			name:      "bear below MA60 closes the long side",
			snap:      benchSnapshot(95, 98, 100, -0.3),
			regime:    RegimeBear,
			allowLong: false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			call := EvaluateRegime(tc.snap)
			if call.Regime != tc.regime {
				t.Errorf("regime = %s, want %s", call.Regime, tc.regime)
			}
			if call.AllowLong != tc.allowLong {
				t.Errorf("allowLong = %v, want %v", call.AllowLong, tc.allowLong)
			}
			if call.Reason == "" {
				t.Error("reason must always be populated")
			}
		})
	}
}

func TestEvaluateRegime_InsufficientHistory(t *testing.T) {
	snap := benchSnapshot(110, 105, 100, 0.2)
	snap.MA60Slope = model.IndicatorValue{}

	call := EvaluateRegime(snap)
	if call.Regime != RegimeUnknown {
		t.Errorf("regime = %s, want UNKNOWN", call.Regime)
	}
	if call.AllowLong {
		t.Error("an unjudgeable market must not open the long side")
	}
}
