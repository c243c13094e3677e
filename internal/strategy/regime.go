package strategy

import "twscreener/internal/model"

// Regime classifies the overall market environment from a benchmark
// index snapshot. It answers one question only — is the long side open —
// and never looks at individual stocks.
type Regime string

const (
	// RegimeBull: benchmark above MA60, MA20 above MA60, MA60 rising.
	RegimeBull Regime = "BULL"

	// RegimeNeutral: benchmark holding above MA60 but without a confirmed
	// trend. Longs stay open.
	RegimeNeutral Regime = "NEUTRAL"

	// RegimeBear: benchmark below MA60. Long side closed.
	RegimeBear Regime = "BEAR"

	// RegimeUnknown: not enough benchmark history to judge. Treated like
	// a closed long side.
	RegimeUnknown Regime = "UNKNOWN"
)

// RegimeCall is the gate's verdict for one benchmark snapshot.
type RegimeCall struct {
	Regime    Regime `json:"regime"`
	AllowLong bool   `json:"allow_long"`
	Reason    string `json:"reason"`
}

// EvaluateRegime runs the market gate over a benchmark snapshot.
// Missing MA20/MA60/slope readings yield RegimeUnknown with the long
// side closed, never a guessed regime.
func EvaluateRegime(snap model.Snapshot) RegimeCall {
	if !snap.MA20.Ready || !snap.MA60.Ready || !snap.MA60Slope.Ready {
		return RegimeCall{
			Regime: RegimeUnknown,
			Reason: "資料不足，無法判斷市場狀態",
		}
	}

	close := snap.Close
	ma20 := snap.MA20.Value
	ma60 := snap.MA60.Value
	slope := snap.MA60Slope.Value

	switch {
	case close >= ma60 && ma20 >= ma60 && slope > 0:
		return RegimeCall{
			Regime:    RegimeBull,
			AllowLong: true,
			Reason:    "多頭市場：指數 > MA60，MA20 > MA60，MA60 上揚",
		}
	case close >= ma60:
		return RegimeCall{
			Regime:    RegimeNeutral,
			AllowLong: true,
			Reason:    "盤整市場：指數在 MA60 上方，但趨勢不明",
		}
	default:
		return RegimeCall{
			Regime: RegimeBear,
			Reason: "空頭市場：指數跌破 MA60，多頭方向關閉",
		}
	}
}
