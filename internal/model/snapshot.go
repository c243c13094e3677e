package model

import "time"

// IndicatorValue is a single indicator reading. Ready is false while the
// series is too short to compute the value; the Value field is meaningless
// in that case and must never be mistaken for a real reading.
type IndicatorValue struct {
	Value float64 `json:"value"`
	Ready bool    `json:"ready"`
}

// Snapshot holds all derived indicators for one symbol at its latest bar.
// PrevClose/PrevMA20 carry the prior session's values so crossover
// predicates stay pure functions of a single snapshot.
type Snapshot struct {
	Symbol string    `json:"symbol"`
	Date   time.Time `json:"date"`

	Close     float64 `json:"close"`
	PrevClose float64 `json:"prev_close"`
	Volume    int64   `json:"volume"`

	MA5      IndicatorValue `json:"ma5"`
	MA20     IndicatorValue `json:"ma20"`
	MA60     IndicatorValue `json:"ma60"`
	PrevMA20 IndicatorValue `json:"prev_ma20"`

	// Mean daily change of MA60 over the last five sessions; the trend
	// input for the market regime gate.
	MA60Slope IndicatorValue `json:"ma60_slope"`

	RSI14 IndicatorValue `json:"rsi14"`

	MACD       IndicatorValue `json:"macd"`        // DIF line
	MACDSignal IndicatorValue `json:"macd_signal"` // DEA line
	MACDHist   IndicatorValue `json:"macd_hist"`

	K IndicatorValue `json:"k"`
	D IndicatorValue `json:"d"`
	J IndicatorValue `json:"j"`

	// Today's volume vs the mean of the trailing 20 sessions (excluding today).
	VolumeRatio IndicatorValue `json:"volume_ratio"`
}

// ScoredSymbol is one scan candidate after strategy evaluation.
// Produced once per scan and discarded after ranking is consumed.
type ScoredSymbol struct {
	Symbol   string   `json:"symbol"`
	Name     string   `json:"name,omitempty"`
	Snapshot Snapshot `json:"snapshot"`
	Signal   bool     `json:"signal"`
	Score    float64  `json:"score"`
}

// SkipRecord explains why a symbol was dropped from a scan's result set.
type SkipRecord struct {
	Symbol string `json:"symbol"`
	Reason string `json:"reason"`
}
