package model

import "time"

// FlowEntry is one session's institutional net buy/sell for a symbol.
// ForeignNet/TrustNet are net shares bought (negative = net sold).
type FlowEntry struct {
	Date       time.Time `json:"date"`
	ForeignNet int64     `json:"foreign_net"`
	TrustNet   int64     `json:"trust_net"`
}

// FlowSwitchKind classifies a foreign-investor direction change.
type FlowSwitchKind string

const (
	FlowSwitchSellToBuy FlowSwitchKind = "SELL_TO_BUY"
	FlowSwitchBuyToSell FlowSwitchKind = "BUY_TO_SELL"
)

// FlowSwitchEvent records a detected foreign-investor direction change.
type FlowSwitchEvent struct {
	Symbol string         `json:"symbol"`
	Kind   FlowSwitchKind `json:"kind"`
	Prev   int64          `json:"prev"`
	Last   int64          `json:"last"`
	Date   time.Time      `json:"date"`
}
