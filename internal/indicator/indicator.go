// Package indicator provides technical indicator calculations over daily
// bar data.
//
// All indicators implement the Indicator interface, receiving bars and
// producing float64 values. Each is a streaming calculator: feed bars in
// date order, read the latest value once Ready reports true.
package indicator

import "twscreener/internal/model"

// Indicator is the interface for all technical indicators.
type Indicator interface {
	// Name returns the indicator name (e.g., "MA_20", "RSI_14").
	Name() string

	// Update feeds a new bar and recalculates.
	Update(bar model.Bar)

	// Value returns the current calculated value. Meaningless until Ready.
	Value() float64

	// Ready returns true when enough data has been accumulated.
	Ready() bool
}
