package model

import "errors"

// Sentinel errors shared across the scanning pipeline.
var (
	// ErrDataUnavailable means the external fetch failed or the symbol is
	// unknown. Per-symbol, non-fatal: scans continue and record a skip.
	ErrDataUnavailable = errors.New("bar data unavailable")

	// ErrInvalidSymbol means the symbol does not match the NNNN.TW format.
	// Rejected at the input boundary before any fetch is issued.
	ErrInvalidSymbol = errors.New("invalid symbol format")

	// ErrMalformedBars means the data source returned non-monotonic dates or
	// negative volume/prices. Rejected before indicator computation.
	ErrMalformedBars = errors.New("malformed bar data")

	// ErrFlowDisabled means the institutional-flow capability is not
	// configured. Feature unavailable, not a failure.
	ErrFlowDisabled = errors.New("institutional flow capability disabled")
)
