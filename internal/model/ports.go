package model

import (
	"context"
	"time"
)

// ── Capability Port Interfaces ──
// These interfaces decouple the scanning core from concrete data-source
// implementations (HTTP clients, Redis-backed caches).

// BarSource fetches daily bar series from an external market-data provider.
type BarSource interface {
	// FetchBars returns up to lookbackDays of daily bars for a normalized
	// symbol, ascending by date. Fails with ErrDataUnavailable on network
	// error, unknown symbol, or empty response.
	FetchBars(ctx context.Context, symbol string, lookbackDays int) (*BarSeries, error)

	// Close releases underlying resources.
	Close() error
}

// FlowSource fetches institutional buy/sell flow. The capability is
// optional: a session without a FlowSource degrades gracefully.
type FlowSource interface {
	// FetchFlow returns flow entries for [from, to], ascending by date.
	FetchFlow(ctx context.Context, symbol string, from, to time.Time) ([]FlowEntry, error)

	// Close releases underlying resources.
	Close() error
}
