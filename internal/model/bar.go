package model

import (
	"fmt"
	"time"
)

// Bar represents one trading session's OHLCV record for a single symbol.
// Immutable once produced by the data source.
type Bar struct {
	Symbol string    `json:"symbol"`
	Date   time.Time `json:"date"` // session date (UTC, day-aligned)
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"` // shares traded
}

// BarSeries is an ascending-by-date sequence of bars for one symbol.
// Owned transiently by the scan that requested it.
type BarSeries struct {
	Symbol string `json:"symbol"`
	Bars   []Bar  `json:"bars"`
}

// Len returns the number of bars in the series.
func (s *BarSeries) Len() int { return len(s.Bars) }

// Last returns the most recent bar. Panics on an empty series; callers
// must check Len first.
func (s *BarSeries) Last() Bar { return s.Bars[len(s.Bars)-1] }

// Validate rejects malformed bar data before it reaches the indicator
// engine: non-ascending or duplicate dates, negative volume or prices,
// and highs/lows that don't envelope open/close.
func (s *BarSeries) Validate() error {
	for i, b := range s.Bars {
		if b.Volume < 0 {
			return fmt.Errorf("%w: bar %d (%s) has negative volume %d",
				ErrMalformedBars, i, b.Date.Format("2006-01-02"), b.Volume)
		}
		if b.Open < 0 || b.High < 0 || b.Low < 0 || b.Close < 0 {
			return fmt.Errorf("%w: bar %d (%s) has a negative price",
				ErrMalformedBars, i, b.Date.Format("2006-01-02"))
		}
		if b.High < b.Open || b.High < b.Close || b.High < b.Low {
			return fmt.Errorf("%w: bar %d (%s) high %.4f below open/close/low",
				ErrMalformedBars, i, b.Date.Format("2006-01-02"), b.High)
		}
		if b.Low > b.Open || b.Low > b.Close {
			return fmt.Errorf("%w: bar %d (%s) low %.4f above open/close",
				ErrMalformedBars, i, b.Date.Format("2006-01-02"), b.Low)
		}
		if i > 0 && !s.Bars[i-1].Date.Before(b.Date) {
			return fmt.Errorf("%w: bar %d (%s) not after previous bar (%s)",
				ErrMalformedBars, i,
				b.Date.Format("2006-01-02"), s.Bars[i-1].Date.Format("2006-01-02"))
		}
	}
	return nil
}
