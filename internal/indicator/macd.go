package indicator

import "twscreener/internal/model"

// MACD calculates Moving Average Convergence-Divergence:
// line = EMA(fast) − EMA(slow), signal = EMA(signalPeriod) of the line,
// histogram = line − signal.
//
// The line only becomes meaningful once the slow EMA is seeded, and the
// signal EMA is fed from that point on, so the whole set reports Ready
// after slow+signalPeriod bars.
type MACD struct {
	fast   *EMA
	slow   *EMA
	signal *EMA
	count  int
	warmup int
}

// NewMACD creates a MACD indicator (typically 12, 26, 9).
func NewMACD(fastPeriod, slowPeriod, signalPeriod int) *MACD {
	return &MACD{
		fast:   NewEMA(fastPeriod),
		slow:   NewEMA(slowPeriod),
		signal: NewEMA(signalPeriod),
		warmup: slowPeriod + signalPeriod,
	}
}

func (m *MACD) Name() string { return "MACD" }

func (m *MACD) Update(bar model.Bar) {
	m.count++
	m.fast.Update(bar)
	m.slow.Update(bar)

	// Feed the signal EMA only once both underlying EMAs are seeded,
	// so its SMA seed averages real MACD line values.
	if m.fast.Ready() && m.slow.Ready() {
		m.signal.update(m.fast.Value() - m.slow.Value())
	}
}

// Value returns the MACD line (DIF).
func (m *MACD) Value() float64 { return m.fast.Value() - m.slow.Value() }

// Signal returns the signal line (DEA).
func (m *MACD) Signal() float64 { return m.signal.Value() }

// Hist returns the histogram (line − signal).
func (m *MACD) Hist() float64 { return m.Value() - m.signal.Value() }

func (m *MACD) Ready() bool { return m.count >= m.warmup }
