package indicator

import "twscreener/internal/model"

// KDJ calculates the stochastic-derived K, D, and J lines.
//
// RSV is the raw stochastic %K over a lookback window of highs/lows.
// K and D are recursive smoothings of RSV with alpha = 1/smoothing
// (the common 9,3,3 parameterization uses alpha = 1/3), seeded with the
// first RSV. J = 3K − 2D.
//
// A flat window (high == low across the lookback) makes RSV undefined.
// Before the first seed that leaves the indicator not ready; afterwards
// K and D simply carry over unchanged for that bar.
type KDJ struct {
	lookback int
	alpha    float64

	highs []float64 // circular buffers of the lookback window
	lows  []float64
	idx   int
	count int

	seeded bool
	k      float64
	d      float64
}

// NewKDJ creates a KDJ indicator (typically 9, 3).
func NewKDJ(lookback, smoothing int) *KDJ {
	return &KDJ{
		lookback: lookback,
		alpha:    1.0 / float64(smoothing),
		highs:    make([]float64, lookback),
		lows:     make([]float64, lookback),
	}
}

func (s *KDJ) Name() string { return "KDJ_" + itoa(s.lookback) }

func (s *KDJ) Update(bar model.Bar) {
	s.highs[s.idx] = bar.High
	s.lows[s.idx] = bar.Low
	s.idx = (s.idx + 1) % s.lookback
	s.count++

	if s.count < s.lookback {
		return
	}

	hi := s.highs[0]
	lo := s.lows[0]
	for i := 1; i < s.lookback; i++ {
		if s.highs[i] > hi {
			hi = s.highs[i]
		}
		if s.lows[i] < lo {
			lo = s.lows[i]
		}
	}

	if hi <= lo {
		// Flat window: RSV is undefined, keep the prior smoothed values
		return
	}
	rsv := (bar.Close - lo) / (hi - lo) * 100.0

	if !s.seeded {
		// Seed with the first raw value
		s.seeded = true
		s.k = rsv
		s.d = s.k
		return
	}

	s.k = s.alpha*rsv + (1-s.alpha)*s.k
	s.d = s.alpha*s.k + (1-s.alpha)*s.d
}

// Value returns K, to satisfy the Indicator interface.
func (s *KDJ) Value() float64 { return s.k }

func (s *KDJ) K() float64 { return s.k }
func (s *KDJ) D() float64 { return s.d }
func (s *KDJ) J() float64 { return 3*s.k - 2*s.d }

func (s *KDJ) Ready() bool { return s.seeded }
