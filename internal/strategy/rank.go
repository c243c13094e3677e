package strategy

import (
	"sort"

	"twscreener/internal/model"
)

// Rank sorts scored symbols into final rank order, in place:
// descending composite score, ties broken by descending volume ratio,
// then ascending symbol code. Fully deterministic — no randomness, and
// independent of input order.
func Rank(scored []model.ScoredSymbol) {
	sort.SliceStable(scored, func(i, j int) bool {
		a, b := scored[i], scored[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		av, bv := volumeRatioOrZero(a), volumeRatioOrZero(b)
		if av != bv {
			return av > bv
		}
		return a.Symbol < b.Symbol
	})
}

func volumeRatioOrZero(s model.ScoredSymbol) float64 {
	if s.Snapshot.VolumeRatio.Ready {
		return s.Snapshot.VolumeRatio.Value
	}
	return 0
}
