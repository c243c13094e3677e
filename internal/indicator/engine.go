package indicator

import (
	"fmt"

	"twscreener/internal/model"
)

// Standard periods for the screening snapshot.
const (
	MAShort  = 5
	MAMedium = 20
	MALong   = 60

	RSIPeriod = 14

	MACDFast   = 12
	MACDSlow   = 26
	MACDSignal = 9

	KDJLookback  = 9
	KDJSmoothing = 3

	VolumeWindow = 20
)

// Compute derives the full indicator snapshot for the latest bar of a
// series. Pure function: fresh indicator state per call, no side effects.
//
// Short history is not an error — affected fields come back with
// Ready=false. Malformed input is the caller's problem: series must be
// validated at the data boundary before reaching this engine.
func Compute(series *model.BarSeries) (model.Snapshot, error) {
	if series == nil || series.Len() == 0 {
		return model.Snapshot{}, fmt.Errorf("indicator: empty bar series")
	}

	ma5 := NewSMA(MAShort)
	ma20 := NewSMA(MAMedium)
	ma60 := NewSMA(MALong)
	rsi := NewRSI(RSIPeriod)
	macd := NewMACD(MACDFast, MACDSlow, MACDSignal)
	kdj := NewKDJ(KDJLookback, KDJSmoothing)
	volr := NewVolumeRatio(VolumeWindow)

	// MA60 readings at the last slopeWindow+1 bars, for the slope.
	const slopeWindow = 5
	var ma60Hist []float64

	var prevClose float64
	for i, bar := range series.Bars {
		if i > 0 {
			prevClose = series.Bars[i-1].Close
		}
		ma5.Update(bar)
		ma20.Update(bar)
		ma60.Update(bar)
		rsi.Update(bar)
		macd.Update(bar)
		kdj.Update(bar)
		volr.Update(bar)

		if ma60.Ready() {
			ma60Hist = append(ma60Hist, ma60.Value())
			if len(ma60Hist) > slopeWindow+1 {
				ma60Hist = ma60Hist[1:]
			}
		}
	}

	var ma60Slope model.IndicatorValue
	if len(ma60Hist) == slopeWindow+1 {
		// Mean of the last five daily MA60 diffs telescopes to the
		// endpoints.
		ma60Slope = model.IndicatorValue{
			Value: (ma60Hist[slopeWindow] - ma60Hist[0]) / slopeWindow,
			Ready: true,
		}
	}

	last := series.Last()
	snap := model.Snapshot{
		Symbol:    series.Symbol,
		Date:      last.Date,
		Close:     last.Close,
		PrevClose: prevClose,
		Volume:    last.Volume,

		MA5:      value(ma5.Value(), ma5.Ready()),
		MA20:     value(ma20.Value(), ma20.Ready()),
		MA60:     value(ma60.Value(), ma60.Ready()),
		PrevMA20: value(ma20.Prev(), ma20.PrevReady()),

		MA60Slope: ma60Slope,

		RSI14: value(rsi.Value(), rsi.Ready()),

		MACD:       value(macd.Value(), macd.Ready()),
		MACDSignal: value(macd.Signal(), macd.Ready()),
		MACDHist:   value(macd.Hist(), macd.Ready()),

		K: value(kdj.K(), kdj.Ready()),
		D: value(kdj.D(), kdj.Ready()),
		J: value(kdj.J(), kdj.Ready()),

		VolumeRatio: value(volr.Value(), volr.Ready()),
	}
	return snap, nil
}

func value(v float64, ready bool) model.IndicatorValue {
	if !ready {
		// Never leak a half-built number that could be mistaken for a reading.
		return model.IndicatorValue{}
	}
	return model.IndicatorValue{Value: v, Ready: true}
}
