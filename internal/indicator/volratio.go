package indicator

import "twscreener/internal/model"

// VolumeRatio compares today's volume against the mean volume of the
// trailing window, excluding today. Ready once a full window of prior
// sessions exists (window+1 bars total).
type VolumeRatio struct {
	window  int
	buf     []float64 // circular buffer of prior volumes
	idx     int
	count   int
	sum     float64
	current float64
	ready   bool
}

// NewVolumeRatio creates a volume-ratio indicator with the given trailing
// window (typically 20 sessions).
func NewVolumeRatio(window int) *VolumeRatio {
	return &VolumeRatio{
		window: window,
		buf:    make([]float64, window),
	}
}

func (v *VolumeRatio) Name() string { return "VOLR_" + itoa(v.window) }

func (v *VolumeRatio) Update(bar model.Bar) {
	vol := float64(bar.Volume)

	// Compute the ratio against the window BEFORE pushing today's volume,
	// so today never dilutes its own baseline.
	if v.count >= v.window {
		mean := v.sum / float64(v.window)
		if mean > 0 {
			v.current = vol / mean
			v.ready = true
		} else {
			// Dead window (all-zero volume): no meaningful baseline.
			v.ready = false
		}
	}

	if v.count >= v.window {
		v.sum -= v.buf[v.idx]
	}
	v.buf[v.idx] = vol
	v.sum += vol
	v.idx = (v.idx + 1) % v.window
	v.count++
}

func (v *VolumeRatio) Value() float64 { return v.current }
func (v *VolumeRatio) Ready() bool    { return v.ready }
