// Package normalize implements the adaptive statistical strategy: a
// percentile lookup over the whole track blended with a rolling local
// z-score, so quiet acoustic tracks and loud compressed tracks both yield
// a usable full-range signal.
package normalize

import (
	"github.com/soniq-labs/pulse/internal/feature"
)

const (
	// About five seconds at the extractor's ~86 samples/sec.
	defaultWindowSize = 430

	defaultSensitivity = 0.5

	// Final values below this rank are snapped to zero to suppress
	// flicker during near-silence.
	defaultActiveFloor = 0.3

	epsilon = 1e-9

	// A three-sigma local deviation counts as a full-scale delta when
	// blended into the percentile rank.
	zFullScale = 3.0
)

// Normalizer blends global percentile rank with local deviation into one
// intensity per band. Zero value is not usable; call New.
type Normalizer struct {
	table   *PercentileTable
	windows [numBands]*RollingWindow

	sensitivity float64
	activeFloor float64
}

// New returns a Normalizer in the uninitialized state.
func New() *Normalizer {
	n := &Normalizer{
		sensitivity: defaultSensitivity,
		activeFloor: defaultActiveFloor,
	}
	for b := range n.windows {
		n.windows[b] = NewRollingWindow(defaultWindowSize)
	}
	return n
}

// Initialize builds the percentile table from a full track history. It
// returns false on empty or malformed input; the caller must then keep
// using the legacy strategy for this track.
func (n *Normalizer) Initialize(history feature.History) bool {
	table, ok := BuildTable(history)
	if !ok {
		return false
	}
	n.Adopt(table)
	return true
}

// Adopt installs a table built elsewhere (typically on a background
// goroutine) and clears the rolling windows.
func (n *Normalizer) Adopt(table *PercentileTable) {
	n.table = table
	for _, w := range n.windows {
		w.Reset()
	}
}

// IsInitialized reports whether a percentile table is installed.
func (n *Normalizer) IsInitialized() bool {
	return n.table != nil
}

// SetSensitivity sets how strongly local deviation sways the output,
// clamped to [0,1].
func (n *Normalizer) SetSensitivity(x float64) {
	if x < 0 {
		x = 0
	}
	if x > 1 {
		x = 1
	}
	n.sensitivity = x
}

// Sensitivity returns the current blend weight.
func (n *Normalizer) Sensitivity() float64 {
	return n.sensitivity
}

// PercentileRank returns the track-global rank of v for the band, or 0
// when uninitialized.
func (n *Normalizer) PercentileRank(v float64, band Band) float64 {
	if n.table == nil {
		return 0
	}
	return n.table.Rank(v, band)
}

// RollingZScore returns how many standard deviations v sits from the
// band's trailing-window mean.
func (n *Normalizer) RollingZScore(v float64, band Band) float64 {
	w := n.windows[band]
	return (v - w.Mean()) / (w.StdDev() + epsilon)
}

// Bands folds one feature frame into the rolling windows and returns the
// blended per-band intensities. Transients are not produced here; the
// timeline-driven detector supplies them in either mode.
func (n *Normalizer) Bands(f feature.Frame) feature.Bands {
	return feature.Bands{
		Energy: n.normalize(f.Energy, BandEnergy),
		Low:    n.normalize(f.LowEnergy, BandLow),
		Mid:    n.normalize(f.MidEnergy, BandMid),
		High:   n.normalize(f.HighEnergy, BandHigh),
	}
}

func (n *Normalizer) normalize(v float64, band Band) float64 {
	rank := n.PercentileRank(v, band)
	z := n.RollingZScore(v, band)
	n.windows[band].Push(v)

	zDelta := z / zFullScale
	if zDelta > 1 {
		zDelta = 1
	}
	if zDelta < -1 {
		zDelta = -1
	}

	final := rank + n.sensitivity*zDelta
	if final < 0 {
		final = 0
	}
	if final > 1 {
		final = 1
	}
	if final < n.activeFloor {
		return 0
	}
	return final
}

// Reset clears the rolling windows and drops the table, returning the
// normalizer to the uninitialized state. Called on track change.
func (n *Normalizer) Reset() {
	n.table = nil
	for _, w := range n.windows {
		w.Reset()
	}
}
