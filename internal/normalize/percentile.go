package normalize

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/soniq-labs/pulse/internal/feature"
)

// Band selects which energy channel a lookup targets.
type Band int

const (
	BandEnergy Band = iota
	BandLow
	BandMid
	BandHigh
	numBands
)

func (b Band) String() string {
	switch b {
	case BandEnergy:
		return "energy"
	case BandLow:
		return "low"
	case BandMid:
		return "mid"
	case BandHigh:
		return "high"
	}
	return "unknown"
}

// PercentileTable holds a sorted copy of a whole track's per-band values,
// enabling empirical rank lookup. Built once per track; immutable after.
type PercentileTable struct {
	sorted [numBands][]float64
}

// BuildTable constructs the table from a full feature history. ok is false
// when the history contains no usable frames; the caller must then stay in
// legacy mode for the track. Cost is O(n log n) per band, so run it off the
// render tick.
func BuildTable(history feature.History) (*PercentileTable, bool) {
	t := &PercentileTable{}
	for _, f := range history {
		if !f.Valid() {
			continue
		}
		t.sorted[BandEnergy] = append(t.sorted[BandEnergy], f.Energy)
		t.sorted[BandLow] = append(t.sorted[BandLow], f.LowEnergy)
		t.sorted[BandMid] = append(t.sorted[BandMid], f.MidEnergy)
		t.sorted[BandHigh] = append(t.sorted[BandHigh], f.HighEnergy)
	}
	if len(t.sorted[BandEnergy]) == 0 {
		return nil, false
	}
	for b := range t.sorted {
		sort.Float64s(t.sorted[b])
	}
	return t, true
}

// Rank returns the fraction of the track's values at or below v for the
// band, in [0,1]. Monotonic nondecreasing in v.
func (t *PercentileTable) Rank(v float64, band Band) float64 {
	vals := t.sorted[band]
	if len(vals) == 0 {
		return 0
	}
	return stat.CDF(v, stat.Empirical, vals, nil)
}

// Quantile returns the value at fraction p of the band's distribution.
func (t *PercentileTable) Quantile(p float64, band Band) float64 {
	vals := t.sorted[band]
	if len(vals) == 0 {
		return 0
	}
	return stat.Quantile(p, stat.Empirical, vals, nil)
}

// Len returns how many samples back the given band.
func (t *PercentileTable) Len(band Band) int {
	return len(t.sorted[band])
}
