package feature

import (
	"math"
	"math/rand"
)

// SynthConfig controls the synthetic track generator.
type SynthConfig struct {
	Duration   float64 // seconds
	SampleRate float64 // frames per second, extractor-style (~86)
	Seed       int64
}

// Synthesize produces plausible track data without any audio: slow phase
// oscillators per band plus randomized transient and dynamic events. Used
// by the demo host when no extractor output is available, and by tests.
func Synthesize(cfg SynthConfig) *TrackData {
	if cfg.Duration <= 0 {
		cfg.Duration = 60
	}
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 86
	}
	rng := rand.New(rand.NewSource(cfg.Seed))

	td := &TrackData{}
	dt := 1.0 / cfg.SampleRate

	var phaseLow, phaseMid, phaseHigh float64
	for t := 0.0; t < cfg.Duration; t += dt {
		phaseLow += dt * 0.7
		phaseMid += dt * 1.2
		phaseHigh += dt * 2.1

		low := clamp01(0.5 + 0.5*math.Sin(phaseLow) + rng.Float64()*0.1)
		mid := clamp01(0.4 + 0.4*math.Sin(phaseMid+0.5) + rng.Float64()*0.1)
		high := clamp01(0.3 + 0.3*math.Sin(phaseHigh+1.0) + rng.Float64()*0.1)

		td.History = append(td.History, Frame{
			Time:       t,
			Energy:     (low + mid + high) / 3,
			LowEnergy:  low,
			MidEnergy:  mid,
			HighEnergy: high,
		})

		// Roughly two transients per second, biased toward the low band.
		if rng.Float64() < 2.0*dt {
			band := BandLow
			switch r := rng.Float64(); {
			case r > 0.85:
				band = BandHigh
			case r > 0.6:
				band = BandMid
			}
			td.Timeline = append(td.Timeline, Event{
				Type:         EventTransient,
				Time:         t,
				Intensity:    clamp01(0.4 + rng.Float64()*0.6),
				DominantBand: band,
			})
		}
		if rng.Float64() < 0.1*dt {
			td.Timeline = append(td.Timeline, Event{
				Type:      dynamicPrefix + "swell",
				Time:      t,
				Intensity: clamp01(0.3 + rng.Float64()*0.7),
			})
		}
	}
	return td
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
