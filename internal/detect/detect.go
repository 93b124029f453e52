// Package detect implements the legacy threshold strategy: instantaneous
// intensities derived from the sparse event timeline with fixed thresholds
// and linear decay. It is the fallback whenever adaptive normalization is
// unavailable for the current track.
package detect

import (
	"time"

	"github.com/soniq-labs/pulse/internal/feature"
)

const (
	// Recomputation is throttled to roughly one display frame. This is a
	// rate limiter, not a correctness mechanism: callers inside the window
	// get the cached result.
	recomputeInterval = 16 * time.Millisecond

	transientWindow = 0.100 // seconds behind the playhead
	dynamicWindow   = 0.300

	// Transient output decays linearly at this rate, reaching zero about
	// 0.4s after the triggering event.
	decayPerSecond = 2.5

	neutralLevel = 0.5
)

// Detector scans the timeline near the playhead. It never fails: absence of
// matching events yields the documented silent/neutral defaults.
type Detector struct {
	timeline feature.Timeline

	last        feature.Bands
	lastCompute time.Time
	haveResult  bool
}

// New returns a Detector with an empty timeline.
func New() *Detector {
	return &Detector{}
}

// SetTimeline replaces the event timeline and drops the cached result.
// Called on track change; events are read-only from here on.
func (d *Detector) SetTimeline(tl feature.Timeline) {
	d.timeline = tl
	d.haveResult = false
}

// Bands returns raw intensities at songTime. now drives the recompute
// throttle only.
func (d *Detector) Bands(songTime float64, now time.Time) feature.Bands {
	if d.haveResult && now.Sub(d.lastCompute) < recomputeInterval {
		return d.last
	}

	bands := feature.Bands{
		Energy: neutralLevel,
		Low:    neutralLevel,
		Mid:    neutralLevel,
		High:   neutralLevel,
	}

	if ev, ok := d.strongest(songTime, transientWindow, feature.Event.IsTransient); ok {
		level := neutralLevel + ev.Intensity*0.5
		switch ev.DominantBand {
		case feature.BandMid:
			bands.Mid = level
		case feature.BandHigh:
			bands.High = level
		default:
			bands.Low = level
		}

		decay := 1.0 - (songTime-ev.Time)*decayPerSecond
		if decay < 0 {
			decay = 0
		}
		bands.Transients = ev.Intensity * decay
	}

	if ev, ok := d.strongest(songTime, dynamicWindow, feature.Event.IsDynamic); ok {
		bands.Energy = neutralLevel + ev.Intensity*0.5
	}

	d.last = bands
	d.lastCompute = now
	d.haveResult = true
	return bands
}

// strongest finds the highest-intensity event of the wanted kind within the
// trailing window. Malformed entries are skipped individually.
func (d *Detector) strongest(songTime, window float64, want func(feature.Event) bool) (feature.Event, bool) {
	var best feature.Event
	found := false
	for _, ev := range d.timeline {
		if !ev.Valid() || !want(ev) {
			continue
		}
		if ev.Time > songTime || songTime-ev.Time > window {
			continue
		}
		if !found || ev.Intensity > best.Intensity {
			best = ev
			found = true
		}
	}
	return best, found
}
