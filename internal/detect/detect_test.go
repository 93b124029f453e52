package detect

import (
	"math"
	"testing"
	"time"

	"github.com/soniq-labs/pulse/internal/feature"
)

func TestTransientSetsDominantBandAndDecay(t *testing.T) {
	d := New()
	d.SetTimeline(feature.Timeline{
		{Type: feature.EventTransient, Time: 1.0, Intensity: 0.8, DominantBand: feature.BandLow},
	})

	bands := d.Bands(1.05, time.Now())

	if math.Abs(bands.Low-0.9) > 1e-9 {
		t.Fatalf("low=%f want=0.9", bands.Low)
	}
	if bands.Mid != 0.5 || bands.High != 0.5 {
		t.Fatalf("other bands should stay neutral: mid=%f high=%f", bands.Mid, bands.High)
	}
	// 0.8 * (1 - 0.05*2.5) = 0.70
	if math.Abs(bands.Transients-0.70) > 1e-9 {
		t.Fatalf("transients=%f want=0.70", bands.Transients)
	}
}

func TestSilenceYieldsNeutralDefaults(t *testing.T) {
	d := New()
	bands := d.Bands(10.0, time.Now())
	if bands.Energy != 0.5 || bands.Low != 0.5 || bands.Mid != 0.5 || bands.High != 0.5 {
		t.Fatalf("expected neutral 0.5 levels, got %+v", bands)
	}
	if bands.Transients != 0 {
		t.Fatalf("transients=%f want=0", bands.Transients)
	}
}

func TestDynamicEventSetsEnergy(t *testing.T) {
	d := New()
	d.SetTimeline(feature.Timeline{
		{Type: "dynamic_swell", Time: 2.0, Intensity: 0.6},
	})

	bands := d.Bands(2.2, time.Now())
	if math.Abs(bands.Energy-0.8) > 1e-9 {
		t.Fatalf("energy=%f want=0.8", bands.Energy)
	}

	// Outside the 300ms window the energy falls back to neutral.
	now := time.Now().Add(50 * time.Millisecond)
	bands = d.Bands(2.5, now)
	if bands.Energy != 0.5 {
		t.Fatalf("energy=%f want=0.5 outside window", bands.Energy)
	}
}

func TestHighestIntensityEventWins(t *testing.T) {
	d := New()
	d.SetTimeline(feature.Timeline{
		{Type: feature.EventTransient, Time: 1.00, Intensity: 0.3, DominantBand: feature.BandMid},
		{Type: feature.EventTransient, Time: 0.98, Intensity: 0.9, DominantBand: feature.BandHigh},
	})

	bands := d.Bands(1.01, time.Now())
	if math.Abs(bands.High-0.95) > 1e-9 {
		t.Fatalf("high=%f want=0.95 (strongest event)", bands.High)
	}
	if bands.Mid != 0.5 {
		t.Fatalf("mid=%f want neutral 0.5", bands.Mid)
	}
}

func TestThrottleReturnsCachedResult(t *testing.T) {
	d := New()
	d.SetTimeline(feature.Timeline{
		{Type: feature.EventTransient, Time: 1.0, Intensity: 0.8, DominantBand: feature.BandLow},
	})

	base := time.Now()
	first := d.Bands(1.01, base)
	// 5ms later with the playhead way past the event: still the cache.
	second := d.Bands(9.99, base.Add(5*time.Millisecond))
	if first != second {
		t.Fatalf("expected cached result within throttle window")
	}
	// Past the throttle window the result is recomputed.
	third := d.Bands(9.99, base.Add(20*time.Millisecond))
	if third.Transients != 0 {
		t.Fatalf("transients=%f want=0 after recompute", third.Transients)
	}
}

func TestMalformedEventsAreSkipped(t *testing.T) {
	d := New()
	d.SetTimeline(feature.Timeline{
		{Type: feature.EventTransient, Time: math.NaN(), Intensity: 0.9, DominantBand: feature.BandLow},
		{Type: feature.EventTransient, Time: 1.0, Intensity: math.Inf(1)},
		{Type: feature.EventTransient, Time: 1.0, Intensity: 0.4, DominantBand: feature.BandMid},
	})

	bands := d.Bands(1.02, time.Now())
	if math.Abs(bands.Mid-0.7) > 1e-9 {
		t.Fatalf("mid=%f want=0.7 from the one valid event", bands.Mid)
	}
}

func TestDecayReachesZero(t *testing.T) {
	d := New()
	d.SetTimeline(feature.Timeline{
		{Type: feature.EventTransient, Time: 1.0, Intensity: 1.0, DominantBand: feature.BandLow},
	})

	// 0.09s after the event, within the scan window but decay nearly done.
	bands := d.Bands(1.09, time.Now())
	want := 1.0 * (1 - 0.09*2.5)
	if math.Abs(bands.Transients-want) > 1e-9 {
		t.Fatalf("transients=%f want=%f", bands.Transients, want)
	}
}
