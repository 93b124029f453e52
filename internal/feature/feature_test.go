package feature

import (
	"math"
	"strings"
	"testing"
)

func TestSanitizeSkipsMalformedEventsIndividually(t *testing.T) {
	td := &TrackData{
		Timeline: Timeline{
			{Type: EventTransient, Time: 2.0, Intensity: 0.5, DominantBand: BandLow},
			{Type: EventTransient, Time: math.NaN(), Intensity: 0.5},
			{Type: "", Time: 1.0, Intensity: 0.5},
			{Type: "dynamic_swell", Time: 1.0, Intensity: math.Inf(1)},
			{Type: "dynamic_swell", Time: 1.0, Intensity: 0.3},
		},
	}
	_, dropped := td.Sanitize()
	if dropped != 3 {
		t.Fatalf("dropped=%d want=3", dropped)
	}
	if len(td.Timeline) != 2 {
		t.Fatalf("kept=%d want=2", len(td.Timeline))
	}
	// Survivors are sorted by time.
	if td.Timeline[0].Time != 1.0 || td.Timeline[1].Time != 2.0 {
		t.Fatalf("timeline not sorted: %+v", td.Timeline)
	}
}

func TestSanitizeDropsNonFiniteFrames(t *testing.T) {
	td := &TrackData{
		History: History{
			{Time: 0, Energy: 0.5, LowEnergy: 0.5, MidEnergy: 0.5, HighEnergy: 0.5},
			{Time: 1, Energy: math.NaN(), LowEnergy: 0.5, MidEnergy: 0.5, HighEnergy: 0.5},
		},
	}
	dropped, _ := td.Sanitize()
	if dropped != 1 {
		t.Fatalf("dropped=%d want=1", dropped)
	}
	if len(td.History) != 1 {
		t.Fatalf("kept=%d want=1", len(td.History))
	}
}

func TestDecodeTrackData(t *testing.T) {
	input := `{
		"history": [
			{"time": 0.5, "energy": 0.4, "lowEnergy": 0.3, "midEnergy": 0.2, "highEnergy": 0.1},
			{"time": 0.0, "energy": 0.1, "lowEnergy": 0.1, "midEnergy": 0.1, "highEnergy": 0.1}
		],
		"timeline": [
			{"type": "transient", "time": 0.2, "intensity": 0.8, "dominantBand": "low"}
		]
	}`
	td, err := DecodeTrackData(strings.NewReader(input))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(td.History) != 2 || len(td.Timeline) != 1 {
		t.Fatalf("unexpected sizes: %d frames, %d events", len(td.History), len(td.Timeline))
	}
	if td.History[0].Time != 0.0 {
		t.Fatalf("history not sorted by time: first=%f", td.History[0].Time)
	}
	if !td.Timeline[0].IsTransient() {
		t.Fatalf("expected transient event, got %q", td.Timeline[0].Type)
	}
}

func TestDecodeTrackDataRejectsGarbage(t *testing.T) {
	if _, err := DecodeTrackData(strings.NewReader("not json")); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestFrameAt(t *testing.T) {
	h := History{
		{Time: 0.0}, {Time: 1.0}, {Time: 2.0},
	}
	if _, ok := h.FrameAt(-0.1); ok {
		t.Fatal("expected no frame before history start")
	}
	f, ok := h.FrameAt(1.5)
	if !ok || f.Time != 1.0 {
		t.Fatalf("FrameAt(1.5)=%v,%v want frame at 1.0", f.Time, ok)
	}
	f, ok = h.FrameAt(2.0)
	if !ok || f.Time != 2.0 {
		t.Fatalf("FrameAt(2.0)=%v,%v want frame at 2.0", f.Time, ok)
	}
}

func TestEventKinds(t *testing.T) {
	ev := Event{Type: "dynamic_swell", Time: 1, Intensity: 0.5}
	if !ev.IsDynamic() || ev.IsTransient() {
		t.Fatalf("dynamic_swell misclassified")
	}
}

func TestSynthesizeDeterministicUnderSeed(t *testing.T) {
	a := Synthesize(SynthConfig{Duration: 5, Seed: 42})
	b := Synthesize(SynthConfig{Duration: 5, Seed: 42})
	if len(a.History) == 0 {
		t.Fatal("no frames synthesized")
	}
	if len(a.History) != len(b.History) || len(a.Timeline) != len(b.Timeline) {
		t.Fatalf("same seed produced different shapes")
	}
	for i := range a.History {
		if a.History[i] != b.History[i] {
			t.Fatalf("frame %d differs between runs", i)
		}
	}
}

func TestSynthesizeValuesInRange(t *testing.T) {
	td := Synthesize(SynthConfig{Duration: 10, Seed: 7})
	for _, f := range td.History {
		for _, v := range [...]float64{f.Energy, f.LowEnergy, f.MidEnergy, f.HighEnergy} {
			if v < 0 || v > 1 {
				t.Fatalf("band value %f out of [0,1] at t=%f", v, f.Time)
			}
		}
	}
	for _, ev := range td.Timeline {
		if !ev.Valid() {
			t.Fatalf("synthesized invalid event: %+v", ev)
		}
	}
}
