package feature

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strings"
)

// Frame is one dense band-energy sample of a track. Values are normalized
// to [0,1] by the extractor before they reach us.
type Frame struct {
	Time       float64 `json:"time"`
	Energy     float64 `json:"energy"`
	LowEnergy  float64 `json:"lowEnergy"`
	MidEnergy  float64 `json:"midEnergy"`
	HighEnergy float64 `json:"highEnergy"`
}

// Event types emitted by the extractor. Anything starting with "dynamic_"
// marks a change in dynamic range; the kind suffix is informational only.
const (
	EventTransient = "transient"
	dynamicPrefix  = "dynamic_"
)

// Dominant band labels used on transient events.
const (
	BandLow  = "low"
	BandMid  = "mid"
	BandHigh = "high"
)

// Event is a sparse discrete timeline entry: a transient spike or a
// dynamic-range change.
type Event struct {
	Type         string  `json:"type"`
	Time         float64 `json:"time"`
	Intensity    float64 `json:"intensity"`
	DominantBand string  `json:"dominantBand,omitempty"`
}

// IsTransient reports whether the event marks a percussive spike.
func (e Event) IsTransient() bool {
	return e.Type == EventTransient
}

// IsDynamic reports whether the event marks a dynamic-range change.
func (e Event) IsDynamic() bool {
	return strings.HasPrefix(e.Type, dynamicPrefix)
}

// Valid reports whether the event carries a usable time and intensity.
// Entries that fail this check are skipped individually; a single bad
// event never aborts the rest of the timeline.
func (e Event) Valid() bool {
	if e.Type == "" {
		return false
	}
	if math.IsNaN(e.Time) || math.IsInf(e.Time, 0) {
		return false
	}
	if math.IsNaN(e.Intensity) || math.IsInf(e.Intensity, 0) {
		return false
	}
	return true
}

// Valid reports whether every field of the frame is finite.
func (f Frame) Valid() bool {
	for _, v := range [...]float64{f.Time, f.Energy, f.LowEnergy, f.MidEnergy, f.HighEnergy} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// History is the dense per-frame record of a whole track, ordered by time.
// It is immutable once built and replaced wholesale on track change.
type History []Frame

// Timeline is the sparse event record of a whole track, ordered by time.
type Timeline []Event

// FrameAt returns the latest frame at or before t. ok is false when the
// history is empty or t precedes the first frame.
func (h History) FrameAt(t float64) (Frame, bool) {
	if len(h) == 0 {
		return Frame{}, false
	}
	i := sort.Search(len(h), func(i int) bool { return h[i].Time > t })
	if i == 0 {
		return Frame{}, false
	}
	return h[i-1], true
}

// Bands is the per-tick output of a normalization strategy: raw intensities
// in [0,1] before any smoothing is applied.
type Bands struct {
	Energy     float64
	Low        float64
	Mid        float64
	High       float64
	Transients float64
}

// TrackData bundles what the external extractor hands over for one track.
type TrackData struct {
	History  History  `json:"history"`
	Timeline Timeline `json:"timeline"`
}

// Sanitize drops malformed frames and events in place and sorts both
// sequences by time. It returns how many entries were discarded.
func (td *TrackData) Sanitize() (framesDropped, eventsDropped int) {
	frames := td.History[:0]
	for _, f := range td.History {
		if f.Valid() {
			frames = append(frames, f)
			continue
		}
		framesDropped++
	}
	td.History = frames

	events := td.Timeline[:0]
	for _, e := range td.Timeline {
		if e.Valid() {
			events = append(events, e)
			continue
		}
		eventsDropped++
	}
	td.Timeline = events

	sort.SliceStable(td.History, func(i, j int) bool { return td.History[i].Time < td.History[j].Time })
	sort.SliceStable(td.Timeline, func(i, j int) bool { return td.Timeline[i].Time < td.Timeline[j].Time })
	return framesDropped, eventsDropped
}

// DecodeTrackData parses extractor output from r and sanitizes it.
func DecodeTrackData(r io.Reader) (*TrackData, error) {
	var td TrackData
	if err := json.NewDecoder(r).Decode(&td); err != nil {
		return nil, fmt.Errorf("decode track data: %w", err)
	}
	td.Sanitize()
	return &td, nil
}

// LoadTrackData reads extractor output from a JSON file.
func LoadTrackData(path string) (*TrackData, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open track data: %w", err)
	}
	defer f.Close()
	return DecodeTrackData(f)
}
