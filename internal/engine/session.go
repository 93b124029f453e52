// Package engine owns the per-session state of the audio-reactive
// parameter pipeline: strategy selection, the smoother registry, the beat
// dispatcher, and the composed uniform record. All state is held by an
// explicit Session instance constructed and torn down by the host; there
// are no package-level mutables.
package engine

import (
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"time"

	"github.com/soniq-labs/pulse/internal/beat"
	"github.com/soniq-labs/pulse/internal/detect"
	"github.com/soniq-labs/pulse/internal/feature"
	"github.com/soniq-labs/pulse/internal/normalize"
	"github.com/soniq-labs/pulse/internal/params"
)

// Mode selects the normalization strategy. Adaptive only takes effect once
// the percentile table for the current track is ready; until then the
// legacy detector is used transparently.
type Mode int

const (
	ModeLegacy Mode = iota
	ModeAdaptive
)

func (m Mode) String() string {
	if m == ModeAdaptive {
		return "adaptive"
	}
	return "legacy"
}

// ParseMode maps a config string to a Mode; unknown strings fall back to
// adaptive, the preferred strategy.
func ParseMode(s string) Mode {
	if s == "legacy" {
		return ModeLegacy
	}
	return ModeAdaptive
}

// Config configures a Session.
type Config struct {
	BaseCameraSpeed float64
	BeatPolicy      beat.Policy
	PunchCamera     bool
	Sensitivity     float64
	Mode            Mode
	Log             *log.Logger
	// Rand seeds the beat dispatcher's palette draws; nil takes a
	// time-seeded source.
	Rand *rand.Rand
}

type tableResult struct {
	gen   int
	table *normalize.PercentileTable
	ok    bool
}

// Session drives the whole per-tick pipeline. It is single-threaded and
// cooperative: the host's render loop calls Tick once per display frame
// and every mutation happens synchronously inside that call. The only
// background work is percentile-table construction, delivered through a
// channel polled at tick time.
type Session struct {
	log *log.Logger

	detector   *detect.Detector
	normalizer *normalize.Normalizer
	smoother   *params.Smoother
	dispatcher *beat.Dispatcher

	mode    Mode
	playing bool

	history feature.History

	baseCameraSpeed  float64
	useColorControls bool

	scalarTargets map[string]float64
	colorTargets  map[string]params.RGB

	tableCh    chan tableResult
	generation int

	observers map[int]func(Uniforms)
	nextObs   int

	lastUniforms Uniforms
	lastGood     Uniforms
	haveGood     bool
}

// New constructs a Session with defaults filled in.
func New(cfg Config) *Session {
	if cfg.BaseCameraSpeed <= 0 {
		cfg.BaseCameraSpeed = params.DefaultBaseCameraSpeed
	}
	if cfg.Log == nil {
		cfg.Log = log.New(os.Stderr, "[engine] ", log.LstdFlags)
	}

	s := &Session{
		log:              cfg.Log,
		detector:         detect.New(),
		normalizer:       normalize.New(),
		smoother:         params.New(),
		mode:             cfg.Mode,
		baseCameraSpeed:  cfg.BaseCameraSpeed,
		useColorControls: true,
		scalarTargets:    make(map[string]float64),
		colorTargets:     make(map[string]params.RGB),
		tableCh:          make(chan tableResult, 4),
		observers:        make(map[int]func(Uniforms)),
	}
	s.dispatcher = beat.New(beat.Config{
		Policy:      cfg.BeatPolicy,
		PunchCamera: cfg.PunchCamera,
		Rand:        cfg.Rand,
	})
	if cfg.Sensitivity > 0 {
		s.normalizer.SetSensitivity(cfg.Sensitivity)
	}
	if p, ok := s.smoother.Scalar(params.CameraSpeed); ok {
		p.WriteInstant(s.baseCameraSpeed)
	}
	return s
}

// Smoother exposes the parameter registry to the host.
func (s *Session) Smoother() *params.Smoother {
	return s.smoother
}

// LoadTrack atomically replaces the track data: the old table and rolling
// windows are discarded in full, and the percentile table for the new
// track is built on a background goroutine so the render tick never
// stalls. The session stays in legacy mode until the build lands.
// Smoothed parameter values persist so switching tracks does not jump.
func (s *Session) LoadTrack(td *feature.TrackData) {
	s.generation++
	gen := s.generation

	s.history = td.History
	s.detector.SetTimeline(td.Timeline)
	s.normalizer.Reset()
	s.dispatcher.Reset()
	s.drainTable()

	history := td.History
	go func() {
		table, ok := normalize.BuildTable(history)
		s.tableCh <- tableResult{gen: gen, table: table, ok: ok}
	}()
}

// ResetForNewTrack clears all track-derived state without touching the
// smoothed parameter values.
func (s *Session) ResetForNewTrack() {
	s.generation++
	s.history = nil
	s.detector.SetTimeline(nil)
	s.normalizer.Reset()
	s.dispatcher.Reset()
	s.drainTable()
}

func (s *Session) drainTable() {
	for {
		select {
		case <-s.tableCh:
		default:
			return
		}
	}
}

// pollTable adopts a finished background build, discarding stale or
// failed ones. A failed build leaves the session in legacy mode for the
// track, which is the documented recovery.
func (s *Session) pollTable() {
	select {
	case r := <-s.tableCh:
		if r.gen != s.generation {
			return
		}
		if !r.ok {
			s.log.Printf("adaptive init failed (empty or malformed history), staying in legacy mode")
			return
		}
		s.normalizer.Adopt(r.table)
		s.log.Printf("adaptive normalization ready (%d frames, median energy %.2f, p95 %.2f)",
			r.table.Len(normalize.BandEnergy),
			r.table.Quantile(0.5, normalize.BandEnergy),
			r.table.Quantile(0.95, normalize.BandEnergy))
	default:
	}
}

// SetMode selects the requested strategy. Switching never resets the
// smoothed parameter state.
func (s *Session) SetMode(m Mode) {
	s.mode = m
}

// Mode returns the requested strategy.
func (s *Session) Mode() Mode {
	return s.mode
}

// EffectiveMode returns the strategy actually in use this tick: adaptive
// if and only if it is requested and initialized for the current track.
func (s *Session) EffectiveMode() Mode {
	if s.mode == ModeAdaptive && s.normalizer.IsInitialized() {
		return ModeAdaptive
	}
	return ModeLegacy
}

// SetSensitivity forwards to the adaptive normalizer, clamped to [0,1].
func (s *Session) SetSensitivity(x float64) {
	s.normalizer.SetSensitivity(x)
}

// Sensitivity returns the adaptive blend weight.
func (s *Session) Sensitivity() float64 {
	return s.normalizer.Sensitivity()
}

// SetBeatPolicy switches the beat response at runtime.
func (s *Session) SetBeatPolicy(p beat.Policy) {
	s.dispatcher.SetPolicy(p)
}

// BeatPolicy returns the active beat response.
func (s *Session) BeatPolicy() beat.Policy {
	return s.dispatcher.Policy()
}

// SetPlaying marks whether audio is playing. The camera-speed monotonic
// floor holds only while playing; stopping releases it so speed eases
// back to the base target.
func (s *Session) SetPlaying(playing bool) {
	s.playing = playing
}

// Playing reports the playback flag.
func (s *Session) Playing() bool {
	return s.playing
}

// SetUseColorControls toggles the renderer-facing color-controls flag.
func (s *Session) SetUseColorControls(on bool) {
	s.useColorControls = on
}

// SetParameterTarget pins a host-chosen target for a named scalar. The
// value must be finite; audio-driven parameters stay pinned until the
// target is cleared.
func (s *Session) SetParameterTarget(name string, value float64) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return fmt.Errorf("non-finite target for %q", name)
	}
	if _, ok := s.smoother.Scalar(name); !ok {
		return fmt.Errorf("unknown scalar parameter %q", name)
	}
	s.scalarTargets[name] = value
	return nil
}

// SetColorTarget pins a host-chosen target for a named color.
func (s *Session) SetColorTarget(name string, value params.RGB) error {
	for _, v := range [...]float64{value.R, value.G, value.B} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("non-finite color target for %q", name)
		}
	}
	if _, ok := s.smoother.Color(name); !ok {
		return fmt.Errorf("unknown color parameter %q", name)
	}
	s.colorTargets[name] = value
	return nil
}

// ClearParameterTarget releases a pinned scalar or color target.
func (s *Session) ClearParameterTarget(name string) {
	delete(s.scalarTargets, name)
	delete(s.colorTargets, name)
}

// SetParameterDuration changes the ease duration of any parameter.
func (s *Session) SetParameterDuration(name string, seconds float64) error {
	return s.smoother.SetDuration(name, seconds)
}

// Subscribe registers an observer called with the composed uniforms after
// every tick. The returned cancel removes it.
func (s *Session) Subscribe(fn func(Uniforms)) (cancel func()) {
	id := s.nextObs
	s.nextObs++
	s.observers[id] = fn
	return func() { delete(s.observers, id) }
}

// Uniforms returns the record composed on the most recent tick.
func (s *Session) Uniforms() Uniforms {
	return s.lastUniforms
}

// Tick runs one frame of the pipeline: poll the playhead-relative feature
// state, advance every parameter, let the beat dispatcher punch, and
// compose the outgoing record. songTime is playback position in seconds;
// now drives the ease clock and the detector throttle.
func (s *Session) Tick(songTime float64, now time.Time) Uniforms {
	s.pollTable()

	bands := s.detector.Bands(songTime, now)
	if s.EffectiveMode() == ModeAdaptive {
		if frame, ok := s.history.FrameAt(songTime); ok {
			adaptive := s.normalizer.Bands(frame)
			adaptive.Transients = bands.Transients
			bands = adaptive
		}
	}

	nowSec := float64(now.UnixNano()) / 1e9
	s.advanceAudio(bands, nowSec)
	s.advanceHostOwned(nowSec)
	s.advanceCamera(bands, nowSec)
	s.advanceColors(nowSec)

	s.dispatcher.Process(bands.Transients, songTime, nowSec, s.smoother)

	u := s.compose()
	s.lastUniforms = u
	for _, fn := range s.observers {
		fn(u)
	}
	return u
}

// Audio-driven scalars follow the strategy output unless the host has
// pinned a target.
var audioDriven = map[string]func(feature.Bands) float64{
	params.Energy:     func(b feature.Bands) float64 { return b.Energy },
	params.LowEnergy:  func(b feature.Bands) float64 { return b.Low },
	params.HighEnergy: func(b feature.Bands) float64 { return b.High },
	params.Transients: func(b feature.Bands) float64 { return b.Transients },
}

func (s *Session) advanceAudio(bands feature.Bands, nowSec float64) {
	for name, pick := range audioDriven {
		target := pick(bands)
		if pinned, ok := s.scalarTargets[name]; ok {
			target = pinned
		}
		p, _ := s.smoother.Scalar(name)
		p.Advance(target, nowSec)
	}
}

func (s *Session) advanceHostOwned(nowSec float64) {
	for _, name := range s.smoother.ScalarNames() {
		if _, isAudio := audioDriven[name]; isAudio || name == params.CameraSpeed {
			continue
		}
		p, _ := s.smoother.Scalar(name)
		target := p.Target()
		if pinned, ok := s.scalarTargets[name]; ok {
			target = pinned
		}
		p.Advance(target, nowSec)
	}
}

// advanceCamera applies the monotonic floor: while playing, the target is
// never below the current smoothed speed, so the animated speed cannot
// ease under the configured base during playback.
func (s *Session) advanceCamera(bands feature.Bands, nowSec float64) {
	p, _ := s.smoother.Scalar(params.CameraSpeed)

	var target float64
	if s.playing {
		target = s.baseCameraSpeed * (1 +
			bands.Energy*s.smoother.Current(params.EnergyCameraEffect) +
			bands.Transients*s.smoother.Current(params.TransientCameraEffect))
		if pinned, ok := s.scalarTargets[params.CameraSpeed]; ok {
			target = pinned
		}
		if cur := p.Current(); cur > target {
			target = cur
		}
	} else {
		target = s.baseCameraSpeed
		if pinned, ok := s.scalarTargets[params.CameraSpeed]; ok {
			target = pinned
		}
	}
	p.Advance(target, nowSec)
}

func (s *Session) advanceColors(nowSec float64) {
	for _, name := range s.smoother.ColorNames() {
		c, _ := s.smoother.Color(name)
		target := c.Target()
		if pinned, ok := s.colorTargets[name]; ok {
			target = pinned
		}
		c.Advance(target, nowSec)
	}
}

// Status is the control-surface snapshot served to the host UI.
type Status struct {
	Mode          string  `json:"mode"`
	EffectiveMode string  `json:"effectiveMode"`
	Sensitivity   float64 `json:"sensitivity"`
	BeatPolicy    string  `json:"beatPolicy"`
	Playing       bool    `json:"playing"`
	AdaptiveReady bool    `json:"adaptiveReady"`
	TrackLoaded   bool    `json:"trackLoaded"`
}

// Status returns the current control-surface snapshot.
func (s *Session) Status() Status {
	return Status{
		Mode:          s.mode.String(),
		EffectiveMode: s.EffectiveMode().String(),
		Sensitivity:   s.normalizer.Sensitivity(),
		BeatPolicy:    s.dispatcher.Policy().String(),
		Playing:       s.playing,
		AdaptiveReady: s.normalizer.IsInitialized(),
		TrackLoaded:   len(s.history) > 0,
	}
}
