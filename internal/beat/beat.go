// Package beat turns raw transient intensity into curated parameter
// overrides: the "punch" on a beat. Two policies exist because the visual
// language went through two revisions; both are kept behind a config flag.
package beat

import (
	"math/rand"
	"time"

	"github.com/soniq-labs/pulse/internal/params"
)

// Policy selects how a fired beat mutates the parameter set.
type Policy int

const (
	// PolicyStrobe instantly reassigns the three base colors (and the
	// derived fog/glow) from the neon palette.
	PolicyStrobe Policy = iota
	// PolicyPunch boosts the effect-strength parameters with an
	// instant-attack, eased-release envelope.
	PolicyPunch
)

func (p Policy) String() string {
	if p == PolicyPunch {
		return "punch"
	}
	return "strobe"
}

// ParsePolicy maps a config string to a Policy; unknown strings fall back
// to strobe.
func ParsePolicy(s string) Policy {
	if s == "punch" {
		return PolicyPunch
	}
	return PolicyStrobe
}

const (
	defaultThreshold   = 0.05
	defaultMinInterval = 0.100 // seconds

	punchBoost       = 1.6
	punchCameraBoost = 1.4
)

// Parameters the punch policy boosts. Camera speed is handled separately
// because its baseline is host-configured.
var punchTargets = []string{
	params.TransientEffect,
	params.ColorIntensity,
	params.EnergyColorEffect,
	params.TransientColorEffect,
	params.EnergyCameraEffect,
	params.TransientCameraEffect,
}

// Config tunes a Dispatcher. Zero values take documented defaults.
type Config struct {
	Policy      Policy
	Threshold   float64
	MinInterval float64
	// PunchCamera also kicks camera speed on each beat.
	PunchCamera bool
	// Rand is the palette draw source; defaults to a time-seeded one.
	Rand *rand.Rand
}

// Dispatcher debounces transient events and applies the configured policy
// to the smoother. Runs on the tick loop only; no locking.
type Dispatcher struct {
	cfg Config

	lastFire float64
	fired    bool
}

// New returns a Dispatcher with defaults filled in.
func New(cfg Config) *Dispatcher {
	if cfg.Threshold <= 0 {
		cfg.Threshold = defaultThreshold
	}
	if cfg.MinInterval <= 0 {
		cfg.MinInterval = defaultMinInterval
	}
	if cfg.Rand == nil {
		cfg.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Dispatcher{cfg: cfg}
}

// SetPolicy switches the beat response at runtime.
func (d *Dispatcher) SetPolicy(p Policy) {
	d.cfg.Policy = p
}

// Policy returns the active beat response.
func (d *Dispatcher) Policy() Policy {
	return d.cfg.Policy
}

// Reset clears the debounce state. Called on track change, where song
// time restarts from zero.
func (d *Dispatcher) Reset() {
	d.fired = false
	d.lastFire = 0
}

// Process fires once when intensity exceeds the threshold and the minimum
// interval since the last fire has elapsed. songTime drives the debounce;
// easeNow is the smoother's clock for the punch release. Returns whether
// it fired.
func (d *Dispatcher) Process(intensity, songTime, easeNow float64, sm *params.Smoother) bool {
	if intensity <= d.cfg.Threshold {
		return false
	}
	if d.fired && songTime-d.lastFire < d.cfg.MinInterval {
		return false
	}
	d.lastFire = songTime
	d.fired = true

	switch d.cfg.Policy {
	case PolicyPunch:
		d.punch(easeNow, sm)
	default:
		d.strobe(sm)
	}
	return true
}

// strobe draws three distinct neon entries without replacement and writes
// them instantly, fog and glow derived from the first and third.
func (d *Dispatcher) strobe(sm *params.Smoother) {
	picks := drawNeon(d.cfg.Rand, 3)

	if c, ok := sm.Color(params.Color1); ok {
		c.WriteInstant(picks[0])
	}
	if c, ok := sm.Color(params.Color2); ok {
		c.WriteInstant(picks[1])
	}
	if c, ok := sm.Color(params.Color3); ok {
		c.WriteInstant(picks[2])
	}
	if c, ok := sm.Color(params.FogColor); ok {
		c.WriteInstant(fogFrom(picks[0]))
	}
	if c, ok := sm.Color(params.GlowColor); ok {
		c.WriteInstant(glowFrom(picks[2]))
	}
}

// punch boosts effect strengths instantly; targets stay at their baseline
// so the normal ease pulls them back down.
func (d *Dispatcher) punch(now float64, sm *params.Smoother) {
	for _, name := range punchTargets {
		p, ok := sm.Scalar(name)
		if !ok {
			continue
		}
		baseline := p.Target()
		p.Attack(baseline*punchBoost, baseline, now)
	}
	if d.cfg.PunchCamera {
		if p, ok := sm.Scalar(params.CameraSpeed); ok {
			p.Attack(p.Target()*punchCameraBoost, p.Target(), now)
		}
	}
}
