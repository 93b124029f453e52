// Package params holds the per-parameter smoothing engine: independently
// configured eased scalars and colors advanced once per tick toward their
// targets. All state lives in an explicit Smoother instance passed by
// reference; there is no package-level registry.
package params

// Transition tags how a write reaches the current value. Instant is the
// only permitted discontinuity and is reserved for beat effects; every
// other writer goes through the ease.
type Transition int

const (
	Eased Transition = iota
	Instant
)

// Snap to the target once the ease is effectively finished, so floating
// point creep can never hold current off target forever.
const snapProgress = 0.999

// SmoothedParameter is the atomic unit of animation. Under normal
// operation current is a continuous function of time; only an Instant
// write may jump it.
type SmoothedParameter struct {
	current  float64
	target   float64
	duration float64 // seconds

	lastRetarget float64
	lastAdvance  float64
	advanced     bool
}

// NewParameter returns a parameter resting at initial with the given ease
// duration in seconds.
func NewParameter(initial, duration float64) *SmoothedParameter {
	return &SmoothedParameter{
		current:  initial,
		target:   initial,
		duration: duration,
	}
}

// Advance moves current toward target at time now (seconds). A changed
// target restarts the ease window from wherever current is: a re-aim, not
// a continuation of the prior ease. Calling twice with the same target and
// now in one tick is a no-op the second time.
func (p *SmoothedParameter) Advance(target, now float64) {
	if target != p.target {
		p.target = target
		p.lastRetarget = now
	} else if p.advanced && now == p.lastAdvance {
		return
	}
	p.lastAdvance = now
	p.advanced = true

	progress := 1.0
	if p.duration > 0 {
		progress = (now - p.lastRetarget) / p.duration
		if progress < 0 {
			progress = 0
		}
		if progress > 1 {
			progress = 1
		}
	}

	if progress >= snapProgress {
		p.current = p.target
		return
	}
	p.current += (p.target - p.current) * easeInOutCubic(progress)
}

// WriteInstant jumps both current and target to v, bypassing the ease.
// Tagged Instant: the only legitimate caller is the beat dispatcher.
func (p *SmoothedParameter) WriteInstant(v float64) {
	p.current = v
	p.target = v
}

// Attack jumps current to peak and re-aims the ease at baseline, giving an
// instant-attack, eased-release envelope.
func (p *SmoothedParameter) Attack(peak, baseline, now float64) {
	p.current = peak
	p.target = baseline
	p.lastRetarget = now
	p.advanced = false
}

// Current returns the animated value.
func (p *SmoothedParameter) Current() float64 {
	return p.current
}

// Target returns where the ease is headed.
func (p *SmoothedParameter) Target() float64 {
	return p.target
}

// Duration returns the ease duration in seconds.
func (p *SmoothedParameter) Duration() float64 {
	return p.duration
}

// SetDuration changes the ease duration at runtime.
func (p *SmoothedParameter) SetDuration(d float64) {
	if d < 0 {
		d = 0
	}
	p.duration = d
}

func easeInOutCubic(t float64) float64 {
	if t < 0.5 {
		return 2 * t * t
	}
	u := -2*t + 2
	return 1 - u*u/2
}
