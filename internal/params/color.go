package params

// RGB is a color triple with each channel in [0,1].
type RGB struct {
	R float64 `json:"r"`
	G float64 `json:"g"`
	B float64 `json:"b"`
}

// Scale multiplies every channel by f and clamps to [0,1].
func (c RGB) Scale(f float64) RGB {
	return RGB{clampChannel(c.R * f), clampChannel(c.G * f), clampChannel(c.B * f)}
}

func clampChannel(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// ColorParameter animates an RGB triple with each channel smoothed
// independently.
type ColorParameter struct {
	r, g, b SmoothedParameter
}

// NewColor returns a color parameter resting at initial.
func NewColor(initial RGB, duration float64) *ColorParameter {
	return &ColorParameter{
		r: *NewParameter(initial.R, duration),
		g: *NewParameter(initial.G, duration),
		b: *NewParameter(initial.B, duration),
	}
}

// Advance moves each channel toward the target color at time now.
func (c *ColorParameter) Advance(target RGB, now float64) {
	c.r.Advance(target.R, now)
	c.g.Advance(target.G, now)
	c.b.Advance(target.B, now)
}

// WriteInstant jumps the color, bypassing the ease. Beat effects only.
func (c *ColorParameter) WriteInstant(v RGB) {
	c.r.WriteInstant(v.R)
	c.g.WriteInstant(v.G)
	c.b.WriteInstant(v.B)
}

// Current returns the animated color.
func (c *ColorParameter) Current() RGB {
	return RGB{c.r.Current(), c.g.Current(), c.b.Current()}
}

// Target returns where the ease is headed.
func (c *ColorParameter) Target() RGB {
	return RGB{c.r.Target(), c.g.Target(), c.b.Target()}
}

// SetDuration changes the ease duration for all three channels.
func (c *ColorParameter) SetDuration(d float64) {
	c.r.SetDuration(d)
	c.g.SetDuration(d)
	c.b.SetDuration(d)
}
