package beat

import (
	"math/rand"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/soniq-labs/pulse/internal/params"
)

// Neon strobe hues, degrees. Full saturation and value; the spread keeps
// any three draws visually distinct.
var neonHues = []float64{320, 280, 200, 160, 90, 55, 10}

var neonPalette = buildNeon()

func buildNeon() []params.RGB {
	out := make([]params.RGB, len(neonHues))
	for i, h := range neonHues {
		c := colorful.Hsv(h, 1, 1)
		out[i] = params.RGB{R: c.R, G: c.G, B: c.B}
	}
	return out
}

// drawNeon picks n palette entries without replacement.
func drawNeon(rng *rand.Rand, n int) []params.RGB {
	idx := rng.Perm(len(neonPalette))
	if n > len(idx) {
		n = len(idx)
	}
	out := make([]params.RGB, n)
	for i := 0; i < n; i++ {
		out[i] = neonPalette[idx[i]]
	}
	return out
}

// fogFrom darkens a base color toward black for the fog triple.
func fogFrom(c params.RGB) params.RGB {
	base := colorful.Color{R: c.R, G: c.G, B: c.B}
	dark := base.BlendRgb(colorful.Color{}, 0.75)
	return params.RGB{R: dark.R, G: dark.G, B: dark.B}
}

// glowFrom lightens a base color toward white for the glow triple.
func glowFrom(c params.RGB) params.RGB {
	base := colorful.Color{R: c.R, G: c.G, B: c.B}
	light := base.BlendRgb(colorful.Color{R: 1, G: 1, B: 1}, 0.4)
	return params.RGB{R: light.R, G: light.G, B: light.B}
}
