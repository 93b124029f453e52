package params

import "fmt"

// Canonical parameter names, matching the outgoing uniform record.
const (
	Energy                = "energy"
	LowEnergy             = "lowEnergy"
	HighEnergy            = "highEnergy"
	Transients            = "transients"
	CameraSpeed           = "cameraSpeed"
	BreathingRate         = "breathingRate"
	BreathingAmount       = "breathingAmount"
	TransientEffect       = "transientEffect"
	ColorIntensity        = "colorIntensity"
	EnergyCameraEffect    = "energyCameraEffect"
	EnergyColorEffect     = "energyColorEffect"
	TransientCameraEffect = "transientCameraEffect"
	TransientColorEffect  = "transientColorEffect"

	Color1    = "color1"
	Color2    = "color2"
	Color3    = "color3"
	FogColor  = "fogColor"
	GlowColor = "glowColor"
)

// Default ease durations in seconds.
const (
	DefaultDuration        = 0.700
	CameraSpeedDuration    = 0.300
	ColorDuration          = 1.000
	DefaultBaseCameraSpeed = 1.0
)

type scalarDef struct {
	name     string
	initial  float64
	duration float64
}

var scalarDefs = []scalarDef{
	{Energy, 0.5, DefaultDuration},
	{LowEnergy, 0.5, DefaultDuration},
	{HighEnergy, 0.5, DefaultDuration},
	{Transients, 0, DefaultDuration},
	{CameraSpeed, DefaultBaseCameraSpeed, CameraSpeedDuration},
	{BreathingRate, 0.5, DefaultDuration},
	{BreathingAmount, 0.3, DefaultDuration},
	{TransientEffect, 1.0, DefaultDuration},
	{ColorIntensity, 1.0, DefaultDuration},
	{EnergyCameraEffect, 0.5, DefaultDuration},
	{EnergyColorEffect, 0.5, DefaultDuration},
	{TransientCameraEffect, 0.5, DefaultDuration},
	{TransientColorEffect, 0.5, DefaultDuration},
}

type colorDef struct {
	name    string
	initial RGB
}

var colorDefs = []colorDef{
	{Color1, RGB{0.9, 0.2, 0.5}},
	{Color2, RGB{0.2, 0.8, 0.9}},
	{Color3, RGB{0.6, 0.3, 0.9}},
	{FogColor, RGB{0.1, 0.1, 0.15}},
	{GlowColor, RGB{0.9, 0.9, 0.8}},
}

// Smoother is the registry of every animated parameter: named scalars plus
// the five color triples. Construct with New and pass by reference.
type Smoother struct {
	scalars map[string]*SmoothedParameter
	colors  map[string]*ColorParameter
}

// New returns a Smoother populated with the full parameter set at its
// baseline values and default durations.
func New() *Smoother {
	s := &Smoother{
		scalars: make(map[string]*SmoothedParameter, len(scalarDefs)),
		colors:  make(map[string]*ColorParameter, len(colorDefs)),
	}
	for _, d := range scalarDefs {
		s.scalars[d.name] = NewParameter(d.initial, d.duration)
	}
	for _, d := range colorDefs {
		s.colors[d.name] = NewColor(d.initial, ColorDuration)
	}
	return s
}

// Scalar returns the named scalar parameter.
func (s *Smoother) Scalar(name string) (*SmoothedParameter, bool) {
	p, ok := s.scalars[name]
	return p, ok
}

// Color returns the named color parameter.
func (s *Smoother) Color(name string) (*ColorParameter, bool) {
	c, ok := s.colors[name]
	return c, ok
}

// Advance eases the named scalar toward target at time now.
func (s *Smoother) Advance(name string, target, now float64) error {
	p, ok := s.scalars[name]
	if !ok {
		return fmt.Errorf("unknown scalar parameter %q", name)
	}
	p.Advance(target, now)
	return nil
}

// AdvanceColor eases the named color toward target at time now.
func (s *Smoother) AdvanceColor(name string, target RGB, now float64) error {
	c, ok := s.colors[name]
	if !ok {
		return fmt.Errorf("unknown color parameter %q", name)
	}
	c.Advance(target, now)
	return nil
}

// SetDuration changes the ease duration of a scalar or color parameter.
func (s *Smoother) SetDuration(name string, d float64) error {
	if p, ok := s.scalars[name]; ok {
		p.SetDuration(d)
		return nil
	}
	if c, ok := s.colors[name]; ok {
		c.SetDuration(d)
		return nil
	}
	return fmt.Errorf("unknown parameter %q", name)
}

// Current returns the animated value of the named scalar, 0 if unknown.
func (s *Smoother) Current(name string) float64 {
	if p, ok := s.scalars[name]; ok {
		return p.Current()
	}
	return 0
}

// CurrentColor returns the animated value of the named color.
func (s *Smoother) CurrentColor(name string) RGB {
	if c, ok := s.colors[name]; ok {
		return c.Current()
	}
	return RGB{}
}

// ScalarNames returns every registered scalar name.
func (s *Smoother) ScalarNames() []string {
	names := make([]string, 0, len(s.scalars))
	for _, d := range scalarDefs {
		names = append(names, d.name)
	}
	return names
}

// ColorNames returns every registered color name.
func (s *Smoother) ColorNames() []string {
	names := make([]string, 0, len(s.colors))
	for _, d := range colorDefs {
		names = append(names, d.name)
	}
	return names
}
