package engine

import (
	"math"

	"github.com/soniq-labs/pulse/internal/params"
)

// Fixed gain applied on top of colorIntensity when composing the base
// colors. Channels are clamped back to [0,1] after scaling.
const colorGain = 1.2

// Uniforms is the flat record handed to the renderer once per tick.
// Scalars are in [0,1] unless noted; cameraSpeed stays at or above the
// configured base speed while audio is playing.
type Uniforms struct {
	Energy                float64 `json:"energy"`
	LowEnergy             float64 `json:"lowEnergy"`
	HighEnergy            float64 `json:"highEnergy"`
	Transients            float64 `json:"transients"`
	CameraSpeed           float64 `json:"cameraSpeed"`
	BreathingRate         float64 `json:"breathingRate"`
	BreathingAmount       float64 `json:"breathingAmount"`
	TransientEffect       float64 `json:"transientEffect"`
	ColorIntensity        float64 `json:"colorIntensity"`
	EnergyCameraEffect    float64 `json:"energyCameraEffect"`
	EnergyColorEffect     float64 `json:"energyColorEffect"`
	TransientCameraEffect float64 `json:"transientCameraEffect"`
	TransientColorEffect  float64 `json:"transientColorEffect"`

	UseColorControls bool `json:"useColorControls"`

	Color1    params.RGB `json:"color1"`
	Color2    params.RGB `json:"color2"`
	Color3    params.RGB `json:"color3"`
	FogColor  params.RGB `json:"fogColor"`
	GlowColor params.RGB `json:"glowColor"`
}

// compose is a pure read of the smoother's current state plus derived
// scaling. It performs no mutation of its own.
func (s *Session) compose() Uniforms {
	sm := s.smoother
	intensity := sm.Current(params.ColorIntensity)

	u := Uniforms{
		Energy:                sm.Current(params.Energy),
		LowEnergy:             sm.Current(params.LowEnergy),
		HighEnergy:            sm.Current(params.HighEnergy),
		Transients:            sm.Current(params.Transients),
		CameraSpeed:           sm.Current(params.CameraSpeed),
		BreathingRate:         sm.Current(params.BreathingRate),
		BreathingAmount:       sm.Current(params.BreathingAmount),
		TransientEffect:       sm.Current(params.TransientEffect),
		ColorIntensity:        intensity,
		EnergyCameraEffect:    sm.Current(params.EnergyCameraEffect),
		EnergyColorEffect:     sm.Current(params.EnergyColorEffect),
		TransientCameraEffect: sm.Current(params.TransientCameraEffect),
		TransientColorEffect:  sm.Current(params.TransientColorEffect),

		UseColorControls: s.useColorControls,

		Color1:    sm.CurrentColor(params.Color1).Scale(intensity * colorGain),
		Color2:    sm.CurrentColor(params.Color2).Scale(intensity * colorGain),
		Color3:    sm.CurrentColor(params.Color3).Scale(intensity * colorGain),
		FogColor:  sm.CurrentColor(params.FogColor),
		GlowColor: sm.CurrentColor(params.GlowColor),
	}

	// The renderer cannot tolerate non-finite input: coerce any bad field
	// to its last-known-good value.
	u = s.sanitize(u)
	s.lastGood = u
	s.haveGood = true
	return u
}

func (s *Session) sanitize(u Uniforms) Uniforms {
	fb := s.lastGood
	if !s.haveGood {
		fb = Uniforms{CameraSpeed: s.baseCameraSpeed, ColorIntensity: 1}
	}

	u.Energy = fixFloat(u.Energy, fb.Energy)
	u.LowEnergy = fixFloat(u.LowEnergy, fb.LowEnergy)
	u.HighEnergy = fixFloat(u.HighEnergy, fb.HighEnergy)
	u.Transients = fixFloat(u.Transients, fb.Transients)
	u.CameraSpeed = fixFloat(u.CameraSpeed, fb.CameraSpeed)
	u.BreathingRate = fixFloat(u.BreathingRate, fb.BreathingRate)
	u.BreathingAmount = fixFloat(u.BreathingAmount, fb.BreathingAmount)
	u.TransientEffect = fixFloat(u.TransientEffect, fb.TransientEffect)
	u.ColorIntensity = fixFloat(u.ColorIntensity, fb.ColorIntensity)
	u.EnergyCameraEffect = fixFloat(u.EnergyCameraEffect, fb.EnergyCameraEffect)
	u.EnergyColorEffect = fixFloat(u.EnergyColorEffect, fb.EnergyColorEffect)
	u.TransientCameraEffect = fixFloat(u.TransientCameraEffect, fb.TransientCameraEffect)
	u.TransientColorEffect = fixFloat(u.TransientColorEffect, fb.TransientColorEffect)

	u.Color1 = fixRGB(u.Color1, fb.Color1)
	u.Color2 = fixRGB(u.Color2, fb.Color2)
	u.Color3 = fixRGB(u.Color3, fb.Color3)
	u.FogColor = fixRGB(u.FogColor, fb.FogColor)
	u.GlowColor = fixRGB(u.GlowColor, fb.GlowColor)
	return u
}

func fixFloat(v, fallback float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fallback
	}
	return v
}

func fixRGB(c, fallback params.RGB) params.RGB {
	c.R = fixFloat(c.R, fallback.R)
	c.G = fixFloat(c.G, fallback.G)
	c.B = fixFloat(c.B, fallback.B)
	return c
}
