package beat

import (
	"math/rand"
	"testing"

	"github.com/soniq-labs/pulse/internal/params"
)

func newTestDispatcher(p Policy) *Dispatcher {
	return New(Config{Policy: p, Rand: rand.New(rand.NewSource(1))})
}

func TestDebounceWindow(t *testing.T) {
	d := newTestDispatcher(PolicyStrobe)
	sm := params.New()

	if !d.Process(0.8, 1.00, 1.00, sm) {
		t.Fatal("first beat above threshold should fire")
	}
	if d.Process(0.8, 1.05, 1.05, sm) {
		t.Fatal("beat 50ms after the last fire must be debounced")
	}
	if !d.Process(0.8, 1.11, 1.11, sm) {
		t.Fatal("beat past the 100ms window should fire again")
	}
}

func TestThresholdIsExclusive(t *testing.T) {
	d := newTestDispatcher(PolicyStrobe)
	sm := params.New()

	if d.Process(0.05, 0, 0, sm) {
		t.Fatal("intensity equal to the threshold must not fire")
	}
	if !d.Process(0.051, 0, 0, sm) {
		t.Fatal("intensity just above the threshold should fire")
	}
}

func TestStrobeWritesDistinctColors(t *testing.T) {
	d := newTestDispatcher(PolicyStrobe)
	sm := params.New()

	if !d.Process(0.9, 0, 0, sm) {
		t.Fatal("strobe did not fire")
	}

	c1 := sm.CurrentColor(params.Color1)
	c2 := sm.CurrentColor(params.Color2)
	c3 := sm.CurrentColor(params.Color3)
	if c1 == c2 || c2 == c3 || c1 == c3 {
		t.Fatalf("strobe colors must be distinct: %+v %+v %+v", c1, c2, c3)
	}

	// Instant writes: current and target agree, no ease in flight.
	p, _ := sm.Color(params.Color1)
	if p.Current() != p.Target() {
		t.Fatalf("strobe write should bypass the ease: current=%+v target=%+v", p.Current(), p.Target())
	}

	fog := sm.CurrentColor(params.FogColor)
	glow := sm.CurrentColor(params.GlowColor)
	if fog.R+fog.G+fog.B >= c1.R+c1.G+c1.B {
		t.Fatalf("fog should be darker than its source: fog=%+v src=%+v", fog, c1)
	}
	if glow.R+glow.G+glow.B <= c3.R+c3.G+c3.B {
		t.Fatalf("glow should be brighter than its source: glow=%+v src=%+v", glow, c3)
	}
}

func TestPunchAttackAndRelease(t *testing.T) {
	d := newTestDispatcher(PolicyPunch)
	sm := params.New()

	p, _ := sm.Scalar(params.TransientEffect)
	baseline := p.Target()

	if !d.Process(0.9, 2.0, 10.0, sm) {
		t.Fatal("punch did not fire")
	}
	if p.Current() != baseline*1.6 {
		t.Fatalf("attack: current=%v want=%v", p.Current(), baseline*1.6)
	}
	if p.Target() != baseline {
		t.Fatalf("release target should stay at baseline, got %v", p.Target())
	}

	// Half a default duration later the release is partway back down.
	p.Advance(p.Target(), 10.0+0.35)
	if c := p.Current(); c >= baseline*1.6 || c <= baseline {
		t.Fatalf("release not easing back: current=%v", c)
	}
	p.Advance(p.Target(), 10.0+0.7*1.5)
	if p.Current() != baseline {
		t.Fatalf("release should settle at baseline, got %v", p.Current())
	}
}

func TestPunchLeavesColorsAlone(t *testing.T) {
	d := newTestDispatcher(PolicyPunch)
	sm := params.New()
	before := sm.CurrentColor(params.Color1)

	d.Process(0.9, 0, 0, sm)
	if sm.CurrentColor(params.Color1) != before {
		t.Fatal("punch policy must not touch the base colors")
	}
}

func TestPunchCameraOptIn(t *testing.T) {
	d := New(Config{Policy: PolicyPunch, PunchCamera: true, Rand: rand.New(rand.NewSource(1))})
	sm := params.New()

	cam, _ := sm.Scalar(params.CameraSpeed)
	base := cam.Target()
	d.Process(0.9, 0, 5.0, sm)
	if cam.Current() != base*1.4 {
		t.Fatalf("camera kick: current=%v want=%v", cam.Current(), base*1.4)
	}
	if cam.Target() != base {
		t.Fatalf("camera should release toward its baseline, got %v", cam.Target())
	}
}

func TestResetClearsDebounce(t *testing.T) {
	d := newTestDispatcher(PolicyStrobe)
	sm := params.New()

	d.Process(0.9, 5.0, 5.0, sm)
	d.Reset()

	// Song time restarts at zero on a new track; the stale lastFire must
	// not block the first beat.
	if !d.Process(0.9, 0.01, 0.01, sm) {
		t.Fatal("beat after reset should fire immediately")
	}
}

func TestParsePolicy(t *testing.T) {
	if ParsePolicy("punch") != PolicyPunch {
		t.Fatal("punch should parse")
	}
	if ParsePolicy("strobe") != PolicyStrobe {
		t.Fatal("strobe should parse")
	}
	if ParsePolicy("whatever") != PolicyStrobe {
		t.Fatal("unknown policy should fall back to strobe")
	}
}
