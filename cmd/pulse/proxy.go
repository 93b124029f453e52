package main

import (
	"github.com/soniq-labs/pulse/internal/beat"
	"github.com/soniq-labs/pulse/internal/engine"
	"github.com/soniq-labs/pulse/internal/params"
)

// sessionProxy serializes control-surface calls from HTTP goroutines onto
// the tick loop. The session itself is single-threaded; every mutation is
// queued here and drained at the top of each tick.
type sessionProxy struct {
	session *engine.Session
	calls   chan func() error
}

func newSessionProxy(session *engine.Session) *sessionProxy {
	return &sessionProxy{
		session: session,
		calls:   make(chan func() error, 64),
	}
}

// drain runs queued control calls. Tick loop only.
func (p *sessionProxy) drain() {
	for {
		select {
		case fn := <-p.calls:
			fn()
		default:
			return
		}
	}
}

// do queues a mutation and waits for the tick loop to run it.
func (p *sessionProxy) do(fn func() error) error {
	done := make(chan error, 1)
	p.calls <- func() error {
		err := fn()
		done <- err
		return err
	}
	return <-done
}

// Reads go through the same queue as mutations: the snapshot is taken on
// the tick loop, never concurrently with Tick.
func (p *sessionProxy) Status() engine.Status {
	var st engine.Status
	p.do(func() error {
		st = p.session.Status()
		return nil
	})
	return st
}

func (p *sessionProxy) Uniforms() engine.Uniforms {
	var u engine.Uniforms
	p.do(func() error {
		u = p.session.Uniforms()
		return nil
	})
	return u
}

func (p *sessionProxy) SetSensitivity(x float64) {
	p.do(func() error { p.session.SetSensitivity(x); return nil })
}

func (p *sessionProxy) SetMode(m engine.Mode) {
	p.do(func() error { p.session.SetMode(m); return nil })
}

func (p *sessionProxy) SetBeatPolicy(pol beat.Policy) {
	p.do(func() error { p.session.SetBeatPolicy(pol); return nil })
}

func (p *sessionProxy) SetPlaying(playing bool) {
	p.do(func() error { p.session.SetPlaying(playing); return nil })
}

func (p *sessionProxy) SetUseColorControls(on bool) {
	p.do(func() error { p.session.SetUseColorControls(on); return nil })
}

func (p *sessionProxy) SetParameterTarget(name string, value float64) error {
	return p.do(func() error { return p.session.SetParameterTarget(name, value) })
}

func (p *sessionProxy) SetColorTarget(name string, value params.RGB) error {
	return p.do(func() error { return p.session.SetColorTarget(name, value) })
}

func (p *sessionProxy) ClearParameterTarget(name string) {
	p.do(func() error { p.session.ClearParameterTarget(name); return nil })
}

func (p *sessionProxy) SetParameterDuration(name string, seconds float64) error {
	return p.do(func() error { return p.session.SetParameterDuration(name, seconds) })
}

func (p *sessionProxy) ResetForNewTrack() {
	p.do(func() error { p.session.ResetForNewTrack(); return nil })
}
