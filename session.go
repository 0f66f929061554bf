// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package brightness

// Session is a short-lived handle a client uses to issue commands to a
// Controller. Per spec.md's data model a Session is conceptually a
// client-owned configuration value; in this single-process Go loop model
// each Session operation is arbitrated directly against the Controller's
// singleton state the moment it's issued (matching the one-message-per-
// operation framing of the RPC surface in spec.md §6), rather than
// accumulating a pending snapshot that's submitted later.
//
// A Session is safe to use from any goroutine; its methods hop onto the
// Controller's loop goroutine via a channel send.
type Session struct {
	id   uint64
	ctrl *Controller
}

// ID identifies this Session for diagnostic purposes; it has no meaning
// across process restarts.
func (s *Session) ID() uint64 {
	return s.id
}

// SetTarget requests a new target level, ramping to it at rate
// levels/second (RampOff for an immediate write, RampDefault for the
// configured default). If the Controller is in AUTO mode, the request
// first suspends the automatic controller for an interactive window
// (see spec.md §4.3) before being applied.
func (s *Session) SetTarget(level, rate int) error {
	reply := make(chan error, 1)
	if !s.ctrl.send(setTargetCmd{id: s.id, level: level, rate: rate, reply: reply}) {
		return newError("SetTarget", KindNotAvailable, errControllerStopped)
	}
	err, ok := recv(s.ctrl, reply)
	if !ok {
		return newError("SetTarget", KindNotAvailable, errControllerStopped)
	}
	return err
}

// GetTarget returns the most recently requested (pre-ramp) level and
// rate.
func (s *Session) GetTarget() (level, rate int, err error) {
	reply := make(chan targetResult, 1)
	if !s.ctrl.send(getTargetCmd{id: s.id, reply: reply}) {
		return 0, 0, newError("GetTarget", KindNotAvailable, errControllerStopped)
	}
	r, ok := recv(s.ctrl, reply)
	if !ok {
		return 0, 0, newError("GetTarget", KindNotAvailable, errControllerStopped)
	}
	return r.level, r.rate, r.err
}

// SetMode switches this Session's Controller between AUTO and MANUAL.
func (s *Session) SetMode(m Mode) error {
	reply := make(chan error, 1)
	if !s.ctrl.send(setModeCmd{id: s.id, mode: m, reply: reply}) {
		return newError("SetMode", KindNotAvailable, errControllerStopped)
	}
	err, ok := recv(s.ctrl, reply)
	if !ok {
		return newError("SetMode", KindNotAvailable, errControllerStopped)
	}
	return err
}

// GetMode returns the Controller's current mode.
func (s *Session) GetMode() (Mode, error) {
	reply := make(chan modeResult, 1)
	if !s.ctrl.send(getModeCmd{id: s.id, reply: reply}) {
		return 0, newError("GetMode", KindNotAvailable, errControllerStopped)
	}
	r, ok := recv(s.ctrl, reply)
	if !ok {
		return 0, newError("GetMode", KindNotAvailable, errControllerStopped)
	}
	return r.mode, r.err
}

// SetUpdateCB installs cb as the Controller's session-level notification
// sink, invoked on every physical write alongside any Monitor observers.
// Matching the source this redesign preserves (see spec.md §9 Open
// Questions), the most recent SetUpdateCB call from any Session wins
// globally: installing one replaces whatever the previous caller
// installed rather than coexisting with it.
func (s *Session) SetUpdateCB(cb Observer) error {
	reply := make(chan error, 1)
	if !s.ctrl.send(setUpdateCBCmd{id: s.id, cb: cb, reply: reply}) {
		return newError("SetUpdateCB", KindNotAvailable, errControllerStopped)
	}
	err, ok := recv(s.ctrl, reply)
	if !ok {
		return newError("SetUpdateCB", KindNotAvailable, errControllerStopped)
	}
	return err
}

// SetUserPoint teaches a new (lux, level) anchor for the automatic
// brightness curve. It fails with KindNotSupported unless the Controller
// is currently in AUTO mode.
func (s *Session) SetUserPoint(lux float32, target int) error {
	reply := make(chan error, 1)
	if !s.ctrl.send(setUserPointCmd{id: s.id, lux: lux, target: target, reply: reply}) {
		return newError("SetUserPoint", KindNotAvailable, errControllerStopped)
	}
	err, ok := recv(s.ctrl, reply)
	if !ok {
		return newError("SetUserPoint", KindNotAvailable, errControllerStopped)
	}
	return err
}

// GetUserPoint returns the currently taught anchor. It fails with
// KindNotSupported unless the Controller is currently in AUTO mode.
func (s *Session) GetUserPoint() (lux float32, target int, err error) {
	reply := make(chan userPointResult, 1)
	if !s.ctrl.send(getUserPointCmd{id: s.id, reply: reply}) {
		return 0, 0, newError("GetUserPoint", KindNotAvailable, errControllerStopped)
	}
	r, ok := recv(s.ctrl, reply)
	if !ok {
		return 0, 0, newError("GetUserPoint", KindNotAvailable, errControllerStopped)
	}
	return r.lux, r.target, r.err
}

// Destroy releases this Session. Per spec.md §3 it does not revert any
// state the Session last applied; the next operation from any Session
// defines the Controller's state going forward.
func (s *Session) Destroy() {
	s.ctrl.send(destroySessionCmd{id: s.id})
}

// TurnOff is the spec.md §6 display_turn_off convenience: equivalent to
// SetMode(Manual) followed by SetTarget(LevelOff, RampOff).
func (s *Session) TurnOff() error {
	if err := s.SetMode(Manual); err != nil {
		return err
	}
	return s.SetTarget(LevelOff, RampOff)
}

// FullPower is the spec.md §6 display_full_power convenience: equivalent
// to SetTarget(LevelFull, RampOff).
func (s *Session) FullPower() error {
	return s.SetTarget(LevelFull, RampOff)
}
