// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package brightness

import (
	"errors"
	"log"

	"github.com/GermanBionicSystems/brightnessd/abc"
	"github.com/GermanBionicSystems/brightnessd/persist"
	"github.com/GermanBionicSystems/brightnessd/ramp"
	"github.com/GermanBionicSystems/brightnessd/sensor"
)

var errControllerStopped = errors.New("brightness: controller stopped")

// systemSessionID is the distinguished session every Controller owns
// itself, per spec.md §3/§4.4; it is never removed from the session set.
const systemSessionID = 0

// Config configures a new Controller. Display is required; Sensor and
// Persist are optional collaborators matching the "external" roles
// spec.md §1 calls out (device driver and persistence backend).
type Config struct {
	// Display is the physical backlight register. Required.
	Display ramp.Device
	// Sensor, if non-nil, is subscribed to once at Start and feeds the
	// automatic brightness controller whenever AUTO is active. Samples
	// delivered while the Controller is in MANUAL mode are read and
	// dropped, matching spec.md §8 invariant 7.
	Sensor sensor.Topic
	// Persist, if non-nil, is used to restore state at Start and save it
	// on every change.
	Persist *persist.Store
	// DefaultMode is the mode restored when Persist is set but has nothing
	// saved yet; without Persist the Controller always starts in Manual.
	// The zero value (Auto) matches spec.md §6's documented first-boot
	// default.
	DefaultMode Mode
	// RampConfig overrides the ramp package's default rate/tick period.
	RampConfig *ramp.Config
}

// Controller is the singleton session arbiter described in spec.md §4.4.
// All of its state is owned by a single internal loop goroutine; every
// exported method communicates with that goroutine over a channel, so a
// *Controller is safe to share across goroutines.
type Controller struct {
	cmdC  chan command
	stopC chan struct{}
	doneC chan struct{}

	nextSessionID uint64

	// The following fields are touched only by the loop goroutine.
	mode     Mode
	target   int
	rampRate int
	ramp     *ramp.Ramp
	abc      *abc.ABC
	persist  *persist.Store

	display ramp.Device

	sensorTopic   sensor.Topic
	sensorSamples <-chan sensor.Sample

	userLux        float32
	userBrightness int

	sessionCB Observer
	monitors  []Observer
	monitorOf map[Observer]struct{}

	sessions map[uint64]struct{}
}

// Start creates a Controller bound to cfg.Display, restores persisted
// state if cfg.Persist is set (in the manual -> level -> mode -> anchor
// order spec.md §4.4/§9 specifies) and starts its loop goroutine.
func Start(cfg Config) (*Controller, error) {
	if cfg.Display == nil {
		return nil, newError("Start", KindNotAvailable, errors.New("no display device bound"))
	}

	r, err := ramp.New(cfg.Display, cfg.RampConfig)
	if err != nil {
		return nil, newError("Start", KindIOFailure, err)
	}

	c := &Controller{
		cmdC:      make(chan command, 16),
		stopC:     make(chan struct{}),
		doneC:     make(chan struct{}),
		ramp:      r,
		display:   cfg.Display,
		persist:   cfg.Persist,
		mode:      Manual,
		target:    r.Current(),
		rampRate:  ramp.RateOff,
		sessions:  map[uint64]struct{}{systemSessionID: {}},
		monitorOf: make(map[Observer]struct{}),
	}
	c.ramp.SetOnWrite(c.onWrite)

	if cfg.Sensor != nil {
		samples, err := cfg.Sensor.Subscribe()
		if err != nil {
			return nil, newError("Start", KindIOFailure, err)
		}
		c.sensorTopic = cfg.Sensor
		c.sensorSamples = samples
	}

	c.restore(cfg.DefaultMode)

	go c.loop()
	return c, nil
}

// restore implements the manual -> level -> mode -> anchor start-up
// order spec.md §4.4 and §9's Open Questions section both call for. With
// no Persist configured there is nothing to restore: the Controller
// starts in Manual at whatever level the device already holds, and
// defaultMode is not used, rather than forcing spec.md §6's "first boot" defaults onto a device
// that was never meant to be persisted.
func (c *Controller) restore(defaultMode Mode) {
	c.mode = Manual
	c.target = c.ramp.Current()
	c.rampRate = ramp.RateOff

	if c.persist == nil {
		return
	}

	fallback := persist.DefaultState(int32(defaultMode), ramp.LevelMin, ramp.LevelMax)
	state, err := c.persist.RestoreAll(fallback)
	if err != nil {
		log.Printf("brightness: restore failed, using defaults: %v", err)
		state = fallback
	}

	// level, ramp=0
	if err := c.ramp.Set(int(state.Target), ramp.RateOff); err != nil {
		log.Printf("brightness: restore: initial level write failed: %v", err)
	}
	c.target = int(state.Target)
	// mode
	c.userLux = float32(state.UserLux)
	c.userBrightness = int(state.UserTarget)
	if Mode(state.Mode) == Auto {
		if err := c.ensureABC(); err != nil {
			log.Printf("brightness: restore: could not start AUTO: %v", err)
		} else {
			c.mode = Auto
		}
	}
	// anchor: ensureABC above already installs c.userLux/userBrightness
	// whenever c.userLux > 0 (including the first-boot default anchor);
	// nothing further to do here.
}

// send posts cmd onto the loop channel and reports whether the
// Controller was still running to accept it.
func (c *Controller) send(cmd command) bool {
	select {
	case c.cmdC <- cmd:
		return true
	case <-c.stopC:
		return false
	}
}

// recv waits for a reply to a command already accepted by send, but
// gives up if the loop goroutine exits (via Stop) before replying to a
// command still sitting in its buffered channel.
func recv[T any](c *Controller, reply chan T) (T, bool) {
	select {
	case v := <-reply:
		return v, true
	case <-c.doneC:
		var zero T
		return zero, false
	}
}

// CreateSession returns a new Session seeded against the Controller's
// current state, matching spec.md §4.4's create_session.
func (c *Controller) CreateSession() (*Session, error) {
	reply := make(chan *Session, 1)
	if !c.send(createSessionCmd{reply: reply}) {
		return nil, newError("CreateSession", KindNotAvailable, errControllerStopped)
	}
	s, ok := recv(c, reply)
	if !ok {
		return nil, newError("CreateSession", KindNotAvailable, errControllerStopped)
	}
	return s, nil
}

// SystemSession returns the Controller's own distinguished session
// handle, stable for the Controller's lifetime.
func (c *Controller) SystemSession() *Session {
	return &Session{id: systemSessionID, ctrl: c}
}

// CurrentLevel returns the last level actually written to the device
// (not the pending target).
func (c *Controller) CurrentLevel() (int, error) {
	reply := make(chan levelResult, 1)
	if !c.send(currentLevelCmd{reply: reply}) {
		return 0, newError("CurrentLevel", KindNotAvailable, errControllerStopped)
	}
	r, ok := recv(c, reply)
	if !ok {
		return 0, newError("CurrentLevel", KindNotAvailable, errControllerStopped)
	}
	return r.level, r.err
}

// Monitor registers obs to receive every subsequent level-change
// notification. Registration is idempotent by identity (obs must be
// comparable, e.g. a pointer type, not a func value) and the first
// registration of a given observer synchronously receives the current
// level immediately, per spec.md §4.4 and §8 invariant 8.
func (c *Controller) Monitor(obs Observer) error {
	reply := make(chan error, 1)
	if !c.send(monitorCmd{obs: obs, reply: reply}) {
		return newError("Monitor", KindNotAvailable, errControllerStopped)
	}
	err, ok := recv(c, reply)
	if !ok {
		return newError("Monitor", KindNotAvailable, errControllerStopped)
	}
	return err
}

// Unmonitor removes a previously registered observer. Unmonitoring an
// observer that was never registered, or was already removed, is a
// no-op.
func (c *Controller) Unmonitor(obs Observer) {
	reply := make(chan struct{}, 1)
	if c.send(unmonitorCmd{obs: obs, reply: reply}) {
		recv(c, reply)
	}
}

// Stop tears down the ramp timer, the ABC (and any pending interactive
// model), the sensor subscription and the loop goroutine, and closes the
// device if it implements io.Closer.
func (c *Controller) Stop() {
	select {
	case <-c.stopC:
		return
	default:
		close(c.stopC)
	}
	<-c.doneC
}

func (c *Controller) loop() {
	defer close(c.doneC)
	for {
		var abcTimeouts <-chan uint64
		if c.abc != nil {
			abcTimeouts = c.abc.Timeouts()
		}
		select {
		case <-c.stopC:
			c.shutdown()
			return
		case cmd := <-c.cmdC:
			c.dispatch(cmd)
		case gen := <-c.ramp.Ticks():
			if err := c.ramp.HandleTick(gen); err != nil {
				log.Printf("brightness: ramp tick failed: %v", err)
			}
		case gen := <-abcTimeouts:
			if err := c.abc.HandleInteractiveTimeout(gen); err != nil {
				log.Printf("brightness: interactive timeout handling failed: %v", err)
			}
		case s, ok := <-c.sensorSamples:
			if !ok {
				c.sensorSamples = nil
				continue
			}
			c.handleSample(s)
		}
	}
}

func (c *Controller) shutdown() {
	c.ramp.Close()
	if c.abc != nil {
		c.abc.Close()
		c.abc = nil
	}
	if c.sensorTopic != nil {
		if err := c.sensorTopic.Close(); err != nil {
			log.Printf("brightness: sensor close failed: %v", err)
		}
	}
	if closer, ok := c.display.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			log.Printf("brightness: device close failed: %v", err)
		}
	}
}

// handleSample feeds one ambient reading to the ABC when AUTO is active.
// While MANUAL, samples are read off the channel (so the producer never
// blocks) and dropped, matching spec.md §8 invariant 7.
func (c *Controller) handleSample(s sensor.Sample) {
	if c.abc == nil {
		return
	}
	if err := c.abc.Sample(s.Lux); err != nil {
		log.Printf("brightness: abc sample failed: %v", err)
	}
}

func (c *Controller) dispatch(cmd command) {
	switch m := cmd.(type) {
	case createSessionCmd:
		m.reply <- c.createSession()
	case destroySessionCmd:
		if m.id != systemSessionID {
			delete(c.sessions, m.id)
		}
	case setTargetCmd:
		m.reply <- c.checkedOp(m.id, func() error { return c.applyTarget(m.level, m.rate) })
	case getTargetCmd:
		if err := c.checkSession(m.id); err != nil {
			m.reply <- targetResult{err: err}
			break
		}
		m.reply <- targetResult{level: c.target, rate: c.rampRate}
	case setModeCmd:
		m.reply <- c.checkedOp(m.id, func() error { return c.applyMode(m.mode) })
	case getModeCmd:
		if err := c.checkSession(m.id); err != nil {
			m.reply <- modeResult{err: err}
			break
		}
		m.reply <- modeResult{mode: c.mode}
	case setUpdateCBCmd:
		if err := c.checkSession(m.id); err != nil {
			m.reply <- err
			break
		}
		c.sessionCB = m.cb
		m.reply <- nil
	case setUserPointCmd:
		m.reply <- c.checkedOp(m.id, func() error { return c.applyUserPoint(m.lux, m.target) })
	case getUserPointCmd:
		if err := c.checkSession(m.id); err != nil {
			m.reply <- userPointResult{err: err}
			break
		}
		if c.abc == nil {
			m.reply <- userPointResult{err: newError("GetUserPoint", KindNotSupported, nil)}
			break
		}
		lux, target := c.abc.GetUserPoint()
		m.reply <- userPointResult{lux: lux, target: target}
	case currentLevelCmd:
		m.reply <- levelResult{level: c.ramp.Current()}
	case monitorCmd:
		m.reply <- c.monitor(m.obs)
	case unmonitorCmd:
		c.unmonitor(m.obs)
		m.reply <- struct{}{}
	}
}

// createSession returns a fresh handle onto the Controller's singleton
// state. Per spec.md §3/§4.4, a new Session starts seeded from whatever
// the Controller currently has applied; since every operation in this
// model is arbitrated against that singleton state immediately (see
// Session's doc comment), there is nothing further to apply here.
func (c *Controller) createSession() *Session {
	c.nextSessionID++
	id := c.nextSessionID
	c.sessions[id] = struct{}{}
	return &Session{id: id, ctrl: c}
}

func (c *Controller) checkSession(id uint64) error {
	if _, ok := c.sessions[id]; !ok {
		return newError("Session", KindInvalidArgument, errors.New("unknown or destroyed session"))
	}
	return nil
}

func (c *Controller) checkedOp(id uint64, op func() error) error {
	if err := c.checkSession(id); err != nil {
		return err
	}
	return op()
}

// applyMode implements spec.md §4.4 apply() step 1.
func (c *Controller) applyMode(m Mode) error {
	if m != Auto && m != Manual {
		return newError("SetMode", KindInvalidArgument, errors.New("unknown mode"))
	}
	if m == c.mode {
		return nil
	}
	c.mode = m
	if m == Manual {
		if c.abc != nil {
			c.abc.Close()
			c.abc = nil
		}
	} else {
		if err := c.ensureABC(); err != nil {
			c.mode = Manual
			return err
		}
	}
	if c.persist != nil {
		c.persist.SaveMode(int32(m))
	}
	return nil
}

// applyTarget implements spec.md §4.4 apply() step 2, preserving the
// source's early-return on an unchanged (target, ramp) tuple (spec.md §9
// Open Questions).
func (c *Controller) applyTarget(level, rate int) error {
	if level == c.target && rate == c.rampRate {
		return nil
	}
	c.target = level
	c.rampRate = rate

	var err error
	if c.abc != nil {
		err = c.abc.SetTarget(level, rate)
	} else {
		err = c.ramp.Set(level, rate)
	}
	if err != nil {
		return newError("SetTarget", KindIOFailure, err)
	}
	if c.persist != nil {
		c.persist.SaveLevel(int32(ramp.ResolveLevel(level)))
	}
	return nil
}

// applyUserPoint teaches a new anchor; it requires AUTO, per spec.md §7's
// NotSupported kind.
func (c *Controller) applyUserPoint(lux float32, target int) error {
	if c.abc == nil {
		return newError("SetUserPoint", KindNotSupported, errors.New("not in AUTO mode"))
	}
	if err := c.abc.SetUserPoint(lux, target); err != nil {
		return newError("SetUserPoint", KindInvalidInput, err)
	}
	return nil
}

// ensureABC constructs the ABC if absent, driving the Controller's Ramp
// and restoring any previously taught anchor.
func (c *Controller) ensureABC() error {
	if c.abc != nil {
		return nil
	}
	a, err := abc.New(c.ramp, &abc.Config{OnUserPoint: c.onUserPoint})
	if err != nil {
		return newError("SetMode", KindInvalidInput, err)
	}
	if c.userLux > 0 {
		if err := a.SetUserPoint(c.userLux, c.userBrightness); err != nil {
			log.Printf("brightness: restoring user anchor (%v, %v) failed: %v", c.userLux, c.userBrightness, err)
		}
	}
	c.abc = a
	return nil
}

// onUserPoint is the ABC callback that keeps the Controller's cached
// anchor (used to reseed a freshly (re)constructed ABC) and persistence
// in sync with whatever the ABC just taught itself.
func (c *Controller) onUserPoint(lux float32, brightness int) {
	c.userLux = lux
	c.userBrightness = brightness
	if c.persist != nil {
		c.persist.SaveUserPoint(int32(lux), int32(brightness))
	}
}

// onWrite is installed on the Ramp and fans every physical write out to
// the installed session callback and every monitor, in registration
// order, synchronously on the write that caused it (spec.md §5 ordering
// guarantee iii).
func (c *Controller) onWrite(level int) {
	if c.sessionCB != nil {
		c.sessionCB.OnChanged(level)
	}
	for _, obs := range c.monitors {
		obs.OnChanged(level)
	}
}

// monitor implements spec.md §4.4's idempotent, identity-keyed
// registration with an immediate synthetic notification on first
// registration (§8 invariant 8).
func (c *Controller) monitor(obs Observer) error {
	if obs == nil {
		return newError("Monitor", KindInvalidArgument, errors.New("nil observer"))
	}
	if _, ok := c.monitorOf[obs]; ok {
		return nil
	}
	c.monitorOf[obs] = struct{}{}
	c.monitors = append(c.monitors, obs)
	obs.OnChanged(c.ramp.Current())
	return nil
}

func (c *Controller) unmonitor(obs Observer) {
	if _, ok := c.monitorOf[obs]; !ok {
		return
	}
	delete(c.monitorOf, obs)
	for i, o := range c.monitors {
		if o == obs {
			c.monitors = append(c.monitors[:i], c.monitors[i+1:]...)
			break
		}
	}
}

