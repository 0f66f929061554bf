// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ramp

import (
	"log"
	"math"
	"time"
)

const (
	// LevelMin and LevelMax bound the device's physical backlight range.
	LevelMin = 20
	LevelMax = 250

	// LevelOff is a sentinel target requesting the display be written to
	// 0, bypassing LevelMin.
	LevelOff = -1
	// LevelFull is a sentinel target requesting the display be written to
	// 255, bypassing LevelMax.
	LevelFull = -2
)

const (
	// RateOff requests an immediate write with no ramp.
	RateOff = 0
	// RateDefault requests the configured default ramp rate.
	RateDefault = -1
)

// DefaultRate is the ramp rate, in levels per second, used when a caller
// requests RateDefault.
const DefaultRate = 50

// TickPeriod is how often a ramp in progress advances.
const TickPeriod = 50 * time.Millisecond

// Device is the physical backlight register. Implementations write raw
// integers in [0, 255]; Ramp is responsible for resolving sentinels and
// clamping before it ever calls WritePower.
type Device interface {
	ReadPower() (int, error)
	WritePower(level int) error
}

// Ramp writes a single Device's power register, optionally smoothing the
// transition between the current and a requested target level over a
// sequence of periodic ticks.
//
// Ramp is not safe for concurrent use; see the package doc.
type Ramp struct {
	dev         Device
	defaultRate int
	period      time.Duration
	onWrite     func(level int)

	current     int
	target      int
	stepPerTick float64
	steps       int
	start       int

	stop  chan struct{}
	tickC chan uint64
	gen   uint64
}

// Config holds optional Ramp construction parameters. A nil Config (or a
// zero-valued field within one) uses the package defaults, matching the
// zero-value *Opts convention the rest of this driver collection uses.
type Config struct {
	// DefaultRate is the ramp rate substituted for RateDefault. Zero uses
	// DefaultRate.
	DefaultRate int
	// TickPeriod is how often an in-progress ramp advances. Zero uses
	// TickPeriod.
	TickPeriod time.Duration
}

// New returns a Ramp driving dev, seeded from the device's currently
// written level.
func New(dev Device, cfg *Config) (*Ramp, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	level, err := dev.ReadPower()
	if err != nil {
		return nil, err
	}
	defaultRate := cfg.DefaultRate
	if defaultRate == 0 {
		defaultRate = DefaultRate
	}
	period := cfg.TickPeriod
	if period == 0 {
		period = TickPeriod
	}
	return &Ramp{
		dev:         dev,
		defaultRate: defaultRate,
		period:      period,
		current:     level,
		target:      level,
		tickC:       make(chan uint64, 1),
	}, nil
}

// SetOnWrite installs the callback invoked synchronously after every
// successful, non-no-op device write.
func (r *Ramp) SetOnWrite(cb func(level int)) {
	r.onWrite = cb
}

// Current returns the last level actually written to the device.
func (r *Ramp) Current() int {
	return r.current
}

// Target returns the most recently requested (pre-ramp) endpoint.
func (r *Ramp) Target() int {
	return r.target
}

// Ticks delivers a generation token each time an in-progress ramp has a
// pending step to apply. Callers must invoke HandleTick with the
// received token on the owning goroutine.
func (r *Ramp) Ticks() <-chan uint64 {
	return r.tickC
}

// ResolveLevel maps a raw requested target (possibly LevelOff or
// LevelFull) onto the level that will actually be written: LevelOff maps
// to 0 unclamped, LevelFull maps to 255 unclamped, anything else clamps
// to [LevelMin, LevelMax].
func ResolveLevel(target int) int {
	switch target {
	case LevelOff:
		return 0
	case LevelFull:
		return 255
	}
	if target < LevelMin {
		return LevelMin
	}
	if target > LevelMax {
		return LevelMax
	}
	return target
}

func resolveRate(rate, defaultRate int) int {
	if rate == RateDefault {
		return defaultRate
	}
	return rate
}

// Set requests a new target level, ramping to it at rate levels/second
// unless rate resolves to 0 (immediate write). It cancels any ramp
// already in progress; the canceled ramp's target write never happens
// unless the new target happens to equal it exactly.
func (r *Ramp) Set(target, rate int) error {
	r.stopTicking()

	resolvedRate := resolveRate(rate, r.defaultRate)
	level := ResolveLevel(target)
	r.target = level

	if resolvedRate == 0 {
		return r.write(level)
	}

	r.stepPerTick = float64(resolvedRate) * r.period.Seconds()
	if level < r.current {
		r.stepPerTick = -r.stepPerTick
	}
	r.steps = 0
	r.start = r.current
	r.startTicking()
	return nil
}

// HandleTick applies one ramp step for the given generation token,
// ignoring stale tokens from a ramp that Set has since superseded. It
// must be called on the goroutine that owns this Ramp.
func (r *Ramp) HandleTick(gen uint64) error {
	if gen != r.gen {
		return nil
	}
	r.steps++
	candidate := r.start + int(math.Round(float64(r.steps)*r.stepPerTick))

	done := (r.stepPerTick > 0 && candidate >= r.target) ||
		(r.stepPerTick < 0 && candidate <= r.target)
	if done {
		candidate = r.target
		r.stopTicking()
	}
	return r.write(candidate)
}

func (r *Ramp) write(level int) error {
	if level == r.current {
		return nil
	}
	if err := r.dev.WritePower(level); err != nil {
		r.stopTicking()
		log.Printf("ramp: write %d failed: %v", level, err)
		return err
	}
	r.current = level
	if r.onWrite != nil {
		r.onWrite(level)
	}
	return nil
}

func (r *Ramp) startTicking() {
	r.gen++
	gen := r.gen
	stop := make(chan struct{})
	r.stop = stop
	period := r.period
	tickC := r.tickC
	go func() {
		t := time.NewTicker(period)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				select {
				case tickC <- gen:
				case <-stop:
					return
				}
			case <-stop:
				return
			}
		}
	}()
}

func (r *Ramp) stopTicking() {
	if r.stop != nil {
		close(r.stop)
		r.stop = nil
	}
}

// Close stops any in-progress ramp. It does not close the underlying
// Device.
func (r *Ramp) Close() {
	r.stopTicking()
}
