// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"fmt"
	"io"
	"time"

	"github.com/GermanBionicSystems/brightnessd"
	"github.com/GermanBionicSystems/brightnessd/internal/fbdev"
	"github.com/GermanBionicSystems/brightnessd/ramp"
	"github.com/GermanBionicSystems/brightnessd/sensor"
)

// scenario is one scripted check from the original test harness
// (a ramp reaching its target, the turn-off sentinel, auto mode tracking
// ambient light, interactive override, curve reshaping), reimplemented as a Go function against
// fbdev.FakeDevice and sensor.FakeLux instead of the original's
// standalone test binary.
type scenario struct {
	name string
	run  func() error
}

var scenarios = []scenario{
	{"ramp reaches the exact requested target", scenarioRampReachesTarget},
	{"turn_off writes the off sentinel", scenarioTurnOff},
	{"auto mode tracks ambient light", scenarioAutoTracksLux},
	{"manual set_target overrides auto interactively", scenarioInteractiveOverride},
	{"set_user_point reshapes the curve", scenarioUserPointReshape},
}

// runTest runs every scenario, reporting PASS/FAIL per scenario to w and
// returning a non-nil error if any scenario failed, matching spec.md §6's
// "exit code 0 on success, non-zero on any assertion failure."
func runTest(w io.Writer) error {
	failures := 0
	for _, sc := range scenarios {
		if err := sc.run(); err != nil {
			fmt.Fprintf(w, "FAIL %s: %v\n", sc.name, err)
			failures++
			continue
		}
		fmt.Fprintf(w, "PASS %s\n", sc.name)
	}
	if failures > 0 {
		return fmt.Errorf("test: %d/%d scenarios failed", failures, len(scenarios))
	}
	return nil
}

func scenarioRampReachesTarget() error {
	dev := fbdev.NewFakeDevice(20)
	ctrl, err := brightness.Start(brightness.Config{
		Display:    dev,
		RampConfig: &ramp.Config{TickPeriod: 2 * time.Millisecond},
	})
	if err != nil {
		return err
	}
	defer ctrl.Stop()

	if err := ctrl.SystemSession().SetTarget(200, 10000); err != nil {
		return err
	}
	return waitUntil(time.Second, func() (bool, int) {
		level, _ := dev.ReadPower()
		return level == 200, level
	}, "never settled at 200")
}

func scenarioTurnOff() error {
	dev := fbdev.NewFakeDevice(150)
	ctrl, err := brightness.Start(brightness.Config{Display: dev})
	if err != nil {
		return err
	}
	defer ctrl.Stop()

	if err := ctrl.SystemSession().TurnOff(); err != nil {
		return err
	}
	level, _ := dev.ReadPower()
	if level != 0 {
		return fmt.Errorf("level = %d, want 0", level)
	}
	return nil
}

func scenarioAutoTracksLux() error {
	dev := fbdev.NewFakeDevice(50)
	fake := sensor.NewFakeLux(constantLux(3000, 20), time.Millisecond)
	ctrl, err := brightness.Start(brightness.Config{
		Display:    dev,
		Sensor:     fake,
		RampConfig: &ramp.Config{TickPeriod: 2 * time.Millisecond, DefaultRate: 100000},
	})
	if err != nil {
		return err
	}
	defer ctrl.Stop()

	if err := ctrl.SystemSession().SetMode(brightness.Auto); err != nil {
		return err
	}
	return waitUntil(time.Second, func() (bool, int) {
		level, _ := dev.ReadPower()
		return level >= 200, level
	}, "auto mode never brightened past 200")
}

func scenarioInteractiveOverride() error {
	dev := fbdev.NewFakeDevice(50)
	fake := sensor.NewFakeLux(constantLux(3000, 50), time.Millisecond)
	ctrl, err := brightness.Start(brightness.Config{
		Display:    dev,
		Sensor:     fake,
		RampConfig: &ramp.Config{TickPeriod: 2 * time.Millisecond, DefaultRate: 100000},
	})
	if err != nil {
		return err
	}
	defer ctrl.Stop()

	sess := ctrl.SystemSession()
	if err := sess.SetMode(brightness.Auto); err != nil {
		return err
	}
	time.Sleep(20 * time.Millisecond) // let auto settle near its own target first

	if err := sess.SetTarget(30, brightness.RampOff); err != nil {
		return err
	}
	if level, _ := dev.ReadPower(); level != 30 {
		return fmt.Errorf("level right after manual override = %d, want 30", level)
	}

	// The override should hold through further lux samples rather than
	// being immediately clobbered by the next automatic commit.
	time.Sleep(5 * time.Millisecond)
	if level, _ := dev.ReadPower(); level != 30 {
		return fmt.Errorf("override did not hold, level = %d", level)
	}
	return nil
}

func scenarioUserPointReshape() error {
	dev := fbdev.NewFakeDevice(50)
	fake := sensor.NewFakeLux(constantLux(500, 40), time.Millisecond)
	ctrl, err := brightness.Start(brightness.Config{
		Display:    dev,
		Sensor:     fake,
		RampConfig: &ramp.Config{TickPeriod: 2 * time.Millisecond, DefaultRate: 100000},
	})
	if err != nil {
		return err
	}
	defer ctrl.Stop()

	sess := ctrl.SystemSession()
	if err := sess.SetMode(brightness.Auto); err != nil {
		return err
	}
	if err := sess.SetUserPoint(500, 120); err != nil {
		return err
	}
	lux, target, err := sess.GetUserPoint()
	if err != nil {
		return err
	}
	if lux != 500 || target != 120 {
		return fmt.Errorf("taught anchor = (%v, %v), want (500, 120)", lux, target)
	}

	// 500 is also a default-curve knot; the reshaped curve must actually
	// pass through the anchor there once the steady lux samples commit,
	// not merely record the anchor (GetUserPoint returns the taught
	// point regardless of whether the curve rebuild underneath it
	// succeeded).
	return waitUntil(time.Second, func() (bool, int) {
		level, _ := dev.ReadPower()
		return level == 120, level
	}, "curve reshape around (500, 120) not honored")
}

// waitUntil polls cond every millisecond until it reports done, or fails
// with msg (plus the last observed value) once d elapses.
func waitUntil(d time.Duration, cond func() (done bool, last int), msg string) error {
	deadline := time.Now().Add(d)
	for {
		if done, _ := cond(); done {
			return nil
		}
		if time.Now().After(deadline) {
			_, last := cond()
			return fmt.Errorf("%s (stuck at %d)", msg, last)
		}
		time.Sleep(time.Millisecond)
	}
}

func constantLux(v float32, n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = v
	}
	return out
}
