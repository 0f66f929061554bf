// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package abc

import (
	"log"
	"math"
	"time"

	"github.com/GermanBionicSystems/brightnessd/ramp"
	"github.com/GermanBionicSystems/brightnessd/spline"
)

// Hysteresis and filtering constants, straight out of the lux-to-level
// control loop this package ports.
const (
	jitterThreshold    = 0.20
	dramaticThreshold  = 0.60
	filterAlpha        = 0.10
	steadyCountTarget  = 10
	interactiveTimeout = 5 * time.Second
	maxGamma           = 2.0
)

// defaultCurveLux and defaultCurvePower are the built-in {lux, backlight}
// table the ABC's spline starts from before any user anchor is taught.
var (
	defaultCurveLux = []float32{
		1, 2, 3, 5, 10, 20, 50, 100, 200, 300,
		400, 500, 600, 700, 800, 1000, 1200, 1600, 2200, 3000,
	}
	defaultCurvePower = []float32{
		1, 5, 10, 20, 30, 46, 49, 54, 61, 65,
		70, 76, 82, 87, 98, 108, 131, 161, 230, 255,
	}
)

// Display is the narrow interface ABC uses to actually move the backlight.
// *ramp.Ramp satisfies it.
type Display interface {
	Set(target, rate int) error
}

type shortTermModel struct {
	lux        float32
	brightness int
	stop       chan struct{}
}

// ABC is the automatic brightness controller. It is not safe for
// concurrent use; see the package doc.
type ABC struct {
	spline  *spline.Spline
	display Display

	running       bool
	target        int
	luxLast       float32
	luxFiltered   float32
	luxSet        float32
	steadyCount   int
	dramaticCount int

	userLux        float32
	userBrightness int

	model       *shortTermModel
	modelGen    uint64
	timeoutC    chan uint64
	onUserPoint func(lux float32, brightness int)
}

// Config holds optional ABC construction parameters.
type Config struct {
	// OnUserPoint, if set, is invoked every time the user anchor changes
	// (manual override survived the interactive window, or an explicit
	// SetUserPoint call) so a caller can persist it.
	OnUserPoint func(lux float32, brightness int)
}

// New builds an ABC driving display, starting from the built-in default
// curve.
func New(display Display, cfg *Config) (*ABC, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	s, err := spline.New(defaultCurveLux, defaultCurvePower)
	if err != nil {
		return nil, err
	}
	return &ABC{
		spline:         s,
		display:        display,
		running:        true,
		target:         -1,
		userLux:        defaultCurveLux[0],
		userBrightness: int(defaultCurvePower[0]),
		timeoutC:       make(chan uint64, 1),
		onUserPoint:    cfg.OnUserPoint,
	}, nil
}

// Sample feeds one ambient-lux reading into the controller. It must be
// called on the goroutine that owns this ABC.
func (a *ABC) Sample(lux float32) error {
	a.luxLast = lux

	if !a.running {
		if a.model == nil && absf(lux-a.userLux) > a.userLux*dramaticThreshold {
			a.running = true
		}
		return nil
	}

	if absf(lux-a.luxSet) > a.luxSet*dramaticThreshold {
		a.steadyCount = 0
		a.luxFiltered = lux
		a.dramaticCount++
		if a.dramaticCount < steadyCountTarget {
			return nil
		}
	} else {
		a.dramaticCount = 0
		a.luxFiltered = lux*filterAlpha + a.luxFiltered*(1-filterAlpha)
		if absf(lux-a.luxFiltered) > a.luxFiltered*jitterThreshold {
			a.steadyCount = 0
			return nil
		}
		a.steadyCount++
		if a.steadyCount < steadyCountTarget {
			return nil
		}
		a.steadyCount = 0
	}

	a.luxSet = a.luxFiltered
	power := a.spline.Interpolate(a.luxSet)
	brightness := clampLevel(int(math.Round(float64(power))))

	if brightness != a.target {
		a.target = brightness
		return a.display.Set(brightness, ramp.RateDefault)
	}
	return nil
}

func clampLevel(v int) int {
	if v < ramp.LevelMin {
		return ramp.LevelMin
	}
	if v > ramp.LevelMax {
		return ramp.LevelMax
	}
	return v
}

func absf(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

// SetTarget applies a manual brightness override while AUTO is active. It
// suspends automatic control and arms a short interactive window: unless
// a later SetTarget, SetUserPoint or Close supersedes it, the override
// becomes a new user anchor when the window elapses. Lux samples that
// arrive during the window are ignored. It must be called on the owning
// goroutine.
func (a *ABC) SetTarget(target, rate int) error {
	a.startInteractiveModel(target)
	a.running = false
	return a.display.Set(target, rate)
}

func (a *ABC) startInteractiveModel(target int) {
	a.stopInteractiveModelTimer()
	a.modelGen++
	gen := a.modelGen
	model := &shortTermModel{
		lux:        a.luxLast,
		brightness: target,
	}
	a.model = model
	stop := make(chan struct{})
	model.stop = stop
	timeoutC := a.timeoutC
	go func() {
		timer := time.NewTimer(interactiveTimeout)
		defer timer.Stop()
		select {
		case <-timer.C:
			select {
			case timeoutC <- gen:
			case <-stop:
			}
		case <-stop:
		}
	}()
}

func (a *ABC) stopInteractiveModelTimer() {
	if a.model != nil && a.model.stop != nil {
		close(a.model.stop)
	}
}

// Timeouts delivers a generation token when the interactive window
// elapses uncountermanded. Callers must invoke HandleInteractiveTimeout
// with the received token on the owning goroutine.
func (a *ABC) Timeouts() <-chan uint64 {
	return a.timeoutC
}

// HandleInteractiveTimeout commits the interactive model's target as a
// new user anchor, resumes automatic control, and tears down the model.
// Stale generation tokens (from a model superseded or canceled since) are
// ignored.
func (a *ABC) HandleInteractiveTimeout(gen uint64) error {
	if gen != a.modelGen || a.model == nil {
		return nil
	}
	model := a.model
	err := a.updateUserPoint(model.lux, model.brightness)
	a.running = true
	a.model = nil
	return err
}

// SetUserPoint explicitly teaches a new (lux, target) anchor, canceling
// any pending interactive model first.
func (a *ABC) SetUserPoint(lux float32, target int) error {
	a.stopInteractiveModelTimer()
	a.model = nil
	a.modelGen++
	return a.updateUserPoint(lux, target)
}

// GetUserPoint returns the currently stored anchor.
func (a *ABC) GetUserPoint() (lux float32, target int) {
	return a.userLux, a.userBrightness
}

func (a *ABC) updateUserPoint(lux float32, target int) error {
	a.computeSpline(lux, target)
	a.userLux = lux
	a.userBrightness = target
	if a.onUserPoint != nil {
		a.onUserPoint(lux, target)
	}
	return nil
}

// computeSpline reshapes the default curve around (userLux,
// userBrightness): it estimates a gamma adjustment so the curve passes
// through the anchor, applies it to every default point, inserts the
// anchor itself, and restores monotonicity around it. On any failure to
// build the new spline, the previous one is retained.
func (a *ABC) computeSpline(userLux float32, userBrightness int) {
	current := a.spline.Interpolate(userLux) / 255
	desired := float32(userBrightness) / 255
	adjustment := calculateAdjustment(current, desired)

	gamma := float32(math.Pow(maxGamma, float64(-adjustment)))

	n := len(defaultCurveLux)
	lux := make([]float32, n)
	power := make([]float32, n)
	copy(lux, defaultCurveLux)
	copy(power, defaultCurvePower)

	if gamma != 1 {
		for i := range power {
			power[i] = float32(math.Pow(float64(power[i]/255), float64(gamma))) * 255
		}
	}

	if userLux > 0 {
		lux, power = insertAnchor(lux, power, userLux, float32(userBrightness))
	}

	s, err := spline.New(lux, power)
	if err != nil {
		log.Printf("abc: curve reshape around (%v, %v) produced an invalid spline, keeping previous curve: %v", userLux, userBrightness, err)
		return
	}
	a.spline = s
}

// calculateAdjustment picks an adjustment in [-1, 1] such that
// maxGamma^(-adjustment) reshapes the curve so interpolate(userLux)/255
// moves from current to desired.
func calculateAdjustment(current, desired float32) float32 {
	var adjustment float32
	switch {
	case current <= 0.1 || current >= 0.9:
		adjustment = desired - current
	case desired == 0:
		adjustment = -1
	case desired == 1:
		adjustment = 1
	default:
		gammaRatio := math.Log(float64(desired)) / math.Log(float64(current))
		adjustment = float32(-math.Log(gammaRatio) / math.Log(maxGamma))
	}
	if adjustment > 1 {
		return 1
	}
	if adjustment < -1 {
		return -1
	}
	return adjustment
}

// insertAnchor inserts (lux, brightness) into the (lux, power) table,
// preserving x-ordering, then flattens the curve on either side of the
// anchor so it stays monotone with the anchor as pivot.
func insertAnchor(lux, power []float32, anchorLux, anchorPower float32) ([]float32, []float32) {
	n := len(lux)
	i := 0
	for i < n && lux[i] < anchorLux {
		i++
	}

	var newLux, newPower []float32
	if i < n && lux[i] == anchorLux {
		// The anchor lands exactly on an existing default-curve knot:
		// overwrite it in place rather than inserting a second point at
		// the same x, which would break the strictly-increasing
		// invariant spline.New requires.
		newLux = append([]float32(nil), lux...)
		newPower = append([]float32(nil), power...)
		newPower[i] = anchorPower
	} else {
		newLux = make([]float32, n+1)
		newPower = make([]float32, n+1)
		copy(newLux, lux[:i])
		copy(newPower, power[:i])
		newLux[i] = anchorLux
		newPower[i] = anchorPower
		copy(newLux[i+1:], lux[i:])
		copy(newPower[i+1:], power[i:])
	}

	pivot := anchorPower
	for j := i + 1; j < len(newPower); j++ {
		if newPower[j] >= pivot {
			break
		}
		newPower[j] = pivot
	}
	for j := i - 1; j >= 0; j-- {
		if newPower[j] <= pivot {
			break
		}
		newPower[j] = pivot
	}

	return newLux, newPower
}

// Close cancels any pending interactive model timer.
func (a *ABC) Close() {
	a.stopInteractiveModelTimer()
	a.model = nil
}
