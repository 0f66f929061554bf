// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package brightness

import "github.com/GermanBionicSystems/brightnessd/ramp"

// Mode selects whether the Controller's level is driven by the ambient
// light sensor (Auto) or set directly by a caller (Manual).
type Mode int

const (
	// Auto drives the display from the automatic brightness controller's
	// lux-to-level curve.
	Auto Mode = iota
	// Manual takes the ambient light sensor out of the loop; only an
	// explicit SetTarget moves the level.
	Manual
)

func (m Mode) String() string {
	switch m {
	case Auto:
		return "auto"
	case Manual:
		return "manual"
	default:
		return "invalid"
	}
}

// Level sentinels and bounds, re-exported from ramp so callers never need
// to import that package directly.
const (
	// LevelMin and LevelMax bound the device's physical backlight range.
	LevelMin = ramp.LevelMin
	LevelMax = ramp.LevelMax
	// LevelOff requests the display be written to 0, bypassing LevelMin.
	LevelOff = ramp.LevelOff
	// LevelFull requests the display be written to 255, bypassing LevelMax.
	LevelFull = ramp.LevelFull
)

// Ramp rate sentinels, re-exported from ramp.
const (
	// RampOff requests an immediate write with no ramp.
	RampOff = ramp.RateOff
	// RampDefault requests the configured default ramp rate.
	RampDefault = ramp.RateDefault
)
