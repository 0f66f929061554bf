// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package brightness implements a display-brightness control engine for an
// embedded device.
//
// It maintains a single physical backlight level over time, offering a
// MANUAL mode (caller-driven) and an AUTO mode (driven by an ambient-light
// sensor), and smoothly ramps between levels rather than snapping to them.
// Callers obtain a Session from a Controller and issue operations through
// it; the Controller applies each one against the single physical device
// as it arrives and fans out level-change notifications to registered
// observers.
//
// Subpackages implement the supporting pieces: spline (the monotone-cubic
// interpolation kernel), ramp (the periodic ramp driver), abc (the
// automatic brightness controller), sensor (ambient-light sample sources)
// and persist (mode/level/anchor persistence).
package brightness
