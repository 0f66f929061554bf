// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package abc implements the automatic brightness controller: it filters
// noisy ambient-lux samples with hysteresis, maps the filtered lux through
// a spline.Spline onto a backlight level, and reshapes that spline around
// a user-taught anchor point whenever a manual override survives a short
// interactive window uncountermanded.
//
// Like ramp.Ramp, an ABC is meant to be driven from a single cooperative
// event-loop goroutine; its interactive-model timeout is delivered back to
// that goroutine over a channel rather than firing a callback directly.
package abc
