// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package ramp drives a single physical backlight register, smoothly
// interpolating from the currently written level to a requested target
// rather than snapping to it.
//
// A Ramp is not safe for concurrent use: like periph-devices' own Dev
// types it expects a single owner, but unlike those (which protect
// themselves with a sync.Mutex) a Ramp is designed to be driven
// exclusively from one cooperative event-loop goroutine, matching the
// brightness engine's single-threaded scheduling model. Ticks are
// delivered back to that goroutine over a channel rather than firing a
// callback on an arbitrary goroutine.
package ramp
