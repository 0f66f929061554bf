// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package spline implements the strictly-increasing piecewise interpolator
// used to map ambient lux readings onto backlight levels.
//
// Construction picks monotone-cubic Hermite interpolation (Fritsch-Carlson)
// when the y values are non-decreasing, falling back to plain linear
// interpolation otherwise. The code is a direct port of the same algorithm
// Android's android.util.Spline uses, which is also what the original
// brightness service this package's domain is modeled on ported from.
package spline
