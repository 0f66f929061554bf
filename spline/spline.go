// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package spline

import (
	"errors"
	"fmt"
	"math"
)

// Kind identifies which interpolation scheme a Spline was built with.
type Kind int

const (
	// MonotoneCubic is a Fritsch-Carlson monotone cubic Hermite spline,
	// selected automatically when the y control points are non-decreasing.
	MonotoneCubic Kind = iota
	// Linear is a piecewise-linear interpolator, the fallback used whenever
	// the y control points are not monotone.
	Linear
)

func (k Kind) String() string {
	if k == MonotoneCubic {
		return "monotone-cubic"
	}
	return "linear"
}

// ErrInvalidInput is returned by New when the control points don't satisfy
// the minimum shape requirements: at least two points and strictly
// increasing x values.
var ErrInvalidInput = errors.New("spline: invalid control points")

// errNotMonotone is the internal signal that monotone-cubic tangent
// computation produced a non-monotone result; New falls back to a linear
// spline in that case rather than surfacing the error.
var errNotMonotone = errors.New("spline: tangents are not monotone")

// Spline is an immutable strictly-increasing piecewise interpolator.
//
// A Spline is safe for concurrent use for reads (Interpolate never
// mutates it); callers needing a different curve build a new Spline and
// swap the pointer.
type Spline struct {
	xs   []float32
	ys   []float32
	ms   []float32
	kind Kind
}

// New builds a Spline over the given control points. x must be strictly
// increasing and both slices must have at least 2 and equal length,
// otherwise New returns ErrInvalidInput. When y is non-decreasing, New
// builds a monotone-cubic interpolator; otherwise it builds a linear one.
func New(xs, ys []float32) (*Spline, error) {
	n := len(xs)
	if n != len(ys) {
		return nil, fmt.Errorf("%w: len(x)=%d != len(y)=%d", ErrInvalidInput, n, len(ys))
	}
	if n < 2 {
		return nil, fmt.Errorf("%w: need at least 2 control points, got %d", ErrInvalidInput, n)
	}
	if !isStrictlyIncreasing(xs) {
		return nil, fmt.Errorf("%w: x must be strictly increasing", ErrInvalidInput)
	}

	xs = append([]float32(nil), xs...)
	ys = append([]float32(nil), ys...)

	if isNonDecreasing(ys) {
		if s, err := newMonotoneCubic(xs, ys); err == nil {
			return s, nil
		}
	}
	return newLinear(xs, ys), nil
}

func isStrictlyIncreasing(xs []float32) bool {
	for i := 1; i < len(xs); i++ {
		if xs[i] <= xs[i-1] {
			return false
		}
	}
	return true
}

func isNonDecreasing(ys []float32) bool {
	for i := 1; i < len(ys); i++ {
		if ys[i] < ys[i-1] {
			return false
		}
	}
	return true
}

// newMonotoneCubic computes Fritsch-Carlson tangents. It returns
// errNotMonotone if any segment's rescaled tangents go negative, in which
// case the caller falls back to a linear spline.
func newMonotoneCubic(xs, ys []float32) (*Spline, error) {
	n := len(xs)
	d := make([]float32, n-1)
	for i := 0; i < n-1; i++ {
		d[i] = (ys[i+1] - ys[i]) / (xs[i+1] - xs[i])
	}

	m := make([]float32, n)
	m[0] = d[0]
	for i := 1; i < n-1; i++ {
		m[i] = (d[i-1] + d[i]) / 2
	}
	m[n-1] = d[n-2]

	for i := 0; i < n-1; i++ {
		if d[i] == 0 {
			m[i] = 0
			m[i+1] = 0
			continue
		}
		a := m[i] / d[i]
		b := m[i+1] / d[i]
		if a < 0 || b < 0 {
			return nil, errNotMonotone
		}
		h := float32(math.Hypot(float64(a), float64(b)))
		if h > 3 {
			t := 3 / h
			m[i] *= t
			m[i+1] *= t
		}
	}

	return &Spline{xs: xs, ys: ys, ms: m, kind: MonotoneCubic}, nil
}

func newLinear(xs, ys []float32) *Spline {
	n := len(xs)
	m := make([]float32, n-1)
	for i := 0; i < n-1; i++ {
		m[i] = (ys[i+1] - ys[i]) / (xs[i+1] - xs[i])
	}
	return &Spline{xs: xs, ys: ys, ms: m, kind: Linear}
}

// Kind reports whether this Spline interpolates with monotone-cubic
// Hermite segments or plain linear segments.
func (s *Spline) Kind() Kind {
	return s.kind
}

// Len returns the number of control points.
func (s *Spline) Len() int {
	return len(s.xs)
}

// Interpolate evaluates the spline at x. NaN in yields NaN out. Values at
// or below the first knot clamp to the first y; values at or above the
// last knot clamp to the last y.
func (s *Spline) Interpolate(x float32) float32 {
	n := len(s.xs)
	if x != x { // NaN
		return x
	}
	if x <= s.xs[0] {
		return s.ys[0]
	}
	if x >= s.xs[n-1] {
		return s.ys[n-1]
	}

	i := 0
	for x >= s.xs[i+1] {
		i++
		if x == s.xs[i] {
			return s.ys[i]
		}
	}

	h := s.xs[i+1] - s.xs[i]
	t := (x - s.xs[i]) / h

	if s.kind == Linear {
		return s.ys[i] + s.ms[i]*(x-s.xs[i])
	}

	t2 := t * t
	return (s.ys[i]*(1+2*t)+h*s.ms[i]*t)*(1-t)*(1-t) +
		(s.ys[i+1]*(3-2*t)+h*s.ms[i+1]*(t-1))*t2
}
