// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package brightness

import (
	"errors"
	"fmt"
)

// Kind classifies an Error the way spec.md's error-handling design
// enumerates them; rpcserver reports it to remote callers as its String
// form.
type Kind int

const (
	// KindInvalidArgument covers an unknown or destroyed session, an
	// unknown Mode, or a nil observer. Levels are clamped, never rejected.
	KindInvalidArgument Kind = iota
	// KindNotAvailable means no display device is bound to the Controller,
	// or the Controller has been stopped.
	KindNotAvailable
	// KindNotSupported means a user-point operation was attempted while
	// the Controller is not in AUTO mode.
	KindNotSupported
	// KindIOFailure wraps a device read/write failure.
	KindIOFailure
	// KindOutOfMemory names spec.md's "failure to allocate the Controller"
	// fatal condition. No operation in this package returns it: a failed
	// allocation in Go is a runtime fatal error, not an error value.
	KindOutOfMemory
	// KindInvalidInput is a spline construction failure: too few control
	// points or non-strictly-increasing x values.
	KindInvalidInput
)

func (k Kind) String() string {
	switch k {
	case KindInvalidArgument:
		return "invalid argument"
	case KindNotAvailable:
		return "not available"
	case KindNotSupported:
		return "not supported"
	case KindIOFailure:
		return "io failure"
	case KindOutOfMemory:
		return "out of memory"
	case KindInvalidInput:
		return "invalid input"
	default:
		return "unknown"
	}
}

// Error is the error type every exported Controller/Session operation
// returns on failure. Op names the operation that failed
// ("SetTarget", "SetMode", ...).
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("brightness: %s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("brightness: %s: %s", e.Op, e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(op string, kind Kind, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf unwraps err looking for a *Error and reports its Kind. Callers
// wanting to branch on error kind (e.g. an RPC server reporting it to a
// remote caller) should use this rather than type-asserting directly,
// since errors returned across package boundaries may be wrapped.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}
