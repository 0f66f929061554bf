// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package rpcserver implements the RPC half of the remote control surface
// spec.md §6 describes as "transport-agnostic, one message per
// operation": a small length-prefixed JSON request/response protocol
// dispatched onto a single brightness.Controller, deliberately avoiding
// a gRPC/protobuf toolchain (see DESIGN.md).
package rpcserver

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
)

// maxFrameSize bounds a single frame's JSON payload, guarding against a
// corrupt or malicious length prefix causing an unbounded allocation.
const maxFrameSize = 1 << 20

// Request is one frame sent to the server. Op selects the operation;
// the remaining fields are its arguments, left at their zero value when
// unused by Op.
type Request struct {
	Op string `json:"op"`

	Level  int     `json:"level,omitempty"`
	Rate   int     `json:"rate,omitempty"`
	Mode   string  `json:"mode,omitempty"`
	Lux    float32 `json:"lux,omitempty"`
	Target int     `json:"target,omitempty"`
}

// Response is the frame returned for a Request. Error is set, and every
// other field left zero, when the operation failed.
type Response struct {
	Error *ErrorInfo `json:"error,omitempty"`

	Level  int     `json:"level,omitempty"`
	Rate   int     `json:"rate,omitempty"`
	Mode   string  `json:"mode,omitempty"`
	Lux    float32 `json:"lux,omitempty"`
	Target int     `json:"target,omitempty"`
}

// ErrorInfo carries a brightness.Error's Kind and message across the
// wire without requiring the client side to import the brightness
// package's error type.
type ErrorInfo struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// WriteFrame writes v as a big-endian length-prefixed JSON frame.
func WriteFrame(w io.Writer, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var hdr [4]byte
	binary.BigEndian.PutUint32(hdr[:], uint32(len(b)))
	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

// ReadFrame reads one length-prefixed JSON frame into v.
func ReadFrame(r io.Reader, v any) error {
	var hdr [4]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return err
	}
	n := binary.BigEndian.Uint32(hdr[:])
	if n > maxFrameSize {
		return fmt.Errorf("rpcserver: frame of %d bytes exceeds %d byte limit", n, maxFrameSize)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return err
	}
	return json.Unmarshal(buf, v)
}
