// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package sensor

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/i2c"
)

// Resolution selects the ambient-light sensor's measurement mode, trading
// off sample time against precision.
type Resolution byte

const (
	// ResolutionLow takes about 16ms per sample at 4 lux precision.
	ResolutionLow Resolution = iota
	// ResolutionHigh takes about 120ms per sample at 1 lux precision.
	ResolutionHigh
	// ResolutionHigh2 takes about 120ms per sample at 0.5 lux precision.
	ResolutionHigh2
)

const (
	_CMD_POWER_DOWN   byte = 0x00
	_CMD_POWER_ON     byte = 0x01
	_CMD_RESET        byte = 0x07
	_CMD_CONT_HIGH    byte = 0x10
	_CMD_CONT_HIGH2   byte = 0x11
	_CMD_CONT_LOW     byte = 0x13
	_CMD_ONETIME_HIGH byte = 0x20
)

// Opts represents configurable options for the ambient-light sensor.
type Opts struct {
	// Resolution selects the device's measurement mode. The zero value is
	// ResolutionLow; DefaultOpts selects ResolutionHigh.
	Resolution Resolution
}

// DefaultOpts returns the default options.
func DefaultOpts() *Opts {
	return &Opts{Resolution: ResolutionHigh}
}

// Hardware is a handle to an I2C ambient-light sensor reporting lux on a
// single 16-bit register, read continuously in the style of this
// collection's other continuous-sense devices.
type Hardware struct {
	d        *i2c.Dev
	opts     *Opts
	mu       sync.Mutex
	shutdown chan bool
}

// NewHardware returns a Hardware reading lux over I2C at addr (0x23 or
// 0x5c on most boards).
func NewHardware(b i2c.Bus, addr uint16, opts *Opts) (*Hardware, error) {
	if opts == nil {
		opts = DefaultOpts()
	}
	dev := &Hardware{d: &i2c.Dev{Bus: b, Addr: addr}, opts: opts}
	if err := dev.d.Tx([]byte{_CMD_POWER_ON}, nil); err != nil {
		return nil, fmt.Errorf("sensor: power on: %w", err)
	}
	var cmd byte
	switch opts.Resolution {
	case ResolutionLow:
		cmd = _CMD_CONT_LOW
	case ResolutionHigh2:
		cmd = _CMD_CONT_HIGH2
	default:
		cmd = _CMD_CONT_HIGH
	}
	if err := dev.d.Tx([]byte{cmd}, nil); err != nil {
		return nil, fmt.Errorf("sensor: start continuous mode: %w", err)
	}
	return dev, nil
}

// readLux issues one register read and converts the raw count to lux.
func (h *Hardware) readLux() (float32, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	var raw [2]byte
	if err := h.d.Tx(nil, raw[:]); err != nil {
		return 0, err
	}
	count := uint16(raw[0])<<8 | uint16(raw[1])
	lux := float32(count) / 1.2
	if h.opts.Resolution == ResolutionHigh2 {
		lux /= 2
	}
	return lux, nil
}

// Sense reads one lux sample from the device.
func (h *Hardware) Sense() (Sample, error) {
	lux, err := h.readLux()
	if err != nil {
		return Sample{}, err
	}
	return Sample{Lux: lux, At: time.Now()}, nil
}

// Subscribe starts a background poll loop at the resolution's natural
// sample period and returns its Sample channel. Implements Topic.
func (h *Hardware) Subscribe() (<-chan Sample, error) {
	period := 120 * time.Millisecond
	if h.opts.Resolution == ResolutionLow {
		period = 16 * time.Millisecond
	}
	if period < 16*time.Millisecond {
		return nil, errors.New("sensor: invalid poll period")
	}

	h.mu.Lock()
	if h.shutdown != nil {
		h.mu.Unlock()
		return nil, errors.New("sensor: already subscribed")
	}
	shutdown := make(chan bool)
	h.shutdown = shutdown
	h.mu.Unlock()

	channelSize := 16
	out := make(chan Sample, channelSize)
	go func() {
		ticker := time.NewTicker(period)
		defer ticker.Stop()
		defer close(out)
		for {
			select {
			case <-shutdown:
				return
			case <-ticker.C:
				s, err := h.Sense()
				if err == nil && len(out) < channelSize {
					out <- s
				}
			}
		}
	}()
	return out, nil
}

// Close shuts the device down. If a Subscribe poll loop is in progress,
// it's aborted. Implements Topic and conn.Resource.
func (h *Hardware) Close() error {
	h.mu.Lock()
	if h.shutdown != nil {
		close(h.shutdown)
		h.shutdown = nil
	}
	h.mu.Unlock()
	return h.d.Tx([]byte{_CMD_POWER_DOWN}, nil)
}

// Halt implements conn.Resource.
func (h *Hardware) Halt() error {
	return h.Close()
}

func (h *Hardware) String() string {
	return fmt.Sprintf("sensor: %s", h.d.String())
}

var _ conn.Resource = &Hardware{}
var _ Topic = &Hardware{}
