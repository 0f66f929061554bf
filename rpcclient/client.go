// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package rpcclient is a thin synchronous client over rpcserver's
// length-prefixed JSON protocol. It is the Go-idiomatic analogue of the
// original's C-ABI BrightnessServiceC wrapper: a second calling
// convention for callers that do not link against the brightness
// package directly.
package rpcclient

import (
	"fmt"
	"net"
	"sync"

	"github.com/GermanBionicSystems/brightnessd/rpcserver"
)

// Client is safe for concurrent use; requests are serialized over the
// single underlying connection, matching the "one message per
// operation" framing the wire protocol itself assumes.
type Client struct {
	mu   sync.Mutex
	conn net.Conn
}

// Dial connects to an rpcserver.Server listening at address on network
// (e.g. Dial("unix", "/run/brightnessd.sock")).
func Dial(network, address string) (*Client, error) {
	conn, err := net.Dial(network, address)
	if err != nil {
		return nil, err
	}
	return &Client{conn: conn}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) call(req rpcserver.Request) (rpcserver.Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := rpcserver.WriteFrame(c.conn, req); err != nil {
		return rpcserver.Response{}, err
	}
	var resp rpcserver.Response
	if err := rpcserver.ReadFrame(c.conn, &resp); err != nil {
		return rpcserver.Response{}, err
	}
	if resp.Error != nil {
		return resp, fmt.Errorf("rpcclient: %s: %s", resp.Error.Kind, resp.Error.Message)
	}
	return resp, nil
}

// SetTarget requests a new target level, ramping at rate levels/second.
func (c *Client) SetTarget(level, rate int) error {
	_, err := c.call(rpcserver.Request{Op: "set_target", Level: level, Rate: rate})
	return err
}

// GetTarget returns the most recently requested (pre-ramp) level and rate.
func (c *Client) GetTarget() (level, rate int, err error) {
	resp, err := c.call(rpcserver.Request{Op: "get_target"})
	if err != nil {
		return 0, 0, err
	}
	return resp.Level, resp.Rate, nil
}

// SetMode switches between "auto" and "manual".
func (c *Client) SetMode(mode string) error {
	_, err := c.call(rpcserver.Request{Op: "set_mode", Mode: mode})
	return err
}

// GetMode returns "auto" or "manual".
func (c *Client) GetMode() (string, error) {
	resp, err := c.call(rpcserver.Request{Op: "get_mode"})
	return resp.Mode, err
}

// SetUserPoint teaches a new (lux, level) anchor.
func (c *Client) SetUserPoint(lux float32, target int) error {
	_, err := c.call(rpcserver.Request{Op: "set_user_point", Lux: lux, Target: target})
	return err
}

// GetUserPoint returns the currently taught anchor.
func (c *Client) GetUserPoint() (lux float32, target int, err error) {
	resp, err := c.call(rpcserver.Request{Op: "get_user_point"})
	if err != nil {
		return 0, 0, err
	}
	return resp.Lux, resp.Target, nil
}

// TurnOff is the display_turn_off convenience.
func (c *Client) TurnOff() error {
	_, err := c.call(rpcserver.Request{Op: "turn_off"})
	return err
}

// FullPower is the display_full_power convenience.
func (c *Client) FullPower() error {
	_, err := c.call(rpcserver.Request{Op: "full_power"})
	return err
}

// CurrentLevel returns the last level actually written to the device.
func (c *Client) CurrentLevel() (int, error) {
	resp, err := c.call(rpcserver.Request{Op: "current_level"})
	if err != nil {
		return 0, err
	}
	return resp.Level, nil
}
