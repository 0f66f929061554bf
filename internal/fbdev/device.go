// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package fbdev

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
)

// Device is the physical backlight register. It mirrors the narrow
// register-access shape periph.io/x/conn/v3 devices expose over their own
// transport (a single read, a single write), independent of how the bytes
// actually get to the panel.
type Device interface {
	ReadPower() (int, error)
	WritePower(level int) error
}

// SysfsDevice drives a Linux backlight device through the kernel's
// /sys/class/backlight/<name>/brightness attribute file, the same
// seek-then-read-or-write handling of a single sysfs file that
// periph's own sysfs LED driver uses for /sys/class/leds/*/brightness.
type SysfsDevice struct {
	path string

	mu sync.Mutex
	f  *os.File
}

// NewSysfsDevice opens the brightness attribute file under dir (typically
// "/sys/class/backlight/<name>"). The handle is kept open and reused for
// every subsequent ReadPower/WritePower call.
func NewSysfsDevice(dir string) (*SysfsDevice, error) {
	path := dir + "/brightness"
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}
	return &SysfsDevice{path: path, f: f}, nil
}

// String implements conn.Resource.
func (d *SysfsDevice) String() string {
	return fmt.Sprintf("SysfsDevice(%s)", d.path)
}

// Halt implements conn.Resource by turning the backlight off.
func (d *SysfsDevice) Halt() error {
	return d.WritePower(0)
}

// ReadPower implements Device.
func (d *SysfsDevice) ReadPower() (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, err := d.f.Seek(0, 0); err != nil {
		return 0, err
	}
	var buf [16]byte
	n, err := d.f.Read(buf[:])
	if err != nil && n == 0 {
		return 0, err
	}
	v, err := strconv.Atoi(strings.TrimSpace(string(buf[:n])))
	if err != nil {
		return 0, fmt.Errorf("fbdev: parse brightness: %w", err)
	}
	return v, nil
}

// WritePower implements Device.
func (d *SysfsDevice) WritePower(level int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, err := d.f.Seek(0, 0); err != nil {
		return err
	}
	if err := d.f.Truncate(0); err != nil {
		return err
	}
	_, err := d.f.WriteString(strconv.Itoa(level))
	return err
}

// Close releases the underlying file handle.
func (d *SysfsDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.f.Close()
}
