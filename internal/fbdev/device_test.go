// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package fbdev

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSysfsDeviceReadWrite(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "brightness"), []byte("20\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	dev, err := NewSysfsDevice(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer dev.Close()

	got, err := dev.ReadPower()
	if err != nil {
		t.Fatal(err)
	}
	if got != 20 {
		t.Fatalf("ReadPower() = %d, want 20", got)
	}

	if err := dev.WritePower(180); err != nil {
		t.Fatal(err)
	}
	got, err = dev.ReadPower()
	if err != nil {
		t.Fatal(err)
	}
	if got != 180 {
		t.Fatalf("ReadPower() after write = %d, want 180", got)
	}

	raw, err := os.ReadFile(filepath.Join(dir, "brightness"))
	if err != nil {
		t.Fatal(err)
	}
	if string(raw) != "180" {
		t.Fatalf("on-disk contents = %q, want %q", raw, "180")
	}
}

func TestNewSysfsDeviceMissingFile(t *testing.T) {
	if _, err := NewSysfsDevice(t.TempDir()); err == nil {
		t.Fatal("expected an error opening a brightness file that doesn't exist")
	}
}
