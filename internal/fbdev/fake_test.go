// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package fbdev

import (
	"net/http/httptest"
	"testing"
)

func TestFakeDeviceReadWrite(t *testing.T) {
	d := NewFakeDevice(50)
	level, err := d.ReadPower()
	if err != nil {
		t.Fatal(err)
	}
	if level != 50 {
		t.Fatalf("ReadPower() = %d, want 50", level)
	}

	if err := d.WritePower(200); err != nil {
		t.Fatal(err)
	}
	level, err = d.ReadPower()
	if err != nil {
		t.Fatal(err)
	}
	if level != 200 {
		t.Fatalf("ReadPower() after write = %d, want 200", level)
	}
}

func TestFakeDeviceServesPNG(t *testing.T) {
	d := NewFakeDevice(120)
	req := httptest.NewRequest("GET", "/", nil)
	rec := httptest.NewRecorder()
	d.ServeHTTP(rec, req)

	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Fatalf("Content-Type = %q, want image/png", ct)
	}
	body := rec.Body.Bytes()
	if len(body) < 8 {
		t.Fatalf("response body too short to be a PNG: %d bytes", len(body))
	}
	pngSig := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}
	for i, b := range pngSig {
		if body[i] != b {
			t.Fatalf("response body missing PNG signature at byte %d", i)
		}
	}
}

func TestFakeDeviceHalt(t *testing.T) {
	d := NewFakeDevice(90)
	if err := d.Halt(); err != nil {
		t.Fatal(err)
	}
	level, _ := d.ReadPower()
	if level != 0 {
		t.Fatalf("ReadPower() after Halt = %d, want 0", level)
	}
}
