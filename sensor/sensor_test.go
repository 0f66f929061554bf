// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package sensor

import (
	"testing"
	"time"
)

func TestFakeLuxCyclesThenHoldsLastValue(t *testing.T) {
	f := NewFakeLux([]float32{10, 20, 30}, time.Millisecond)
	samples, err := f.Subscribe()
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	want := []float32{10, 20, 30, 30, 30}
	for i, w := range want {
		select {
		case s := <-samples:
			if s.Lux != w {
				t.Fatalf("sample %d = %v, want %v", i, s.Lux, w)
			}
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for sample %d", i)
		}
	}
}

func TestFakeLuxEmptyValuesIsConstantZero(t *testing.T) {
	f := NewFakeLux(nil, time.Millisecond)
	samples, err := f.Subscribe()
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	select {
	case s := <-samples:
		if s.Lux != 0 {
			t.Fatalf("Lux = %v, want 0", s.Lux)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for sample")
	}
}

func TestFakeLuxCloseStopsGeneratorAndClosesChannel(t *testing.T) {
	f := NewFakeLux([]float32{1}, time.Millisecond)
	samples, err := f.Subscribe()
	if err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	select {
	case _, ok := <-samples:
		if ok {
			// A sample produced right before shutdown is fine; drain until closed.
			for range samples {
			}
		}
	case <-time.After(time.Second):
		t.Fatal("channel never closed after Close")
	}
}
