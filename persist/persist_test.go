// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package persist

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRestoreAllUsesFallbackWhenNoFileExists(t *testing.T) {
	s := Open(filepath.Join(t.TempDir(), "state.json"))
	fallback := DefaultState(1, 20, 250)
	got, err := s.RestoreAll(fallback)
	if err != nil {
		t.Fatal(err)
	}
	if got != fallback {
		t.Fatalf("RestoreAll() = %+v, want fallback %+v", got, fallback)
	}
}

func TestSaveThenRestoreRoundTrips(t *testing.T) {
	s := Open(filepath.Join(t.TempDir(), "state.json"))
	if err := s.SaveMode(2); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveLevel(180); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveUserPoint(100, 200); err != nil {
		t.Fatal(err)
	}

	got, err := s.RestoreAll(State{})
	if err != nil {
		t.Fatal(err)
	}
	want := State{Mode: 2, Target: 180, UserLux: 100, UserTarget: 200}
	if got != want {
		t.Fatalf("RestoreAll() = %+v, want %+v", got, want)
	}
}

func TestSaveAllOverwritesWholeState(t *testing.T) {
	s := Open(filepath.Join(t.TempDir(), "state.json"))
	if err := s.SaveMode(2); err != nil {
		t.Fatal(err)
	}
	want := State{Mode: 1, Target: 135, UserLux: 50, UserTarget: 60}
	if err := s.SaveAll(want); err != nil {
		t.Fatal(err)
	}
	got, err := s.RestoreAll(State{})
	if err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Fatalf("RestoreAll() = %+v, want %+v", got, want)
	}
}

func TestRestoreFallsBackOnCorruptFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")
	s := Open(path)
	if err := os.WriteFile(path, []byte("not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	fallback := DefaultState(1, 20, 250)
	got, err := s.RestoreAll(fallback)
	if err != nil {
		t.Fatal(err)
	}
	if got != fallback {
		t.Fatalf("RestoreAll() = %+v, want fallback %+v", got, fallback)
	}
}
