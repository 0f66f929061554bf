// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package persist

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
)

// Logical names of the persistent keys of spec.md's data model. Store does
// not use them: the on-disk format is a single JSON object keyed by
// State's short json tags, not one entry per key name.
const (
	KeyMode       = "persist.brightness.mode"
	KeyTarget     = "persist.brightness.target"
	KeyUserLux    = "persist.brightness.user_lux"
	KeyUserTarget = "persist.brightness.user_target"
)

// State is the full set of values a Store saves and restores.
type State struct {
	Mode       int32 `json:"mode"`
	Target     int32 `json:"target"`
	UserLux    int32 `json:"user_lux"`
	UserTarget int32 `json:"user_target"`
}

// DefaultState is what a Store reports when no file has ever been saved,
// matching spec.md's documented first-boot defaults.
func DefaultState(modeAuto int32, levelMin, levelMax int32) State {
	return State{
		Mode:       modeAuto,
		Target:     (levelMin + levelMax) / 2,
		UserLux:    1,
		UserTarget: 1,
	}
}

// Store persists State to a single JSON file, written atomically via a
// temp-file-plus-rename so a crash mid-write never leaves a truncated
// file behind.
type Store struct {
	path string
}

// Open returns a Store backed by path. The file need not exist yet; it is
// created on the first Save.
func Open(path string) *Store {
	return &Store{path: path}
}

func (s *Store) save(mutate func(*State)) error {
	st, err := s.load()
	if err != nil {
		log.Printf("persist: load before save failed, starting from zero state: %v", err)
		st = State{}
	}
	mutate(&st)
	return s.write(st)
}

func (s *Store) write(st State) error {
	data, err := json.Marshal(st)
	if err != nil {
		return err
	}
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".persist-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	_, writeErr := tmp.Write(data)
	closeErr := tmp.Close()
	if writeErr != nil {
		os.Remove(tmpName)
		return writeErr
	}
	if closeErr != nil {
		os.Remove(tmpName)
		return closeErr
	}
	return os.Rename(tmpName, s.path)
}

func (s *Store) load() (State, error) {
	var st State
	data, err := os.ReadFile(s.path)
	if err != nil {
		return st, err
	}
	if err := json.Unmarshal(data, &st); err != nil {
		return st, err
	}
	return st, nil
}

// SaveMode persists the current mode. Best-effort: a failure is logged
// and returned, not fatal to the caller.
func (s *Store) SaveMode(mode int32) error {
	err := s.save(func(st *State) { st.Mode = mode })
	if err != nil {
		log.Printf("persist: save mode failed: %v", err)
	}
	return err
}

// SaveLevel persists the current target level.
func (s *Store) SaveLevel(target int32) error {
	err := s.save(func(st *State) { st.Target = target })
	if err != nil {
		log.Printf("persist: save level failed: %v", err)
	}
	return err
}

// SaveUserPoint persists the user-taught (lux, target) anchor.
func (s *Store) SaveUserPoint(lux, target int32) error {
	err := s.save(func(st *State) {
		st.UserLux = lux
		st.UserTarget = target
	})
	if err != nil {
		log.Printf("persist: save user point failed: %v", err)
	}
	return err
}

// SaveAll persists the full state in one write.
func (s *Store) SaveAll(st State) error {
	if err := s.write(st); err != nil {
		log.Printf("persist: save all failed: %v", err)
		return err
	}
	return nil
}

// RestoreAll loads the last-saved state. If nothing has ever been saved
// (or the file is unreadable/corrupt), it returns fallback and a nil
// error: a missing persistence file is normal on first boot, not a
// failure worth surfacing to the caller.
func (s *Store) RestoreAll(fallback State) (State, error) {
	st, err := s.load()
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("persist: restore failed, using defaults: %v", err)
		}
		return fallback, nil
	}
	return st, nil
}
