// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package rpcserver_test

import (
	"net"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/GermanBionicSystems/brightnessd"
	"github.com/GermanBionicSystems/brightnessd/rpcclient"
	"github.com/GermanBionicSystems/brightnessd/rpcserver"
)

type fakeDevice struct {
	mu    sync.Mutex
	level int
}

func (f *fakeDevice) ReadPower() (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.level, nil
}

func (f *fakeDevice) WritePower(level int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.level = level
	return nil
}

func startServer(t *testing.T, ctrl *brightness.Controller) string {
	t.Helper()
	sockPath := filepath.Join(t.TempDir(), "brightnessd.sock")
	ln, err := net.Listen("unix", sockPath)
	if err != nil {
		t.Fatal(err)
	}
	srv := rpcserver.New(ctrl, ln)
	go srv.Serve()
	t.Cleanup(func() { ln.Close() })
	return sockPath
}

func TestClientServerSetAndGetTarget(t *testing.T) {
	ctrl, err := brightness.Start(brightness.Config{Display: &fakeDevice{level: 20}})
	if err != nil {
		t.Fatal(err)
	}
	defer ctrl.Stop()

	sock := startServer(t, ctrl)
	c, err := rpcclient.Dial("unix", sock)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	if err := c.SetTarget(100, brightness.RampOff); err != nil {
		t.Fatal(err)
	}
	level, rate, err := c.GetTarget()
	if err != nil {
		t.Fatal(err)
	}
	if level != 100 || rate != brightness.RampOff {
		t.Fatalf("GetTarget() = (%d, %d), want (100, %d)", level, rate, brightness.RampOff)
	}
}

func TestClientServerModeAndUserPoint(t *testing.T) {
	ctrl, err := brightness.Start(brightness.Config{Display: &fakeDevice{level: 50}})
	if err != nil {
		t.Fatal(err)
	}
	defer ctrl.Stop()

	sock := startServer(t, ctrl)
	c, err := rpcclient.Dial("unix", sock)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	if err := c.SetMode("auto"); err != nil {
		t.Fatal(err)
	}
	mode, err := c.GetMode()
	if err != nil {
		t.Fatal(err)
	}
	if mode != "auto" {
		t.Fatalf("GetMode() = %q, want auto", mode)
	}

	if err := c.SetUserPoint(100, 200); err != nil {
		t.Fatal(err)
	}
	lux, target, err := c.GetUserPoint()
	if err != nil {
		t.Fatal(err)
	}
	if lux != 100 || target != 200 {
		t.Fatalf("GetUserPoint() = (%v, %v), want (100, 200)", lux, target)
	}
}

func TestClientServerUnknownModeIsRejected(t *testing.T) {
	ctrl, err := brightness.Start(brightness.Config{Display: &fakeDevice{level: 50}})
	if err != nil {
		t.Fatal(err)
	}
	defer ctrl.Stop()

	sock := startServer(t, ctrl)
	c, err := rpcclient.Dial("unix", sock)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	if err := c.SetMode("sideways"); err == nil {
		t.Fatal("expected an error for an unknown mode")
	}
}

func TestClientServerCurrentLevel(t *testing.T) {
	ctrl, err := brightness.Start(brightness.Config{Display: &fakeDevice{level: 77}})
	if err != nil {
		t.Fatal(err)
	}
	defer ctrl.Stop()

	sock := startServer(t, ctrl)
	c, err := rpcclient.Dial("unix", sock)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	level, err := c.CurrentLevel()
	if err != nil {
		t.Fatal(err)
	}
	if level != 77 {
		t.Fatalf("CurrentLevel() = %d, want 77", level)
	}
}

func TestSessionClosesWhenClientDisconnects(t *testing.T) {
	// Regression sanity check: connecting and disconnecting repeatedly
	// must not hang the server or leak sessions indefinitely.
	ctrl, err := brightness.Start(brightness.Config{Display: &fakeDevice{level: 50}})
	if err != nil {
		t.Fatal(err)
	}
	defer ctrl.Stop()

	sock := startServer(t, ctrl)
	for i := 0; i < 5; i++ {
		c, err := rpcclient.Dial("unix", sock)
		if err != nil {
			t.Fatal(err)
		}
		if err := c.SetTarget(30, brightness.RampOff); err != nil {
			t.Fatal(err)
		}
		c.Close()
	}
	time.Sleep(20 * time.Millisecond)
}
