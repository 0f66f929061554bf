// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// brightnessd is the CLI test harness and daemon for the brightness
// control engine: -l/-r/-m/-u/-f/-s flags and test/info subcommands,
// in the same flag-driven, error-returning mainImpl() style as
// google-periph's cmd/i2c, cmd/gpio-write and friends.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"os/signal"
	"time"

	"github.com/GermanBionicSystems/brightnessd"
	"github.com/GermanBionicSystems/brightnessd/internal/fbdev"
	"github.com/GermanBionicSystems/brightnessd/rpcclient"
	"github.com/GermanBionicSystems/brightnessd/rpcserver"
	"github.com/GermanBionicSystems/brightnessd/sensor"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

func mainImpl() error {
	level := flag.Int("l", -1, "set the target level (0-255) and exit")
	rate := flag.Int("r", brightness.RampOff, "ramp rate in levels/second for -l, 0 for immediate")
	mode := flag.String("m", "", "set the mode (\"auto\" or \"manual\")")
	ui := flag.Bool("u", false, "render a live ANSI brightness gauge until interrupted")
	fake := flag.Bool("f", false, "use an in-memory fake device and sensor instead of real hardware")
	sampleRate := flag.Duration("s", time.Second, "fake sensor sample period, only meaningful with -f")
	sock := flag.String("socket", "/run/brightnessd.sock", "unix socket for the RPC server and the info subcommand's client")
	device := flag.String("device", "/sys/class/backlight/backlight", "sysfs backlight directory, ignored with -f")
	verbose := flag.Bool("v", false, "verbose logging")
	flag.Parse()

	if !*verbose {
		log.SetOutput(io.Discard)
	}
	log.SetFlags(log.Lmicroseconds)

	switch flag.Arg(0) {
	case "test":
		return runTest(os.Stdout)
	case "info":
		return runInfo(*sock)
	}

	ctrl, err := startController(*fake, *device, *sampleRate)
	if err != nil {
		return err
	}
	defer ctrl.Stop()
	sess := ctrl.SystemSession()

	if *mode != "" {
		m, err := parseModeFlag(*mode)
		if err != nil {
			return err
		}
		if err := sess.SetMode(m); err != nil {
			return err
		}
	}
	if *level >= 0 {
		if err := sess.SetTarget(*level, *rate); err != nil {
			return err
		}
	}

	if *ui {
		return runUI(ctrl)
	}

	ln, err := net.Listen("unix", *sock)
	if err != nil {
		return err
	}
	defer ln.Close()

	srv := rpcserver.New(ctrl, ln)
	log.Printf("brightnessd: listening on %s", *sock)

	done := make(chan error, 1)
	go func() { done <- srv.Serve() }()

	chanSignal := make(chan os.Signal, 1)
	signal.Notify(chanSignal, os.Interrupt)
	select {
	case <-chanSignal:
		return nil
	case err := <-done:
		return err
	}
}

// startController builds a Controller over either the fake device/sensor
// pair (-f) or the real sysfs backlight and, if an I2C bus is present, a
// real ambient light sensor, falling back to no sensor (AUTO then receives
// no lux samples) when the bus or the sensor itself can't be opened.
func startController(fake bool, device string, sampleRate time.Duration) (*brightness.Controller, error) {
	if fake {
		return brightness.Start(brightness.Config{
			Display: fbdev.NewFakeDevice(brightness.LevelMin),
			Sensor:  sensor.NewFakeLux(nil, sampleRate),
		})
	}

	dev, err := fbdev.NewSysfsDevice(device)
	if err != nil {
		return nil, fmt.Errorf("brightnessd: open backlight device: %w", err)
	}
	if _, err := host.Init(); err != nil {
		return nil, err
	}

	var topic sensor.Topic
	if b, err := i2creg.Open(""); err != nil {
		log.Printf("brightnessd: no I2C bus available, starting without an ambient sensor: %v", err)
	} else if s, err := sensor.NewHardware(b, 0x23, nil); err != nil {
		log.Printf("brightnessd: ambient light sensor unavailable, starting without one: %v", err)
	} else {
		topic = s
	}

	return brightness.Start(brightness.Config{Display: dev, Sensor: topic})
}

func parseModeFlag(s string) (brightness.Mode, error) {
	switch s {
	case "auto":
		return brightness.Auto, nil
	case "manual":
		return brightness.Manual, nil
	default:
		return 0, fmt.Errorf("brightnessd: unknown mode %q, want \"auto\" or \"manual\"", s)
	}
}

// gaugeObserver adapts a plain function to brightness.Observer by
// pointer identity, the way Monitor/Unmonitor require (a bare func value
// can't be used as the map key the Controller registers observers
// under). OnChanged runs on the Controller's own loop goroutine (see
// observer.go), so it must never call back into the Controller; mode is
// captured once up front rather than queried from inside the callback.
type gaugeObserver struct {
	mode brightness.Mode
	w    io.Writer
}

func (g *gaugeObserver) OnChanged(level int) {
	fmt.Fprintln(g.w, renderGauge(level, g.mode.String()))
}

// runUI prints the current level as an ANSI gauge every time it changes,
// until interrupted.
func runUI(ctrl *brightness.Controller) error {
	mode, err := ctrl.SystemSession().GetMode()
	if err != nil {
		return err
	}
	obs := &gaugeObserver{mode: mode, w: terminalWriter()}
	if err := ctrl.Monitor(obs); err != nil {
		return err
	}

	chanSignal := make(chan os.Signal, 1)
	signal.Notify(chanSignal, os.Interrupt)
	<-chanSignal
	ctrl.Unmonitor(obs)
	return nil
}

// runInfo connects to a running brightnessd over sock and prints a
// single gauge snapshot of its current level and mode.
func runInfo(sock string) error {
	c, err := rpcclient.Dial("unix", sock)
	if err != nil {
		return fmt.Errorf("brightnessd: connect to %s: %w", sock, err)
	}
	defer c.Close()

	level, err := c.CurrentLevel()
	if err != nil {
		return err
	}
	mode, err := c.GetMode()
	if err != nil {
		return err
	}

	fmt.Fprintln(terminalWriter(), renderGauge(level, mode))
	return nil
}

func main() {
	if err := mainImpl(); err != nil {
		fmt.Fprintf(os.Stderr, "brightnessd: %s.\n", err)
		os.Exit(1)
	}
}
