// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package brightness

// command is the typed request posted onto a Controller's loop channel.
// Every exported Session/Controller operation that touches loop-owned
// state builds one of these, sends it on cmdC and blocks on its reply
// channel (destroySessionCmd has none, so Destroy does not wait); the
// loop goroutine is the only goroutine that ever reads or
// writes Controller/ABC/Ramp/Spline state directly.
type command interface {
	isCommand()
}

type createSessionCmd struct {
	reply chan *Session
}

type destroySessionCmd struct {
	id uint64
}

type setTargetCmd struct {
	id    uint64
	level int
	rate  int
	reply chan error
}

type targetResult struct {
	level int
	rate  int
	err   error
}

type getTargetCmd struct {
	id    uint64
	reply chan targetResult
}

type setModeCmd struct {
	id    uint64
	mode  Mode
	reply chan error
}

type modeResult struct {
	mode Mode
	err  error
}

type getModeCmd struct {
	id    uint64
	reply chan modeResult
}

type setUpdateCBCmd struct {
	id    uint64
	cb    Observer
	reply chan error
}

type setUserPointCmd struct {
	id     uint64
	lux    float32
	target int
	reply  chan error
}

type userPointResult struct {
	lux    float32
	target int
	err    error
}

type getUserPointCmd struct {
	id    uint64
	reply chan userPointResult
}

type levelResult struct {
	level int
	err   error
}

type currentLevelCmd struct {
	reply chan levelResult
}

type monitorCmd struct {
	obs   Observer
	reply chan error
}

type unmonitorCmd struct {
	obs   Observer
	reply chan struct{}
}

func (createSessionCmd) isCommand()  {}
func (destroySessionCmd) isCommand() {}
func (setTargetCmd) isCommand()      {}
func (getTargetCmd) isCommand()      {}
func (setModeCmd) isCommand()        {}
func (getModeCmd) isCommand()        {}
func (setUpdateCBCmd) isCommand()    {}
func (setUserPointCmd) isCommand()   {}
func (getUserPointCmd) isCommand()   {}
func (currentLevelCmd) isCommand()   {}
func (monitorCmd) isCommand()        {}
func (unmonitorCmd) isCommand()      {}
