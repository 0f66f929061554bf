// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package brightness

// Observer receives a synchronous notification every time the Controller
// writes a new level to the physical device. Implementations must not
// block or call back into the Controller; they run on the Controller's
// own loop goroutine.
type Observer interface {
	OnChanged(level int)
}

// ObserverFunc adapts a plain function to Observer for Session.SetUpdateCB,
// which holds a single callback slot with no identity requirement. It
// must not be used with Controller.Monitor/Unmonitor: those key
// observers by identity in a map, and func values are not comparable,
// so registering one panics at the first Monitor call.
type ObserverFunc func(level int)

// OnChanged implements Observer.
func (f ObserverFunc) OnChanged(level int) {
	f(level)
}
