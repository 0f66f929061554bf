// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package sensor supplies ambient-lux samples to an abc.ABC. A Topic is
// anything that can be subscribed to for batches of Sample values: FakeLux
// generates a deterministic synthetic series for testing and the -f CLI
// flag, RemoteTopic relays samples published over a websocket by a remote
// light-sensor process, and Hardware reads an I2C ambient-light sensor directly.
package sensor
