// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package fbdev implements the concrete backlight register that sits behind
// brightness.Config.Display: SysfsDevice for real hardware and FakeDevice
// for tests and the CLI's -f flag, the same real/fake pairing
// periph-devices/screen1d offers an APA-102 LED strip.
package fbdev
