// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package persist stores the four keyed integers the Controller restores
// on startup: mode, target level, and the user-taught (lux, target)
// anchor. Every operation is best-effort and never panics: a failed save
// is logged and returned to the caller, and a failed restore is logged
// and answered with the caller's fallback state and a nil error, so it
// never blocks startup.
package persist
