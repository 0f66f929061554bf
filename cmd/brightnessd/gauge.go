// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"fmt"
	"image/color"
	"io"
	"os"

	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

const gaugeWidth = 24

var (
	gaugeOn  = color.NRGBA{R: 255, G: 191, B: 0, A: 255}
	gaugeOff = color.NRGBA{R: 40, G: 40, B: 40, A: 255}
)

// renderGauge draws level (0-255) as a row of ANSI-256 color blocks
// followed by the mode and numeric level, the same "LED strip on your
// terminal" trick periph-devices/screen1d uses for an APA-102 strip,
// generalized here from a stream of RGB pixels to a single brightness
// scalar. It falls back to a plain-text bar when stdout isn't a
// terminal, so piped/redirected output stays readable.
func renderGauge(level int, mode string) string {
	filled := (level * gaugeWidth) / 255
	switch {
	case filled < 0:
		filled = 0
	case filled > gaugeWidth:
		filled = gaugeWidth
	}

	var bar []byte
	if colorEnabled() {
		palette := *ansi256.Default
		bar = make([]byte, 0, gaugeWidth*8)
		for i := 0; i < gaugeWidth; i++ {
			c := gaugeOff
			if i < filled {
				c = gaugeOn
			}
			bar = append(bar, []byte(palette.Block(c))...)
		}
		bar = append(bar, []byte("\033[0m")...)
	} else {
		for i := 0; i < gaugeWidth; i++ {
			if i < filled {
				bar = append(bar, '#')
			} else {
				bar = append(bar, '-')
			}
		}
	}
	return fmt.Sprintf("%s %-6s level=%d", bar, mode, level)
}

// colorEnabled reports whether stdout is a terminal go-isatty can
// confirm ANSI escapes will render on, the conventional pairing with
// go-colorable used throughout the retrieved CLI tools.
func colorEnabled() bool {
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}

// terminalWriter wraps stdout so ANSI escapes render correctly on
// Windows consoles too, the same wrapper screen1d.New uses.
func terminalWriter() io.Writer {
	return colorable.NewColorableStdout()
}
