// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package fbdev

import (
	"bytes"
	"fmt"
	"image/png"
	"net/http"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font/gofont/goregular"
)

const (
	panelWidth  = 240
	panelHeight = 80
)

// FakeDevice is an in-memory stand-in for a physical backlight register,
// used by tests and by cmd/brightnessd's -f flag. Every write is also
// rasterized onto a small "virtual panel" image (a filled gauge bar plus
// the numeric level) that can be inspected over HTTP, the same role
// periph-devices/screen1d's console emulator fills for an LED strip and
// videosink's Display fills for a full framebuffer.
type FakeDevice struct {
	font *truetype.Font

	mu    sync.Mutex
	level int
	frame []byte
}

// NewFakeDevice returns a FakeDevice starting at level.
func NewFakeDevice(level int) *FakeDevice {
	f, err := freetype.ParseFont(goregular.TTF)
	if err != nil {
		// goregular.TTF is compiled in; a parse failure here means the
		// embedded font asset itself is corrupt, not a runtime condition.
		panic(fmt.Sprintf("fbdev: parse embedded font: %v", err))
	}
	d := &FakeDevice{font: f, level: level}
	d.render()
	return d
}

// String implements conn.Resource.
func (d *FakeDevice) String() string {
	return "FakeDevice"
}

// Halt implements conn.Resource.
func (d *FakeDevice) Halt() error {
	return d.WritePower(0)
}

// ReadPower implements Device.
func (d *FakeDevice) ReadPower() (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.level, nil
}

// WritePower implements Device.
func (d *FakeDevice) WritePower(level int) error {
	d.mu.Lock()
	d.level = level
	d.mu.Unlock()
	d.render()
	return nil
}

// render draws the current level as a filled gauge bar and label text
// into the virtual panel image, the same way periph-devices' small
// character/graphic displays (hd44780, matrixorbital, serlcd) use
// gg/freetype to rasterize text before pushing pixels to the panel.
func (d *FakeDevice) render() {
	d.mu.Lock()
	level := d.level
	d.mu.Unlock()

	frac := float64(level) / 255
	switch {
	case frac < 0:
		frac = 0
	case frac > 1:
		frac = 1
	}

	dc := gg.NewContext(panelWidth, panelHeight)
	dc.SetRGB(0.05, 0.05, 0.05)
	dc.Clear()

	dc.SetRGB(0.95, 0.75, 0.15)
	dc.DrawRectangle(4, 4, frac*(panelWidth-8), panelHeight-28)
	dc.Fill()

	dc.SetRGB(1, 1, 1)
	dc.SetLineWidth(1)
	dc.DrawRectangle(4, 4, panelWidth-8, panelHeight-28)
	dc.Stroke()

	face := truetype.NewFace(d.font, &truetype.Options{Size: 16})
	dc.SetFontFace(face)
	dc.DrawStringAnchored(fmt.Sprintf("level %d", level), panelWidth/2, panelHeight-12, 0.5, 0.5)

	buf := &bytes.Buffer{}
	if err := png.Encode(buf, dc.Image()); err != nil {
		return
	}
	d.mu.Lock()
	d.frame = buf.Bytes()
	d.mu.Unlock()
}

// ServeHTTP serves the current gauge frame as a PNG image. This is a
// single-still-frame simplification of videosink's multipart MJPEG
// Display: brightnessd only ever needs to inspect the latest level in a
// browser, not watch a continuous feed.
func (d *FakeDevice) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	d.mu.Lock()
	frame := d.frame
	d.mu.Unlock()
	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(frame)
}

var _ Device = (*FakeDevice)(nil)
var _ http.Handler = (*FakeDevice)(nil)
