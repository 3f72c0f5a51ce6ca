// Package display pushes finished bitmaps to an output device.
//
// A [Driver] accepts a frame with SetImage and makes it visible with Show.
// Drivers for e-ink hardware block until the refresh completes, which takes
// several seconds on tri-colour panels.
//
// Available drivers:
//
//   - [Inky]: Pimoroni Inky pHAT/wHAT over SPI and GPIO (periph.io)
//   - [PNGFile]: writes each frame to a PNG file, for hosts without a panel
//   - [Memory]: keeps frames in memory, for tests and the preview server
//
// [Oriented] wraps any driver to mirror frames for panels mounted upside
// down.
package display

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/matzehuels/inkpanel/pkg/compose"
	"github.com/matzehuels/inkpanel/pkg/layout"
)

// Driver is an output device.
type Driver interface {
	// ID names the device, e.g. "inky-what" or "png". Locks are taken per ID.
	ID() string
	Bounds() image.Rectangle
	Palette() color.Palette
	SetBorder(c layout.Color)
	SetImage(img image.Image) error
	Show() error
	Close() error
}

// Kinds of drivers selectable from the command line.
const (
	KindInky = "inky"
	KindPNG  = "png"
)

// Options configures a driver.
type Options struct {
	Kind    string
	Variant string // red, black or yellow
	Model   string // inky model: what, phat or phat2
	Output  string // png path
	Width   int    // png only
	Height  int    // png only
	FlipH   bool
	FlipV   bool
}

// Open returns the configured driver, wrapped with [Oriented] when a flip is
// requested.
func Open(opts Options) (Driver, error) {
	pal, err := compose.PaletteFor(opts.Variant)
	if err != nil {
		return nil, err
	}

	var d Driver
	switch strings.ToLower(opts.Kind) {
	case KindInky, "":
		d, err = OpenInky(InkyOptions{Model: opts.Model, Palette: pal})
	case KindPNG:
		d, err = NewPNGFile(opts.Output, layout.Geometry{Width: opts.Width, Height: opts.Height}, pal)
	default:
		return nil, fmt.Errorf("unknown display %q (want inky or png)", opts.Kind)
	}
	if err != nil {
		return nil, err
	}
	if opts.FlipH || opts.FlipV {
		d = NewOriented(d, opts.FlipH, opts.FlipV)
	}
	return d, nil
}

// checkBounds rejects frames whose size differs from the device.
func checkBounds(want image.Rectangle, img image.Image) error {
	if img == nil {
		return fmt.Errorf("nil image")
	}
	if got := img.Bounds().Size(); got != want.Size() {
		return fmt.Errorf("image is %dx%d, display is %dx%d", got.X, got.Y, want.Dx(), want.Dy())
	}
	return nil
}
