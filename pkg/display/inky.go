package display

import (
	"fmt"
	"image"
	"image/color"
	"strings"
	"sync"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/inky"
	"periph.io/x/host/v3"

	"github.com/matzehuels/inkpanel/pkg/compose"
	"github.com/matzehuels/inkpanel/pkg/layout"
)

// Default Raspberry Pi wiring of the Inky HATs.
const (
	DefaultSPI   = "SPI0.0"
	DefaultDC    = "22"
	DefaultReset = "27"
	DefaultBusy  = "17"
)

// InkyOptions selects the panel model and wiring. Empty pins use the defaults.
type InkyOptions struct {
	Model   string
	Palette compose.Palette
	SPI     string
	DC      string
	Reset   string
	Busy    string
}

// Inky drives a Pimoroni Inky pHAT or wHAT.
type Inky struct {
	mu      sync.Mutex
	dev     *inky.Dev
	port    spi.PortCloser
	model   string
	palette compose.Palette
	accent  inky.Color
	frame   image.Image
}

// OpenInky initializes the host drivers and opens the panel.
func OpenInky(opts InkyOptions) (*Inky, error) {
	model, err := inkyModel(opts.Model)
	if err != nil {
		return nil, err
	}
	accent, err := inkyColor(opts.Palette.Name)
	if err != nil {
		return nil, err
	}

	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("init host: %w", err)
	}
	port, err := spireg.Open(or(opts.SPI, DefaultSPI))
	if err != nil {
		return nil, fmt.Errorf("open spi: %w", err)
	}
	dc, err := pin(or(opts.DC, DefaultDC))
	if err != nil {
		port.Close()
		return nil, err
	}
	reset, err := pin(or(opts.Reset, DefaultReset))
	if err != nil {
		port.Close()
		return nil, err
	}
	busy, err := pin(or(opts.Busy, DefaultBusy))
	if err != nil {
		port.Close()
		return nil, err
	}

	dev, err := inky.New(port, dc, reset, busy, &inky.Opts{
		Model:       model,
		ModelColor:  accent,
		BorderColor: inky.White,
	})
	if err != nil {
		port.Close()
		return nil, fmt.Errorf("open inky: %w", err)
	}
	return &Inky{
		dev:     dev,
		port:    port,
		model:   strings.ToLower(or(opts.Model, "what")),
		palette: opts.Palette,
		accent:  accent,
	}, nil
}

func (d *Inky) ID() string { return "inky-" + d.model }

func (d *Inky) Bounds() image.Rectangle { return d.dev.Bounds() }

func (d *Inky) Palette() color.Palette { return d.palette.Colors() }

func (d *Inky) SetBorder(c layout.Color) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dev.SetBorder(borderColor(c, d.accent))
}

func (d *Inky) SetImage(img image.Image) error {
	if err := checkBounds(d.Bounds(), img); err != nil {
		return err
	}
	d.mu.Lock()
	d.frame = img
	d.mu.Unlock()
	return nil
}

// Show refreshes the panel. It blocks for the duration of the refresh.
func (d *Inky) Show() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.frame == nil {
		return fmt.Errorf("no image set")
	}
	return d.dev.Draw(d.dev.Bounds(), d.frame, d.frame.Bounds().Min)
}

func (d *Inky) Close() error {
	return d.port.Close()
}

func inkyModel(name string) (inky.Model, error) {
	switch strings.ToLower(name) {
	case "what", "":
		return inky.WHAT, nil
	case "phat":
		return inky.PHAT, nil
	case "phat2":
		return inky.PHAT2, nil
	}
	return 0, fmt.Errorf("unknown inky model %q (want what, phat or phat2)", name)
}

func inkyColor(variant string) (inky.Color, error) {
	switch strings.ToLower(variant) {
	case "red":
		return inky.Red, nil
	case "yellow":
		return inky.Yellow, nil
	case "black":
		return inky.Black, nil
	}
	return 0, fmt.Errorf("unknown colour variant %q", variant)
}

func borderColor(c layout.Color, accent inky.Color) inky.Color {
	switch c {
	case layout.Black:
		return inky.Black
	case layout.Accent:
		return accent
	default:
		return inky.White
	}
}

func pin(name string) (gpio.PinIO, error) {
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("gpio pin %s not found", name)
	}
	return p, nil
}

func or(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

var _ Driver = (*Inky)(nil)
