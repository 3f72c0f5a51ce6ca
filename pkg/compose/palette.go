package compose

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strings"

	"github.com/matzehuels/inkpanel/pkg/layout"
)

// Panel colours as the e-ink controller expects them.
var (
	White  = color.RGBA{0xff, 0xff, 0xff, 0xff}
	Black  = color.RGBA{0x00, 0x00, 0x00, 0xff}
	Red    = color.RGBA{0xff, 0x00, 0x00, 0xff}
	Yellow = color.RGBA{0xff, 0xff, 0x00, 0xff}
)

// Palette maps logical layout colours onto the colours of one display.
type Palette struct {
	Name   string
	White  color.Color
	Black  color.Color
	Accent color.Color
}

// PaletteFor returns the palette of a colour variant: "red", "yellow" or
// "black" (monochrome, where the accent is black).
func PaletteFor(variant string) (Palette, error) {
	p := Palette{Name: strings.ToLower(variant), White: White, Black: Black}
	switch p.Name {
	case "red":
		p.Accent = Red
	case "yellow":
		p.Accent = Yellow
	case "black":
		p.Accent = Black
	default:
		return Palette{}, fmt.Errorf("unknown colour variant %q (want red, black or yellow)", variant)
	}
	return p, nil
}

// Color returns the display colour for a logical colour.
func (p Palette) Color(c layout.Color) color.Color {
	switch c {
	case layout.White:
		return p.White
	case layout.Accent:
		return p.Accent
	default:
		return p.Black
	}
}

// Colors returns the distinct display colours, white first.
func (p Palette) Colors() color.Palette {
	pal := color.Palette{p.White, p.Black}
	if p.Accent != p.Black && p.Accent != p.White {
		pal = append(pal, p.Accent)
	}
	return pal
}

// Quantize maps every pixel of img to the nearest palette colour without
// dithering, so identical input always yields identical output.
func Quantize(img image.Image, pal color.Palette) *image.Paletted {
	b := img.Bounds()
	dst := image.NewPaletted(image.Rect(0, 0, b.Dx(), b.Dy()), pal)
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}
