package display

import (
	"image"

	"github.com/disintegration/imaging"

	"github.com/matzehuels/inkpanel/pkg/compose"
)

// Oriented mirrors frames before handing them to the wrapped driver.
// Flipping both axes rotates the frame by 180 degrees.
type Oriented struct {
	Driver
	flipH, flipV bool
}

// NewOriented wraps d.
func NewOriented(d Driver, flipH, flipV bool) *Oriented {
	return &Oriented{Driver: d, flipH: flipH, flipV: flipV}
}

// SetImage flips img and re-quantizes it to the display palette.
func (o *Oriented) SetImage(img image.Image) error {
	if img == nil || (!o.flipH && !o.flipV) {
		return o.Driver.SetImage(img)
	}
	out := imaging.Clone(img)
	if o.flipH {
		out = imaging.FlipH(out)
	}
	if o.flipV {
		out = imaging.FlipV(out)
	}
	return o.Driver.SetImage(compose.Quantize(out, o.Palette()))
}

// Unwrap returns the wrapped driver.
func (o *Oriented) Unwrap() Driver { return o.Driver }
