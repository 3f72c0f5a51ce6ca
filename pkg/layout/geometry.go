package layout

import (
	stderrors "errors"
	"image"
	"math"

	"github.com/matzehuels/inkpanel/pkg/errors"
)

// Anchors are expressed in a 400x300 reference frame (Inky wHAT) and scaled
// to the actual panel.
const (
	RefWidth  = 400
	RefHeight = 300

	MinWidth  = 200
	MinHeight = 100
)

// ErrInvalidGeometry is wrapped by the FATAL error returned for a panel the
// layout cannot be drawn on.
var ErrInvalidGeometry = stderrors.New("invalid display geometry")

// Geometry is the pixel size of the panel.
type Geometry struct {
	Width, Height int
}

// GeometryOf returns the geometry of a display bounds rectangle.
func GeometryOf(r image.Rectangle) Geometry {
	return Geometry{Width: r.Dx(), Height: r.Dy()}
}

// Validate reports a FATAL error for non-positive or too small geometries.
func (g Geometry) Validate() error {
	if g.Width < MinWidth || g.Height < MinHeight {
		return errors.Wrap(errors.ErrCodeFatal, ErrInvalidGeometry, "%dx%d is smaller than %dx%d", g.Width, g.Height, MinWidth, MinHeight)
	}
	return nil
}

// Bounds returns the panel rectangle.
func (g Geometry) Bounds() image.Rectangle {
	return image.Rect(0, 0, g.Width, g.Height)
}

// Point scales a reference-frame point to the panel.
func (g Geometry) Point(x, y int) image.Point {
	return image.Point{
		X: int(math.Round(float64(x) * float64(g.Width) / RefWidth)),
		Y: int(math.Round(float64(y) * float64(g.Height) / RefHeight)),
	}
}

// Factor is the uniform scale applied to font sizes and icons.
func (g Geometry) Factor() float64 {
	return math.Min(float64(g.Width)/RefWidth, float64(g.Height)/RefHeight)
}

// Size scales a reference-frame font size to the panel.
func (g Geometry) Size(px float64) float64 {
	return math.Round(px*g.Factor()*10) / 10
}
