package compose

import (
	"image"
	"image/color"

	"github.com/fogleman/gg"

	"github.com/matzehuels/inkpanel/pkg/fonts"
	"github.com/matzehuels/inkpanel/pkg/layout"
)

// Canvas is the drawing surface the compositor executes commands on.
type Canvas interface {
	Bounds() image.Rectangle
	Clear(c color.Color)
	DrawText(t layout.Text, c color.Color) error
	DrawImage(img image.Image, at image.Point)
	DrawLine(d layout.Divider, c color.Color)
	Image() image.Image
}

// GGCanvas draws with fogleman/gg.
type GGCanvas struct {
	dc    *gg.Context
	fonts *fonts.Set
}

// NewGGCanvas creates a canvas of the given geometry.
func NewGGCanvas(g layout.Geometry, fs *fonts.Set) *GGCanvas {
	return &GGCanvas{dc: gg.NewContext(g.Width, g.Height), fonts: fs}
}

// Bounds returns the canvas rectangle.
func (c *GGCanvas) Bounds() image.Rectangle {
	return image.Rect(0, 0, c.dc.Width(), c.dc.Height())
}

// Clear fills the canvas.
func (c *GGCanvas) Clear(col color.Color) {
	c.dc.SetColor(col)
	c.dc.Clear()
}

// DrawText draws t with its top-left corner at t.At.
func (c *GGCanvas) DrawText(t layout.Text, col color.Color) error {
	face, err := c.fonts.Face(t.Size)
	if err != nil {
		return err
	}
	c.dc.SetFontFace(face)
	c.dc.SetColor(col)
	c.dc.DrawStringAnchored(t.Content, float64(t.At.X), float64(t.At.Y), 0, 1)
	return nil
}

// DrawImage composites img with its top-left corner at at.
func (c *GGCanvas) DrawImage(img image.Image, at image.Point) {
	c.dc.DrawImage(img, at.X, at.Y)
}

// DrawLine strokes a divider.
func (c *GGCanvas) DrawLine(d layout.Divider, col color.Color) {
	w := d.Width
	if w <= 0 {
		w = 1
	}
	c.dc.SetColor(col)
	c.dc.SetLineWidth(w)
	c.dc.DrawLine(float64(d.From.X), float64(d.From.Y), float64(d.To.X), float64(d.To.Y))
	c.dc.Stroke()
}

// Image returns the canvas contents.
func (c *GGCanvas) Image() image.Image {
	return c.dc.Image()
}

var _ Canvas = (*GGCanvas)(nil)
