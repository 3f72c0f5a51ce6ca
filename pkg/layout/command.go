package layout

import (
	"fmt"
	"image"
)

// Color is a logical panel colour. The compositor maps it onto the palette
// of the attached display.
type Color uint8

// Panel colours.
const (
	White Color = iota
	Black
	Accent // red or yellow on tri-colour panels, black otherwise
)

func (c Color) String() string {
	switch c {
	case White:
		return "white"
	case Black:
		return "black"
	case Accent:
		return "accent"
	default:
		return fmt.Sprintf("color(%d)", c)
	}
}

// Layer is the z-order of a command. Lower layers are drawn first.
type Layer int

// Layers in drawing order.
const (
	LayerBackground Layer = iota
	LayerField
	LayerIcon
	LayerDivider
	LayerFooter
)

// Command is one draw instruction. Commands are plain data.
type Command interface {
	ZOrder() Layer
	String() string
}

// Text draws a single line with its top-left corner at At.
type Text struct {
	Field   string // source key or footer slot, for diagnostics
	At      image.Point
	Size    float64 // font size in pixels
	Color   Color
	Content string
	Layer   Layer
}

// Image draws an asset with its top-left corner at At.
//
// Scale resizes the asset by a factor (0 and 1 mean natural size). Fit, when
// non-zero, resizes the asset to exactly that size and takes precedence.
type Image struct {
	Field string
	At    image.Point
	Ref   string // asset path relative to the asset directory
	Scale float64
	Fit   image.Point
	Layer Layer
}

// Divider draws a straight line between two points.
type Divider struct {
	From, To image.Point
	Width    float64
	Color    Color
	Layer    Layer
}

func (t Text) ZOrder() Layer    { return t.Layer }
func (i Image) ZOrder() Layer   { return i.Layer }
func (d Divider) ZOrder() Layer { return d.Layer }

func (t Text) String() string {
	return fmt.Sprintf("text[%s] %q at %v size %.0f %s", t.Field, t.Content, t.At, t.Size, t.Color)
}

func (i Image) String() string {
	return fmt.Sprintf("image[%s] %s at %v", i.Field, i.Ref, i.At)
}

func (d Divider) String() string {
	return fmt.Sprintf("divider %v-%v %s", d.From, d.To, d.Color)
}
