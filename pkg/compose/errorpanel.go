package compose

import (
	"image"
	"image/color"
	"image/draw"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/matzehuels/inkpanel/pkg/layout"
	"github.com/matzehuels/inkpanel/pkg/panel"
)

const (
	errorMarker   = "ERROR"
	errorMargin   = 10
	errorLineGap  = 3
	errorBarWidth = 80
)

// ErrorPanel draws the fixed failure panel: an accent bar with an error
// marker followed by message, wrapped to the panel width.
//
// It only uses the built-in bitmap font and never touches assets or font
// files, so it works when everything else is broken.
func ErrorPanel(g layout.Geometry, pal Palette, message string) *image.Paletted {
	w, h := max(g.Width, 1), max(g.Height, 1)
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(pal.White), image.Point{}, draw.Src)

	face := basicfont.Face7x13
	lineHeight := face.Height + errorLineGap
	bar := image.Rect(0, 0, min(w, errorMargin*2+errorBarWidth), min(h, lineHeight+errorMargin))
	draw.Draw(img, bar, image.NewUniform(pal.Accent), image.Point{}, draw.Src)

	markerColor := pal.White
	if pal.Accent == pal.White {
		markerColor = pal.Black
	}
	drawLine(img, face, markerColor, errorMargin, errorMargin/2+face.Ascent, errorMarker)

	width := (w - 2*errorMargin) / face.Advance
	y := bar.Max.Y + errorMargin + face.Ascent
	for _, line := range errorLines(message, width) {
		if y+face.Descent > h {
			break
		}
		drawLine(img, face, pal.Black, errorMargin, y, line)
		y += lineHeight
	}
	return Quantize(img, pal.Colors())
}

func errorLines(message string, width int) []string {
	if strings.TrimSpace(message) == "" {
		message = "unknown error"
	}
	var lines []string
	for _, para := range strings.Split(message, "\n") {
		wrapped := panel.Wrap(para, width)
		if len(wrapped) == 0 {
			continue
		}
		lines = append(lines, wrapped...)
	}
	return lines
}

func drawLine(dst draw.Image, face *basicfont.Face, c color.Color, x, y int, s string) {
	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}
