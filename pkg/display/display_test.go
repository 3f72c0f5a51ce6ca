package display

import (
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"periph.io/x/devices/v3/inky"

	"github.com/matzehuels/inkpanel/pkg/compose"
	"github.com/matzehuels/inkpanel/pkg/layout"
)

var small = layout.Geometry{Width: 200, Height: 100}

func redPalette(t *testing.T) compose.Palette {
	t.Helper()
	p, err := compose.PaletteFor("red")
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func blank(g layout.Geometry, pal compose.Palette) *image.Paletted {
	return compose.Quantize(imaging.New(g.Width, g.Height, color.White), pal.Colors())
}

func TestPNGFileShow(t *testing.T) {
	pal := redPalette(t)
	path := filepath.Join(t.TempDir(), "out", "panel.png")
	d, err := NewPNGFile(path, small, pal)
	if err != nil {
		t.Fatal(err)
	}
	if err := d.Show(); err == nil {
		t.Error("Show without an image should fail")
	}

	frame := blank(small, pal)
	frame.SetColorIndex(5, 5, 2)
	if err := d.SetImage(frame); err != nil {
		t.Fatal(err)
	}
	if err := d.Show(); err != nil {
		t.Fatalf("Show: %v", err)
	}

	got, err := imaging.Open(path)
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	if got.Bounds().Size() != image.Pt(200, 100) {
		t.Errorf("size = %v", got.Bounds().Size())
	}
	r, g, b, _ := got.At(5, 5).RGBA()
	if r>>8 != 0xff || g != 0 || b != 0 {
		t.Errorf("pixel = %v, want red", got.At(5, 5))
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("expected only the output file, found %d entries", len(entries))
	}
}

func TestPNGFileDefaults(t *testing.T) {
	d, err := NewPNGFile(filepath.Join(t.TempDir(), "p.png"), layout.Geometry{}, redPalette(t))
	if err != nil {
		t.Fatal(err)
	}
	if d.Bounds() != image.Rect(0, 0, 400, 300) {
		t.Errorf("bounds = %v", d.Bounds())
	}
	if _, err := NewPNGFile("", small, redPalette(t)); err == nil {
		t.Error("empty path should fail")
	}
}

func TestSetImageSizeMismatch(t *testing.T) {
	pal := redPalette(t)
	m := NewMemory(small, pal)
	if err := m.SetImage(blank(layout.Geometry{Width: 400, Height: 300}, pal)); err == nil {
		t.Error("wrong-sized frame should be rejected")
	}
	if err := m.SetImage(nil); err == nil {
		t.Error("nil frame should be rejected")
	}
}

func TestMemory(t *testing.T) {
	pal := redPalette(t)
	m := NewMemory(small, pal)
	if m.Last() != nil {
		t.Error("new display should be empty")
	}
	m.SetBorder(layout.Accent)
	if m.Border() != layout.Accent {
		t.Errorf("border = %v", m.Border())
	}

	frame := blank(small, pal)
	if err := m.SetImage(frame); err != nil {
		t.Fatal(err)
	}
	if err := m.Show(); err != nil {
		t.Fatal(err)
	}
	if m.Last() != image.Image(frame) || len(m.Shown()) != 1 {
		t.Error("shown frame not recorded")
	}
	if data, err := m.LastPNG(); err != nil || len(data) == 0 {
		t.Errorf("LastPNG: %d bytes, %v", len(data), err)
	}

	boom := errors.New("busy pin stuck")
	m.FailShow = boom
	_ = m.SetImage(frame)
	if err := m.Show(); !errors.Is(err, boom) {
		t.Errorf("Show = %v, want injected error", err)
	}
	if len(m.Shown()) != 1 {
		t.Error("failed show should not record a frame")
	}
}

func TestOrientedFlips(t *testing.T) {
	pal := redPalette(t)
	tests := []struct {
		name         string
		flipH, flipV bool
		want         image.Point
	}{
		{"none", false, false, image.Pt(0, 0)},
		{"horizontal", true, false, image.Pt(199, 0)},
		{"vertical", false, true, image.Pt(0, 99)},
		{"both", true, true, image.Pt(199, 99)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMemory(small, pal)
			o := NewOriented(m, tt.flipH, tt.flipV)

			frame := blank(small, pal)
			frame.SetColorIndex(0, 0, 1)
			if err := o.SetImage(frame); err != nil {
				t.Fatal(err)
			}
			if err := o.Show(); err != nil {
				t.Fatal(err)
			}
			got, ok := m.Last().(*image.Paletted)
			if !ok {
				t.Fatalf("shown frame is %T, want *image.Paletted", m.Last())
			}
			if got.ColorIndexAt(tt.want.X, tt.want.Y) != 1 {
				t.Errorf("black pixel not at %v", tt.want)
			}
			if o.ID() != "memory" || o.Unwrap() != Driver(m) {
				t.Error("wrapper should delegate to the wrapped driver")
			}
		})
	}
}

func TestOpenUnknown(t *testing.T) {
	if _, err := Open(Options{Kind: "lcd", Variant: "red"}); err == nil {
		t.Error("unknown display kind should fail")
	}
	if _, err := Open(Options{Kind: KindPNG, Variant: "green", Output: "x.png"}); err == nil {
		t.Error("unknown variant should fail")
	}
}

func TestOpenPNGWithFlip(t *testing.T) {
	d, err := Open(Options{Kind: KindPNG, Variant: "black", Output: filepath.Join(t.TempDir(), "p.png"), FlipH: true, FlipV: true})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := d.(*Oriented); !ok {
		t.Errorf("driver = %T, want *Oriented", d)
	}
	if len(d.Palette()) != 2 {
		t.Errorf("black palette has %d colours", len(d.Palette()))
	}
}

func TestInkyMappings(t *testing.T) {
	models := map[string]inky.Model{"": inky.WHAT, "what": inky.WHAT, "PHAT": inky.PHAT, "phat2": inky.PHAT2}
	for name, want := range models {
		got, err := inkyModel(name)
		if err != nil || got != want {
			t.Errorf("inkyModel(%q) = %v, %v", name, got, err)
		}
	}
	if _, err := inkyModel("impression"); err == nil {
		t.Error("unsupported model should fail")
	}

	colors := map[string]inky.Color{"red": inky.Red, "yellow": inky.Yellow, "black": inky.Black}
	for name, want := range colors {
		got, err := inkyColor(name)
		if err != nil || got != want {
			t.Errorf("inkyColor(%q) = %v, %v", name, got, err)
		}
	}

	if borderColor(layout.White, inky.Red) != inky.White ||
		borderColor(layout.Black, inky.Red) != inky.Black ||
		borderColor(layout.Accent, inky.Yellow) != inky.Yellow {
		t.Error("border colour mapping")
	}
}
