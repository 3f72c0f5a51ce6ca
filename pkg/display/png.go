package display

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"sync"

	"github.com/disintegration/imaging"

	"github.com/matzehuels/inkpanel/pkg/compose"
	"github.com/matzehuels/inkpanel/pkg/layout"
)

// PNGFile writes every shown frame to a PNG file. The file is replaced
// atomically so readers never see a partial image.
type PNGFile struct {
	mu      sync.Mutex
	path    string
	bounds  image.Rectangle
	palette compose.Palette
	border  layout.Color
	frame   image.Image
}

// NewPNGFile creates a driver writing to path. A zero geometry defaults to
// the wHAT resolution.
func NewPNGFile(path string, g layout.Geometry, pal compose.Palette) (*PNGFile, error) {
	if path == "" {
		return nil, fmt.Errorf("png display needs an output path")
	}
	if g.Width == 0 && g.Height == 0 {
		g = layout.Geometry{Width: layout.RefWidth, Height: layout.RefHeight}
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return &PNGFile{path: path, bounds: g.Bounds(), palette: pal}, nil
}

func (d *PNGFile) ID() string { return "png" }

func (d *PNGFile) Path() string { return d.path }

func (d *PNGFile) Bounds() image.Rectangle { return d.bounds }

func (d *PNGFile) Palette() color.Palette { return d.palette.Colors() }

func (d *PNGFile) SetBorder(c layout.Color) {
	d.mu.Lock()
	d.border = c
	d.mu.Unlock()
}

func (d *PNGFile) SetImage(img image.Image) error {
	if err := checkBounds(d.bounds, img); err != nil {
		return err
	}
	d.mu.Lock()
	d.frame = img
	d.mu.Unlock()
	return nil
}

func (d *PNGFile) Show() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.frame == nil {
		return fmt.Errorf("no image set")
	}
	return writePNG(d.path, d.frame)
}

func (d *PNGFile) Close() error { return nil }

func writePNG(path string, img image.Image) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".inkpanel-*.png")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if err = imaging.Encode(tmp, img, imaging.PNG); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	if err = os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

var _ Driver = (*PNGFile)(nil)
