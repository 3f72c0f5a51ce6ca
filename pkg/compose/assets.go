package compose

import (
	"fmt"
	"image"
	"path/filepath"
	"sync"

	"github.com/disintegration/imaging"
)

// Assets resolves image references used by draw commands.
type Assets interface {
	Load(ref string) (image.Image, error)
}

// DirAssets loads images from a directory and keeps them in memory.
// References must stay inside the directory.
type DirAssets struct {
	dir   string
	mu    sync.Mutex
	cache map[string]image.Image
}

// NewDirAssets returns assets rooted at dir.
func NewDirAssets(dir string) *DirAssets {
	return &DirAssets{dir: dir, cache: make(map[string]image.Image)}
}

// Dir returns the asset directory.
func (a *DirAssets) Dir() string { return a.dir }

// Load decodes the image at ref (PNG, JPEG, GIF, BMP or TIFF).
func (a *DirAssets) Load(ref string) (image.Image, error) {
	ref = filepath.Clean(filepath.FromSlash(ref))
	if !filepath.IsLocal(ref) {
		return nil, fmt.Errorf("asset %q escapes the asset directory", ref)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if img, ok := a.cache[ref]; ok {
		return img, nil
	}
	img, err := imaging.Open(filepath.Join(a.dir, ref))
	if err != nil {
		return nil, fmt.Errorf("load asset %s: %w", ref, err)
	}
	a.cache[ref] = img
	return img, nil
}

// MapAssets serves images from memory, e.g. in tests and previews.
type MapAssets map[string]image.Image

// Load returns the image registered under ref.
func (m MapAssets) Load(ref string) (image.Image, error) {
	if img, ok := m[ref]; ok {
		return img, nil
	}
	return nil, fmt.Errorf("asset %s not found", ref)
}

// fit resizes img as requested by an image command.
func fit(img image.Image, size image.Point, scale float64) image.Image {
	if size.X > 0 && size.Y > 0 {
		return imaging.Resize(img, size.X, size.Y, imaging.Lanczos)
	}
	if scale <= 0 || scale == 1 {
		return img
	}
	w := int(float64(img.Bounds().Dx())*scale + 0.5)
	if w < 1 {
		w = 1
	}
	return imaging.Resize(img, w, 0, imaging.Lanczos)
}
