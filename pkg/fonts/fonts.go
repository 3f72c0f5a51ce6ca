// Package fonts provides font faces for panel rendering.
//
// The default typeface is Go Bold, embedded in the binary through
// golang.org/x/image/font/gofont, so a panel renders without any font files
// on the host. A TrueType or OpenType file can be configured instead.
package fonts

import (
	"fmt"
	"math"
	"os"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/opentype"
)

// DefaultName is the name of the embedded typeface.
const DefaultName = "Go Bold"

// Parsed default font (computed once on first access).
var (
	defaultFont     *opentype.Font
	defaultFontErr  error
	defaultFontOnce sync.Once
)

func parsedDefault() (*opentype.Font, error) {
	defaultFontOnce.Do(func() {
		defaultFont, defaultFontErr = opentype.Parse(gobold.TTF)
	})
	return defaultFont, defaultFontErr
}

// Set hands out faces of one typeface, caching one face per size.
// It is safe for concurrent use.
type Set struct {
	name  string
	font  *opentype.Font
	mu    sync.Mutex
	faces map[float64]font.Face
}

// Default returns a set for the embedded typeface.
func Default() (*Set, error) {
	f, err := parsedDefault()
	if err != nil {
		return nil, fmt.Errorf("parse embedded font: %w", err)
	}
	return newSet(DefaultName, f), nil
}

// Load returns a set for the font file at path, or the default set when path
// is empty.
func Load(path string) (*Set, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse font %s: %w", path, err)
	}
	return newSet(path, f), nil
}

func newSet(name string, f *opentype.Font) *Set {
	return &Set{name: name, font: f, faces: make(map[float64]font.Face)}
}

// Name identifies the typeface.
func (s *Set) Name() string { return s.name }

// Face returns a face of the given pixel size. Sizes are rounded to a tenth
// of a pixel.
func (s *Set) Face(size float64) (font.Face, error) {
	if size <= 0 || math.IsNaN(size) || math.IsInf(size, 0) {
		return nil, fmt.Errorf("invalid font size %v", size)
	}
	size = math.Round(size*10) / 10

	s.mu.Lock()
	defer s.mu.Unlock()
	if f, ok := s.faces[size]; ok {
		return f, nil
	}
	f, err := opentype.NewFace(s.font, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, err
	}
	s.faces[size] = f
	return f, nil
}

// Close releases every cached face.
func (s *Set) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for size, f := range s.faces {
		f.Close()
		delete(s.faces, size)
	}
	return nil
}
