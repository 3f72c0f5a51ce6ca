package display

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"sync"

	"github.com/disintegration/imaging"

	"github.com/matzehuels/inkpanel/pkg/compose"
	"github.com/matzehuels/inkpanel/pkg/layout"
)

// memoryHistory bounds the frames kept by a long-running preview server.
const memoryHistory = 16

// Memory keeps the most recently shown frames in memory.
//
// FailSetImage and FailShow, when set, are returned by the corresponding
// calls, letting tests simulate an unresponsive panel.
type Memory struct {
	mu      sync.Mutex
	bounds  image.Rectangle
	palette compose.Palette
	pending image.Image
	shown   []image.Image
	border  layout.Color

	FailSetImage error
	FailShow     error
}

// NewMemory creates a memory display of the given geometry.
func NewMemory(g layout.Geometry, pal compose.Palette) *Memory {
	return &Memory{bounds: g.Bounds(), palette: pal}
}

func (m *Memory) ID() string { return "memory" }

func (m *Memory) Bounds() image.Rectangle { return m.bounds }

func (m *Memory) Palette() color.Palette { return m.palette.Colors() }

func (m *Memory) SetBorder(c layout.Color) {
	m.mu.Lock()
	m.border = c
	m.mu.Unlock()
}

// Border returns the last border colour set.
func (m *Memory) Border() layout.Color {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.border
}

func (m *Memory) SetImage(img image.Image) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailSetImage != nil {
		return m.FailSetImage
	}
	if err := checkBounds(m.bounds, img); err != nil {
		return err
	}
	m.pending = img
	return nil
}

func (m *Memory) Show() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailShow != nil {
		return m.FailShow
	}
	if m.pending == nil {
		return fmt.Errorf("no image set")
	}
	m.shown = append(m.shown, m.pending)
	if len(m.shown) > memoryHistory {
		m.shown = m.shown[len(m.shown)-memoryHistory:]
	}
	m.pending = nil
	return nil
}

func (m *Memory) Close() error { return nil }

// Shown returns the retained frames, oldest first.
func (m *Memory) Shown() []image.Image {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]image.Image(nil), m.shown...)
}

// Last returns the most recently shown frame, or nil.
func (m *Memory) Last() image.Image {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.shown) == 0 {
		return nil
	}
	return m.shown[len(m.shown)-1]
}

// LastPNG encodes the most recently shown frame.
func (m *Memory) LastPNG() ([]byte, error) {
	img := m.Last()
	if img == nil {
		return nil, fmt.Errorf("nothing shown yet")
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

var _ Driver = (*Memory)(nil)
