// Package compose executes layout commands into a display-ready bitmap.
//
// Each command runs in isolation: a command that fails (a missing icon, a
// bad font size, even a panic inside the drawing library) is recorded as a
// RENDER failure in the [Report] and skipped, and the remaining commands
// still draw. A partially drawn panel is better than a blank one.
//
// The finished canvas is quantized to the display palette without
// dithering, so the same commands always produce the same pixels.
package compose

import (
	"context"
	"fmt"
	"image"
	"sort"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/inkpanel/pkg/errors"
	"github.com/matzehuels/inkpanel/pkg/fonts"
	"github.com/matzehuels/inkpanel/pkg/layout"
	"github.com/matzehuels/inkpanel/pkg/observability"
)

// Failure is one command that could not be drawn.
type Failure struct {
	Command string
	Err     error
}

// Report summarizes a render.
type Report struct {
	Executed int
	Failures []Failure
}

// Failed returns the number of skipped commands.
func (r Report) Failed() int { return len(r.Failures) }

// Renderer turns commands into a bitmap.
type Renderer interface {
	Render(ctx context.Context, g layout.Geometry, cmds []layout.Command) (*image.Paletted, Report, error)
}

// Compositor is the production Renderer.
type Compositor struct {
	Assets  Assets
	Fonts   *fonts.Set
	Palette Palette
	Logger  *log.Logger

	// NewCanvas creates the drawing surface. Defaults to a GGCanvas.
	NewCanvas func(g layout.Geometry) Canvas
}

// New creates a compositor. A nil logger uses the default logger.
func New(assets Assets, fs *fonts.Set, pal Palette, logger *log.Logger) *Compositor {
	if logger == nil {
		logger = log.Default()
	}
	return &Compositor{Assets: assets, Fonts: fs, Palette: pal, Logger: logger}
}

// Render draws cmds in z-order on a fresh canvas.
//
// Individual command failures are reported, not returned. The returned error
// is FATAL and only occurs when no canvas can be produced at all.
func (c *Compositor) Render(ctx context.Context, g layout.Geometry, cmds []layout.Command) (img *image.Paletted, report Report, err error) {
	start := time.Now()
	defer func() {
		observability.Panel().OnCompose(ctx, len(cmds), report.Failed(), time.Since(start), err)
	}()

	if err := g.Validate(); err != nil {
		return nil, report, err
	}
	canvas, cerr := c.canvas(g)
	if cerr != nil {
		return nil, report, errors.Fatal(cerr, "create canvas")
	}
	canvas.Clear(c.Palette.White)

	ordered := make([]layout.Command, len(cmds))
	copy(ordered, cmds)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].ZOrder() < ordered[j].ZOrder() })

	for _, cmd := range ordered {
		if cerr := ctx.Err(); cerr != nil {
			return nil, report, errors.Fatal(cerr, "render interrupted")
		}
		if xerr := c.exec(canvas, cmd); xerr != nil {
			c.Logger.Warn("skipping draw command", "command", cmd.String(), "error", xerr)
			report.Failures = append(report.Failures, Failure{Command: cmd.String(), Err: xerr})
			continue
		}
		report.Executed++
	}
	return Quantize(canvas.Image(), c.Palette.Colors()), report, nil
}

func (c *Compositor) canvas(g layout.Geometry) (canvas Canvas, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	if c.NewCanvas != nil {
		return c.NewCanvas(g), nil
	}
	if c.Fonts == nil {
		return nil, fmt.Errorf("no fonts configured")
	}
	return NewGGCanvas(g, c.Fonts), nil
}

// exec runs one command, converting errors and panics into RENDER errors.
func (c *Compositor) exec(canvas Canvas, cmd layout.Command) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.New(errors.ErrCodeRender, "panic drawing %s: %v", cmd, r)
		}
	}()

	switch cmd := cmd.(type) {
	case layout.Text:
		if err := canvas.DrawText(cmd, c.Palette.Color(cmd.Color)); err != nil {
			return errors.Wrap(errors.ErrCodeRender, err, "draw text %q", cmd.Content)
		}
	case layout.Image:
		if c.Assets == nil {
			return errors.New(errors.ErrCodeRender, "no assets configured for %s", cmd.Ref)
		}
		img, err := c.Assets.Load(cmd.Ref)
		if err != nil {
			return errors.Wrap(errors.ErrCodeRender, err, "draw image")
		}
		canvas.DrawImage(fit(img, cmd.Fit, cmd.Scale), cmd.At)
	case layout.Divider:
		canvas.DrawLine(cmd, c.Palette.Color(cmd.Color))
	default:
		return errors.New(errors.ErrCodeRender, "unsupported command %T", cmd)
	}
	return nil
}

var _ Renderer = (*Compositor)(nil)
