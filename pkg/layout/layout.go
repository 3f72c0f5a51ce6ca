// Package layout decides what goes where on the panel.
//
// [Build] is a pure function from fetch outcomes to draw commands. Every
// source has a fixed anchor; only font sizes react to content. A source that
// could not be resolved gets a placeholder at its anchor and never aborts the
// rest of the panel. Values served from the cache are drawn with a trailing
// [StaleMark] and listed in an accent note above the footer.
package layout

import (
	"fmt"
	"image"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/matzehuels/inkpanel/pkg/panel"
)

// Text conventions.
const (
	StaleMark       = "*"
	NoData          = "no data"
	DefaultAsset    = "BTC"
	QuoteWrapWidth  = 34
	QuoteMaxLines   = 2
	FooterTimestamp = "2006-01-02 15:04"
)

// Asset names.
const (
	IconInside    = "icon-plant-inside.png"
	IconOutside   = "icon-plant-outside.png"
	IconUnknown   = "icon-plant-unknown.png"
	WeatherIconFS = "weather/%s.png"
)

// Reference font sizes.
const (
	sizePrice   = 55
	sizeQuote   = 20
	sizeAuthor  = 16
	sizeOutdoor = 80
	sizeIndoor  = 50
	sizeIconAlt = 40
	sizeFooter  = 20
	sizeNote    = 14

	// temperatures outside [-9, 99] drop by this many pixels
	sizeReduction = 15
)

// Input is everything the layout depends on.
type Input struct {
	Outcomes map[panel.Key]panel.Outcome
	Geometry Geometry
	Now      time.Time

	// Asset labels the price placeholder when the price is unavailable.
	Asset string
	// Backdrop is an optional full-panel background asset.
	Backdrop string
}

// FontSize returns the font size for a temperature reading. Three-digit and
// two-digit negative readings use a smaller size so they fit their anchor.
func FontSize(degrees int, standard float64) float64 {
	if degrees >= 100 || degrees <= -10 {
		return standard - sizeReduction
	}
	return standard
}

// OccupancyIcon returns the icon for an occupancy outcome. Anything that is
// not a known Inside or Outside value selects the unknown icon.
func OccupancyIcon(o panel.Outcome) string {
	if o.HasValue() && o.Value.Occupancy != nil {
		switch o.Value.Occupancy.State {
		case panel.Inside:
			return IconInside
		case panel.Outside:
			return IconOutside
		}
	}
	return IconUnknown
}

// Build returns the draw commands for one frame.
// The only error is an invalid geometry.
func Build(in Input) ([]Command, error) {
	if err := in.Geometry.Validate(); err != nil {
		return nil, err
	}
	b := &builder{in: in, g: in.Geometry}

	if in.Backdrop != "" {
		b.add(Image{Field: "backdrop", Ref: in.Backdrop, Fit: image.Pt(in.Geometry.Width, in.Geometry.Height), Layer: LayerBackground})
	}
	b.price()
	b.quote()
	b.temperature(panel.KeyOutdoor, 30, 120, sizeOutdoor, Black)
	b.temperature(panel.KeyIndoor, 30, 205, sizeIndoor, Accent)
	b.conditions()
	b.add(Divider{
		From:  b.g.Point(270, 150),
		To:    b.g.Point(270, 240),
		Width: 3 * b.g.Factor(),
		Color: Accent,
		Layer: LayerDivider,
	})
	b.occupancy()
	b.footer()

	sort.SliceStable(b.cmds, func(i, j int) bool { return b.cmds[i].ZOrder() < b.cmds[j].ZOrder() })
	return b.cmds, nil
}

type builder struct {
	in    Input
	g     Geometry
	cmds  []Command
	stale []panel.Key
	age   time.Duration
}

func (b *builder) add(c Command) { b.cmds = append(b.cmds, c) }

// outcome returns the outcome for key, treating a missing entry as
// Unavailable, and records degraded keys for the footer note.
func (b *builder) outcome(key panel.Key) panel.Outcome {
	o, ok := b.in.Outcomes[key]
	if !ok {
		return panel.Unavailable(fmt.Errorf("%s was not fetched", key))
	}
	if o.Status == panel.StatusDegraded {
		b.stale = append(b.stale, key)
		if o.Value.Freshness.Age > b.age {
			b.age = o.Value.Freshness.Age
		}
	}
	return o
}

func (b *builder) text(field panel.Key, x, y int, size float64, c Color, content string) {
	b.add(Text{
		Field:   string(field),
		At:      b.g.Point(x, y),
		Size:    b.g.Size(size),
		Color:   c,
		Content: content,
		Layer:   LayerField,
	})
}

func mark(o panel.Outcome, s string) string {
	if o.Status == panel.StatusDegraded {
		return s + StaleMark
	}
	return s
}

func (b *builder) price() {
	o := b.outcome(panel.KeyPrice)
	asset := b.in.Asset
	if asset == "" {
		asset = DefaultAsset
	}
	content := asset + " " + panel.Placeholder
	if o.HasValue() && o.Value.Price != nil {
		p := *o.Value.Price
		if p.Asset != "" {
			asset = p.Asset
		}
		content = mark(o, asset+" "+panel.FormatPrice(p))
	}
	b.text(panel.KeyPrice, 20, 0, sizePrice, Black, content)
}

func (b *builder) quote() {
	o := b.outcome(panel.KeyQuote)
	if !o.HasValue() || o.Value.Quote == nil {
		b.text(panel.KeyQuote, 20, 62, sizeQuote, Black, NoData)
		return
	}
	q := *o.Value.Quote
	lines := panel.Wrap(q.Text, QuoteWrapWidth)
	if len(lines) == 0 {
		b.text(panel.KeyQuote, 20, 62, sizeQuote, Black, NoData)
		return
	}
	if len(lines) > QuoteMaxLines {
		lines = lines[:QuoteMaxLines]
		lines[QuoteMaxLines-1] = ellipsize(lines[QuoteMaxLines-1], QuoteWrapWidth)
	}
	lines[len(lines)-1] = mark(o, lines[len(lines)-1])

	const lineHeight = 22
	y := 62
	for _, line := range lines {
		b.text(panel.KeyQuote, 20, y, sizeQuote, Black, line)
		y += lineHeight
	}
	if q.Author != "" {
		b.text(panel.KeyQuote, 20, y, sizeAuthor, Black, "— "+q.Author)
	}
}

func ellipsize(s string, width int) string {
	r := []rune(s)
	if len(r) >= width {
		r = r[:width-1]
	}
	return strings.TrimRight(string(r), " ") + "…"
}

func (b *builder) temperature(key panel.Key, x, y int, standard float64, c Color) {
	o := b.outcome(key)
	if !o.HasValue() || o.Value.Temperature == nil {
		b.text(key, x, y, standard, c, panel.Placeholder+panel.DegreeMark)
		return
	}
	t := *o.Value.Temperature
	b.text(key, x, y, FontSize(t.Degrees, standard), c, mark(o, panel.FormatTemperature(t)))
}

func (b *builder) conditions() {
	o := b.outcome(panel.KeyConditions)
	if !o.HasValue() || o.Value.Icon == nil {
		b.text(panel.KeyConditions, 170, 150, sizeIconAlt, Black, panel.Placeholder)
		return
	}
	b.add(Image{
		Field: string(panel.KeyConditions),
		At:    b.g.Point(170, 150),
		Ref:   fmt.Sprintf(WeatherIconFS, o.Value.Icon.Key),
		Scale: b.g.Factor(),
		Layer: LayerIcon,
	})
}

func (b *builder) occupancy() {
	o := b.outcome(panel.KeyOccupancy)
	b.add(Image{
		Field: string(panel.KeyOccupancy),
		At:    b.g.Point(300, 150),
		Ref:   OccupancyIcon(o),
		Scale: b.g.Factor(),
		Layer: LayerIcon,
	})
}

func (b *builder) footer() {
	b.add(Text{
		Field:   "footer",
		At:      b.g.Point(20, 272),
		Size:    b.g.Size(sizeFooter),
		Color:   Black,
		Content: "Updated at " + b.in.Now.Format(FooterTimestamp),
		Layer:   LayerFooter,
	})
	if note := StaleNote(b.stale, b.in.Now, b.age); note != "" {
		b.add(Text{
			Field:   "stale",
			At:      b.g.Point(20, 252),
			Size:    b.g.Size(sizeNote),
			Color:   Accent,
			Content: note,
			Layer:   LayerFooter,
		})
	}
}

// StaleNote describes the degraded sources, e.g.
// "* cached: price, outdoor (12 minutes ago)". It is empty when nothing is
// degraded.
func StaleNote(keys []panel.Key, now time.Time, oldest time.Duration) string {
	if len(keys) == 0 {
		return ""
	}
	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = string(k)
	}
	ago := humanize.RelTime(now.Add(-oldest), now, "ago", "from now")
	return fmt.Sprintf("%s cached: %s (%s)", StaleMark, strings.Join(names, ", "), ago)
}
