package panel

import (
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
)

// priceFormat renders thousands separators and exactly two decimals.
const priceFormat = "#,###.##"

// DegreeMark is appended to every temperature.
const DegreeMark = "°"

// Placeholder replaces a value that could not be resolved.
const Placeholder = "--"

// FormatAmount renders a monetary amount as "42,000.50".
func FormatAmount(amount float64) string {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return Placeholder
	}
	return humanize.FormatFloat(priceFormat, amount)
}

// FormatPrice renders a price as "$42,000.50". Negative amounts put the sign
// before the currency symbol.
func FormatPrice(p Price) string {
	if p.Amount < 0 {
		return "-" + p.Currency + FormatAmount(-p.Amount)
	}
	return p.Currency + FormatAmount(p.Amount)
}

// FormatTemperature renders a signed whole-degree reading as "-12°".
func FormatTemperature(t Temperature) string {
	return strconv.Itoa(t.Degrees) + DegreeMark
}

// ParseAmount parses a decimal string such as "42000.5".
func ParseAmount(s string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, strconv.ErrSyntax
	}
	return f, nil
}

// ParseOccupancy maps the raw flag written by sibling processes ("in", "out")
// to an OccupancyState. Anything else is Unknown.
func ParseOccupancy(raw string) OccupancyState {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "in", "inside":
		return Inside
	case "out", "outside":
		return Outside
	default:
		return Unknown
	}
}

// CelsiusToFahrenheit converts and rounds to whole degrees.
func CelsiusToFahrenheit(c float64) int {
	return int(math.Round(c*9/5 + 32))
}

// Wrap splits text into lines of at most width characters, breaking at spaces.
// Words longer than width are split. Whitespace runs collapse to one space.
func Wrap(text string, width int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	if width <= 0 {
		return []string{strings.Join(words, " ")}
	}

	var lines []string
	var line strings.Builder
	lineLen := 0
	flush := func() {
		if lineLen > 0 {
			lines = append(lines, line.String())
			line.Reset()
			lineLen = 0
		}
	}

	for _, w := range words {
		for utf8.RuneCountInString(w) > width {
			flush()
			r := []rune(w)
			lines = append(lines, string(r[:width]))
			w = string(r[width:])
		}
		n := utf8.RuneCountInString(w)
		if lineLen > 0 && lineLen+1+n > width {
			flush()
		}
		if lineLen > 0 {
			line.WriteByte(' ')
			lineLen++
		}
		line.WriteString(w)
		lineLen += n
	}
	flush()
	return lines
}
