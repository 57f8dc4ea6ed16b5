package trail

import (
	"fmt"
	"sort"

	colorful "github.com/lucasb-eyer/go-colorful"
	"github.com/san-kum/lorenz3d/internal/dynamo"
)

// Age thresholds in simulated time units.
const (
	LighterDuration = 2.0
	MidDuration     = 10.0
)

// DefaultPalette is the palette used when none is configured.
const DefaultPalette = "blue"

// RGB is a color with channels in [0, 1].
type RGB struct{ R, G, B float64 }

// Hex formats c as #rrggbb.
func (c RGB) Hex() string { return colorful.Color(c).Clamped().Hex() }

// Lerp interpolates each channel linearly from c towards o.
func (c RGB) Lerp(o RGB, t float64) RGB {
	return RGB(colorful.Color(c).BlendRgb(colorful.Color(o), t))
}

// Gradient is the three-stop color scheme of a trail.
type Gradient struct {
	Lighter, Mid, Darker RGB
}

// ColorForAge fades lighter to mid over the first LighterDuration, mid to
// darker until MidDuration, and holds darker afterwards. The result does not
// depend on buffer capacity.
func ColorForAge(age float64, g Gradient) RGB {
	switch {
	case age < LighterDuration:
		return g.Lighter.Lerp(g.Mid, age/LighterDuration)
	case age < MidDuration:
		return g.Mid.Lerp(g.Darker, (age-LighterDuration)/(MidDuration-LighterDuration))
	default:
		return g.Darker
	}
}

func (g Gradient) ColorForAge(age float64) RGB { return ColorForAge(age, g) }

// ParseGradient builds a gradient from three hex strings.
func ParseGradient(lighter, mid, darker string) (Gradient, error) {
	var g Gradient
	for _, stop := range []struct {
		dst *RGB
		hex string
	}{{&g.Lighter, lighter}, {&g.Mid, mid}, {&g.Darker, darker}} {
		c, err := colorful.Hex(stop.hex)
		if err != nil {
			return Gradient{}, fmt.Errorf("parse color %q: %w", stop.hex, err)
		}
		*stop.dst = RGB(c)
	}
	return g, nil
}

func mustGradient(lighter, mid, darker string) Gradient {
	g, err := ParseGradient(lighter, mid, darker)
	if err != nil {
		panic(err)
	}
	return g
}

var palettes = map[string]Gradient{
	"orange": mustGradient("#ffedd4", "#ff8904", "#ca3500"),
	"red":    mustGradient("#82181a", "#fb2c36", "#82181a"),
	"blue":   mustGradient("#dbeafe", "#51a2ff", "#1447e6"),
	"green":  mustGradient("#024a70", "#7ccf00", "#0d542b"),
	"yellow": mustGradient("#fef9c2", "#f0b100", "#733e0a"),
	"pink":   mustGradient("#733e0a", "#f6339a", "#8b0836"),
}

// Palette returns the named gradient.
func Palette(name string) (Gradient, error) {
	g, ok := palettes[name]
	if !ok {
		return Gradient{}, fmt.Errorf("%w: %s", dynamo.ErrUnknownPalette, name)
	}
	return g, nil
}

// PaletteNames lists the registered palettes in sorted order.
func PaletteNames() []string {
	names := make([]string, 0, len(palettes))
	for name := range palettes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
