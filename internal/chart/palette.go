package chart

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

type rgb struct {
	r, g, b uint8
}

func (c rgb) hex() string {
	return fmt.Sprintf("#%02X%02X%02X", c.r, c.g, c.b)
}

// Gradient is a continuous color ramp over [0, 1] defined by evenly spaced
// hex stops. Percentile bands map their normalized midpoint through it so
// colors stay comparable across rows.
type Gradient struct {
	stops []rgb
}

// ParseGradient builds a gradient from hex color stops ("#RRGGBB").
func ParseGradient(stops []string) (Gradient, error) {
	if len(stops) < 2 {
		return Gradient{}, fmt.Errorf("gradient needs at least two stops, got %d", len(stops))
	}
	parsed := make([]rgb, len(stops))
	for i, s := range stops {
		c, err := parseHexColor(s)
		if err != nil {
			return Gradient{}, fmt.Errorf("gradient stop %d: %w", i, err)
		}
		parsed[i] = c
	}
	return Gradient{stops: parsed}, nil
}

// At evaluates the gradient at t, clamped to [0, 1].
func (g Gradient) At(t float64) string {
	if math.IsNaN(t) || t <= 0 {
		return g.stops[0].hex()
	}
	if t >= 1 {
		return g.stops[len(g.stops)-1].hex()
	}

	segments := len(g.stops) - 1
	pos := t * float64(segments)
	i := int(pos)
	frac := pos - float64(i)

	a, b := g.stops[i], g.stops[i+1]
	return rgb{
		r: lerp(a.r, b.r, frac),
		g: lerp(a.g, b.g, frac),
		b: lerp(a.b, b.b, frac),
	}.hex()
}

func lerp(a, b uint8, t float64) uint8 {
	return uint8(math.Round(float64(a) + (float64(b)-float64(a))*t))
}

func parseHexColor(s string) (rgb, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return rgb{}, fmt.Errorf("invalid hex color %q", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return rgb{}, fmt.Errorf("invalid hex color %q: %w", s, err)
	}
	return rgb{
		r: uint8(v >> 16),
		g: uint8(v >> 8),
		b: uint8(v),
	}, nil
}
