package display

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/RyanBlaney/alpha-switch/decoder"
)

// RGB is a colour with components in [0, 1]
type RGB struct {
	R float64 `json:"r" yaml:"r"`
	G float64 `json:"g" yaml:"g"`
	B float64 `json:"b" yaml:"b"`
}

var (
	Red  = RGB{R: 1}
	Blue = RGB{B: 1}
)

// Clamp limits every component to [0, 1]
func (c RGB) Clamp() RGB {
	clamp := func(v float64) float64 {
		return math.Max(0, math.Min(1, v))
	}
	return RGB{R: clamp(c.R), G: clamp(c.G), B: clamp(c.B)}
}

// Hex formats c as #rrggbb
func (c RGB) Hex() string {
	c = c.Clamp()
	to8 := func(v float64) int {
		return int(math.Round(v * 255))
	}
	return fmt.Sprintf("#%02x%02x%02x", to8(c.R), to8(c.G), to8(c.B))
}

func (c RGB) String() string {
	return c.Hex()
}

// ParseHex reads a #rrggbb (or rrggbb) colour
func ParseHex(s string) (RGB, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) != 6 {
		return RGB{}, fmt.Errorf("colour %q is not #rrggbb", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return RGB{}, fmt.Errorf("colour %q is not #rrggbb: %w", s, err)
	}
	return RGB{
		R: float64((v>>16)&0xff) / 255,
		G: float64((v>>8)&0xff) / 255,
		B: float64(v&0xff) / 255,
	}, nil
}

// Lerp blends linearly from a (t=0) to b (t=1)
func Lerp(a, b RGB, t float64) RGB {
	return RGB{
		R: a.R + (b.R-a.R)*t,
		G: a.G + (b.G-a.G)*t,
		B: a.B + (b.B-a.B)*t,
	}
}

// ColorMap turns a switch value into a colour. Binary values pick Off or
// On; continuous values blend from Off at Min to On at Max.
type ColorMap struct {
	Off RGB
	On  RGB
	Min float64
	Max float64
}

// DefaultColorMap is red for off and blue for on, over a log ratio of [-1, 1]
func DefaultColorMap() ColorMap {
	return ColorMap{Off: Red, On: Blue, Min: -1, Max: 1}
}

// Validate checks the continuous range
func (m ColorMap) Validate() error {
	if math.IsNaN(m.Min) || math.IsNaN(m.Max) || math.IsInf(m.Min, 0) || math.IsInf(m.Max, 0) {
		return fmt.Errorf("colour range must be finite, got [%g, %g]", m.Min, m.Max)
	}
	if m.Max <= m.Min {
		return fmt.Errorf("colour range max %g must exceed min %g", m.Max, m.Min)
	}
	return nil
}

// Color maps v onto the palette
func (m ColorMap) Color(v decoder.SwitchValue) RGB {
	if v.Mode.Binary() {
		if v.On() {
			return m.On
		}
		return m.Off
	}
	return m.Blend(v.Level)
}

// Blend maps a continuous level onto the Off..On ramp. ±Inf land on the
// ends and NaN on Off.
func (m ColorMap) Blend(level float64) RGB {
	switch {
	case math.IsNaN(level):
		return m.Off
	case math.IsInf(level, 1):
		return m.On
	case math.IsInf(level, -1):
		return m.Off
	}

	t := (level - m.Min) / (m.Max - m.Min)
	t = math.Max(0, math.Min(1, t))
	return Lerp(m.Off, m.On, t)
}
