// Package brush describes the stroke style a growth instance paints with.
package brush

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// Color is a packed 0xRRGGBB value.
type Color uint32

// Bark is the tree tool's default trunk colour.
const Bark Color = 0x45220a

func RGB(r, g, b uint8) Color {
	return Color(uint32(r)<<16 | uint32(g)<<8 | uint32(b))
}

func (c Color) RGB() (r, g, b uint8) {
	return uint8(c >> 16), uint8(c >> 8), uint8(c)
}

func (c Color) Hex() string { return fmt.Sprintf("#%06x", uint32(c)&0xffffff) }

func (c Color) String() string { return c.Hex() }

// FromHSV converts hue in degrees and saturation/value in [0,1].
func FromHSV(h, s, v float64) Color {
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	r, g, b := colorful.Hsv(h, clamp01(s), clamp01(v)).Clamped().RGB255()
	return RGB(r, g, b)
}

// ParseColor accepts "#rrggbb", "rrggbb" or "0xrrggbb".
func ParseColor(s string) (Color, error) {
	t := strings.TrimSpace(strings.ToLower(s))
	t = strings.TrimPrefix(t, "#")
	t = strings.TrimPrefix(t, "0x")
	if len(t) != 6 {
		return 0, fmt.Errorf("brush: invalid colour %q", s)
	}
	v, err := strconv.ParseUint(t, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("brush: invalid colour %q: %w", s, err)
	}
	return Color(v), nil
}

func (c Color) MarshalText() ([]byte, error) { return []byte(c.Hex()), nil }

func (c *Color) UnmarshalText(b []byte) error {
	v, err := ParseColor(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

func clamp01(f float64) float64 { return math.Max(0, math.Min(1, f)) }

// Brush is the style shared by every segment of one growth.
type Brush struct {
	Thickness      float64 `yaml:"thickness" toml:"thickness" json:"thickness"`
	MaxSpread      float64 `yaml:"max_spread" toml:"max_spread" json:"max_spread"`
	Color          Color   `yaml:"color" toml:"color" json:"color"`
	EnablePressure bool    `yaml:"enable_pressure" toml:"enable_pressure" json:"enable_pressure"`
	Material       string  `yaml:"material" toml:"material" json:"material"`
	Texture        string  `yaml:"texture,omitempty" toml:"texture,omitempty" json:"texture,omitempty"`
}

// Default mirrors the tree tool's brush.
func Default() Brush {
	return Brush{
		Thickness:      0.1,
		MaxSpread:      20,
		Color:          Bark,
		EnablePressure: true,
		Material:       "material_without_tex",
	}
}

func (b Brush) WithColor(c Color) Brush {
	b.Color = c
	return b
}

// Width is the stroke width for a sample at the given pressure.
func (b Brush) Width(pressure float64) float64 {
	if !b.EnablePressure {
		return b.Thickness
	}
	return b.Thickness * clamp01(pressure)
}
