package i2stypes

import (
	"image"

	"github.com/lucasb-eyer/go-colorful"
)

// Color is an opaque color with equivalent hex, RGB and HSL forms.
// Alpha is coverage in [0,1]; opaque colors carry 1.
type Color struct {
	colorful.Color
	Alpha float64
}

// FromColorful wraps an opaque colorful color.
func FromColorful(c colorful.Color) Color {
	return Color{Color: c.Clamped(), Alpha: 1}
}

// FromRGB255 builds an opaque Color from 8-bit channels.
func FromRGB255(r, g, b uint8) Color {
	return Color{
		Color: colorful.Color{
			R: float64(r) / 255.0,
			G: float64(g) / 255.0,
			B: float64(b) / 255.0,
		},
		Alpha: 1,
	}
}

// FromHex parses a "#rrggbb" string.
func FromHex(s string) (Color, error) {
	c, err := colorful.Hex(s)
	if err != nil {
		return Color{}, err
	}
	return Color{Color: c, Alpha: 1}, nil
}

// HueDefined reports whether the HSL hue carries information.
// Achromatic colors (saturation near zero) have no meaningful hue;
// go-colorful reports h=0 for them instead of NaN.
func (c Color) HueDefined() bool {
	_, s, _ := c.Hsl()
	return s > 1e-4
}

// Palette is an ordered color sequence in the sampler's own
// significance order. Consumers never re-sort it.
type Palette []Color

// Plan is a posterization decision: how many threshold steps to trace
// with and which sampled colors stand for them. len(Colors) == Steps.
type Plan struct {
	Steps  int
	Colors []Color
}

// Frame 表示一帧图像
type Frame struct {
	Index int
	Image image.Image
}

type Pixel struct {
	R, G, B int
}

// Box 表示颜色盒子
type Box struct {
	Pixels     []Pixel
	RMin, RMax int
	GMin, GMax int
	BMin, BMax int
}
