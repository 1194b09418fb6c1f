// Package palette2steps decides how many posterization steps a
// sampled palette supports. It enumerates candidate plans; the caller
// picks one. It never fails: degenerate palettes collapse into the
// black-and-white or monochrome classes.
package palette2steps

import (
	i2stypes "img2svg/type"
)

// MaxSteps is the largest traceable step count.
const MaxSteps = 4

// Config holds the classification thresholds. Hue spans are in
// degrees, lightness in [0,1] except the spans, which are summed
// absolute differences over the palette.
type Config struct {
	// BackgroundLightness: a first sample lighter than this is the
	// background and never a content color.
	BackgroundLightness float64
	// InkLightness: a last sample darker than this marks a
	// black-and-white image.
	InkLightness float64
	// HueSpan and LightnessSpan bound the total variation under
	// which the palette counts as monochrome.
	HueSpan       float64
	LightnessSpan float64
}

// DefaultConfig returns the documented threshold defaults.
func DefaultConfig() Config {
	return Config{
		BackgroundLightness: 0.8,
		InkLightness:        0.05,
		HueSpan:             5.0,
		LightnessSpan:       2.0,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.BackgroundLightness == 0 {
		c.BackgroundLightness = d.BackgroundLightness
	}
	if c.InkLightness == 0 {
		c.InkLightness = d.InkLightness
	}
	if c.HueSpan == 0 {
		c.HueSpan = d.HueSpan
	}
	if c.LightnessSpan == 0 {
		c.LightnessSpan = d.LightnessSpan
	}
	return c
}

var black = i2stypes.FromRGB255(0, 0, 0)

// Plans classifies a sampled palette and returns the candidate plans.
// A single-element result is a forced single-step plan (black-and-white
// or monochrome); otherwise one plan per step count 1..MaxSteps, plan
// i's colors a length-i prefix of the last plan's.
func Plans(p i2stypes.Palette, cfg Config) []i2stypes.Plan {
	cfg = cfg.withDefaults()

	content := p
	if len(content) > 0 {
		if _, _, l := content[0].Hsl(); l > cfg.BackgroundLightness {
			content = content[1:]
		}
	}

	if len(content) == 0 {
		return []i2stypes.Plan{{Steps: 1, Colors: []i2stypes.Color{black}}}
	}

	last := content[len(content)-1]
	if _, _, l := last.Hsl(); l < cfg.InkLightness || !last.HueDefined() {
		return []i2stypes.Plan{{Steps: 1, Colors: []i2stypes.Color{black}}}
	}

	if hueVar, lightVar := totalVariation(content); hueVar < cfg.HueSpan && lightVar < cfg.LightnessSpan {
		// Monochrome: the last sample is positionally least
		// prominent but the most saturated one in this ordering.
		return []i2stypes.Plan{{Steps: 1, Colors: []i2stypes.Color{last}}}
	}

	n := min(MaxSteps, len(content))
	plans := make([]i2stypes.Plan, 0, n)
	for i := 1; i <= n; i++ {
		colors := make([]i2stypes.Color, i)
		copy(colors, content[:i])
		plans = append(plans, i2stypes.Plan{Steps: i, Colors: colors})
	}
	return plans
}

// totalVariation sums absolute consecutive differences of hue and
// lightness over the palette. Undefined hues contribute 0.
func totalVariation(p i2stypes.Palette) (hueVar, lightVar float64) {
	for i := 1; i < len(p); i++ {
		h0, _, l0 := p[i-1].Hsl()
		h1, _, l1 := p[i].Hsl()
		if !p[i-1].HueDefined() {
			h0 = 0
		}
		if !p[i].HueDefined() {
			h1 = 0
		}
		hueVar += abs(h1 - h0)
		lightVar += abs(l1 - l0)
	}
	return hueVar, lightVar
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
