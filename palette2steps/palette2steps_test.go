package palette2steps

import (
	"testing"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	i2stypes "img2svg/type"
)

func hsl(h, s, l float64) i2stypes.Color {
	return i2stypes.FromColorful(colorful.Hsl(h, s, l))
}

func TestPlansBlackAndWhite(t *testing.T) {
	tests := []struct {
		name    string
		palette i2stypes.Palette
	}{
		{
			"dark last sample",
			i2stypes.Palette{hsl(0, 0, 0.95), hsl(10, 0.8, 0.5), hsl(200, 0.7, 0.4), hsl(300, 0.6, 0.3), hsl(30, 0.9, 0.02)},
		},
		{
			"achromatic last sample",
			i2stypes.Palette{hsl(0, 0, 0.95), hsl(10, 0.8, 0.5), hsl(200, 0.7, 0.4), hsl(300, 0.6, 0.3), hsl(0, 0, 0.5)},
		},
		{
			"empty palette",
			i2stypes.Palette{},
		},
		{
			"background only",
			i2stypes.Palette{hsl(0, 0, 0.95)},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plans := Plans(tt.palette, Config{})
			require.Len(t, plans, 1)
			assert.Equal(t, 1, plans[0].Steps)
			require.Len(t, plans[0].Colors, 1)
			assert.Equal(t, "#000000", plans[0].Colors[0].Hex())
		})
	}
}

func TestPlansMonochrome(t *testing.T) {
	// Hues within 5 degrees and lightness nearly flat: one plan
	// carrying the last (most saturated) sample.
	p := i2stypes.Palette{
		hsl(10, 0.5, 0.5),
		hsl(12, 0.6, 0.45),
		hsl(13, 0.7, 0.4),
		hsl(14, 0.9, 0.35),
	}
	plans := Plans(p, Config{})
	require.Len(t, plans, 1)
	assert.Equal(t, 1, plans[0].Steps)
	assert.Equal(t, p[3].Hex(), plans[0].Colors[0].Hex())
}

func TestPlansCandidates(t *testing.T) {
	p := i2stypes.Palette{
		hsl(0, 0, 0.9), // background, dropped
		hsl(0, 0.8, 0.5),
		hsl(90, 0.7, 0.4),
		hsl(180, 0.6, 0.5),
		hsl(270, 0.8, 0.3),
	}
	plans := Plans(p, Config{})
	require.Len(t, plans, 4)

	last := plans[3]
	for i, plan := range plans {
		assert.Equal(t, i+1, plan.Steps)
		require.Len(t, plan.Colors, i+1)
		// Each plan is a prefix of the richest one.
		for j, c := range plan.Colors {
			assert.Equal(t, last.Colors[j].Hex(), c.Hex())
		}
	}
	// Background never becomes a content color.
	assert.Equal(t, p[1].Hex(), last.Colors[0].Hex())
}

func TestPlansShortPalette(t *testing.T) {
	p := i2stypes.Palette{
		hsl(0, 0.8, 0.5),
		hsl(180, 0.6, 0.4),
	}
	plans := Plans(p, Config{})
	require.Len(t, plans, 2)
	assert.Equal(t, 1, plans[0].Steps)
	assert.Equal(t, 2, plans[1].Steps)
}

func TestPlansAllIdentical(t *testing.T) {
	// Degenerate input must classify, never fail.
	c := hsl(120, 0.5, 0.5)
	plans := Plans(i2stypes.Palette{c, c, c, c, c}, Config{})
	require.Len(t, plans, 1)
	assert.Equal(t, c.Hex(), plans[0].Colors[0].Hex())
}

func TestConfigDefaults(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 0.8, cfg.BackgroundLightness)
	assert.Equal(t, 0.05, cfg.InkLightness)
	assert.Equal(t, 5.0, cfg.HueSpan)
	assert.Equal(t, 2.0, cfg.LightnessSpan)
}
