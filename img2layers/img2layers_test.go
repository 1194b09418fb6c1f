package img2layers

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// glyph paints a black square centered on a white background.
func glyph(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.NRGBA{R: 255, G: 255, B: 255, A: 255}
			if x >= w/4 && x < 3*w/4 && y >= h/4 && y < 3*h/4 {
				c = color.NRGBA{A: 255}
			}
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func TestTraceSingleStep(t *testing.T) {
	doc, err := Trace(glyph(40, 40), 1, 0.2)
	require.NoError(t, err)
	assert.Equal(t, 40, doc.Width)
	assert.Equal(t, 40, doc.Height)
	require.NotEmpty(t, doc.Shapes)

	for _, s := range doc.Shapes {
		assert.Equal(t, "black", s.Fill)
		assert.Equal(t, "none", s.Stroke)
		assert.Equal(t, "1", s.FillOpacity, "single step traces at full opacity")
		assert.NotEmpty(t, s.D)
	}
}

func TestTraceTierOpacities(t *testing.T) {
	// Three gray bands spanning the threshold range so every tier
	// has ink.
	img := image.NewNRGBA(image.Rect(0, 0, 30, 30))
	bands := []uint8{30, 110, 180}
	for y := 0; y < 30; y++ {
		for x := 0; x < 30; x++ {
			v := bands[x/10]
			img.SetNRGBA(x, y, color.NRGBA{R: v, G: v, B: v, A: 255})
		}
	}

	doc, err := Trace(img, 3, 0.2)
	require.NoError(t, err)

	seen := map[string]bool{}
	for _, s := range doc.Shapes {
		seen[s.FillOpacity] = true
	}
	// Tiers light to dark: 1/3, 1/2, 1.
	assert.True(t, seen["0.333"], "lightest tier present")
	assert.True(t, seen["0.5"], "middle tier present")
	assert.True(t, seen["1"], "darkest tier present")
}

func TestTraceStepClamped(t *testing.T) {
	doc, err := Trace(glyph(20, 20), 0, 0.2)
	require.NoError(t, err)
	for _, s := range doc.Shapes {
		assert.Equal(t, "1", s.FillOpacity)
	}
}
