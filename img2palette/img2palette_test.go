package img2palette

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quadImage() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 40, 40))
	cols := []color.NRGBA{
		{R: 40, G: 40, B: 120, A: 255},
		{R: 120, G: 60, B: 60, A: 255},
		{R: 60, G: 180, B: 120, A: 255},
		{R: 220, G: 170, B: 60, A: 255},
	}
	for y := 0; y < 40; y++ {
		for x := 0; x < 40; x++ {
			img.SetNRGBA(x, y, cols[(y/20)*2+x/20])
		}
	}
	return img
}

func TestSampleDominant(t *testing.T) {
	p, err := Sample(quadImage(), MethodDominant)
	require.NoError(t, err)
	require.NotEmpty(t, p)
	assert.LessOrEqual(t, len(p), PaletteSize)
	for _, c := range p {
		assert.Len(t, c.Hex(), 7)
		assert.Equal(t, 1.0, c.Alpha)
	}
}

func TestSampleKMeans(t *testing.T) {
	p, err := Sample(quadImage(), MethodKMeans)
	require.NoError(t, err)
	require.NotEmpty(t, p)
	assert.LessOrEqual(t, len(p), PaletteSize)
}

func TestSampleFlatImage(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 10, G: 200, B: 10, A: 255})
		}
	}
	p, err := Sample(img, MethodDominant)
	require.NoError(t, err)
	require.NotEmpty(t, p)
	r, g, b := p[0].RGB255()
	assert.InDelta(t, 10, int(r), 12)
	assert.InDelta(t, 200, int(g), 12)
	assert.InDelta(t, 10, int(b), 12)
}

func TestParseMethod(t *testing.T) {
	tests := []struct {
		in   string
		want Method
		ok   bool
	}{
		{"", MethodDominant, true},
		{"dominant", MethodDominant, true},
		{"kmeans", MethodKMeans, true},
		{"octree", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			m, err := ParseMethod(tt.in)
			if !tt.ok {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, m)
		})
	}
}
