// Package img2palette samples a small dominant palette from a source
// image. The palette order is the sampling method's own significance
// order and is treated as stable input by every consumer.
package img2palette

import (
	"errors"
	"image"
	"math"
	"sort"

	"github.com/cenkalti/dominantcolor"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"

	i2stypes "img2svg/type"
)

// PaletteSize is the fixed sample count the pipeline expects. Fewer
// colors are legal when the image genuinely has fewer; downstream
// degrades instead of failing.
const PaletteSize = 5

type Method int

const (
	MethodDominant Method = iota
	MethodKMeans
)

func (m Method) String() string {
	switch m {
	case MethodKMeans:
		return "kmeans"
	default:
		return "dominant"
	}
}

// ParseMethod maps a flag value to a Method.
func ParseMethod(s string) (Method, error) {
	switch s {
	case "", "dominant":
		return MethodDominant, nil
	case "kmeans":
		return MethodKMeans, nil
	}
	return 0, errors.New("img2palette: unknown palette method " + s)
}

// Sample returns up to PaletteSize dominant colors of img in
// significance order.
func Sample(img image.Image, method Method) (i2stypes.Palette, error) {
	switch method {
	case MethodKMeans:
		p, err := sampleKMeans(img)
		if err == nil && len(p) > 0 {
			return p, nil
		}
		// kmeans can come up empty on tiny or flat images.
		return sampleDominant(img)
	default:
		return sampleDominant(img)
	}
}

func sampleDominant(img image.Image) (i2stypes.Palette, error) {
	candidates := dominantcolor.FindWeight(img, PaletteSize*4)
	if len(candidates) == 0 {
		return nil, errors.New("img2palette: no dominant colors found")
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Weight > candidates[j].Weight
	})
	if len(candidates) > PaletteSize {
		candidates = candidates[:PaletteSize]
	}
	out := make(i2stypes.Palette, 0, len(candidates))
	for _, c := range candidates {
		col, _ := colorful.MakeColor(c.RGBA)
		out = append(out, i2stypes.FromColorful(col))
	}
	return out, nil
}

func sampleKMeans(img image.Image) (i2stypes.Palette, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return nil, errors.New("img2palette: empty image")
	}

	// Subsample to keep kmeans tractable on large images.
	maxSamples := 12000
	step := 1
	if w*h > maxSamples {
		step = int(math.Sqrt(float64(w*h)/float64(maxSamples))) + 1
	}

	dataset := make(clusters.Observations, 0, min(w*h, maxSamples))
	for y := b.Min.Y; y < b.Max.Y; y += step {
		for x := b.Min.X; x < b.Max.X; x += step {
			r16, g16, b16, a16 := img.At(x, y).RGBA()
			if a16 == 0 {
				continue
			}
			// Low alpha composites over white before sampling,
			// matching how the traced output is rendered.
			a := float64(a16) / 65535.0
			dataset = append(dataset, clusters.Coordinates{
				overWhite(float64(r16)/65535.0, a),
				overWhite(float64(g16)/65535.0, a),
				overWhite(float64(b16)/65535.0, a),
			})
		}
	}
	if len(dataset) == 0 {
		return nil, errors.New("img2palette: no opaque pixels")
	}

	workK := min(PaletteSize*2, len(dataset))
	km := kmeans.New()
	cc, err := km.Partition(dataset, workK)
	if err != nil || len(cc) == 0 {
		return nil, errors.New("img2palette: kmeans partition failed")
	}

	// Population order so dominant colors come first.
	sort.SliceStable(cc, func(i, j int) bool {
		return len(cc[i].Observations) > len(cc[j].Observations)
	})
	out := make(i2stypes.Palette, 0, PaletteSize)
	for _, c := range cc {
		if len(c.Center) < 3 || len(c.Observations) == 0 {
			continue
		}
		col := colorful.Color{R: c.Center[0], G: c.Center[1], B: c.Center[2]}
		out = append(out, i2stypes.FromColorful(col))
		if len(out) == PaletteSize {
			break
		}
	}
	return out, nil
}

// overWhite is source-over against a white backdrop; v is the
// alpha-premultiplied channel RGBA() hands back.
func overWhite(v, a float64) float64 {
	return v + (1 - a)
}
