// Package img2layers drives the external tracer. Each posterization
// step thresholds the source into a black-ink mask, traces it, and
// lands in the output document as one fill-opacity tier.
package img2layers

import (
	"bytes"
	"fmt"
	"image"
	"math"
	"strconv"

	"github.com/gotranspile/gotrace"

	"img2svg/markup"
	"img2svg/raster"
)

// Tier opacities are chosen so that stacking the light tiers under a
// darker one yields composited opacity k/N: tier k of N (light to
// dark) carries opacity 1/(N-k+1), the darkest tier exactly 1.

// Trace converts an image into layered vector markup with steps
// opacity tiers. Tiers appear in light-to-dark document order, so the
// most opaque tier is topmost. Tracer errors propagate unchanged;
// tracing is deterministic, retrying cannot help.
func Trace(img image.Image, steps int, optTolerance float64) (*markup.Document, error) {
	if steps < 1 {
		steps = 1
	}
	px := raster.FromImage(img)
	doc := &markup.Document{Width: px.Width, Height: px.Height}

	params := &gotrace.Config{
		TurdSize:     2,
		TurnPolicy:   gotrace.TurnMinority,
		AlphaMax:     1.0,
		OptiCurve:    true,
		OptTolerance: optTolerance,
	}

	for k := 1; k <= steps; k++ {
		threshold := 255.0 * float64(steps-k+1) / float64(steps+1)
		mask := inkMask(px, threshold)
		shapes, err := traceMask(mask, params)
		if err != nil {
			return nil, fmt.Errorf("img2layers: trace step %d/%d: %w", k, steps, err)
		}
		opacity := formatOpacity(1.0 / float64(steps-k+1))
		for _, s := range shapes {
			s.Fill = "black"
			s.Stroke = "none"
			s.FillOpacity = opacity
			doc.Shapes = append(doc.Shapes, s)
		}
	}
	return doc, nil
}

// inkMask marks every pixel darker than the luminance threshold as
// ink (black); the rest stays white.
func inkMask(px *raster.Pixels, threshold float64) *image.Gray {
	mask := image.NewGray(image.Rect(0, 0, px.Width, px.Height))
	for i := 0; i < px.Len(); i++ {
		if px.Luminance(i) < threshold {
			mask.Pix[i] = 0
		} else {
			mask.Pix[i] = 255
		}
	}
	return mask
}

// traceMask runs gotrace on one mask and pulls the traced geometry
// out of its rendered output.
func traceMask(mask *image.Gray, params *gotrace.Config) ([]markup.Shape, error) {
	bm := gotrace.BitmapFromGray(mask, nil)
	paths, err := gotrace.Trace(bm, params)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	sz := mask.Bounds().Size()
	if err := gotrace.Render("svg", nil, &buf, paths, sz.X, sz.Y); err != nil {
		return nil, err
	}

	doc, err := markup.Parse(buf.String())
	if err != nil {
		return nil, err
	}
	shapes := make([]markup.Shape, 0, len(doc.Shapes))
	for _, s := range doc.Shapes {
		shapes = append(shapes, markup.Shape{D: s.D, Transform: s.Transform})
	}
	return shapes, nil
}

func formatOpacity(o float64) string {
	// Round to a short stable literal so identical tiers compare
	// equal as attribute text.
	return strconv.FormatFloat(math.Round(o*1000)/1000, 'f', -1, 64)
}
