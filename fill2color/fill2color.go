// Package fill2color swaps the resolver's synthetic grays for colors
// the source image actually contains. The resolved markup is rendered
// back into pixels; each pixel votes for its nearest candidate color,
// and the source pixels behind those votes are quantized down to one
// representative per candidate.
package fill2color

import (
	"fmt"
	"image"
	"sort"
	"strings"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"

	"img2svg/markup"
	"img2svg/raster"
	i2stypes "img2svg/type"
)

// QuantizeBins is how many median-cut bins each candidate's gathered
// color set reduces to before picking the dominant one.
const QuantizeBins = 5

// Remap replaces each candidate fill color in doc with the dominant
// source color of the region it covers. Skipped entirely for
// single-channel sources, which carry no color to recover. The source
// raster must match the document's pixel dimensions.
func Remap(doc *markup.Document, src *raster.Pixels) (*markup.Document, error) {
	if src.Gray {
		return doc, nil
	}
	candidates := doc.FillColors()
	if len(candidates) == 0 {
		return doc, nil
	}
	if src.Width != doc.Width || src.Height != doc.Height {
		return nil, fmt.Errorf("fill2color: raster %dx%d does not match markup %dx%d",
			src.Width, src.Height, doc.Width, doc.Height)
	}

	palette := make([]i2stypes.Pixel, len(candidates))
	for i, hex := range candidates {
		c, err := i2stypes.FromHex(hex)
		if err != nil {
			return nil, fmt.Errorf("fill2color: candidate %q: %w", hex, err)
		}
		r, g, b := c.RGB255()
		palette[i] = i2stypes.Pixel{R: int(r), G: int(g), B: int(b)}
	}

	rendered, err := renderMarkup(doc)
	if err != nil {
		return nil, err
	}

	// 按最近颜色归类像素
	gathered := make([][]i2stypes.Pixel, len(candidates))
	for i := 0; i < rendered.Len(); i++ {
		c := rendered.At(i)
		r, g, b := c.RGB255()
		idx := nearest(palette, int(r), int(g), int(b))
		s := src.At(i)
		sr, sg, sb := s.RGB255()
		gathered[idx] = append(gathered[idx], i2stypes.Pixel{R: int(sr), G: int(sg), B: int(sb)})
	}

	replacements := make(map[string]string, len(candidates))
	for i, hex := range candidates {
		if len(gathered[i]) == 0 {
			// Nothing rendered near this candidate; leave it be.
			continue
		}
		rep := DominantColor(gathered[i], QuantizeBins)
		replacements[hex] = rep.Hex()
	}

	out := &markup.Document{Width: doc.Width, Height: doc.Height}
	for _, s := range doc.Shapes {
		if rep, ok := replacements[s.Fill]; ok {
			s.Fill = rep
			if s.Stroke != "" && s.Stroke != "none" {
				s.Stroke = rep
			}
		}
		out.Shapes = append(out.Shapes, s)
	}
	return out, nil
}

// renderMarkup rasterizes the document at its own pixel size.
func renderMarkup(doc *markup.Document) (*raster.Pixels, error) {
	icon, err := oksvg.ReadIconStream(strings.NewReader(doc.String()))
	if err != nil {
		return nil, fmt.Errorf("fill2color: read markup: %w", err)
	}
	w, h := doc.Width, doc.Height
	icon.SetTarget(0, 0, float64(w), float64(h))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	// White backdrop so uncovered pixels classify like the final
	// rendering, not as transparent black.
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	scanner := rasterx.NewScannerGV(w, h, img, img.Bounds())
	icon.Draw(rasterx.NewDasher(w, h, scanner), 1.0)
	return raster.FromImage(img), nil
}

// nearest 找最近颜色
func nearest(palette []i2stypes.Pixel, r, g, b int) int {
	bestIdx := 0
	bestDist := 1 << 30
	for i, p := range palette {
		dr := r - p.R
		dg := g - p.G
		db := b - p.B
		dist := dr*dr + dg*dg + db*db
		if dist < bestDist {
			bestDist = dist
			bestIdx = i
		}
	}
	return bestIdx
}

// DominantColor median-cut quantizes pixels into at most bins boxes
// and returns the most populous box's average color. Splitting order
// and ties are stable, so the result is deterministic for identical
// input multisets.
func DominantColor(pixels []i2stypes.Pixel, bins int) i2stypes.Color {
	if len(pixels) == 0 {
		return i2stypes.FromRGB255(0, 0, 0)
	}
	boxes := medianCut(pixels, bins)

	best := boxes[0]
	for _, b := range boxes[1:] {
		if len(b.Pixels) > len(best.Pixels) {
			best = b
		}
	}
	var rSum, gSum, bSum int
	for _, p := range best.Pixels {
		rSum += p.R
		gSum += p.G
		bSum += p.B
	}
	n := len(best.Pixels)
	return i2stypes.FromRGB255(uint8(rSum/n), uint8(gSum/n), uint8(bSum/n))
}

// 计算盒子范围
func calculateBoxRange(box *i2stypes.Box) {
	if len(box.Pixels) == 0 {
		return
	}

	box.RMin, box.RMax = 255, 0
	box.GMin, box.GMax = 255, 0
	box.BMin, box.BMax = 255, 0

	for _, p := range box.Pixels {
		if p.R < box.RMin {
			box.RMin = p.R
		}
		if p.R > box.RMax {
			box.RMax = p.R
		}
		if p.G < box.GMin {
			box.GMin = p.G
		}
		if p.G > box.GMax {
			box.GMax = p.G
		}
		if p.B < box.BMin {
			box.BMin = p.B
		}
		if p.B > box.BMax {
			box.BMax = p.B
		}
	}
}

// medianCut 执行中位切分颜色量化
func medianCut(pixels []i2stypes.Pixel, bins int) []*i2stypes.Box {
	initial := &i2stypes.Box{Pixels: append([]i2stypes.Pixel{}, pixels...)}
	calculateBoxRange(initial)
	boxes := []*i2stypes.Box{initial}

	for len(boxes) < bins && len(boxes) < len(pixels) {
		// 找到范围最大的盒子
		var boxToSplit *i2stypes.Box
		maxRange := 0
		for _, box := range boxes {
			if len(box.Pixels) < 2 {
				continue
			}
			rangeMax := max(box.RMax-box.RMin, box.GMax-box.GMin, box.BMax-box.BMin)
			if rangeMax > maxRange {
				maxRange = rangeMax
				boxToSplit = box
			}
		}
		if boxToSplit == nil {
			break
		}

		// 选择分割通道
		rRange := boxToSplit.RMax - boxToSplit.RMin
		gRange := boxToSplit.GMax - boxToSplit.GMin
		bRange := boxToSplit.BMax - boxToSplit.BMin

		sort.SliceStable(boxToSplit.Pixels, func(i, j int) bool {
			a, b := boxToSplit.Pixels[i], boxToSplit.Pixels[j]
			switch {
			case rRange >= gRange && rRange >= bRange:
				return a.R < b.R
			case gRange >= rRange && gRange >= bRange:
				return a.G < b.G
			default:
				return a.B < b.B
			}
		})

		// 分成两半
		median := len(boxToSplit.Pixels) / 2
		box1 := &i2stypes.Box{Pixels: append([]i2stypes.Pixel{}, boxToSplit.Pixels[:median]...)}
		box2 := &i2stypes.Box{Pixels: append([]i2stypes.Pixel{}, boxToSplit.Pixels[median:]...)}
		calculateBoxRange(box1)
		calculateBoxRange(box2)

		for i, b := range boxes {
			if b == boxToSplit {
				boxes = append(boxes[:i], append([]*i2stypes.Box{box1, box2}, boxes[i+1:]...)...)
				break
			}
		}
	}
	return boxes
}
